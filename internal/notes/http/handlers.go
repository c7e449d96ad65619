package noteshttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/skuboard/skuboard/internal/auth"
	"github.com/skuboard/skuboard/internal/notes"
	"github.com/skuboard/skuboard/internal/platform/httpx"
)

// NotesService defines the note operations used by the handler.
type NotesService interface {
	Get(ctx context.Context, productCode string) (notes.NoteView, error)
	Save(ctx context.Context, req notes.SaveRequest) (notes.Note, error)
}

// Handler serves GET and POST /notes.
type Handler struct {
	logger  *slog.Logger
	service NotesService
}

// NewHandler constructs the notes HTTP handler.
func NewHandler(logger *slog.Logger, service NotesService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the note endpoints. Writes are rate limited per user.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(30, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "")
		}),
	)
	r.Get("/notes", h.handleGet)
	r.With(limiter).Post("/notes", h.handleSave)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), r.URL.Query().Get("product_code"))
	if err != nil {
		h.respondError(w, "get note", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	var req notes.SaveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "product_code is required")
		return
	}
	note, err := h.service.Save(r.Context(), req)
	if err != nil {
		h.respondError(w, "save note", err)
		return
	}
	h.logger.Info("note updated", slog.String("product_code", note.ProductCode), slog.String("user", auth.EmailFromContext(r.Context())))
	httpx.JSON(w, http.StatusOK, note)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	status := httpx.StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Int("status", status), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func rateLimitKey(r *http.Request) (string, error) {
	if email := auth.EmailFromContext(r.Context()); email != "" {
		return "user:" + email, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
