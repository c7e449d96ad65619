package notes

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/skuboard/skuboard/internal/platform/httpx"
	"github.com/skuboard/skuboard/internal/snapshot"
)

// NoteView is the note as read from the freshest snapshot.
type NoteView struct {
	ProductCode string           `json:"product_code"`
	Rating      *snapshot.Rating `json:"rating"`
	Memo        string           `json:"memo"`
	UpdatedAt   *string          `json:"updated_at"`
	GeneratedAt string           `json:"generated_at"`
}

// SaveRequest is the note write request body.
type SaveRequest struct {
	ProductCode string  `json:"product_code" validate:"required"`
	Rating      *string `json:"rating" validate:"omitempty,oneof=S A B C D E"`
	Memo        *string `json:"memo" validate:"omitempty,max=10000"`
}

// Invalidator drops cached snapshots.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// RefreshEnqueuer schedules a background snapshot reload.
type RefreshEnqueuer interface {
	EnqueueSnapshotRefresh(ctx context.Context, reason string) error
}

// Service coordinates note reads and writes.
type Service struct {
	provider    snapshot.Provider
	writer      Writer
	invalidator Invalidator
	refresher   RefreshEnqueuer
	validate    *validator.Validate
	policy      *bluemonday.Policy
	logger      *slog.Logger
}

// ServiceConfig collects the Service dependencies. Invalidator and Refresher
// are optional.
type ServiceConfig struct {
	Provider    snapshot.Provider
	Writer      Writer
	Invalidator Invalidator
	Refresher   RefreshEnqueuer
	Logger      *slog.Logger
}

// NewService constructs a notes Service.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider:    cfg.Provider,
		writer:      cfg.Writer,
		invalidator: cfg.Invalidator,
		refresher:   cfg.Refresher,
		validate:    validator.New(),
		policy:      bluemonday.StrictPolicy(),
		logger:      logger,
	}
}

// Get reads the product's note, bypassing snapshot caches so that a write is
// visible as soon as the upstream export lands.
func (s *Service) Get(ctx context.Context, productCode string) (NoteView, error) {
	if strings.TrimSpace(productCode) == "" {
		return NoteView{}, fmt.Errorf("product_code is required: %w", httpx.ErrBadRequest)
	}
	snap, err := s.provider.Snapshot(ctx, snapshot.ModeNoStore)
	if err != nil {
		return NoteView{}, err
	}
	view := NoteView{ProductCode: productCode, GeneratedAt: snap.GeneratedAt}
	if note, ok := snap.FindNote(productCode); ok {
		view.Rating = snapshot.ParseRating(note["rating"])
		view.Memo = snapshot.AsString(note["memo"])
		view.UpdatedAt = optionalString(note["updated_at"])
	}
	return view, nil
}

// Save validates and writes the note, then invalidates cached snapshots.
// Cache and refresh failures are logged only; the write already succeeded.
func (s *Service) Save(ctx context.Context, req SaveRequest) (Note, error) {
	in, err := s.normalize(req)
	if err != nil {
		return Note{}, err
	}
	note, err := s.writer.SaveNote(ctx, in)
	if err != nil {
		return Note{}, err
	}

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx); err != nil {
			s.logger.Warn("snapshot invalidate after note save", slog.String("product_code", in.ProductCode), slog.Any("error", err))
		}
	}
	if s.refresher != nil {
		if err := s.refresher.EnqueueSnapshotRefresh(ctx, "note:"+in.ProductCode); err != nil {
			s.logger.Warn("enqueue snapshot refresh", slog.String("product_code", in.ProductCode), slog.Any("error", err))
		}
	}
	s.logger.Info("note saved", slog.String("product_code", in.ProductCode))
	return note, nil
}

func (s *Service) normalize(req SaveRequest) (NoteInput, error) {
	req.ProductCode = strings.TrimSpace(req.ProductCode)
	if req.Rating != nil {
		trimmed := strings.TrimSpace(*req.Rating)
		if trimmed == "" {
			req.Rating = nil
		} else {
			req.Rating = &trimmed
		}
	}
	if err := s.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			switch fieldErrs[0].Field() {
			case "ProductCode":
				return NoteInput{}, fmt.Errorf("product_code is required: %w", httpx.ErrBadRequest)
			case "Rating":
				return NoteInput{}, fmt.Errorf("rating must be one of S, A, B, C, D, E: %w", httpx.ErrValidation)
			case "Memo":
				return NoteInput{}, fmt.Errorf("memo is too long: %w", httpx.ErrValidation)
			}
		}
		return NoteInput{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}

	in := NoteInput{ProductCode: req.ProductCode}
	if req.Rating != nil {
		in.Rating = snapshot.ParseRating(*req.Rating)
	}
	if req.Memo != nil {
		in.Memo = s.plainText(*req.Memo)
	}
	return in, nil
}

// plainText strips markup from a memo. Entities escaped by the policy are
// decoded again since memos are stored as plain text.
func (s *Service) plainText(memo string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(memo)))
}
