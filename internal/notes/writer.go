// Package notes reads and writes the per-product rating and memo.
package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/skuboard/skuboard/internal/platform/httpx"
	"github.com/skuboard/skuboard/internal/snapshot"
)

// Note is the stored note for one product.
type Note struct {
	ProductCode string           `json:"product_code"`
	Rating      *snapshot.Rating `json:"rating"`
	Memo        string           `json:"memo"`
	UpdatedAt   *string          `json:"updated_at"`
}

// NoteInput is a note write.
type NoteInput struct {
	ProductCode string
	Rating      *snapshot.Rating
	Memo        string
}

// Writer persists notes upstream.
type Writer interface {
	SaveNote(ctx context.Context, in NoteInput) (Note, error)
}

// WriteError is a failed note write. Message is surfaced to clients verbatim.
type WriteError struct {
	Message       string
	Status        int
	notConfigured bool
}

func (e *WriteError) Error() string { return e.Message }

func (e *WriteError) Unwrap() []error {
	if e.notConfigured {
		return []error{httpx.ErrWrite, httpx.ErrNotConfigured}
	}
	return []error{httpx.ErrWrite}
}

const tokenHeader = "x-webapp-token"

// WebAppWriter posts notes to the spreadsheet web app, which also re-exports
// the snapshot after each write.
type WebAppWriter struct {
	url        string
	token      string
	httpClient *http.Client
	newID      func() string
}

// NewWebAppWriter constructs a writer for the given endpoint.
func NewWebAppWriter(url, token string, timeout time.Duration) *WebAppWriter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebAppWriter{
		url:        strings.TrimSpace(url),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: timeout},
		newID:      func() string { return uuid.NewString() },
	}
}

// Configured reports whether both the endpoint and token are set.
func (w *WebAppWriter) Configured() bool {
	return w != nil && w.url != "" && w.token != ""
}

type saveNotePayload struct {
	Action         string           `json:"action"`
	ProductCode    string           `json:"product_code"`
	Rating         *snapshot.Rating `json:"rating"`
	Memo           string           `json:"memo"`
	ExportSnapshot bool             `json:"export_snapshot"`
}

type saveNoteResponse struct {
	ProductCode string `json:"product_code"`
	Rating      any    `json:"rating"`
	Memo        any    `json:"memo"`
	UpdatedAt   any    `json:"updated_at"`
	Error       string `json:"error"`
}

// SaveNote writes the note and returns the stored copy.
func (w *WebAppWriter) SaveNote(ctx context.Context, in NoteInput) (Note, error) {
	if !w.Configured() {
		return Note{}, &WriteError{
			Message:       "NOTES_WEBAPP_URL / NOTES_WEBAPP_TOKEN is not configured",
			Status:        http.StatusNotImplemented,
			notConfigured: true,
		}
	}
	body, err := json.Marshal(saveNotePayload{
		Action:         "saveNote",
		ProductCode:    in.ProductCode,
		Rating:         in.Rating,
		Memo:           in.Memo,
		ExportSnapshot: true,
	})
	if err != nil {
		return Note{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return Note{}, &WriteError{Message: fmt.Sprintf("notes write failed: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(tokenHeader, w.token)
	req.Header.Set("X-Request-Id", w.newID())

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return Note{}, &WriteError{Message: fmt.Sprintf("notes write failed: %v", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var data saveNoteResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	decodeErr := json.Unmarshal(raw, &data)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(data.Error)
		if decodeErr != nil || msg == "" {
			msg = fmt.Sprintf("notes write failed: %d", resp.StatusCode)
		}
		return Note{}, &WriteError{Message: msg, Status: resp.StatusCode}
	}
	if decodeErr != nil {
		return Note{}, &WriteError{Message: fmt.Sprintf("notes write failed: malformed response: %v", decodeErr), Status: resp.StatusCode}
	}
	if msg := strings.TrimSpace(data.Error); msg != "" {
		return Note{}, &WriteError{Message: msg, Status: resp.StatusCode}
	}

	note := Note{
		ProductCode: data.ProductCode,
		Rating:      snapshot.ParseRating(data.Rating),
		Memo:        snapshot.AsString(data.Memo),
		UpdatedAt:   optionalString(data.UpdatedAt),
	}
	if note.ProductCode == "" {
		note.ProductCode = in.ProductCode
	}
	return note, nil
}

func optionalString(v any) *string {
	s := snapshot.AsString(v)
	if s == "" {
		return nil
	}
	return &s
}
