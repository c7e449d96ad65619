package noteshttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skuboard/skuboard/internal/notes"
	"github.com/skuboard/skuboard/internal/platform/httpx"
	"github.com/skuboard/skuboard/internal/snapshot"
)

type stubProvider struct {
	snap *snapshot.Snapshot
}

func (p stubProvider) Snapshot(context.Context, snapshot.Mode) (*snapshot.Snapshot, error) {
	return p.snap, nil
}

type stubWriter struct {
	err  error
	last notes.NoteInput
}

func (w *stubWriter) SaveNote(_ context.Context, in notes.NoteInput) (notes.Note, error) {
	w.last = in
	if w.err != nil {
		return notes.Note{}, w.err
	}
	updated := "2025-06-01T12:00:00Z"
	return notes.Note{ProductCode: in.ProductCode, Rating: in.Rating, Memo: in.Memo, UpdatedAt: &updated}, nil
}

func newRouter(writer notes.Writer) http.Handler {
	svc := notes.NewService(notes.ServiceConfig{
		Provider: stubProvider{snap: &snapshot.Snapshot{
			GeneratedAt: "2025-06-01T00:00:00Z",
			Notes:       []snapshot.Row{{"product_code": "P-1", "rating": "S", "memo": "hero item", "updated_at": "2025-05-30"}},
		}},
		Writer: writer,
	})
	r := chi.NewRouter()
	r.Route("/api", NewHandler(nil, svc).MountRoutes)
	return r
}

func TestGetNote(t *testing.T) {
	router := newRouter(&stubWriter{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notes?product_code=P-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"product_code":"P-1","rating":"S","memo":"hero item","updated_at":"2025-05-30","generated_at":"2025-06-01T00:00:00Z"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notes?product_code=P-2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"product_code":"P-2","rating":null,"memo":"","updated_at":null,"generated_at":"2025-06-01T00:00:00Z"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notes", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveNote(t *testing.T) {
	writer := &stubWriter{}
	router := newRouter(writer)

	req := httptest.NewRequest(http.MethodPost, "/api/notes", strings.NewReader(`{"product_code":"P-1","rating":"B","memo":"<i>check</i> price"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var note notes.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &note))
	assert.Equal(t, "P-1", note.ProductCode)
	require.NotNil(t, note.Rating)
	assert.Equal(t, snapshot.RatingB, *note.Rating)
	assert.Equal(t, "check price", writer.last.Memo)
}

func TestSaveNoteErrors(t *testing.T) {
	cases := []struct {
		name   string
		writer *stubWriter
		body   string
		status int
		detail string
	}{
		{"missing product code", &stubWriter{}, `{"rating":"A"}`, http.StatusBadRequest, ""},
		{"invalid body", &stubWriter{}, `[`, http.StatusBadRequest, ""},
		{"invalid rating", &stubWriter{}, `{"product_code":"P-1","rating":"Z"}`, http.StatusUnprocessableEntity, ""},
		{"upstream message", &stubWriter{err: &notes.WriteError{Message: "invalid token", Status: 403}}, `{"product_code":"P-1"}`, http.StatusBadGateway, "invalid token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newRouter(tc.writer)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notes", strings.NewReader(tc.body)))
			require.Equal(t, tc.status, rec.Code)
			if tc.detail != "" {
				var problem httpx.ProblemDetail
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
				assert.Equal(t, tc.detail, problem.Detail)
			}
		})
	}
}

func TestSaveNoteNotConfigured(t *testing.T) {
	router := newRouter(notes.NewWebAppWriter("", "", 0))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notes", strings.NewReader(`{"product_code":"P-1"}`)))
	require.Equal(t, http.StatusNotImplemented, rec.Code)
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "NOTES_WEBAPP_URL / NOTES_WEBAPP_TOKEN is not configured", problem.Detail)
}
