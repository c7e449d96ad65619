package notes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skuboard/skuboard/internal/platform/httpx"
	"github.com/skuboard/skuboard/internal/snapshot"
)

type stubProvider struct {
	snap  *snapshot.Snapshot
	err   error
	modes []snapshot.Mode
}

func (p *stubProvider) Snapshot(_ context.Context, mode snapshot.Mode) (*snapshot.Snapshot, error) {
	p.modes = append(p.modes, mode)
	return p.snap, p.err
}

type stubWriter struct {
	last  NoteInput
	calls int
	note  Note
	err   error
}

func (w *stubWriter) SaveNote(_ context.Context, in NoteInput) (Note, error) {
	w.calls++
	w.last = in
	if w.err != nil {
		return Note{}, w.err
	}
	note := w.note
	note.ProductCode = in.ProductCode
	return note, nil
}

type stubInvalidator struct {
	calls int
	err   error
}

func (s *stubInvalidator) Invalidate(context.Context) error {
	s.calls++
	return s.err
}

type stubRefresher struct {
	reasons []string
	err     error
}

func (s *stubRefresher) EnqueueSnapshotRefresh(_ context.Context, reason string) error {
	s.reasons = append(s.reasons, reason)
	return s.err
}

func strPtr(s string) *string { return &s }

func TestServiceGetReadsFreshSnapshot(t *testing.T) {
	provider := &stubProvider{snap: &snapshot.Snapshot{
		GeneratedAt: "2025-06-01T00:00:00Z",
		Notes: []snapshot.Row{
			{"product_code": "P-1 ", "rating": "B", "memo": "check price", "updated_at": "2025-05-31"},
			{"product_code": "P-1", "rating": "E"},
		},
	}}
	svc := NewService(ServiceConfig{Provider: provider})

	view, err := svc.Get(context.Background(), "P-1")
	require.NoError(t, err)
	assert.Equal(t, []snapshot.Mode{snapshot.ModeNoStore}, provider.modes)
	assert.Equal(t, ratingPtr(snapshot.RatingB), view.Rating)
	assert.Equal(t, "check price", view.Memo)
	require.NotNil(t, view.UpdatedAt)
	assert.Equal(t, "2025-05-31", *view.UpdatedAt)
	assert.Equal(t, "2025-06-01T00:00:00Z", view.GeneratedAt)

	view, err = svc.Get(context.Background(), "P-9")
	require.NoError(t, err)
	assert.Equal(t, NoteView{ProductCode: "P-9", GeneratedAt: "2025-06-01T00:00:00Z"}, view)

	_, err = svc.Get(context.Background(), "")
	assert.True(t, errors.Is(err, httpx.ErrBadRequest))
}

func TestServiceSaveWritesAndInvalidates(t *testing.T) {
	writer := &stubWriter{}
	inv := &stubInvalidator{}
	refresher := &stubRefresher{}
	svc := NewService(ServiceConfig{Writer: writer, Invalidator: inv, Refresher: refresher})

	_, err := svc.Save(context.Background(), SaveRequest{
		ProductCode: " P-1 ",
		Rating:      strPtr(" A "),
		Memo:        strPtr("<b>restock</b> soon & <script>alert(1)</script>"),
	})
	require.NoError(t, err)

	assert.Equal(t, "P-1", writer.last.ProductCode)
	assert.Equal(t, ratingPtr(snapshot.RatingA), writer.last.Rating)
	assert.Equal(t, "restock soon &", writer.last.Memo)
	assert.Equal(t, 1, inv.calls)
	assert.Equal(t, []string{"note:P-1"}, refresher.reasons)
}

func TestServiceSaveBlankRatingClearsIt(t *testing.T) {
	writer := &stubWriter{}
	svc := NewService(ServiceConfig{Writer: writer})

	_, err := svc.Save(context.Background(), SaveRequest{ProductCode: "P-1", Rating: strPtr("  ")})
	require.NoError(t, err)
	assert.Nil(t, writer.last.Rating)
	assert.Empty(t, writer.last.Memo)
}

func TestServiceSaveValidation(t *testing.T) {
	writer := &stubWriter{}
	svc := NewService(ServiceConfig{Writer: writer})

	_, err := svc.Save(context.Background(), SaveRequest{ProductCode: "  "})
	assert.True(t, errors.Is(err, httpx.ErrBadRequest))

	_, err = svc.Save(context.Background(), SaveRequest{ProductCode: "P-1", Rating: strPtr("Z")})
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	assert.Zero(t, writer.calls)
}

func TestServiceSaveSurfacesWriteErrors(t *testing.T) {
	writeErr := &WriteError{Message: "invalid token", Status: 403}
	inv := &stubInvalidator{}
	svc := NewService(ServiceConfig{Writer: &stubWriter{err: writeErr}, Invalidator: inv})

	_, err := svc.Save(context.Background(), SaveRequest{ProductCode: "P-1"})
	require.Error(t, err)
	assert.Equal(t, "invalid token", err.Error())
	assert.True(t, errors.Is(err, httpx.ErrWrite))
	assert.Zero(t, inv.calls, "nothing is invalidated when the write fails")
}

func TestServiceSaveIgnoresCacheFailures(t *testing.T) {
	svc := NewService(ServiceConfig{
		Writer:      &stubWriter{},
		Invalidator: &stubInvalidator{err: errors.New("redis down")},
		Refresher:   &stubRefresher{err: errors.New("queue down")},
	})
	note, err := svc.Save(context.Background(), SaveRequest{ProductCode: "P-1"})
	require.NoError(t, err)
	assert.Equal(t, "P-1", note.ProductCode)
}
