package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpos/internal/infra"
	"tillpos/internal/model"
	"tillpos/internal/storage"
	"tillpos/internal/syncer"
)

type stubExporter struct {
	calls    int
	failures int // fail this many calls before succeeding
	got      []syncer.ExportDocument
}

func (s *stubExporter) Export(_ context.Context, doc syncer.ExportDocument) error {
	s.calls++
	s.got = append(s.got, doc)
	if s.calls <= s.failures {
		return errors.New("remote unavailable")
	}
	return nil
}

func newTestWorker(t *testing.T, exporter infra.Exporter, retries int) (*SyncWorker, *syncer.Coordinator, *storage.Store) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	coord := syncer.NewCoordinator(store)
	breaker := infra.NewCircuitBreaker(5, 2, time.Minute)
	w := NewSyncWorker(coord, exporter, breaker, time.Minute, retries)
	w.backoff = time.Millisecond
	return w, coord, store
}

func seedSale(t *testing.T, store *storage.Store, date time.Time) {
	t.Helper()
	ctx := context.Background()
	err := store.Update(ctx, func(tx *storage.Tx) error {
		sales := []model.CompletedOrder{{ID: "s1", Date: date, PaymentMethod: model.PaymentQR}}
		return storage.ReplaceAll(ctx, tx, storage.SalesHistory, sales)
	})
	require.NoError(t, err)
}

func TestSyncOnceCommitsAfterExport(t *testing.T) {
	exporter := &stubExporter{}
	w, coord, store := newTestWorker(t, exporter, 3)
	ctx := context.Background()

	seedSale(t, store, time.Now().UTC())

	require.NoError(t, w.SyncOnce(ctx))
	assert.Equal(t, 1, exporter.calls)
	require.Len(t, exporter.got, 1)
	assert.Len(t, exporter.got[0].Sales, 1)

	mark, err := coord.Watermark(ctx)
	require.NoError(t, err)
	assert.True(t, mark.Equal(exporter.got[0].SyncTimestamp))

	// Everything below the watermark is now synced.
	doc, err := coord.Pending(ctx)
	require.NoError(t, err)
	assert.True(t, doc.Empty())
}

func TestSyncOnceSkipsWhenNothingPending(t *testing.T) {
	exporter := &stubExporter{}
	w, coord, _ := newTestWorker(t, exporter, 3)
	ctx := context.Background()

	require.NoError(t, w.SyncOnce(ctx))
	assert.Zero(t, exporter.calls)

	mark, err := coord.Watermark(ctx)
	require.NoError(t, err)
	assert.True(t, mark.IsZero())
}

func TestSyncOnceRetriesThenSucceeds(t *testing.T) {
	exporter := &stubExporter{failures: 2}
	w, coord, store := newTestWorker(t, exporter, 3)
	ctx := context.Background()

	seedSale(t, store, time.Now().UTC())

	require.NoError(t, w.SyncOnce(ctx))
	assert.Equal(t, 3, exporter.calls)

	mark, err := coord.Watermark(ctx)
	require.NoError(t, err)
	assert.False(t, mark.IsZero())
}

func TestSyncOnceFailureLeavesWatermark(t *testing.T) {
	exporter := &stubExporter{failures: 10}
	w, coord, store := newTestWorker(t, exporter, 1)
	ctx := context.Background()

	seedSale(t, store, time.Now().UTC())

	err := w.SyncOnce(ctx)
	require.Error(t, err)
	assert.Equal(t, 2, exporter.calls) // initial attempt + one retry

	// Nothing committed: the sale is still pending for the next cycle.
	mark, markErr := coord.Watermark(ctx)
	require.NoError(t, markErr)
	assert.True(t, mark.IsZero())

	doc, pendErr := coord.Pending(ctx)
	require.NoError(t, pendErr)
	require.Len(t, doc.Sales, 1)
}

func TestSyncOnceFastFailsWhenBreakerOpen(t *testing.T) {
	exporter := &stubExporter{failures: 1000}
	w, _, store := newTestWorker(t, exporter, 0)
	ctx := context.Background()

	seedSale(t, store, time.Now().UTC())

	// Trip the breaker with consecutive failing cycles (threshold is 5).
	for i := 0; i < 5; i++ {
		require.Error(t, w.SyncOnce(ctx))
	}
	assert.Equal(t, infra.CBOpen, w.breaker.State())

	before := exporter.calls
	err := w.SyncOnce(ctx)
	require.ErrorIs(t, err, infra.ErrCircuitOpen)
	assert.Equal(t, before, exporter.calls, "open breaker must not reach the exporter")
}
