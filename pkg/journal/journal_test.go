package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	mem := NewMemoryStore()

	inMem, err := OpenBadgerInMemory()
	require.NoError(t, err)

	onDisk, err := OpenBadger(t.TempDir())
	require.NoError(t, err)

	all := map[string]Store{"memory": mem, "badger-inmemory": inMem, "badger-disk": onDisk}
	t.Cleanup(func() {
		for _, s := range all {
			_ = s.Close()
		}
	})
	return all
}

func entryAt(id string, at time.Time) Entry {
	return Entry{
		ID:            id,
		Source:        "/data/" + id,
		Destination:   "/quarantine/" + id,
		Size:          42,
		QuarantinedAt: at,
		SessionID:     "sess-" + id,
	}
}

func TestStore_RecordAndGet(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

			require.NoError(t, s.Record(ctx, entryAt("a", at)))

			got, err := s.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "/data/a", got.Source)
			assert.Equal(t, "/quarantine/a", got.Destination)
			assert.Equal(t, int64(42), got.Size)
			assert.True(t, at.Equal(got.QuarantinedAt))

			_, err = s.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

			require.NoError(t, s.Record(ctx, entryAt("old", base)))
			require.NoError(t, s.Record(ctx, entryAt("new", base.Add(2*time.Hour))))
			require.NoError(t, s.Record(ctx, entryAt("mid", base.Add(time.Hour))))

			all, err := s.List(ctx, ListOptions{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, []string{"new", "mid", "old"}, ids(all))

			limited, err := s.List(ctx, ListOptions{Limit: 2})
			require.NoError(t, err)
			assert.Equal(t, []string{"new", "mid"}, ids(limited))

			since, err := s.List(ctx, ListOptions{Since: base.Add(30 * time.Minute)})
			require.NoError(t, err)
			assert.Equal(t, []string{"new", "mid"}, ids(since))
		})
	}
}

func TestStore_RecordReplacesSameID(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

			require.NoError(t, s.Record(ctx, entryAt("x", at)))
			updated := entryAt("x", at.Add(time.Minute))
			updated.Size = 7
			require.NoError(t, s.Record(ctx, updated))

			all, err := s.List(ctx, ListOptions{})
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, int64(7), all[0].Size)
		})
	}
}

func TestStore_EmptyListIsNotNil(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			all, err := s.List(context.Background(), ListOptions{})
			require.NoError(t, err)
			assert.NotNil(t, all)
			assert.Empty(t, all)
		})
	}
}

func TestStore_RejectsInvalidEntries(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			assert.Error(t, s.Record(ctx, Entry{QuarantinedAt: time.Now()}))
			assert.Error(t, s.Record(ctx, Entry{ID: "no-time"}))
		})
	}
}

func TestStore_CancelledContext(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			assert.ErrorIs(t, s.Record(ctx, entryAt("c", time.Now())), context.Canceled)
			_, err := s.List(ctx, ListOptions{})
			assert.ErrorIs(t, err, context.Canceled)
			assert.ErrorIs(t, s.Healthcheck(ctx), context.Canceled)
		})
	}
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBadger(dir)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, entryAt("durable", time.Now().UTC())))
	require.NoError(t, s.Close())

	reopened, err := OpenBadger(dir)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Get(ctx, "durable")
	require.NoError(t, err)
	assert.Equal(t, "/data/durable", got.Source)
	assert.NoError(t, reopened.Healthcheck(ctx))
}

func TestMemoryStore_Closed(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Close())

	ctx := context.Background()
	assert.ErrorIs(t, s.Record(ctx, entryAt("z", time.Now())), ErrClosed)
	assert.ErrorIs(t, s.Healthcheck(ctx), ErrClosed)
}

func TestOpenBadger_EmptyPath(t *testing.T) {
	_, err := OpenBadger("")
	assert.Error(t, err)
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

type recordingMetrics struct {
	ops  []string
	errs int
}

func (r *recordingMetrics) ObserveOperation(op string, _ time.Duration, err error) {
	r.ops = append(r.ops, op)
	if err != nil {
		r.errs++
	}
}

func TestInstrument(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryStore()
	assert.Same(t, Store(base), Instrument(base, nil))

	m := &recordingMetrics{}
	s := Instrument(base, m)

	require.NoError(t, s.Record(ctx, entryAt("a", time.Now())))
	_, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Error(t, s.Record(ctx, Entry{}))

	assert.Equal(t, []string{"record", "list", "get", "record"}, m.ops)
	assert.Equal(t, 1, m.errs)
}
