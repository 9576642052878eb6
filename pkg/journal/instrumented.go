package journal

import (
	"context"
	"errors"
	"time"

	"github.com/marmos91/sigscan/pkg/metrics"
)

// Instrument wraps s so each operation is reported to m. A nil m returns s
// unchanged.
func Instrument(s Store, m metrics.JournalMetrics) Store {
	if m == nil {
		return s
	}
	return &instrumented{Store: s, m: m}
}

type instrumented struct {
	Store
	m metrics.JournalMetrics
}

func (i *instrumented) Record(ctx context.Context, entry Entry) error {
	start := time.Now()
	err := i.Store.Record(ctx, entry)
	i.m.ObserveOperation("record", time.Since(start), err)
	return err
}

func (i *instrumented) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	start := time.Now()
	entries, err := i.Store.List(ctx, opts)
	i.m.ObserveOperation("list", time.Since(start), err)
	return entries, err
}

func (i *instrumented) Get(ctx context.Context, id string) (Entry, error) {
	start := time.Now()
	entry, err := i.Store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		// A miss is a normal answer, not a store failure.
		i.m.ObserveOperation("get", time.Since(start), nil)
		return entry, err
	}
	i.m.ObserveOperation("get", time.Since(start), err)
	return entry, err
}
