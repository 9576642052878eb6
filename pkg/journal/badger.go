package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/sigscan/internal/logger"
)

// Key namespace:
//
//	Data          Prefix  Key                               Value
//	==========================================================================
//	Entry         "q:"    q:<unix-nanos, 20 digits>:<id>    Entry (JSON)
//	ID index      "i:"    i:<id>                            entry key (bytes)
//
// Zero-padded timestamps make lexical key order equal to time order, so a
// reverse prefix scan yields newest entries first.
const (
	prefixEntry = "q:"
	prefixIndex = "i:"
)

func keyEntry(e Entry) []byte {
	return fmt.Appendf(nil, "%s%020d:%s", prefixEntry, e.QuarantinedAt.UnixNano(), e.ID)
}

func keyIndex(id string) []byte {
	return []byte(prefixIndex + id)
}

// BadgerStore is a Store backed by an embedded BadgerDB.
//
// Thread Safety: safe for concurrent use; every operation runs in its own
// BadgerDB transaction.
type BadgerStore struct {
	db *badgerdb.DB
}

// OpenBadger opens (or creates) a journal database in dir.
func OpenBadger(dir string) (*BadgerStore, error) {
	if dir == "" {
		return nil, errors.New("journal path is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	opts := badgerdb.DefaultOptions(dir).WithLogger(badgerLogger{})
	return open(opts)
}

// OpenBadgerInMemory opens a journal that lives only in memory. Intended
// for tests that want BadgerDB semantics without touching disk.
func OpenBadgerInMemory() (*BadgerStore, error) {
	opts := badgerdb.DefaultOptions("").WithInMemory(true).WithLogger(badgerLogger{})
	return open(opts)
}

func open(opts badgerdb.Options) (*BadgerStore, error) {
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Record stores entry and its ID index in one transaction. Recording an
// existing ID replaces the previous entry.
func (s *BadgerStore) Record(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateEntry(entry); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode journal entry: %w", err)
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		if old, err := txn.Get(keyIndex(entry.ID)); err == nil {
			oldKey, err := old.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := txn.Delete(oldKey); err != nil {
				return err
			}
		} else if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}

		key := keyEntry(entry)
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(keyIndex(entry.ID), key)
	})
}

// List returns entries newest first.
func (s *BadgerStore) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0)
	err := s.db.View(func(txn *badgerdb.Txn) error {
		itOpts := badgerdb.DefaultIteratorOptions
		itOpts.Reverse = true
		itOpts.Prefix = []byte(prefixEntry)

		it := txn.NewIterator(itOpts)
		defer it.Close()

		// In reverse mode Seek positions at the largest key <= target.
		seek := append([]byte(prefixEntry), 0xFF)
		for it.Seek(seek); it.ValidForPrefix([]byte(prefixEntry)); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var e Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return fmt.Errorf("failed to decode journal entry: %w", err)
			}

			if !opts.Since.IsZero() && e.QuarantinedAt.Before(opts.Since) {
				// Remaining entries are older still.
				return nil
			}
			entries = append(entries, e)
			if opts.Limit > 0 && len(entries) >= opts.Limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Get returns the entry with the given ID.
func (s *BadgerStore) Get(ctx context.Context, id string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	var e Entry
	err := s.db.View(func(txn *badgerdb.Txn) error {
		idx, err := txn.Get(keyIndex(id))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		key, err := idx.ValueCopy(nil)
		if err != nil {
			return err
		}

		item, err := txn.Get(key)
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	return e, err
}

// Healthcheck verifies the database can serve a read transaction.
func (s *BadgerStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return ErrClosed
	}
	if err := s.db.View(func(*badgerdb.Txn) error { return nil }); err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// badgerLogger routes BadgerDB's internal logging through the process logger.
// Badger is chatty at INFO, so its info messages are demoted to DEBUG.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	logger.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (badgerLogger) Warningf(format string, args ...any) {
	logger.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (badgerLogger) Infof(format string, args ...any) {
	logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (badgerLogger) Debugf(format string, args ...any) {
	logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
