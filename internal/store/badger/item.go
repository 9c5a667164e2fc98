package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/MrSnakeDoc/tlama/internal/domain"
	"github.com/MrSnakeDoc/tlama/internal/logger"
)

// maxFlagRetries bounds transaction conflict retries in SetFlag.
const maxFlagRetries = 5

// Store persists items in an embedded badger database, one JSON value per
// URL. Only one process can open a directory at a time.
type Store struct {
	db     *badger.DB
	logger logger.Logger
}

// Open opens or creates the database in dir.
func Open(dir string, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db at %s: %w", dir, err)
	}

	log.Info("item cache opened", logger.String("path", dir))
	return &Store{db: db, logger: log}, nil
}

// Close flushes and closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Exists reports whether an item is cached
func (s *Store) Exists(_ context.Context, url string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(ItemKey(url))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check item: %w", err)
	}
	return true, nil
}

// Get retrieves an item record by URL
func (s *Store) Get(_ context.Context, url string) (*domain.Record, error) {
	var rec *domain.Record
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = readRecord(txn, url)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Put upserts an item record
func (s *Store) Put(_ context.Context, rec domain.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(ItemKey(rec.URL), data)
	}); err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}

// SetFlag updates one annotation of a cached item inside a single
// transaction, retried when a concurrent write conflicts.
func (s *Store) SetFlag(_ context.Context, url string, flag domain.Flag, value bool) error {
	update := func(txn *badger.Txn) error {
		rec, err := readRecord(txn, url)
		if err != nil {
			return err
		}

		annotations, err := rec.Annotations().With(flag, value)
		if err != nil {
			return err
		}
		rec.ApplyAnnotations(annotations)

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal item: %w", err)
		}
		return txn.Set(ItemKey(url), data)
	}

	for range maxFlagRetries {
		err := s.db.Update(update)
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to set %s on %s: %w", flag, url, err)
		}
		return nil
	}

	return fmt.Errorf("failed to set %s on %s: item kept changing", flag, url)
}

// All retrieves every cached item, ordered by URL
func (s *Store) All(_ context.Context) ([]domain.Record, error) {
	records := []domain.Record{}
	prefix := []byte(KeyPrefixItem)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				rec, err := decode(val)
				if err != nil {
					return err
				}
				records = append(records, *rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	return records, nil
}

// Count returns the number of cached items
func (s *Store) Count(_ context.Context) (int, error) {
	n := 0
	prefix := []byte(KeyPrefixItem)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}

// Ping reports whether the database is still open
func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return nil
}

// Kind names the backend for status output
func (s *Store) Kind() string {
	return "badger"
}

func readRecord(txn *badger.Txn, url string) (*domain.Record, error) {
	item, err := txn.Get(ItemKey(url))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, url)
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	var rec *domain.Record
	err = item.Value(func(val []byte) error {
		rec, err = decode(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func decode(data []byte) (*domain.Record, error) {
	var rec domain.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	if strings.TrimSpace(rec.URL) == "" {
		return nil, fmt.Errorf("%w: stored item without url", domain.ErrInvalidItem)
	}
	return &rec, nil
}
