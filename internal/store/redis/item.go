package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tlama/internal/domain"
)

// maxFlagRetries bounds optimistic-lock retries in SetFlag.
const maxFlagRetries = 5

// Store persists items in Redis. Items never expire; one JSON value per
// URL plus a set indexing every URL.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Exists reports whether an item is cached
func (s *Store) Exists(ctx context.Context, url string) (bool, error) {
	n, err := s.client.Exists(ctx, ItemKey(url)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check item: %w", err)
	}
	return n > 0, nil
}

// Get retrieves an item record by URL
func (s *Store) Get(ctx context.Context, url string) (*domain.Record, error) {
	data, err := s.client.Get(ctx, ItemKey(url)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, url)
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return decode(data)
}

// Put upserts an item record
func (s *Store) Put(ctx context.Context, rec domain.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, ItemKey(rec.URL), data, 0)
		pipe.SAdd(ctx, KeyAllItems, rec.URL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}

// SetFlag updates one annotation of a cached item. The read-modify-write
// runs under WATCH so a concurrent Put is never clobbered.
func (s *Store) SetFlag(ctx context.Context, url string, flag domain.Flag, value bool) error {
	key := ItemKey(url)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return fmt.Errorf("%w: %s", domain.ErrNotFound, url)
			}
			return err
		}

		rec, err := decode(data)
		if err != nil {
			return err
		}

		annotations, err := rec.Annotations().With(flag, value)
		if err != nil {
			return err
		}
		rec.ApplyAnnotations(annotations)

		updated, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal item: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		return err
	}

	for range maxFlagRetries {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
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
func (s *Store) All(ctx context.Context) ([]domain.Record, error) {
	urls, err := s.client.SMembers(ctx, KeyAllItems).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get item urls: %w", err)
	}
	if len(urls) == 0 {
		return []domain.Record{}, nil
	}
	slices.Sort(urls)

	keys := make([]string, len(urls))
	for i, u := range urls {
		keys[i] = ItemKey(u)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}

	records := make([]domain.Record, 0, len(values))
	for _, v := range values {
		// Index entries whose value was removed out of band.
		str, ok := v.(string)
		if !ok {
			continue
		}
		rec, err := decode([]byte(str))
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	return records, nil
}

// Count returns the number of cached items
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, KeyAllItems).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return int(n), nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Kind names the backend for status output
func (s *Store) Kind() string {
	return "redis"
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
