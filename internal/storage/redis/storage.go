package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openmahjong/parlor/internal/model"
	"github.com/openmahjong/parlor/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveGameRecord(ctx context.Context, record *model.GameRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	// Pipeline the insert and the recency index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, recordKey(record.ID), data, s.cfg.RecordTTL)
	pipe.LPush(ctx, recordIndexKey(), record.ID)
	if s.cfg.IndexLength > 0 {
		pipe.LTrim(ctx, recordIndexKey(), 0, s.cfg.IndexLength-1)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetGameRecord(ctx context.Context, id string) (*model.GameRecord, error) {
	data, err := s.client.Get(ctx, recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrRecordNotFound
		}
		return nil, err
	}

	var record model.GameRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Storage) ListGameRecords(ctx context.Context, limit int) ([]*model.GameRecord, error) {
	ids, err := s.client.LRange(ctx, recordIndexKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*model.GameRecord, 0, len(ids))
	for _, id := range ids {
		record, err := s.GetGameRecord(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrRecordNotFound) {
				continue // expired entry still in the index
			}
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
