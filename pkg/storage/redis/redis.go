// Package redis implements storage.Storage on top of a Redis server so
// several instances can share lookups.
package redis

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-redis/redis/v9"
	"github.com/golang/snappy"
	"github.com/haveachin/barebones/pkg/storage"
)

const (
	DefaultPrefix = "barebones:"
	DefaultTTL    = time.Hour
)

type Config struct {
	URI    string        `mapstructure:"uri"`
	TTL    time.Duration `mapstructure:"ttl"`
	Prefix string        `mapstructure:"prefix"`
}

type Storage struct {
	cli          *redis.Client
	readTimeout  time.Duration
	writeTimeout time.Duration
	ttl          time.Duration
	prefix       string
}

func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("parse redis uri: %w", err)
	}

	return newStorage(redis.NewClient(opts), cfg), nil
}

func newStorage(cli *redis.Client, cfg Config) *Storage {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}

	opts := cli.Options()
	return &Storage{
		cli:          cli,
		readTimeout:  opts.ReadTimeout,
		writeTimeout: opts.WriteTimeout,
		ttl:          cfg.TTL,
		prefix:       cfg.Prefix,
	}
}

// hashKey keeps keys short and uniform regardless of what the caller uses.
func (s *Storage) hashKey(key string) string {
	var sum [8]byte
	h := xxhash.Sum64String(key)
	for i := range sum {
		sum[7-i] = byte(h >> (8 * i))
	}
	return s.prefix + hex.EncodeToString(sum[:])
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := withTimeout(ctx, s.readTimeout)
	defer cancel()

	compressed, err := s.cli.Get(ctx, s.hashKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	value, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress value: %w", err)
	}
	return value, nil
}

func (s *Storage) Put(ctx context.Context, key string, value []byte) error {
	ctx, cancel := withTimeout(ctx, s.writeTimeout)
	defer cancel()

	return s.cli.Set(ctx, s.hashKey(key), snappy.Encode(nil, value), s.ttl).Err()
}

// Ping checks that the server is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.readTimeout)
	defer cancel()
	return s.cli.Ping(ctx).Err()
}

func (s *Storage) Close() error {
	return s.cli.Close()
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
