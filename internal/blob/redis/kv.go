package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/drugqa/internal/blob"
)

// Get retrieves an object by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.b().Get().Key(key).Build()
	data, err := s.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, blob.ErrNotFound
		}
		return nil, &blob.Error{Op: blob.OpGet, Key: key, Err: err}
	}
	return data, nil
}

// Put stores an object, replacing any previous value.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	cmd := s.b().Set().Key(key).Value(rueidis.BinaryString(data)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &blob.Error{Op: blob.OpPut, Key: key, Err: err}
	}
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	cmd := s.b().Exists().Key(key).Build()
	count, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &blob.Error{Op: blob.OpExists, Key: key, Err: err}
	}
	return count > 0, nil
}
