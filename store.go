package vikasyatra

import (
	"context"
	"encoding/json"
	"errors"
	"math"
)

// Document is a schemaless JSON object as persisted in the local store.
type Document = map[string]any

// DefaultQuotaBytes is the capacity assumed when reporting usage for a
// backend that does not enforce one.
const DefaultQuotaBytes int64 = 10 * 1024 * 1024

// Backend is a raw key/value persistence layer. Implementations must be
// safe for concurrent use.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// KeyedStore persists JSON values under string keys. Failures never escape:
// reads degrade to "absent" and writes report false, with the cause logged.
type KeyedStore struct {
	backend Backend
	log     *Logger
	quota   int64
}

type StoreOption func(*KeyedStore)

func WithStoreLogger(l *Logger) StoreOption {
	return func(s *KeyedStore) { s.log = orNop(l) }
}

// WithReportedQuota sets the capacity used by Usage.
func WithReportedQuota(bytes int64) StoreOption {
	return func(s *KeyedStore) { s.quota = bytes }
}

func NewKeyedStore(backend Backend, opts ...StoreOption) *KeyedStore {
	s := &KeyedStore{backend: backend, log: NopLogger(), quota: DefaultQuotaBytes}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the underlying backend.
func (s *KeyedStore) Backend() Backend { return s.backend }

// ReadRaw returns the stored JSON for key, or nil when it is missing or unreadable.
func (s *KeyedStore) ReadRaw(ctx context.Context, key string) json.RawMessage {
	b, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn("store read failed", "key", key, "error", err)
		}
		return nil
	}
	if !json.Valid(b) {
		s.log.Warn("store value is not valid json", "key", key)
		return nil
	}
	return b
}

// Read returns the object stored under key, or nil when absent, corrupt,
// or not a JSON object.
func (s *KeyedStore) Read(ctx context.Context, key string) Document {
	var doc Document
	if !s.ReadInto(ctx, key, &doc) {
		return nil
	}
	return doc
}

// ReadInto decodes the value under key into v and reports whether it did.
func (s *KeyedStore) ReadInto(ctx context.Context, key string, v any) bool {
	raw := s.ReadRaw(ctx, key)
	if raw == nil {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.log.Warn("store value has unexpected shape", "key", key, "error", err)
		return false
	}
	return true
}

// Write replaces the value under key.
func (s *KeyedStore) Write(ctx context.Context, key string, value any) bool {
	b, err := json.Marshal(value)
	if err != nil {
		s.log.Error("store encode failed", "key", key, "error", err)
		return false
	}
	if err := s.backend.Set(ctx, key, b); err != nil {
		s.log.Error("store write failed", "key", key, "error", err)
		return false
	}
	return true
}

// Remove deletes key. Removing a missing key succeeds.
func (s *KeyedStore) Remove(ctx context.Context, key string) bool {
	if err := s.backend.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		s.log.Error("store remove failed", "key", key, "error", err)
		return false
	}
	return true
}

// StorageUsage reports how much of the reported quota keys under a prefix occupy.
type StorageUsage struct {
	UsedBytes  int64   `json:"usedBytes"`
	QuotaBytes int64   `json:"quotaBytes"`
	Percentage float64 `json:"percentage"`
	Keys       int     `json:"keys"`
}

// Usage sums key and value sizes for every key under prefix.
func (s *KeyedStore) Usage(ctx context.Context, prefix string) (StorageUsage, error) {
	keys, err := s.backend.Keys(ctx, prefix)
	if err != nil {
		return StorageUsage{}, err
	}
	u := StorageUsage{QuotaBytes: s.quota}
	for _, k := range keys {
		b, err := s.backend.Get(ctx, k)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return StorageUsage{}, err
		}
		u.UsedBytes += int64(len(k) + len(b))
		u.Keys++
	}
	if u.QuotaBytes > 0 {
		u.Percentage = math.Min(100, float64(u.UsedBytes)/float64(u.QuotaBytes)*100)
	}
	return u, nil
}

func (s *KeyedStore) Close() error {
	return s.backend.Close()
}
