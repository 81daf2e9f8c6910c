package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
)

// Store persists sessions between turns. Implementations must not hand out
// references to what they hold: Load returns a copy and Save keeps a copy.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// Defaults for MemoryStore.
const (
	DefaultTTL             = time.Hour
	DefaultCleanupInterval = 10 * time.Minute
)

// MemoryStore keeps sessions in an in-process cache. Idle sessions expire
// after the TTL; zero disables expiry.
type MemoryStore struct {
	cache  *cache.Cache
	logger *slog.Logger
}

var _ Store = (*MemoryStore)(nil)

// MemoryOption configures a MemoryStore.
type MemoryOption func(*memoryConfig) error

type memoryConfig struct {
	ttl     time.Duration
	cleanup time.Duration
	logger  *slog.Logger
}

// WithTTL sets how long an idle session is kept.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(c *memoryConfig) error {
		if ttl < 0 {
			return ErrInvalidTTL
		}
		c.ttl = ttl
		return nil
	}
}

// WithCleanupInterval sets how often expired sessions are purged.
func WithCleanupInterval(interval time.Duration) MemoryOption {
	return func(c *memoryConfig) error {
		if interval < 0 {
			return ErrInvalidTTL
		}
		c.cleanup = interval
		return nil
	}
}

// WithLogger sets the logger. Nil means slog.Default().
func WithLogger(logger *slog.Logger) MemoryOption {
	return func(c *memoryConfig) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewMemoryStore creates a MemoryStore.
func NewMemoryStore(opts ...MemoryOption) (*MemoryStore, error) {
	config := &memoryConfig{
		ttl:     DefaultTTL,
		cleanup: DefaultCleanupInterval,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	ttl := config.ttl
	if ttl == 0 {
		ttl = cache.NoExpiration
	}
	c := cache.New(ttl, config.cleanup)

	store := &MemoryStore{
		cache:  c,
		logger: config.logger.With("component", "session-store"),
	}
	c.OnEvicted(func(id string, _ interface{}) {
		store.logger.Debug("session evicted", "session", id)
	})
	return store, nil
}

// Load returns a copy of the stored session or ErrNotFound.
func (m *MemoryStore) Load(ctx context.Context, id string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if x, found := m.cache.Get(id); found {
		return x.(*Session).Clone(), nil
	}
	return nil, ErrNotFound
}

// Save stores a copy of s and restarts its expiry.
func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.ID == "" {
		return ErrEmptyID
	}
	m.cache.Set(s.ID, s.Clone(), cache.DefaultExpiration)
	return nil
}

// Delete removes the session. Deleting an unknown session is not an error.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.cache.Delete(id)
	return nil
}

// Count returns the number of live sessions.
func (m *MemoryStore) Count() int {
	return m.cache.ItemCount()
}
