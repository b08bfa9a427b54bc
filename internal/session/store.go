package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/spf13/afero"
)

// Store owns ConversationContext records keyed by session id.
type Store interface {
	// GetOrCreate returns the context for a session id, creating a fresh one
	// in the initial state on miss.
	GetOrCreate(id string) (*ConversationContext, error)
	// Persist saves the context after a turn has been processed.
	Persist(ctx *ConversationContext) error
}

const (
	// DefaultCapacity bounds the number of live sessions kept in memory.
	DefaultCapacity = 1024
	// DefaultTTL is how long an idle session survives before eviction.
	DefaultTTL = 2 * time.Hour
)

// Options configures an LRUStore.
type Options struct {
	// Capacity caps live sessions; <= 0 uses DefaultCapacity.
	Capacity int
	// TTL evicts idle sessions; <= 0 uses DefaultTTL.
	TTL time.Duration
	// Fs, when set, enables JSON snapshot persistence under Dir so sessions
	// survive process restarts and cache eviction.
	Fs  afero.Fs
	Dir string
}

// LRUStore is a bounded in-memory session store with TTL-based eviction and
// optional file-backed snapshots. Eviction of an in-progress session is
// recoverable when snapshots are enabled: GetOrCreate reloads from disk
// before creating a fresh context.
type LRUStore struct {
	cache *expirable.LRU[string, *ConversationContext]
	fs    afero.Fs
	dir   string
}

// NewLRUStore creates a session store with the given bounds.
func NewLRUStore(opts Options) *LRUStore {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s := &LRUStore{fs: opts.Fs, dir: opts.Dir}
	s.cache = expirable.NewLRU(capacity, func(id string, _ *ConversationContext) {
		slog.Debug("session evicted", "session_id", id)
	}, ttl)
	return s
}

// GetOrCreate implements Store.
func (s *LRUStore) GetOrCreate(id string) (*ConversationContext, error) {
	if id == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if ctx, ok := s.cache.Get(id); ok {
		return ctx, nil
	}
	if ctx, err := s.load(id); err == nil && ctx != nil {
		s.cache.Add(id, ctx)
		return ctx, nil
	}
	ctx := NewContext(id)
	s.cache.Add(id, ctx)
	return ctx, nil
}

// Persist implements Store.
func (s *LRUStore) Persist(ctx *ConversationContext) error {
	if ctx == nil || ctx.ID == "" {
		return fmt.Errorf("context with a session id is required")
	}
	s.cache.Add(ctx.ID, ctx)
	if s.fs == nil {
		return nil
	}

	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", ctx.ID, err)
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path(ctx.ID), data, 0o644); err != nil {
		return fmt.Errorf("write session %s: %w", ctx.ID, err)
	}
	return nil
}

// Len returns the number of sessions currently cached.
func (s *LRUStore) Len() int { return s.cache.Len() }

func (s *LRUStore) load(id string) (*ConversationContext, error) {
	if s.fs == nil {
		return nil, nil
	}
	data, err := afero.ReadFile(s.fs, s.path(id))
	if err != nil {
		return nil, err
	}
	var ctx ConversationContext
	if err := json.Unmarshal(data, &ctx); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if ctx.GatheredData == nil {
		ctx.GatheredData = make(map[string]any)
	}
	return &ctx, nil
}

func (s *LRUStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}
