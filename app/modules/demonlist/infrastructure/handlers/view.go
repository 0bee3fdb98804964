package demonlisthandlers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	demonlistdomain "github.com/Black-And-White-Club/demonlist-tracker/app/modules/demonlist/domain"
	"github.com/Black-And-White-Club/demonlist-tracker/app/observability/attr"
)

// LevelLister loads the canonical list.
type LevelLister interface {
	ListLevels(ctx context.Context, scope demonlistdomain.Scope) ([]demonlistdomain.Level, error)
}

// ListView is the presentation read model. It holds the whole list and is refreshed by a
// full reload whenever a change notice arrives; it is never patched incrementally.
type ListView struct {
	mu     sync.RWMutex
	lister LevelLister
	logger *slog.Logger
	levels []demonlistdomain.Level
	loaded bool
	// generation counts invalidations. A load started under an older generation is not
	// cached.
	generation uint64
	loadedAt   time.Time
}

// NewListView creates an empty view. The first read loads it.
func NewListView(lister LevelLister, logger *slog.Logger) *ListView {
	return &ListView{lister: lister, logger: logger}
}

// Reload replaces the cached list with the store's current state. If the view is
// invalidated while the load is in flight, the result is dropped and the next read
// loads again.
func (v *ListView) Reload(ctx context.Context) error {
	_, err := v.load(ctx)
	return err
}

func (v *ListView) load(ctx context.Context) ([]demonlistdomain.Level, error) {
	v.mu.RLock()
	generation := v.generation
	v.mu.RUnlock()

	levels, err := v.lister.ListLevels(ctx, demonlistdomain.ScopeBoth)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	cached := v.generation == generation
	if cached {
		v.levels = levels
		v.loaded = true
		v.loadedAt = time.Now()
	}
	v.mu.Unlock()

	v.logger.DebugContext(ctx, "Reloaded list view",
		attr.ExtractCorrelationID(ctx),
		attr.Int("levels", len(levels)),
		attr.Bool("cached", cached),
	)
	return levels, nil
}

// Invalidate drops the cached list so the next read reloads it.
func (v *ListView) Invalidate() {
	v.mu.Lock()
	v.loaded = false
	v.generation++
	v.mu.Unlock()
}

// Levels returns the cached levels in scope, loading them first if needed.
func (v *ListView) Levels(ctx context.Context, scope demonlistdomain.Scope) ([]demonlistdomain.Level, error) {
	v.mu.RLock()
	levels, loaded := v.levels, v.loaded
	v.mu.RUnlock()
	if !loaded {
		var err error
		if levels, err = v.load(ctx); err != nil {
			return nil, err
		}
	}

	out := make([]demonlistdomain.Level, 0, len(levels))
	for _, l := range levels {
		if scope.Includes(l.Tier) {
			out = append(out, l)
		}
	}
	return out, nil
}

// LoadedAt reports when the view was last reloaded.
func (v *ListView) LoadedAt() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loadedAt
}
