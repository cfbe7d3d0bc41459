package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"ragdesk/internal/gateway"
	"ragdesk/internal/models"
)

// ErrEmptyName rejects collection names that are blank or whitespace-only
// before any network call is made.
var ErrEmptyName = errors.New("collection name cannot be empty")

// Registry holds the local view of the server-owned collection set, their
// document counts, and the active multi-select filter. State is replaced
// wholesale on refresh, never merged; last write wins, which is what keeps
// concurrent refreshes from racing.
type Registry struct {
	gw     gateway.Gateway
	logger *zap.Logger

	mu          sync.Mutex
	collections []models.Collection
	stats       models.Stats
	filter      models.Filter

	notifier
}

// NewRegistry creates a registry pre-populated with the default type
// buckets so the UI has something to show before the first refresh lands.
func NewRegistry(gw gateway.Gateway, logger *zap.Logger) *Registry {
	return &Registry{
		gw:          gw,
		logger:      logger,
		collections: models.DefaultCollectionSet(),
		filter:      models.NewFilter(),
	}
}

// Refresh re-fetches the collection list and stats concurrently and
// replaces local state with whatever succeeded. Failures keep the prior
// state and are logged, not surfaced; stats are supplementary and a stale
// view heals on the next refresh.
func (r *Registry) Refresh(ctx context.Context) {
	var (
		wg       sync.WaitGroup
		list     *gateway.CollectionListResponse
		stats    models.Stats
		listErr  error
		statsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		list, listErr = r.gw.ListCollections(ctx)
	}()
	go func() {
		defer wg.Done()
		stats, statsErr = r.gw.CollectionStats(ctx)
	}()
	wg.Wait()

	if listErr != nil {
		r.logger.Warn("collection list refresh failed", zap.Error(listErr))
	}
	if statsErr != nil {
		r.logger.Warn("collection stats refresh failed", zap.Error(statsErr))
	}
	if listErr != nil && statsErr != nil {
		return
	}

	r.mu.Lock()
	if listErr == nil {
		r.collections = list.Collections
	}
	if statsErr == nil {
		r.stats = stats
	}
	r.mu.Unlock()
	r.emit()
}

// Create asks the backend for a new custom collection and refreshes on
// success. Blank names are rejected locally; server rejections surface
// their detail message verbatim to the caller.
func (r *Registry) Create(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}

	resp, err := r.gw.CreateCollection(ctx, name)
	if err != nil {
		r.logger.Warn("collection create rejected", zap.String("name", name), zap.Error(err))
		return err
	}

	r.logger.Info("collection created", zap.String("name", resp.CollectionName))
	r.Refresh(ctx)
	return nil
}

// Delete asks the backend to drop a custom collection and refreshes on
// success. A filter entry for the deleted name is deliberately left in
// place; it becomes inert and matches nothing server-side.
func (r *Registry) Delete(ctx context.Context, name string) error {
	if err := r.gw.DeleteCollection(ctx, name); err != nil {
		r.logger.Warn("collection delete rejected", zap.String("name", name), zap.Error(err))
		return err
	}

	r.logger.Info("collection deleted", zap.String("name", name))
	r.Refresh(ctx)
	return nil
}

// ToggleFilter flips the membership of id in the filter set. The id is not
// validated against the known collections.
func (r *Registry) ToggleFilter(id string) {
	r.mu.Lock()
	r.filter.Toggle(id)
	r.mu.Unlock()
	r.emit()
}

// ClearFilter resets the filter to the distinguished "search all" state.
func (r *Registry) ClearFilter() {
	r.mu.Lock()
	r.filter = models.NewFilter()
	r.mu.Unlock()
	r.emit()
}

// FilterHas reports whether id is currently in the filter.
func (r *Registry) FilterHas(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter.Has(id)
}

// FilterSnapshot returns the filter as a sorted slice, nil when empty.
// Callers put the snapshot on the wire as-is; it is not re-evaluated if
// the filter changes before the response arrives.
func (r *Registry) FilterSnapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter.Snapshot()
}

// Collections returns a copy of the current collection view.
func (r *Registry) Collections() []models.Collection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Collection(nil), r.collections...)
}

// Stats returns a copy of the latest stats mapping, nil until the first
// successful stats fetch.
func (r *Registry) Stats() models.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stats == nil {
		return nil
	}
	out := make(models.Stats, len(r.stats))
	for k, v := range r.stats {
		out[k] = v
	}
	return out
}

// OnChange subscribes fn to registry state changes.
func (r *Registry) OnChange(fn func()) {
	r.subscribe(fn)
}
