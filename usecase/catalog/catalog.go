package catalog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/artify3d/client/domain"
	"github.com/artify3d/client/repository"
)

// Op names a catalog operation for busy/error inspection.
type Op string

const (
	OpList   Op = "list"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpView   Op = "view"
	OpLike   Op = "like"
)

// IdentitySource yields the current authenticated identity, or nil. The
// session manager satisfies it.
type IdentitySource interface {
	Identity() *domain.Identity
}

// deleteIntent is a pending destructive-action confirmation.
type deleteIntent struct {
	artworkID string
	ownerID   string
	expiresAt time.Time
}

const deleteIntentTTL = 5 * time.Minute

// Manager materializes the catalog for display and keeps it, plus the
// owned-record aggregate stats, consistent with the persistence service.
// Every mutation goes service-first: local state changes only after the
// service accepted the operation, and an error leaves everything as it was.
type Manager struct {
	artworks repository.ArtworkRepository
	session  IdentitySource
	logger   *zap.Logger

	mu      sync.Mutex
	view    []domain.Artwork
	stats   domain.Stats
	filter  domain.Category // empty means all categories
	intents map[string]deleteIntent
	busy    map[Op]bool
	lastErr map[Op]error

	now func() time.Time
}

// New builds a catalog manager with an empty view and no filter.
func New(artworks repository.ArtworkRepository, session IdentitySource, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		artworks: artworks,
		session:  session,
		logger:   logger,
		intents:  make(map[string]deleteIntent),
		busy:     make(map[Op]bool),
		lastErr:  make(map[Op]error),
		now:      time.Now,
	}
}

// View returns a copy of the materialized records, newest first.
func (m *Manager) View() []domain.Artwork {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Artwork, len(m.view))
	copy(out, m.view)
	return out
}

// Stats returns the aggregate totals over the current identity's records.
func (m *Manager) Stats() domain.Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Filter returns the active category filter; empty means all.
func (m *Manager) Filter() domain.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter
}

// Busy reports whether the named operation is in flight.
func (m *Manager) Busy(op Op) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy[op]
}

// LastError returns the most recent outcome of the named operation; nil
// after a success.
func (m *Manager) LastError(op Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr[op]
}

// Refresh fetches the catalog scoped to the active filter and replaces the
// view wholesale. On failure the previous view stays visible. When an
// identity is live the owned-record stats are re-read from the service in
// the same pass, which doubles as the recovery path after any ambiguous
// outcome.
func (m *Manager) Refresh(ctx context.Context) ([]domain.Artwork, error) {
	m.begin(OpList)

	m.mu.Lock()
	filter := m.filter
	m.mu.Unlock()

	records, err := m.artworks.List(ctx, repository.ArtworkFilter{Category: filter})
	if err != nil {
		m.finish(OpList, err)
		return nil, err
	}

	stats := domain.Stats{}
	if identity := m.session.Identity(); identity != nil {
		stats, err = m.artworks.OwnerStats(ctx, identity.ID)
		if err != nil {
			m.finish(OpList, err)
			return nil, err
		}
	}

	m.mu.Lock()
	m.view = records
	m.stats = stats
	m.mu.Unlock()

	m.finish(OpList, nil)
	return m.View(), nil
}

// SetFilter switches the active category filter and refreshes. The filter
// change itself is local and immediate; the previous view remains visible
// until the new listing resolves, so a transient failure never blanks the
// catalog.
func (m *Manager) SetFilter(ctx context.Context, category domain.Category) ([]domain.Artwork, error) {
	if category != "" {
		if _, err := domain.ParseCategory(string(category)); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	m.filter = category
	m.mu.Unlock()

	return m.Refresh(ctx)
}

// RecomputeStats re-reads the owned-record totals from the service. Callers
// use it after an operation whose success is ambiguous.
func (m *Manager) RecomputeStats(ctx context.Context) (domain.Stats, error) {
	identity := m.session.Identity()
	if identity == nil {
		m.mu.Lock()
		m.stats = domain.Stats{}
		m.mu.Unlock()
		return domain.Stats{}, nil
	}

	stats, err := m.artworks.OwnerStats(ctx, identity.ID)
	if err != nil {
		return m.Stats(), err
	}

	m.mu.Lock()
	m.stats = stats
	m.mu.Unlock()
	return stats, nil
}

func (m *Manager) begin(op Op) {
	m.mu.Lock()
	m.busy[op] = true
	m.mu.Unlock()
}

func (m *Manager) finish(op Op, err error) {
	m.mu.Lock()
	m.busy[op] = false
	m.lastErr[op] = err
	m.mu.Unlock()
	if err != nil {
		m.logger.Warn("catalog operation failed", zap.String("op", string(op)), zap.Error(err))
	}
}

// indexOf returns the position of id in the view, or -1. Callers hold mu.
func (m *Manager) indexOf(id string) int {
	for i := range m.view {
		if m.view[i].ID == id {
			return i
		}
	}
	return -1
}

// lookup returns a copy of the materialized record. Used for pre-flight
// authorization checks so rejected calls never reach the service.
func (m *Manager) lookup(id string) (domain.Artwork, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(id); i >= 0 {
		return m.view[i], true
	}
	return domain.Artwork{}, false
}
