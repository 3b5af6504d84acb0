package catalog

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/artify3d/client/domain"
)

// Create validates the draft, sends the creation request, and on success
// prepends the service-returned record to the view and counts it into the
// stats. Requires a live identity.
func (m *Manager) Create(ctx context.Context, draft domain.ArtworkDraft) (*domain.Artwork, error) {
	identity := m.session.Identity()
	if identity == nil {
		return nil, domain.ErrSignInRequired
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	m.begin(OpCreate)
	created, err := m.artworks.Create(ctx, &domain.Artwork{
		OwnerID:     identity.ID,
		OwnerName:   identity.DisplayName(),
		Title:       draft.Title,
		Description: draft.Description,
		Category:    draft.Category,
		ImageURL:    draft.ImageURL,
	})
	if err != nil {
		m.finish(OpCreate, err)
		return nil, err
	}
	if created.OwnerName == "" {
		created.OwnerName = identity.DisplayName()
	}

	m.mu.Lock()
	m.stats.Add(*created)
	if m.filter == "" || m.filter == created.Category {
		m.view = append([]domain.Artwork{*created}, m.view...)
	}
	m.mu.Unlock()

	m.finish(OpCreate, nil)
	m.logger.Info("artwork created", zap.String("artwork_id", created.ID))
	cp := *created
	return &cp, nil
}

// Update applies a partial edit to an owned, materialized record. Ownership
// is checked locally first so a non-owner call costs no network round trip;
// the service re-checks authoritatively. On success the record is replaced
// in place; creation time, and therefore ordering, never changes.
func (m *Manager) Update(ctx context.Context, id string, patch domain.ArtworkPatch) (*domain.Artwork, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, domain.NewError(domain.ErrCodeValidation, "no fields to update")
	}

	identity := m.session.Identity()
	if identity == nil {
		return nil, domain.ErrSignInRequired
	}
	current, ok := m.lookup(id)
	if !ok {
		return nil, domain.ErrArtworkNotFound
	}
	if !current.OwnedBy(identity) {
		return nil, domain.ErrNotOwner
	}

	m.begin(OpUpdate)
	updated, err := m.artworks.Update(ctx, id, identity.ID, patch)
	if err != nil {
		m.finish(OpUpdate, err)
		return nil, err
	}
	if updated.OwnerName == "" {
		updated.OwnerName = current.OwnerName
	}

	m.mu.Lock()
	if i := m.indexOf(id); i >= 0 {
		m.view[i] = *updated
	}
	m.mu.Unlock()

	m.finish(OpUpdate, nil)
	cp := *updated
	return &cp, nil
}

// RequestDelete starts the two-phase destructive flow: it authorizes the
// caller against the materialized record and hands back a single-use
// confirmation token. Nothing reaches the service until ConfirmDelete.
func (m *Manager) RequestDelete(id string) (string, error) {
	identity := m.session.Identity()
	if identity == nil {
		return "", domain.ErrSignInRequired
	}
	current, ok := m.lookup(id)
	if !ok {
		return "", domain.ErrArtworkNotFound
	}
	if !current.OwnedBy(identity) {
		return "", domain.ErrNotOwner
	}

	token := uuid.NewString()
	m.mu.Lock()
	m.intents[token] = deleteIntent{
		artworkID: id,
		ownerID:   identity.ID,
		expiresAt: m.now().Add(deleteIntentTTL),
	}
	m.mu.Unlock()
	return token, nil
}

// CancelDelete discards a pending confirmation token.
func (m *Manager) CancelDelete(token string) {
	m.mu.Lock()
	delete(m.intents, token)
	m.mu.Unlock()
}

// ConfirmDelete consumes the token and issues the delete. On success the
// record leaves the view and its full views/likes/count contribution leaves
// the stats in the same step, so the totals never reflect a deleted record.
func (m *Manager) ConfirmDelete(ctx context.Context, token string) error {
	m.mu.Lock()
	intent, ok := m.intents[token]
	delete(m.intents, token)
	m.mu.Unlock()
	if !ok || m.now().After(intent.expiresAt) {
		return domain.NewError(domain.ErrCodeNotFound, "unknown or expired delete confirmation")
	}

	m.begin(OpDelete)
	if err := m.artworks.Delete(ctx, intent.artworkID, intent.ownerID); err != nil {
		m.finish(OpDelete, err)
		return err
	}

	m.mu.Lock()
	retracted := false
	if i := m.indexOf(intent.artworkID); i >= 0 {
		removed := m.view[i]
		m.view = append(m.view[:i], m.view[i+1:]...)
		m.stats.Remove(removed)
		retracted = true
	}
	m.mu.Unlock()

	// A filter change between request and confirm can drop the record from
	// the view, taking its counter snapshot with it. The service fold is
	// the source of truth then.
	if !retracted {
		if _, err := m.RecomputeStats(ctx); err != nil {
			m.logger.Warn("stats recompute after delete failed", zap.Error(err))
		}
	}

	m.finish(OpDelete, nil)
	m.logger.Info("artwork deleted", zap.String("artwork_id", intent.artworkID))
	return nil
}

// IncrementView bumps a record's view counter. The service performs the
// increment atomically and returns the resulting count; the local record is
// set to that count and, when the record is owned, the stats move by the
// actual delta so they stay a true fold of the owned records.
func (m *Manager) IncrementView(ctx context.Context, id string) (*domain.Artwork, error) {
	if _, ok := m.lookup(id); !ok {
		return nil, domain.ErrArtworkNotFound
	}

	m.begin(OpView)
	count, err := m.artworks.IncrementViews(ctx, id, 1)
	if err != nil {
		m.finish(OpView, err)
		return nil, err
	}
	record := m.applyCount(id, count, false)
	m.finish(OpView, nil)
	return record, nil
}

// IncrementLike bumps a record's like counter. Anonymous likes are rejected
// locally with no network call.
func (m *Manager) IncrementLike(ctx context.Context, id string) (*domain.Artwork, error) {
	if m.session.Identity() == nil {
		return nil, domain.ErrSignInRequired
	}
	if _, ok := m.lookup(id); !ok {
		return nil, domain.ErrArtworkNotFound
	}

	m.begin(OpLike)
	count, err := m.artworks.IncrementLikes(ctx, id, 1)
	if err != nil {
		m.finish(OpLike, err)
		return nil, err
	}
	record := m.applyCount(id, count, true)
	m.finish(OpLike, nil)
	return record, nil
}

// applyCount folds a service-returned counter value into the view and, for
// records owned by the current identity, into the stats. Counters are
// monotonic from the client's perspective, so a stale (lower) value from a
// racing completion is ignored.
func (m *Manager) applyCount(id string, count int, likes bool) *domain.Artwork {
	identity := m.session.Identity()

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return nil
	}
	record := &m.view[i]

	var delta int
	if likes {
		delta = count - record.Likes
		if delta > 0 {
			record.Likes = count
			if record.OwnedBy(identity) {
				m.stats.Likes += delta
			}
		}
	} else {
		delta = count - record.Views
		if delta > 0 {
			record.Views = count
			if record.OwnedBy(identity) {
				m.stats.Views += delta
			}
		}
	}

	cp := *record
	return &cp
}
