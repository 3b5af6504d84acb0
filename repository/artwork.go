package repository

import (
	"context"

	"github.com/artify3d/client/domain"
)

// ArtworkFilter narrows a catalog listing server-side. An empty Category
// means all categories.
type ArtworkFilter struct {
	Category domain.Category
	Limit    int
	Offset   int
}

// ArtworkRepository is the persistence-service contract for artwork records.
// List returns records newest-first, joined with the owner's display name;
// ties on creation time keep the service's returned order. Create returns
// the record with the service-assigned id and timestamps. Update changes
// only the supplied fields and refreshes updated_at. Delete and Update are
// scoped to ownerID server-side; the client's own ownership check is an
// optimization, not a substitute. IncrementViews and IncrementLikes are
// atomic at the service boundary and return the resulting count.
type ArtworkRepository interface {
	List(ctx context.Context, filter ArtworkFilter) ([]domain.Artwork, error)
	Create(ctx context.Context, artwork *domain.Artwork) (*domain.Artwork, error)
	Update(ctx context.Context, id, ownerID string, patch domain.ArtworkPatch) (*domain.Artwork, error)
	Delete(ctx context.Context, id, ownerID string) error
	IncrementViews(ctx context.Context, id string, delta int) (int, error)
	IncrementLikes(ctx context.Context, id string, delta int) (int, error)
	OwnerStats(ctx context.Context, ownerID string) (domain.Stats, error)
}
