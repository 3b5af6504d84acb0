package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artify3d/client/domain"
	"github.com/artify3d/client/repository"
)

type artworkRepository struct {
	pool *pgxpool.Pool
}

// NewArtworkRepository returns an ArtworkRepository that talks to the
// gallery's Postgres store directly.
func NewArtworkRepository(pool *pgxpool.Pool) repository.ArtworkRepository {
	return &artworkRepository{pool: pool}
}

func (r *artworkRepository) List(ctx context.Context, filter repository.ArtworkFilter) ([]domain.Artwork, error) {
	const query = `
	SELECT a.id, a.owner_id, COALESCE(p.display_name, ''), a.title, a.description,
	       a.category, a.image_url, a.views, a.likes, a.created_at, a.updated_at
	FROM artworks a
	LEFT JOIN accounts p ON p.id = a.owner_id
	WHERE ($1 = '' OR a.category = $1)
	ORDER BY a.created_at DESC
	LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, string(filter.Category), clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeTransport, "list artworks", err)
	}
	defer rows.Close()

	var artworks []domain.Artwork
	for rows.Next() {
		var a domain.Artwork
		if err := rows.Scan(
			&a.ID, &a.OwnerID, &a.OwnerName, &a.Title, &a.Description,
			&a.Category, &a.ImageURL, &a.Views, &a.Likes, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, domain.WrapError(domain.ErrCodeTransport, "scan artwork", err)
		}
		artworks = append(artworks, a)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrCodeTransport, "list artworks", err)
	}
	return artworks, nil
}

func (r *artworkRepository) Create(ctx context.Context, artwork *domain.Artwork) (*domain.Artwork, error) {
	if artwork == nil {
		return nil, domain.ErrInvalidPayload
	}

	// The store assigns id and timestamps; the client never does.
	const query = `
	INSERT INTO artworks (owner_id, title, description, category, image_url)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, views, likes, created_at, updated_at
	`
	created := *artwork
	if err := r.pool.QueryRow(ctx, query,
		artwork.OwnerID,
		artwork.Title,
		artwork.Description,
		string(artwork.Category),
		artwork.ImageURL,
	).Scan(&created.ID, &created.Views, &created.Likes, &created.CreatedAt, &created.UpdatedAt); err != nil {
		return nil, domain.WrapError(domain.ErrCodeTransport, "create artwork", err)
	}

	return &created, nil
}

func (r *artworkRepository) Update(ctx context.Context, id, ownerID string, patch domain.ArtworkPatch) (*domain.Artwork, error) {
	const query = `
	UPDATE artworks
	SET title       = COALESCE($3, title),
	    description = COALESCE($4, description),
	    category    = COALESCE($5, category),
	    image_url   = COALESCE($6, image_url),
	    updated_at  = NOW()
	WHERE id = $1 AND owner_id = $2
	RETURNING id, owner_id, title, description, category, image_url, views, likes, created_at, updated_at
	`
	var a domain.Artwork
	if err := r.pool.QueryRow(ctx, query,
		id,
		ownerID,
		patch.Title,
		patch.Description,
		(*string)(patch.Category),
		patch.ImageURL,
	).Scan(
		&a.ID, &a.OwnerID, &a.Title, &a.Description, &a.Category,
		&a.ImageURL, &a.Views, &a.Likes, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrArtworkNotFound
		}
		return nil, domain.WrapError(domain.ErrCodeTransport, "update artwork", err)
	}
	return &a, nil
}

func (r *artworkRepository) Delete(ctx context.Context, id, ownerID string) error {
	const query = `DELETE FROM artworks WHERE id = $1 AND owner_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return domain.WrapError(domain.ErrCodeTransport, "delete artwork", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrArtworkNotFound
	}
	return nil
}

func (r *artworkRepository) IncrementViews(ctx context.Context, id string, delta int) (int, error) {
	return r.increment(ctx, "views", id, delta)
}

func (r *artworkRepository) IncrementLikes(ctx context.Context, id string, delta int) (int, error) {
	return r.increment(ctx, "likes", id, delta)
}

// increment is atomic at the store: no client-side read-modify-write, so
// concurrent bumps on the same record never drop updates.
func (r *artworkRepository) increment(ctx context.Context, column, id string, delta int) (int, error) {
	if delta <= 0 {
		return 0, domain.NewError(domain.ErrCodeValidation, "delta must be positive")
	}

	query := `UPDATE artworks SET ` + column + ` = ` + column + ` + $2 WHERE id = $1 RETURNING ` + column
	var count int
	if err := r.pool.QueryRow(ctx, query, id, delta).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrArtworkNotFound
		}
		return 0, domain.WrapError(domain.ErrCodeTransport, "increment "+column, err)
	}
	return count, nil
}

func (r *artworkRepository) OwnerStats(ctx context.Context, ownerID string) (domain.Stats, error) {
	const query = `
	SELECT COUNT(*), COALESCE(SUM(views), 0), COALESCE(SUM(likes), 0)
	FROM artworks
	WHERE owner_id = $1
	`
	var s domain.Stats
	if err := r.pool.QueryRow(ctx, query, ownerID).Scan(&s.Artworks, &s.Views, &s.Likes); err != nil {
		return domain.Stats{}, domain.WrapError(domain.ErrCodeTransport, "owner stats", err)
	}
	return s, nil
}
