package rest

import (
	"context"
	"fmt"
	"net/url"

	"github.com/valyala/fasthttp"

	"github.com/artify3d/client/domain"
	"github.com/artify3d/client/repository"
)

type artworkRepository struct {
	client *Client
}

// NewArtworkRepository returns an ArtworkRepository that speaks to the
// gallery's HTTP API through the shared client.
func NewArtworkRepository(client *Client) repository.ArtworkRepository {
	return &artworkRepository{client: client}
}

func (r *artworkRepository) List(ctx context.Context, filter repository.ArtworkFilter) ([]domain.Artwork, error) {
	query := url.Values{}
	if filter.Category != "" {
		query.Set("category", string(filter.Category))
	}
	if filter.Limit > 0 {
		query.Set("limit", fmt.Sprint(filter.Limit))
	}
	if filter.Offset > 0 {
		query.Set("offset", fmt.Sprint(filter.Offset))
	}
	path := "/api/v1/artworks"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	// Browsing is public; the token rides along when present.
	var artworks []domain.Artwork
	if err := r.client.doJSON(ctx, fasthttp.MethodGet, path, r.client.Token(), nil, &artworks); err != nil {
		return nil, err
	}
	return artworks, nil
}

func (r *artworkRepository) Create(ctx context.Context, artwork *domain.Artwork) (*domain.Artwork, error) {
	if artwork == nil {
		return nil, domain.ErrInvalidPayload
	}
	token, err := r.client.freshToken()
	if err != nil {
		return nil, err
	}

	payload := domain.ArtworkDraft{
		Title:       artwork.Title,
		Description: artwork.Description,
		Category:    artwork.Category,
		ImageURL:    artwork.ImageURL,
	}
	var created domain.Artwork
	if err := r.client.doJSON(ctx, fasthttp.MethodPost, "/api/v1/artworks", token, payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update sends the partial edit. Ownership is asserted by the bearer token;
// the ownerID parameter exists for contract parity with the direct adapter.
func (r *artworkRepository) Update(ctx context.Context, id, ownerID string, patch domain.ArtworkPatch) (*domain.Artwork, error) {
	token, err := r.client.freshToken()
	if err != nil {
		return nil, err
	}

	var updated domain.Artwork
	if err := r.client.doJSON(ctx, fasthttp.MethodPatch, "/api/v1/artworks/"+id, token, patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *artworkRepository) Delete(ctx context.Context, id, ownerID string) error {
	token, err := r.client.freshToken()
	if err != nil {
		return err
	}
	return r.client.doJSON(ctx, fasthttp.MethodDelete, "/api/v1/artworks/"+id, token, nil, nil)
}

func (r *artworkRepository) IncrementViews(ctx context.Context, id string, delta int) (int, error) {
	var result counterResponse
	err := r.client.doJSON(ctx, fasthttp.MethodPost, "/api/v1/artworks/"+id+"/views",
		r.client.Token(), incrementRequest{Delta: delta}, &result)
	if err != nil {
		return 0, err
	}
	return result.Count, nil
}

func (r *artworkRepository) IncrementLikes(ctx context.Context, id string, delta int) (int, error) {
	token, err := r.client.freshToken()
	if err != nil {
		return 0, err
	}

	var result counterResponse
	if err := r.client.doJSON(ctx, fasthttp.MethodPost, "/api/v1/artworks/"+id+"/likes",
		token, incrementRequest{Delta: delta}, &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}

func (r *artworkRepository) OwnerStats(ctx context.Context, ownerID string) (domain.Stats, error) {
	var stats domain.Stats
	path := "/api/v1/artworks/stats?owner_id=" + url.QueryEscape(ownerID)
	if err := r.client.doJSON(ctx, fasthttp.MethodGet, path, r.client.Token(), nil, &stats); err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}
