// Package memory implements in-process stores for development and testing.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/artify3d/client/domain"
	"github.com/artify3d/client/repository"
)

// Service implements ArtworkRepository and AccountService against process
// memory. Records keep insertion order; listings walk it backwards so the
// newest record comes first and creation-time ties keep a stable order.
type Service struct {
	mu       sync.Mutex
	artworks []domain.Artwork
	accounts map[string]account // keyed by email

	// Now supplies record timestamps; tests may pin it.
	Now func() time.Time
}

type account struct {
	id       string
	name     string
	password string
}

// New creates an empty in-memory service.
func New() *Service {
	return &Service{
		accounts: make(map[string]account),
		Now:      time.Now,
	}
}

var (
	_ repository.ArtworkRepository = (*Service)(nil)
	_ repository.AccountService    = (*Service)(nil)
)

// --- AccountService ---

func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(email)
	if _, exists := s.accounts[key]; exists {
		return nil, domain.ErrEmailTaken
	}
	acc := account{
		id:       uuid.NewString(),
		name:     displayName,
		password: password,
	}
	s.accounts[key] = acc
	return &domain.Identity{ID: acc.id, Email: email, Name: displayName}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[strings.ToLower(email)]
	if !ok || acc.password != password {
		return nil, domain.ErrInvalidCredentials
	}
	return &domain.Identity{ID: acc.id, Email: email, Name: acc.name}, nil
}

func (s *Service) Logout(ctx context.Context) error {
	return nil
}

// --- ArtworkRepository ---

func (s *Service) List(ctx context.Context, filter repository.ArtworkFilter) ([]domain.Artwork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Artwork
	for i := len(s.artworks) - 1; i >= 0; i-- {
		a := s.artworks[i]
		if filter.Category != "" && a.Category != filter.Category {
			continue
		}
		out = append(out, a)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, artwork *domain.Artwork) (*domain.Artwork, error) {
	if artwork == nil {
		return nil, domain.ErrInvalidPayload
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	created := *artwork
	created.ID = uuid.NewString()
	created.Views = 0
	created.Likes = 0
	created.CreatedAt = now
	created.UpdatedAt = now
	s.artworks = append(s.artworks, created)

	cp := created
	return &cp, nil
}

func (s *Service) Update(ctx context.Context, id, ownerID string, patch domain.ArtworkPatch) (*domain.Artwork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 || s.artworks[i].OwnerID != ownerID {
		return nil, domain.ErrArtworkNotFound
	}
	patch.Apply(&s.artworks[i])
	s.artworks[i].UpdatedAt = s.Now()

	cp := s.artworks[i]
	return &cp, nil
}

func (s *Service) Delete(ctx context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 || s.artworks[i].OwnerID != ownerID {
		return domain.ErrArtworkNotFound
	}
	s.artworks = append(s.artworks[:i], s.artworks[i+1:]...)
	return nil
}

func (s *Service) IncrementViews(ctx context.Context, id string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return 0, domain.ErrArtworkNotFound
	}
	s.artworks[i].Views += delta
	return s.artworks[i].Views, nil
}

func (s *Service) IncrementLikes(ctx context.Context, id string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return 0, domain.ErrArtworkNotFound
	}
	s.artworks[i].Likes += delta
	return s.artworks[i].Likes, nil
}

func (s *Service) OwnerStats(ctx context.Context, ownerID string) (domain.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.FoldStats(s.artworks, ownerID), nil
}

func (s *Service) indexOf(id string) int {
	for i := range s.artworks {
		if s.artworks[i].ID == id {
			return i
		}
	}
	return -1
}

// KVStore is a map-backed KeyValueStore for tests and demo mode.
type KVStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

var _ repository.KeyValueStore = (*KVStore)(nil)

// NewKVStore creates an empty in-memory key-value store.
func NewKVStore() *KVStore {
	return &KVStore{data: make(map[string][]byte)}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *KVStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
