package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/artify3d/client/domain"
	"github.com/artify3d/client/repository"
)

const uniqueViolation = "23505"

type accountService struct {
	pool *pgxpool.Pool
}

// NewAccountService returns an AccountService backed by the gallery's
// accounts table. Credential handling lives here, behind the service
// contract; the session manager only ever sees identities.
func NewAccountService(pool *pgxpool.Pool) repository.AccountService {
	return &accountService{pool: pool}
}

func (s *accountService) SignUp(ctx context.Context, email, password, displayName string) (*domain.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeTransport, "hash password", err)
	}

	const query = `
	INSERT INTO accounts (email, display_name, password_hash)
	VALUES ($1, $2, $3)
	RETURNING id
	`
	identity := &domain.Identity{Email: email, Name: displayName}
	if err := s.pool.QueryRow(ctx, query, email, displayName, string(hash)).Scan(&identity.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrEmailTaken
		}
		return nil, domain.WrapError(domain.ErrCodeTransport, "sign up", err)
	}
	return identity, nil
}

func (s *accountService) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	const query = `
	SELECT id, display_name, password_hash
	FROM accounts
	WHERE email = $1
	`
	var (
		identity = domain.Identity{Email: email}
		hash     string
	)
	if err := s.pool.QueryRow(ctx, query, email).Scan(&identity.ID, &identity.Name, &hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.WrapError(domain.ErrCodeTransport, "login", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return &identity, nil
}

// Logout is a no-op against a direct Postgres store: there is no
// service-side session to revoke.
func (s *accountService) Logout(ctx context.Context) error {
	return nil
}
