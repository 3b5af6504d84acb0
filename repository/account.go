package repository

import (
	"context"

	"github.com/artify3d/client/domain"
)

// AccountService is the session-service contract consumed by the session
// manager. The core never hashes passwords or mints tokens; whatever sits
// behind this interface does.
type AccountService interface {
	SignUp(ctx context.Context, email, password, displayName string) (*domain.Identity, error)
	Login(ctx context.Context, email, password string) (*domain.Identity, error)
	Logout(ctx context.Context) error
}
