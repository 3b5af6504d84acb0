package rest

import (
	"context"

	"github.com/valyala/fasthttp"

	"github.com/artify3d/client/domain"
	"github.com/artify3d/client/repository"
)

type accountService struct {
	client *Client
}

// NewAccountService returns an AccountService backed by the gallery's auth
// endpoints. Successful calls install the returned token on the shared
// client so subsequent mutations are authenticated.
func NewAccountService(client *Client) repository.AccountService {
	return &accountService{client: client}
}

func (s *accountService) SignUp(ctx context.Context, email, password, displayName string) (*domain.Identity, error) {
	var identity domain.Identity
	err := s.client.doJSON(ctx, fasthttp.MethodPost, "/api/v1/auth/signup", "",
		signUpRequest{Email: email, Password: password, Name: displayName}, &identity)
	if err != nil {
		return nil, err
	}
	s.client.SetToken(identity.Token)
	return &identity, nil
}

func (s *accountService) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	var identity domain.Identity
	err := s.client.doJSON(ctx, fasthttp.MethodPost, "/api/v1/auth/login", "",
		loginRequest{Email: email, Password: password}, &identity)
	if err != nil {
		return nil, err
	}
	s.client.SetToken(identity.Token)
	return &identity, nil
}

func (s *accountService) Logout(ctx context.Context) error {
	token := s.client.Token()
	s.client.SetToken("")
	if token == "" {
		return nil
	}
	// Best effort: the local session is gone either way.
	return s.client.doJSON(ctx, fasthttp.MethodPost, "/api/v1/auth/logout", token, nil, nil)
}
