// Package rest reaches the persistence service over its HTTP API. It is the
// hosted-gallery counterpart of the direct Postgres adapter: same contracts,
// different wire.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/artify3d/client/domain"
)

const defaultTimeout = 10 * time.Second

// Client holds the HTTP plumbing shared by the artwork and account
// adapters: base URL, request timeout, and the bearer token of the signed-in
// identity.
type Client struct {
	http    *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger

	mu    sync.RWMutex
	token string
}

// NewClient builds a client for the gallery API at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:    &fasthttp.Client{},
		baseURL: baseURL,
		timeout: timeout,
		logger:  logger,
	}
}

// SetToken installs the credential to attach to authenticated requests,
// typically after a login or a session restore. An empty string clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the installed credential.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// freshToken returns the installed credential, refusing a token that is a
// JWT past its expiry so a stale restored session fails before a round trip.
func (c *Client) freshToken() (string, error) {
	token := c.Token()
	if token == "" {
		return "", domain.ErrSignInRequired
	}
	if tokenExpired(token) {
		return "", domain.NewError(domain.ErrCodeForbidden, "session token expired, sign in again")
	}
	return token, nil
}

// tokenExpired inspects a JWT's exp claim without verifying the signature;
// verification is the service's job. Opaque, non-JWT tokens pass through.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	return !claims.VerifyExpiresAt(time.Now().Unix(), false)
}

// doJSON performs one request and decodes the envelope. out may be nil when
// the caller only cares about success. The context's deadline, when set,
// caps the request timeout; there is no retry.
func (c *Client) doJSON(ctx context.Context, method, path, token string, body, out interface{}) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return domain.WrapError(domain.ErrCodeTransport, "encode request", err)
		}
		req.SetBody(payload)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return domain.WrapError(domain.ErrCodeTransport, "gallery service unreachable", err)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return domain.WrapError(domain.ErrCodeTransport,
			fmt.Sprintf("unexpected response (status %d)", resp.StatusCode()), err)
	}

	if status := resp.StatusCode(); status >= fasthttp.StatusBadRequest {
		return envelopeError(status, env)
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return domain.WrapError(domain.ErrCodeTransport, "decode response", err)
		}
	}
	return nil
}

// envelopeError maps a failed response onto a classified domain error. The
// service speaks the same code vocabulary; the HTTP status is the fallback.
func envelopeError(status int, env envelope) error {
	message := env.Error
	if message == "" {
		message = fmt.Sprintf("gallery service returned status %d", status)
	}

	switch domain.ErrorCode(env.Code) {
	case domain.ErrCodeValidation, domain.ErrCodeForbidden, domain.ErrCodeNotFound, domain.ErrCodeConflict:
		return domain.NewError(domain.ErrorCode(env.Code), message)
	}

	switch status {
	case fasthttp.StatusBadRequest:
		return domain.NewError(domain.ErrCodeValidation, message)
	case fasthttp.StatusUnauthorized, fasthttp.StatusForbidden:
		return domain.NewError(domain.ErrCodeForbidden, message)
	case fasthttp.StatusNotFound:
		return domain.NewError(domain.ErrCodeNotFound, message)
	case fasthttp.StatusConflict:
		return domain.NewError(domain.ErrCodeConflict, message)
	default:
		return domain.NewError(domain.ErrCodeTransport, message)
	}
}
