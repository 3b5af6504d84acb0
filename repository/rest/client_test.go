package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fasthttp/router"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/artify3d/client/domain"
	"github.com/artify3d/client/repository"
)

// gallery is a minimal in-process stand-in for the hosted service. It
// records what it saw so tests can assert on the wire behavior.
type gallery struct {
	mu        sync.Mutex
	artworks  map[string]*domain.Artwork
	lastAuth  string
	lastQuery map[string]string
}

func newGallery() *gallery {
	return &gallery{artworks: make(map[string]*domain.Artwork)}
}

func (g *gallery) add(a domain.Artwork) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := a
	g.artworks[a.ID] = &cp
}

func (g *gallery) authHeader() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastAuth
}

func (g *gallery) query(key string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastQuery[key]
}

func (g *gallery) record(ctx *fasthttp.RequestCtx) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastAuth = string(ctx.Request.Header.Peek("Authorization"))
	g.lastQuery = make(map[string]string)
	ctx.QueryArgs().VisitAll(func(k, v []byte) {
		g.lastQuery[string(k)] = string(v)
	})
}

func respond(ctx *fasthttp.RequestCtx, status int, code string, data interface{}, errMsg string) {
	env := map[string]interface{}{}
	if errMsg != "" {
		env["status"] = "error"
		env["error"] = errMsg
	} else {
		env["status"] = "success"
		env["data"] = data
	}
	if code != "" {
		env["code"] = code
	}
	body, _ := json.Marshal(env)
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

// startGallery serves the fake API on a loopback port and returns its base
// URL.
func startGallery(t *testing.T, g *gallery) string {
	t.Helper()

	r := router.New()

	r.POST("/api/v1/auth/signup", func(ctx *fasthttp.RequestCtx) {
		g.record(ctx)
		var req signUpRequest
		_ = json.Unmarshal(ctx.PostBody(), &req)
		if req.Email == "taken@example.com" {
			respond(ctx, fasthttp.StatusConflict, "CONFLICT", nil, "email already registered")
			return
		}
		respond(ctx, fasthttp.StatusOK, "", domain.Identity{
			ID: "u1", Email: req.Email, Name: req.Name, Token: "signup-token",
		}, "")
	})

	r.POST("/api/v1/auth/login", func(ctx *fasthttp.RequestCtx) {
		g.record(ctx)
		var req loginRequest
		_ = json.Unmarshal(ctx.PostBody(), &req)
		if req.Password != "secret" {
			respond(ctx, fasthttp.StatusUnauthorized, "FORBIDDEN", nil, "invalid email or password")
			return
		}
		respond(ctx, fasthttp.StatusOK, "", domain.Identity{
			ID: "u1", Email: req.Email, Token: "login-token",
		}, "")
	})

	r.POST("/api/v1/auth/logout", func(ctx *fasthttp.RequestCtx) {
		g.record(ctx)
		respond(ctx, fasthttp.StatusOK, "", nil, "")
	})

	r.GET("/api/v1/artworks", func(ctx *fasthttp.RequestCtx) {
		g.record(ctx)
		g.mu.Lock()
		out := make([]domain.Artwork, 0, len(g.artworks))
		for _, a := range g.artworks {
			out = append(out, *a)
		}
		g.mu.Unlock()
		respond(ctx, fasthttp.StatusOK, "", out, "")
	})

	r.POST("/api/v1/artworks", func(ctx *fasthttp.RequestCtx) {
		g.record(ctx)
		if len(ctx.Request.Header.Peek("Authorization")) == 0 {
			respond(ctx, fasthttp.StatusUnauthorized, "FORBIDDEN", nil, "sign in required")
			return
		}
		var draft domain.ArtworkDraft
		_ = json.Unmarshal(ctx.PostBody(), &draft)
		created := domain.Artwork{
			ID: "new-id", OwnerID: "u1", Title: draft.Title,
			Category: draft.Category, CreatedAt: time.Now(),
		}
		g.add(created)
		respond(ctx, fasthttp.StatusCreated, "", created, "")
	})

	r.PATCH("/api/v1/artworks/{id}", func(ctx *fasthttp.RequestCtx) {
		g.record(ctx)
		id := ctx.UserValue("id").(string)
		g.mu.Lock()
		a, ok := g.artworks[id]
		g.mu.Unlock()
		if !ok {
			respond(ctx, fasthttp.StatusNotFound, "NOT_FOUND", nil, "artwork not found")
			return
		}
		var patch domain.ArtworkPatch
		_ = json.Unmarshal(ctx.PostBody(), &patch)
		patch.Apply(a)
		respond(ctx, fasthttp.StatusOK, "", *a, "")
	})

	r.DELETE("/api/v1/artworks/{id}", func(ctx *fasthttp.RequestCtx) {
		g.record(ctx)
		id := ctx.UserValue("id").(string)
		g.mu.Lock()
		_, ok := g.artworks[id]
		delete(g.artworks, id)
		g.mu.Unlock()
		if !ok {
			respond(ctx, fasthttp.StatusNotFound, "NOT_FOUND", nil, "artwork not found")
			return
		}
		respond(ctx, fasthttp.StatusOK, "", nil, "")
	})

	counter := func(views bool) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			g.record(ctx)
			id := ctx.UserValue("id").(string)
			g.mu.Lock()
			defer g.mu.Unlock()
			a, ok := g.artworks[id]
			if !ok {
				respond(ctx, fasthttp.StatusNotFound, "NOT_FOUND", nil, "artwork not found")
				return
			}
			var req incrementRequest
			_ = json.Unmarshal(ctx.PostBody(), &req)
			var count int
			if views {
				a.Views += req.Delta
				count = a.Views
			} else {
				a.Likes += req.Delta
				count = a.Likes
			}
			respond(ctx, fasthttp.StatusOK, "", counterResponse{Count: count}, "")
		}
	}
	r.POST("/api/v1/artworks/{id}/views", counter(true))
	r.POST("/api/v1/artworks/{id}/likes", counter(false))

	r.GET("/api/v1/artworks/stats", func(ctx *fasthttp.RequestCtx) {
		g.record(ctx)
		owner := string(ctx.QueryArgs().Peek("owner_id"))
		g.mu.Lock()
		var stats domain.Stats
		for _, a := range g.artworks {
			if a.OwnerID == owner {
				stats.Add(*a)
			}
		}
		g.mu.Unlock()
		respond(ctx, fasthttp.StatusOK, "", stats, "")
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	server := &fasthttp.Server{Handler: r.Handler}
	go server.Serve(ln) //nolint:errcheck
	t.Cleanup(func() { _ = server.Shutdown() })

	return "http://" + ln.Addr().String()
}

func newTestClient(t *testing.T, g *gallery) *Client {
	t.Helper()
	return NewClient(startGallery(t, g), 2*time.Second, nil)
}

func TestLoginInstallsToken(t *testing.T) {
	g := newGallery()
	client := newTestClient(t, g)
	accounts := NewAccountService(client)

	identity, err := accounts.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.ID)
	assert.Equal(t, "login-token", client.Token())
	// Credential endpoints never send a stale bearer token.
	assert.Empty(t, g.authHeader())
}

func TestLoginFailureMapsCode(t *testing.T) {
	g := newGallery()
	accounts := NewAccountService(newTestClient(t, g))

	_, err := accounts.Login(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
}

func TestSignUpConflict(t *testing.T) {
	g := newGallery()
	accounts := NewAccountService(newTestClient(t, g))

	_, err := accounts.SignUp(context.Background(), "taken@example.com", "secret", "")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))
}

func TestLogoutClearsTokenFirst(t *testing.T) {
	g := newGallery()
	client := newTestClient(t, g)
	accounts := NewAccountService(client)

	_, err := accounts.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)

	require.NoError(t, accounts.Logout(context.Background()))
	assert.Empty(t, client.Token())
	assert.Equal(t, "Bearer login-token", g.authHeader())

	// Already signed out: nothing to tell the service.
	g.mu.Lock()
	g.lastAuth = ""
	g.mu.Unlock()
	require.NoError(t, accounts.Logout(context.Background()))
	assert.Empty(t, g.authHeader())
}

func TestListSendsFilterQuery(t *testing.T) {
	g := newGallery()
	g.add(domain.Artwork{ID: "a1", OwnerID: "u1", Title: "Vase", Category: domain.CategoryProducts})
	repo := NewArtworkRepository(newTestClient(t, g))

	out, err := repo.List(context.Background(), repository.ArtworkFilter{
		Category: domain.CategoryProducts,
		Limit:    20,
		Offset:   40,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Vase", out[0].Title)
	assert.Equal(t, "Products", g.query("category"))
	assert.Equal(t, "20", g.query("limit"))
	assert.Equal(t, "40", g.query("offset"))
}

func TestCreateRequiresToken(t *testing.T) {
	g := newGallery()
	repo := NewArtworkRepository(newTestClient(t, g))

	_, err := repo.Create(context.Background(), &domain.Artwork{
		Title: "Vase", Category: domain.CategoryProducts,
	})
	require.ErrorIs(t, err, domain.ErrSignInRequired)
	// Rejected locally; the request never left the process.
	assert.Empty(t, g.authHeader())
}

func TestCreateSendsBearerToken(t *testing.T) {
	g := newGallery()
	client := newTestClient(t, g)
	client.SetToken("opaque-token")
	repo := NewArtworkRepository(client)

	created, err := repo.Create(context.Background(), &domain.Artwork{
		Title: "Vase", Category: domain.CategoryProducts,
	})
	require.NoError(t, err)
	assert.Equal(t, "new-id", created.ID)
	assert.Equal(t, "Bearer opaque-token", g.authHeader())
}

func TestExpiredJWTRejectedLocally(t *testing.T) {
	g := newGallery()
	client := newTestClient(t, g)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	client.SetToken(signed)

	repo := NewArtworkRepository(client)
	_, err = repo.Create(context.Background(), &domain.Artwork{
		Title: "Vase", Category: domain.CategoryProducts,
	})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
	assert.True(t, strings.Contains(err.Error(), "expired"))
	assert.Empty(t, g.authHeader())
}

func TestLiveJWTPasses(t *testing.T) {
	g := newGallery()
	client := newTestClient(t, g)

	live := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := live.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	client.SetToken(signed)

	repo := NewArtworkRepository(client)
	_, err = repo.Create(context.Background(), &domain.Artwork{
		Title: "Vase", Category: domain.CategoryProducts,
	})
	require.NoError(t, err)
}

func TestUpdateAndDelete(t *testing.T) {
	g := newGallery()
	g.add(domain.Artwork{ID: "a1", OwnerID: "u1", Title: "Vase", Category: domain.CategoryProducts})
	client := newTestClient(t, g)
	client.SetToken("tok")
	repo := NewArtworkRepository(client)

	title := "Amphora"
	updated, err := repo.Update(context.Background(), "a1", "u1", domain.ArtworkPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Amphora", updated.Title)

	_, err = repo.Update(context.Background(), "missing", "u1", domain.ArtworkPatch{Title: &title})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))

	require.NoError(t, repo.Delete(context.Background(), "a1", "u1"))
	err = repo.Delete(context.Background(), "a1", "u1")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestIncrementsReturnServerCount(t *testing.T) {
	g := newGallery()
	g.add(domain.Artwork{ID: "a1", OwnerID: "u1", Title: "Vase", Category: domain.CategoryProducts, Views: 4})
	client := newTestClient(t, g)
	client.SetToken("tok")
	repo := NewArtworkRepository(client)

	count, err := repo.IncrementViews(context.Background(), "a1", 1)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	count, err = repo.IncrementLikes(context.Background(), "a1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOwnerStats(t *testing.T) {
	g := newGallery()
	g.add(domain.Artwork{ID: "a1", OwnerID: "u1", Views: 4, Likes: 1})
	g.add(domain.Artwork{ID: "a2", OwnerID: "u2", Views: 99})
	repo := NewArtworkRepository(newTestClient(t, g))

	stats, err := repo.OwnerStats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Artworks: 1, Views: 4, Likes: 1}, stats)
	assert.Equal(t, "u1", g.query("owner_id"))
}

func TestUnreachableServiceIsTransportError(t *testing.T) {
	// Dial a port nobody listens on.
	client := NewClient("http://127.0.0.1:1", 200*time.Millisecond, nil)
	repo := NewArtworkRepository(client)

	_, err := repo.List(context.Background(), repository.ArtworkFilter{})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeTransport))
}

func TestEnvelopeErrorFallsBackToStatus(t *testing.T) {
	err := envelopeError(fasthttp.StatusConflict, envelope{Error: "duplicate"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))

	err = envelopeError(fasthttp.StatusInternalServerError, envelope{})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeTransport))
	assert.Equal(t, fmt.Sprintf("gallery service returned status %d", fasthttp.StatusInternalServerError), err.Error())

	// A recognized code wins over the status.
	err = envelopeError(fasthttp.StatusInternalServerError, envelope{Code: "NOT_FOUND", Error: "gone"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}
