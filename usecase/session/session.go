package session

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/artify3d/client/domain"
	"github.com/artify3d/client/repository"
)

// StorageKey is the fixed local-store key the identity is persisted under.
// It matches the key the web client has always used, so a box shared with
// one keeps a single session.
const StorageKey = "artify3d_user"

// State describes where the manager is in the identity lifecycle.
type State string

const (
	StateUnknown        State = "unknown"
	StateRestoring      State = "restoring"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
	StateEnding         State = "ending"
	StateAnonymous      State = "anonymous"
)

// Manager owns the current authenticated identity and its lifecycle. It is
// the only component allowed to replace the identity value; everyone else
// reads it through Identity().
type Manager struct {
	accounts repository.AccountService
	store    repository.KeyValueStore
	logger   *zap.Logger

	mu       sync.RWMutex
	state    State
	identity *domain.Identity
}

// New builds a session manager in the Unknown state, before any restore
// attempt has been made.
func New(accounts repository.AccountService, store repository.KeyValueStore, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		accounts: accounts,
		store:    store,
		logger:   logger,
		state:    StateUnknown,
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Loading reports whether a lifecycle operation is in flight.
func (m *Manager) Loading() bool {
	switch m.State() {
	case StateRestoring, StateAuthenticating, StateEnding:
		return true
	}
	return false
}

// Identity returns a copy of the live identity, or nil when anonymous.
func (m *Manager) Identity() *domain.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.identity == nil {
		return nil
	}
	cp := *m.identity
	return &cp
}

// IsAuthenticated reports whether an identity is live.
func (m *Manager) IsAuthenticated() bool {
	return m.Identity() != nil
}

// Restore attempts to recover a previously persisted identity. It is a
// single bounded attempt: a missing key or a malformed value resolves to
// Anonymous without error, a store read failure resolves to Anonymous with
// a classified storage error.
func (m *Manager) Restore(ctx context.Context) (*domain.Identity, error) {
	m.setState(StateRestoring)

	raw, err := m.store.Get(ctx, StorageKey)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			m.become(StateAnonymous, nil)
			return nil, nil
		}
		m.become(StateAnonymous, nil)
		return nil, domain.WrapError(domain.ErrCodeStorage, "restore session", err)
	}

	var identity domain.Identity
	if err := json.Unmarshal(raw, &identity); err != nil || !identity.Valid() {
		m.logger.Warn("stored session unusable, discarding", zap.Error(err))
		if rmErr := m.store.Remove(ctx, StorageKey); rmErr != nil {
			m.logger.Warn("failed to discard stored session", zap.Error(rmErr))
		}
		m.become(StateAnonymous, nil)
		return nil, nil
	}

	m.become(StateAuthenticated, &identity)
	m.logger.Info("session restored", zap.String("user_id", identity.ID))
	return m.Identity(), nil
}

// SignUp registers a new account and signs it in. Validation failures are
// reported before any network call; a service failure leaves the prior
// state intact.
func (m *Manager) SignUp(ctx context.Context, email, password, displayName string) (*domain.Identity, error) {
	if email == "" || password == "" {
		return nil, domain.NewError(domain.ErrCodeValidation, "email and password are required")
	}
	return m.authenticate(ctx, func(ctx context.Context) (*domain.Identity, error) {
		return m.accounts.SignUp(ctx, email, password, displayName)
	})
}

// Login resolves existing credentials to an identity. Validation failures
// are reported before any network call; a service failure leaves the prior
// state intact.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	if email == "" || password == "" {
		return nil, domain.NewError(domain.ErrCodeValidation, "email and password are required")
	}
	return m.authenticate(ctx, func(ctx context.Context) (*domain.Identity, error) {
		return m.accounts.Login(ctx, email, password)
	})
}

// Logout clears the identity and removes it from the local store. Calling
// it while already anonymous is a no-op. The in-memory identity is gone
// even when removing the stored copy fails; that failure is surfaced as a
// storage error so the caller can warn the user.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	if m.identity == nil {
		m.state = StateAnonymous
		m.mu.Unlock()
		return nil
	}
	userID := m.identity.ID
	m.state = StateEnding
	m.identity = nil
	m.mu.Unlock()

	if err := m.accounts.Logout(ctx); err != nil {
		m.logger.Warn("account service logout failed", zap.Error(err))
	}

	var removeErr error
	if err := m.store.Remove(ctx, StorageKey); err != nil && !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		removeErr = domain.WrapError(domain.ErrCodeStorage, "remove stored session", err)
	}

	m.setState(StateAnonymous)
	m.logger.Info("signed out", zap.String("user_id", userID))
	return removeErr
}

// authenticate runs one sign-up or login attempt. On failure the state
// machine returns to whatever it was before the attempt, identity included.
func (m *Manager) authenticate(ctx context.Context, attempt func(context.Context) (*domain.Identity, error)) (*domain.Identity, error) {
	m.mu.Lock()
	prevState := m.state
	prevIdentity := m.identity
	m.state = StateAuthenticating
	m.mu.Unlock()

	identity, err := attempt(ctx)
	if err != nil {
		m.become(prevState, prevIdentity)
		return nil, err
	}
	if !identity.Valid() {
		m.become(prevState, prevIdentity)
		return nil, domain.NewError(domain.ErrCodeTransport, "service returned an incomplete identity")
	}

	m.become(StateAuthenticated, identity)
	m.logger.Info("signed in", zap.String("user_id", identity.ID))

	if err := m.persist(ctx, identity); err != nil {
		// The account exists service-side, so the identity stays live; the
		// caller just loses restore-on-next-start.
		m.logger.Warn("failed to persist session", zap.Error(err))
		return m.Identity(), domain.WrapError(domain.ErrCodeStorage, "persist session", err)
	}
	return m.Identity(), nil
}

func (m *Manager) persist(ctx context.Context, identity *domain.Identity) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, StorageKey, raw)
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) become(s State, identity *domain.Identity) {
	m.mu.Lock()
	m.state = s
	m.identity = identity
	m.mu.Unlock()
}
