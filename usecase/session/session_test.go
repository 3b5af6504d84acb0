package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artify3d/client/domain"
	"github.com/artify3d/client/repository"
)

type mockAccounts struct {
	signUpFn func(ctx context.Context, email, password, displayName string) (*domain.Identity, error)
	loginFn  func(ctx context.Context, email, password string) (*domain.Identity, error)
	logoutFn func(ctx context.Context) error

	calls int
}

func (m *mockAccounts) SignUp(ctx context.Context, email, password, displayName string) (*domain.Identity, error) {
	m.calls++
	if m.signUpFn == nil {
		return nil, errors.New("unexpected SignUp call")
	}
	return m.signUpFn(ctx, email, password, displayName)
}

func (m *mockAccounts) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	m.calls++
	if m.loginFn == nil {
		return nil, errors.New("unexpected Login call")
	}
	return m.loginFn(ctx, email, password)
}

func (m *mockAccounts) Logout(ctx context.Context) error {
	if m.logoutFn == nil {
		return nil
	}
	return m.logoutFn(ctx)
}

type mockStore struct {
	getFn    func(ctx context.Context, key string) ([]byte, error)
	setFn    func(ctx context.Context, key string, value []byte) error
	removeFn func(ctx context.Context, key string) error

	removed []string
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn == nil {
		return nil, domain.ErrKeyNotFound
	}
	return m.getFn(ctx, key)
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn == nil {
		return nil
	}
	return m.setFn(ctx, key, value)
}

func (m *mockStore) Remove(ctx context.Context, key string) error {
	m.removed = append(m.removed, key)
	if m.removeFn == nil {
		return nil
	}
	return m.removeFn(ctx, key)
}

var (
	_ repository.AccountService = (*mockAccounts)(nil)
	_ repository.KeyValueStore  = (*mockStore)(nil)
)

func testIdentity() *domain.Identity {
	return &domain.Identity{ID: "u1", Email: "ada@example.com", Name: "Ada", Token: "tok"}
}

func TestNewStartsUnknown(t *testing.T) {
	m := New(&mockAccounts{}, &mockStore{}, nil)
	assert.Equal(t, StateUnknown, m.State())
	assert.Nil(t, m.Identity())
	assert.False(t, m.IsAuthenticated())
	assert.False(t, m.Loading())
}

func TestRestoreFound(t *testing.T) {
	raw, err := json.Marshal(testIdentity())
	require.NoError(t, err)

	store := &mockStore{
		getFn: func(ctx context.Context, key string) ([]byte, error) {
			assert.Equal(t, StorageKey, key)
			return raw, nil
		},
	}
	m := New(&mockAccounts{}, store, nil)

	identity, err := m.Restore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "u1", identity.ID)
	assert.Equal(t, StateAuthenticated, m.State())
	assert.True(t, m.IsAuthenticated())
}

func TestRestoreMissingKey(t *testing.T) {
	m := New(&mockAccounts{}, &mockStore{}, nil)

	identity, err := m.Restore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, identity)
	assert.Equal(t, StateAnonymous, m.State())
}

func TestRestoreMalformedValueDiscardsKey(t *testing.T) {
	store := &mockStore{
		getFn: func(ctx context.Context, key string) ([]byte, error) {
			return []byte("{not json"), nil
		},
	}
	m := New(&mockAccounts{}, store, nil)

	identity, err := m.Restore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, identity)
	assert.Equal(t, StateAnonymous, m.State())
	assert.Equal(t, []string{StorageKey}, store.removed)
}

func TestRestoreIncompleteIdentityDiscardsKey(t *testing.T) {
	// Valid JSON but not a usable identity.
	store := &mockStore{
		getFn: func(ctx context.Context, key string) ([]byte, error) {
			return []byte(`{"email":"ada@example.com"}`), nil
		},
	}
	m := New(&mockAccounts{}, store, nil)

	identity, err := m.Restore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, identity)
	assert.Equal(t, []string{StorageKey}, store.removed)
}

func TestRestoreStoreFailure(t *testing.T) {
	store := &mockStore{
		getFn: func(ctx context.Context, key string) ([]byte, error) {
			return nil, errors.New("disk gone")
		},
	}
	m := New(&mockAccounts{}, store, nil)

	identity, err := m.Restore(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeStorage))
	assert.Nil(t, identity)
	assert.Equal(t, StateAnonymous, m.State())
}

func TestSignUpSuccessPersists(t *testing.T) {
	accounts := &mockAccounts{
		signUpFn: func(ctx context.Context, email, password, displayName string) (*domain.Identity, error) {
			assert.Equal(t, "ada@example.com", email)
			assert.Equal(t, "Ada", displayName)
			return testIdentity(), nil
		},
	}
	var persisted []byte
	store := &mockStore{
		setFn: func(ctx context.Context, key string, value []byte) error {
			assert.Equal(t, StorageKey, key)
			persisted = value
			return nil
		},
	}
	m := New(accounts, store, nil)

	identity, err := m.SignUp(context.Background(), "ada@example.com", "secret", "Ada")
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, StateAuthenticated, m.State())

	var stored domain.Identity
	require.NoError(t, json.Unmarshal(persisted, &stored))
	assert.Equal(t, "u1", stored.ID)
}

func TestSignUpValidationSkipsService(t *testing.T) {
	accounts := &mockAccounts{}
	m := New(accounts, &mockStore{}, nil)

	_, err := m.SignUp(context.Background(), "", "secret", "")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidation))
	assert.Zero(t, accounts.calls)
	assert.Equal(t, StateUnknown, m.State())
}

func TestLoginFailureKeepsPriorState(t *testing.T) {
	accounts := &mockAccounts{
		loginFn: func(ctx context.Context, email, password string) (*domain.Identity, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	m := New(accounts, &mockStore{}, nil)
	_, err := m.Restore(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateAnonymous, m.State())

	identity, err := m.Login(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
	assert.Nil(t, identity)
	assert.Equal(t, StateAnonymous, m.State())
	assert.Nil(t, m.Identity())
}

func TestLoginFailureKeepsExistingIdentity(t *testing.T) {
	// Already signed in; a second attempt that fails must not end the
	// current session.
	accounts := &mockAccounts{
		loginFn: func(ctx context.Context, email, password string) (*domain.Identity, error) {
			if password == "right" {
				return testIdentity(), nil
			}
			return nil, domain.ErrInvalidCredentials
		},
	}
	m := New(accounts, &mockStore{}, nil)

	_, err := m.Login(context.Background(), "ada@example.com", "right")
	require.NoError(t, err)

	_, err = m.Login(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, StateAuthenticated, m.State())
	require.NotNil(t, m.Identity())
	assert.Equal(t, "u1", m.Identity().ID)
}

func TestLoginPersistFailureKeepsIdentityLive(t *testing.T) {
	accounts := &mockAccounts{
		loginFn: func(ctx context.Context, email, password string) (*domain.Identity, error) {
			return testIdentity(), nil
		},
	}
	store := &mockStore{
		setFn: func(ctx context.Context, key string, value []byte) error {
			return errors.New("disk full")
		},
	}
	m := New(accounts, store, nil)

	identity, err := m.Login(context.Background(), "ada@example.com", "secret")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeStorage))
	require.NotNil(t, identity)
	assert.Equal(t, StateAuthenticated, m.State())
	assert.True(t, m.IsAuthenticated())
}

func TestIdentityReturnsCopy(t *testing.T) {
	accounts := &mockAccounts{
		loginFn: func(ctx context.Context, email, password string) (*domain.Identity, error) {
			return testIdentity(), nil
		},
	}
	m := New(accounts, &mockStore{}, nil)
	_, err := m.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)

	first := m.Identity()
	first.Name = "Mallory"
	assert.Equal(t, "Ada", m.Identity().Name)
}

func TestLogoutClearsIdentityAndStore(t *testing.T) {
	accounts := &mockAccounts{
		loginFn: func(ctx context.Context, email, password string) (*domain.Identity, error) {
			return testIdentity(), nil
		},
	}
	store := &mockStore{}
	m := New(accounts, store, nil)
	_, err := m.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)

	require.NoError(t, m.Logout(context.Background()))
	assert.Equal(t, StateAnonymous, m.State())
	assert.Nil(t, m.Identity())
	assert.Equal(t, []string{StorageKey}, store.removed)
}

func TestLogoutIdempotent(t *testing.T) {
	store := &mockStore{}
	m := New(&mockAccounts{}, store, nil)

	require.NoError(t, m.Logout(context.Background()))
	require.NoError(t, m.Logout(context.Background()))
	assert.Equal(t, StateAnonymous, m.State())
	assert.Empty(t, store.removed)
}

func TestLogoutStoreFailureStillClearsIdentity(t *testing.T) {
	accounts := &mockAccounts{
		loginFn: func(ctx context.Context, email, password string) (*domain.Identity, error) {
			return testIdentity(), nil
		},
	}
	store := &mockStore{
		removeFn: func(ctx context.Context, key string) error {
			return errors.New("disk gone")
		},
	}
	m := New(accounts, store, nil)
	_, err := m.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)

	err = m.Logout(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeStorage))
	assert.Nil(t, m.Identity())
	assert.Equal(t, StateAnonymous, m.State())
}

func TestLogoutServiceFailureIsBestEffort(t *testing.T) {
	accounts := &mockAccounts{
		loginFn: func(ctx context.Context, email, password string) (*domain.Identity, error) {
			return testIdentity(), nil
		},
		logoutFn: func(ctx context.Context) error {
			return errors.New("service down")
		},
	}
	store := &mockStore{}
	m := New(accounts, store, nil)
	_, err := m.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)

	require.NoError(t, m.Logout(context.Background()))
	assert.Nil(t, m.Identity())
	assert.Equal(t, []string{StorageKey}, store.removed)
}
