package session_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/session"
	"github.com/trezcool/shule/core/user"
	kvinmem "github.com/trezcool/shule/storage/kv/inmem"
	testutil "github.com/trezcool/shule/tests"
)

var errBoom = errors.New("boom")

type authMock struct {
	usr user.User
	err error
}

func (a *authMock) Authenticate(_ context.Context, email, pwd string) (user.User, error) {
	if a.err != nil {
		return user.User{}, a.err
	}
	if email != a.usr.Email || pwd != "s3cr3t!" {
		return user.User{}, user.ErrInvalidCredentials
	}
	return a.usr, nil
}

// brokenKeeper fails every operation; the store must shrug it off.
type brokenKeeper struct{}

func (brokenKeeper) Get(context.Context, string) (string, error) { return "", errBoom }
func (brokenKeeper) Set(context.Context, string, string) error   { return errBoom }
func (brokenKeeper) Remove(context.Context, string) error        { return errBoom }

func newAuth(roles []string) *authMock {
	return &authMock{
		usr: user.User{
			ID:    "77b08b4a-2b43-4e42-a686-a79e09df8b5b",
			Name:  "Awe Mbi",
			Email: "awe@test.cd",
			Roles: roles,
		},
	}
}

func newStore(t *testing.T, keeper core.Keeper, auth session.Authenticator) *session.Store {
	t.Helper()
	if keeper == nil {
		keeper = kvinmem.New()
	}
	return session.NewStore(keeper, auth, testutil.NopLogger{}, testutil.NewConfig())
}

func TestStore_guardStates(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, nil, newAuth([]string{"ROLE_TEACHER"}))

	assert.True(t, store.IsLoading())
	assert.Equal(t, session.StateLoading, store.State())

	store.Initialize(ctx)
	assert.False(t, store.IsLoading())
	assert.Equal(t, session.StateUnauthenticated, store.State())

	_, err := store.Login(ctx, "awe@test.cd", "s3cr3t!")
	require.NoError(t, err)
	assert.Equal(t, session.StateAuthenticated, store.State())

	store.Logout(ctx)
	assert.Equal(t, session.StateUnauthenticated, store.State())

	// the loading flag never flips back
	store.Initialize(ctx)
	assert.False(t, store.IsLoading())
}

func TestStore_login(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		store := newStore(t, nil, newAuth([]string{"ROLE_ADMIN", "teacher"}))
		store.Initialize(ctx)

		sess, err := store.Login(ctx, "awe@test.cd", "s3cr3t!")
		require.NoError(t, err)
		assert.Equal(t, "77b08b4a-2b43-4e42-a686-a79e09df8b5b", sess.ID)
		assert.Equal(t, []string{"ADMIN", "TEACHER"}, sess.Roles)
		assert.Equal(t, user.RoleAdmin, sess.PrimaryRole())
		assert.NotEmpty(t, store.Credential())
		assert.True(t, store.IsAuthenticated())
		assert.True(t, store.HasRole(user.RoleAdmin))
		assert.False(t, store.HasRole(user.RoleParent))
	})

	t.Run("invalid credentials", func(t *testing.T) {
		store := newStore(t, nil, newAuth(nil))
		store.Initialize(ctx)

		_, err := store.Login(ctx, "awe@test.cd", "nope")
		assert.Equal(t, session.ErrAuthenticationFailed, errors.Cause(err))
		assert.False(t, store.IsAuthenticated())
		assert.Empty(t, store.Credential())
	})

	t.Run("deactivated account", func(t *testing.T) {
		auth := newAuth(nil)
		auth.err = user.ErrAccountDeactivated
		store := newStore(t, nil, auth)
		store.Initialize(ctx)

		_, err := store.Login(ctx, "awe@test.cd", "s3cr3t!")
		assert.Equal(t, session.ErrAuthenticationFailed, errors.Cause(err))
	})

	t.Run("transport error propagates unmodified", func(t *testing.T) {
		auth := newAuth(nil)
		auth.err = errBoom
		store := newStore(t, nil, auth)
		store.Initialize(ctx)

		_, err := store.Login(ctx, "awe@test.cd", "s3cr3t!")
		assert.Equal(t, errBoom, errors.Cause(err))
		assert.NotEqual(t, session.ErrAuthenticationFailed, errors.Cause(err))
	})

	t.Run("storage failures never fail a login", func(t *testing.T) {
		store := newStore(t, brokenKeeper{}, newAuth([]string{"student"}))
		store.Initialize(ctx)

		sess, err := store.Login(ctx, "awe@test.cd", "s3cr3t!")
		require.NoError(t, err)
		assert.Equal(t, user.RoleStudent, sess.PrimaryRole())
		assert.True(t, store.IsAuthenticated())

		store.Logout(ctx)
		assert.False(t, store.IsAuthenticated())
	})
}

func TestStore_initializeRehydrates(t *testing.T) {
	ctx := context.Background()
	keeper := kvinmem.New()

	store := newStore(t, keeper, newAuth([]string{"parent"}))
	store.Initialize(ctx)
	want, err := store.Login(ctx, "awe@test.cd", "s3cr3t!")
	require.NoError(t, err)

	// a fresh store over the same keeper picks the session back up
	restored := newStore(t, keeper, newAuth(nil))
	restored.Initialize(ctx)
	require.True(t, restored.IsAuthenticated())
	got := restored.Current()
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Roles, got.Roles)
	assert.Equal(t, store.Credential(), restored.Credential())
}

func TestStore_initializeCorruptState(t *testing.T) {
	ctx := context.Background()

	t.Run("corrupt session falls back to credential", func(t *testing.T) {
		keeper := kvinmem.New()
		store := newStore(t, keeper, newAuth([]string{"teacher"}))
		store.Initialize(ctx)
		want, err := store.Login(ctx, "awe@test.cd", "s3cr3t!")
		require.NoError(t, err)

		require.NoError(t, keeper.Set(ctx, "shule.session", "{not json"))

		restored := newStore(t, keeper, newAuth(nil))
		restored.Initialize(ctx)
		require.True(t, restored.IsAuthenticated())
		assert.Equal(t, want.ID, restored.Current().ID)
	})

	t.Run("corrupt credential degrades to empty session", func(t *testing.T) {
		keeper := kvinmem.New()
		require.NoError(t, keeper.Set(ctx, "shule.credential", "garbage"))
		require.NoError(t, keeper.Set(ctx, "shule.session", "{not json"))

		store := newStore(t, keeper, newAuth(nil))
		store.Initialize(ctx)
		assert.False(t, store.IsAuthenticated())
		assert.Equal(t, session.StateUnauthenticated, store.State())

		// the corrupt state was cleared
		_, err := keeper.Get(ctx, "shule.credential")
		assert.Equal(t, core.ErrKeyNotFound, errors.Cause(err))
	})

	t.Run("broken storage degrades to empty session", func(t *testing.T) {
		store := newStore(t, brokenKeeper{}, newAuth(nil))
		store.Initialize(ctx)
		assert.False(t, store.IsLoading())
		assert.Equal(t, session.StateUnauthenticated, store.State())
	})
}

func TestStore_logoutClearsPersisted(t *testing.T) {
	ctx := context.Background()
	keeper := kvinmem.New()

	store := newStore(t, keeper, newAuth([]string{"admin"}))
	store.Initialize(ctx)
	_, err := store.Login(ctx, "awe@test.cd", "s3cr3t!")
	require.NoError(t, err)

	store.Logout(ctx)
	assert.Nil(t, store.Current())
	assert.Empty(t, store.Credential())

	_, err = keeper.Get(ctx, "shule.session")
	assert.Equal(t, core.ErrKeyNotFound, errors.Cause(err))
	_, err = keeper.Get(ctx, "shule.credential")
	assert.Equal(t, core.ErrKeyNotFound, errors.Cause(err))
}

func TestStore_subscribe(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, nil, newAuth([]string{"teacher"}))
	store.Initialize(ctx)

	var published []*session.Session
	unsubscribe := store.Subscribe(func(sess *session.Session) {
		published = append(published, sess)
	})

	_, err := store.Login(ctx, "awe@test.cd", "s3cr3t!")
	require.NoError(t, err)
	store.Logout(ctx)

	require.Len(t, published, 2)
	require.NotNil(t, published[0])
	assert.Equal(t, []string{"TEACHER"}, published[0].Roles)
	assert.Nil(t, published[1])

	unsubscribe()
	_, err = store.Login(ctx, "awe@test.cd", "s3cr3t!")
	require.NoError(t, err)
	assert.Len(t, published, 2)
}
