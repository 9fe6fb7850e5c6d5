package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendafacil/booking-api/internal/model"
	"github.com/agendafacil/booking-api/pkg/auth"
	apperr "github.com/agendafacil/booking-api/pkg/errors"
	"github.com/agendafacil/booking-api/pkg/security"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	u.ID = uuid.New()
	clone := *u
	r.users[u.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("user")
}

func (r *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return apperr.NotFound("user")
	}
	clone := *u
	r.users[u.ID] = &clone
	return nil
}

func newTestAuth() (*Service, *fakeUserRepo) {
	users := newFakeUserRepo()
	hasher := security.NewBcryptHasher(4)
	tokens := auth.NewJWTService(auth.Config{
		Secret:        "test-secret",
		RefreshSecret: "test-refresh-secret",
	})
	return NewService(users, hasher, tokens, zerolog.Nop()), users
}

func registerReq() *model.RegisterRequest {
	return &model.RegisterRequest{
		Name:     "Alice",
		Email:    "Alice@Example.com",
		Password: "s3cret-pass",
	}
}

func TestRegister(t *testing.T) {
	svc, users := newTestAuth()

	tokens, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	require.NotNil(t, tokens.User)
	assert.Equal(t, "alice@example.com", tokens.User.Email)
	assert.False(t, tokens.User.IsAdmin)

	stored := users.users[tokens.User.ID]
	assert.NotEqual(t, "s3cret-pass", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuth()

	_, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), registerReq())
	assert.True(t, apperr.IsKind(err, apperr.KindValidationError))
}

func TestRegisterShortPassword(t *testing.T) {
	svc, _ := newTestAuth()

	req := registerReq()
	req.Password = "short"

	_, err := svc.Register(context.Background(), req)
	assert.True(t, apperr.IsKind(err, apperr.KindValidationError))
}

func TestLogin(t *testing.T) {
	svc, users := newTestAuth()

	registered, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	tokens, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)

	stored := users.users[registered.User.ID]
	assert.NotNil(t, stored.LastLoginAt)
}

func TestLoginFailures(t *testing.T) {
	svc, _ := newTestAuth()

	_, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	assert.True(t, apperr.IsKind(err, apperr.KindNotAuthorized))

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "s3cret-pass",
	})
	assert.True(t, apperr.IsKind(err, apperr.KindNotAuthorized))
}

func TestRefresh(t *testing.T) {
	svc, _ := newTestAuth()

	registered, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), registered.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, registered.User.ID, refreshed.User.ID)
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc, _ := newTestAuth()

	_, err := svc.Refresh(context.Background(), "not-a-token")
	assert.True(t, apperr.IsKind(err, apperr.KindNotAuthorized))
}

func TestEnsureAdminSeeds(t *testing.T) {
	svc, users := newTestAuth()

	require.NoError(t, svc.EnsureAdmin(context.Background(), "admin@example.com", "super-secret", "Admin"))

	admin, err := users.GetByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	// idempotent
	require.NoError(t, svc.EnsureAdmin(context.Background(), "admin@example.com", "super-secret", "Admin"))
}

func TestEnsureAdminPromotesExisting(t *testing.T) {
	svc, users := newTestAuth()

	registered, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	require.NoError(t, svc.EnsureAdmin(context.Background(), "alice@example.com", "irrelevant-pw", "Alice"))

	promoted := users.users[registered.User.ID]
	assert.True(t, promoted.IsAdmin)
}
