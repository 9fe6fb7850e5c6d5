package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agendafacil/booking-api/internal/model"
	"github.com/agendafacil/booking-api/internal/repository"
	"github.com/agendafacil/booking-api/pkg/auth"
	apperr "github.com/agendafacil/booking-api/pkg/errors"
	"github.com/agendafacil/booking-api/pkg/security"
)

// Service handles account registration and session tokens.
type Service struct {
	users  repository.UserRepository
	hasher security.PasswordHasher
	tokens auth.JWTService
	logger zerolog.Logger
}

func NewService(
	users repository.UserRepository,
	hasher security.PasswordHasher,
	tokens auth.JWTService,
	logger zerolog.Logger,
) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates an account and returns a signed-in token pair.
// Emails are normalized to lower case so lookups are case-insensitive.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.TokenResponse, error) {
	email := normalizeEmail(req.Email)

	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperr.Validation("an account with this email already exists")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if err == security.ErrPasswordTooShort {
			return nil, apperr.Validation("password must be at least 8 characters")
		}
		return nil, apperr.Failed(apperr.KindInsertFailed, "failed to create the account", err)
	}

	user := &model.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
	}
	if req.Phone != "" {
		user.Phone = &req.Phone
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, wrap(err, apperr.KindInsertFailed, "failed to create the account")
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("account registered")
	return s.issueTokens(ctx, user)
}

// Login verifies credentials and returns a fresh token pair. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, apperr.NotAuthorized("invalid email or password")
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperr.NotAuthorized("invalid email or password")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to record login time")
	}

	return s.issueTokens(ctx, user)
}

// Refresh trades a valid refresh token for a new token pair. The user
// record is re-read so a demoted admin gets a downgraded token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	userID, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperr.NotAuthorized("invalid refresh token")
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, apperr.NotAuthorized("account no longer exists")
	}

	return s.issueTokens(ctx, user)
}

// Me returns the account record for a user ID, used by the profile
// endpoint after the middleware has authenticated the session.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, wrap(err, apperr.KindFetchFailed, "failed to fetch account")
	}
	return user, nil
}

// EnsureAdmin guarantees the configured administrator account exists
// at startup. An existing account is promoted rather than duplicated;
// its password is left alone.
func (s *Service) EnsureAdmin(ctx context.Context, email, password, name string) error {
	if email == "" || password == "" {
		return nil
	}
	email = normalizeEmail(email)

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		if existing.IsAdmin {
			return nil
		}
		existing.IsAdmin = true
		if err := s.users.Update(ctx, existing); err != nil {
			return wrap(err, apperr.KindUpdateFailed, "failed to promote admin account")
		}
		s.logger.Info().Str("email", email).Msg("existing account promoted to admin")
		return nil
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return wrap(err, apperr.KindInsertFailed, "failed to hash admin password")
	}

	admin := &model.User{
		Name:          name,
		Email:         email,
		PasswordHash:  hash,
		IsAdmin:       true,
		EmailVerified: true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return wrap(err, apperr.KindInsertFailed, "failed to seed admin account")
	}

	s.logger.Info().Str("email", email).Msg("admin account seeded")
	return nil
}

func (s *Service) issueTokens(ctx context.Context, user *model.User) (*model.TokenResponse, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, apperr.Failed(apperr.KindFetchFailed, "failed to issue tokens", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, apperr.Failed(apperr.KindFetchFailed, "failed to issue tokens", err)
	}

	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func wrap(err error, kind apperr.Kind, message string) error {
	if apperr.KindOf(err) != "" {
		return err
	}
	return apperr.Failed(kind, message, err)
}
