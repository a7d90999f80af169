package service

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/rogerio-castellano/product-management/internal/apperr"
	"github.com/rogerio-castellano/product-management/internal/auth"
	"github.com/rogerio-castellano/product-management/internal/logger"
	"github.com/rogerio-castellano/product-management/internal/metrics"
	"github.com/rogerio-castellano/product-management/internal/models"
	"github.com/rogerio-castellano/product-management/internal/repo"
)

var errBadCredentials = apperr.Unauthorized("invalid credentials")

type TokenPair struct {
	Token        string
	RefreshToken string
	User         models.User
}

type AuthService struct {
	users      *UserService
	userRepo   repo.UserRepository
	issuer     *auth.TokenIssuer
	refresh    auth.RefreshStore
	refreshTTL time.Duration
}

func NewAuthService(users repo.UserRepository, issuer *auth.TokenIssuer, refresh auth.RefreshStore, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:      NewUserService(users),
		userRepo:   users,
		issuer:     issuer,
		refresh:    refresh,
		refreshTTL: refreshTTL,
	}
}

// Register creates an ordinary user and signs them in.
func (s *AuthService) Register(ctx context.Context, in CreateUserInput) (TokenPair, error) {
	user, err := s.users.Register(ctx, in)
	if err != nil {
		return TokenPair{}, err
	}
	return s.issue(ctx, user)
}

// Login accepts a username or an email address as the identifier.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (TokenPair, error) {
	user, err := s.findByIdentifier(ctx, strings.TrimSpace(identifier))
	if err != nil {
		metrics.RecordAuthAttempt("failure")
		return TokenPair{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		metrics.RecordAuthAttempt("failure")
		return TokenPair{}, errBadCredentials
	}
	if user.Status != models.StatusActive {
		metrics.RecordAuthAttempt("inactive")
		return TokenPair{}, apperr.Unauthorized("user is not active")
	}

	user, err = s.users.RecordLogin(ctx, user)
	if err != nil {
		return TokenPair{}, err
	}

	metrics.RecordAuthAttempt("success")
	logger.FromContext(ctx).Info("user logged in", zap.String("username", user.Username))
	return s.issue(ctx, user)
}

func (s *AuthService) findByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	if identifier == "" {
		return models.User{}, errBadCredentials
	}
	user, err := s.userRepo.GetByUsername(ctx, identifier)
	if errors.Is(err, repo.ErrUserNotFound) && strings.Contains(identifier, "@") {
		user, err = s.userRepo.GetByEmail(ctx, identifier)
	}
	if errors.Is(err, repo.ErrUserNotFound) {
		return models.User{}, errBadCredentials
	}
	return user, err
}

// Refresh rotates a refresh token: the presented one is revoked and a new pair issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	userID, err := s.refresh.Lookup(ctx, refreshToken)
	if errors.Is(err, auth.ErrRefreshTokenNotFound) {
		return TokenPair{}, apperr.Unauthorized("invalid or expired refresh token")
	}
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.refresh.Revoke(ctx, refreshToken); err != nil {
		return TokenPair{}, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrUserNotFound) {
		return TokenPair{}, apperr.Unauthorized("invalid or expired refresh token")
	}
	if err != nil {
		return TokenPair{}, err
	}
	if user.Status != models.StatusActive {
		return TokenPair{}, apperr.Unauthorized("user is not active")
	}
	return s.issue(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return apperr.Validation(map[string]string{"refreshToken": "Refresh token is required"})
	}
	return s.refresh.Revoke(ctx, refreshToken)
}

func (s *AuthService) issue(ctx context.Context, user models.User) (TokenPair, error) {
	token, err := s.issuer.Generate(user)
	if err != nil {
		return TokenPair{}, errors.Wrap(err, "sign access token")
	}
	refreshToken := auth.NewRefreshToken()
	if err := s.refresh.Save(ctx, refreshToken, user.ID, s.refreshTTL); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Token: token, RefreshToken: refreshToken, User: user}, nil
}
