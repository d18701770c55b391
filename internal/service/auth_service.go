package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/backoffice/internal/audit"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository"
	apperrors "github.com/spec-kit/backoffice/pkg/util/errorutil"
)

// ErrInvalidCredentials is returned for every failed login, whatever the cause.
var ErrInvalidCredentials = apperrors.NewDomainError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)

// AuthService coordinates login flows.
type AuthService struct {
	users     repository.UserRepository
	tokenMgr  *auth.TokenManager
	recorder  *audit.Recorder
	logger    *zap.Logger
	dummyHash string
	now       func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	TokenManager *auth.TokenManager
	Recorder     *audit.Recorder
	Logger       *zap.Logger
	BcryptCost   int
	Now          func() time.Time
}

// LoginResult is a successful authentication.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	// Compared against when the email is unknown so both paths pay for a hash.
	dummyHash, err := auth.HashPassword("not-a-real-password", deps.BcryptCost)
	if err != nil {
		logger.Warn("dummy hash unavailable", zap.Error(err))
	}
	return &AuthService{
		users:     deps.UserRepo,
		tokenMgr:  deps.TokenManager,
		recorder:  deps.Recorder,
		logger:    logger,
		dummyHash: dummyHash,
		now:       clockOrDefault(deps.Now),
	}
}

// TokenManager exposes token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Login verifies credentials and issues a token. Unknown email, wrong
// password and disabled account all yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, meta domain.ClientMeta, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			_ = auth.ComparePassword(s.dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, storeError(err, "user")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("last login update failed", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLoginAt = &now
	}

	record(s.recorder, Actor{User: user, Meta: meta}, audit.ActionLogin, "user:"+user.ID, "")
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
