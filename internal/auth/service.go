// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already exists")
)

type UserInfo struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(
		ctx context.Context,
		email, passwordHash, name string,
	) (*UserInfo, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type Service struct {
	db           *sqlx.DB
	repo         Repository
	userProvider UserProvider
	tokenExpire  time.Duration
}

func NewService(
	db *sqlx.DB,
	repo Repository,
	userProvider UserProvider,
	tokenExpire time.Duration,
) *Service {
	return &Service{
		db:           db,
		repo:         repo,
		userProvider: userProvider,
		tokenExpire:  tokenExpire,
	}
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*AuthResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userProvider.Create(ctx, req.Email, passwordHash, req.Name)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issueSession(ctx, user)
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (*AuthResponse, error) {
	user, err := s.userProvider.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.userProvider.UpdatePassword(ctx, user.ID, newHash)
	}

	return s.issueSession(ctx, user)
}

// Logout revokes exactly the token presented on the current request.
// Other active tokens for the same user stay valid.
func (s *Service) Logout(ctx context.Context, tokenID string) error {
	if err := s.repo.RevokeByID(ctx, tokenID); err != nil &&
		!errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

func (s *Service) RevokeAllForUser(ctx context.Context, userID string) error {
	if err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	return nil
}

// Resolve maps a presented bearer secret to an identity. Malformed or
// unknown secrets are a token-invalid outcome, never a fault. The
// last-used timestamp update is telemetry; its failure does not reject
// the request.
func (s *Service) Resolve(
	ctx context.Context,
	secret string,
) (*middleware.Identity, error) {
	tokenHash := core.HashToken(secret)

	token, err := s.repo.FindByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("resolve: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if token.IsRevoked() {
		return nil, fmt.Errorf("resolve: %w", core.ErrTokenRevoked)
	}

	if token.IsExpired() {
		return nil, fmt.Errorf("resolve: %w", core.ErrTokenExpired)
	}

	user, err := s.userProvider.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Owning user is gone; the token must never authenticate again.
			return nil, fmt.Errorf("resolve: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.repo.TouchLastUsed(ctx, token.ID); err != nil {
		slog.Debug("touch last used failed", "token_id", token.ID, "error", err)
	}

	return &middleware.Identity{
		UserID:  user.ID,
		Email:   user.Email,
		Role:    user.Role,
		TokenID: token.ID,
	}, nil
}

// StartJanitor periodically deletes long-expired token rows so the
// table does not grow without bound. Runs until ctx is cancelled.
func (s *Service) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.repo.DeleteExpired(ctx)
			if err != nil {
				slog.Warn("token janitor sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				slog.Info("purged expired tokens", "count", deleted)
			}
		}
	}
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID string,
) (*UserResponse, error) {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}, nil
}

// issueSession revokes every prior token for the user and mints a new one
// inside a single transaction, so at no point are two tokens valid past a
// completed login.
func (s *Service) issueSession(
	ctx context.Context,
	user *UserInfo,
) (*AuthResponse, error) {
	secret, err := core.GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	token := &Token{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: core.HashToken(secret),
		ExpiresAt: time.Now().Add(s.tokenExpire),
	}

	err = core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		txRepo := NewRepository(tx)

		if err := txRepo.RevokeAllForUser(ctx, user.ID); err != nil {
			return err
		}

		return txRepo.Create(ctx, token)
	})
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	return &AuthResponse{
		User: UserResponse{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			Role:      user.Role,
			CreatedAt: user.CreatedAt,
		},
		Token: TokenResponse{
			Token:     secret,
			TokenType: "Bearer",
			ExpiresAt: token.ExpiresAt,
		},
	}, nil
}

var _ middleware.TokenResolver = (*Service)(nil)
