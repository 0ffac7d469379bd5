// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/storefront-api/internal/auth"
	"github.com/carterperez-dev/storefront-api/internal/core"
)

var (
	ErrEmailExists  = errors.New("email already exists")
	ErrSelfDeletion = errors.New("cannot delete own account")
)

type Service struct {
	db   *sqlx.DB
	repo Repository
}

func NewService(db *sqlx.DB, repo Repository) *Service {
	return &Service{
		db:   db,
		repo: repo,
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile applies the self-service allow-list. Every field is
// optional; absent fields are left untouched.
func (s *Service) UpdateProfile(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}

	if req.Email != nil {
		user.Email = NormalizeEmail(*req.Email)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	if req.Password != nil {
		hash, err := core.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
			return nil, err
		}
	}

	return user, nil
}

// AdminUpdate is the admin-only variant that may also change the role.
func (s *Service) AdminUpdate(
	ctx context.Context,
	userID string,
	req AdminUpdateUserRequest,
) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}

	if req.Email != nil {
		user.Email = NormalizeEmail(*req.Email)
	}

	if req.Role != nil {
		user.Role = *req.Role
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	if req.Password != nil {
		hash, err := core.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
			return nil, err
		}
	}

	return user, nil
}

func (s *Service) AdminCreate(
	ctx context.Context,
	email, password, name, role string,
) (*User, error) {
	hash, err := core.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New().String(),
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		Name:         name,
		Role:         role,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	return user, nil
}

// Delete soft-deletes the user and revokes every session token the
// account holds, atomically. A deleted user's tokens never resolve again.
func (s *Service) Delete(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return ErrSelfDeletion
	}

	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := NewRepository(tx).SoftDelete(ctx, userID); err != nil {
			return err
		}

		return auth.NewRepository(tx).RevokeAllForUser(ctx, userID)
	})
}

func (s *Service) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

// NormalizeEmail lowercases and trims so the unique index on email is
// effectively case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Provider adapts the user repository to the shape the auth package
// consumes, keeping the import direction auth <- user.
type Provider struct {
	repo Repository
}

func NewProvider(repo Repository) *Provider {
	return &Provider{repo: repo}
}

func (p *Provider) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := p.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return toUserInfo(user), nil
}

func (p *Provider) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := p.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserInfo(user), nil
}

func (p *Provider) Create(
	ctx context.Context,
	email, passwordHash, name string,
) (*auth.UserInfo, error) {
	user := &User{
		ID:           uuid.New().String(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Name:         name,
		Role:         RoleUser,
	}

	if err := p.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (p *Provider) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return p.repo.UpdatePassword(ctx, userID, passwordHash)
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Provider)(nil)
