package user

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/goAccounts/permission"
	"github.com/google/uuid"
)

// Hasher hashes and verifies raw passwords. *password.Gate satisfies it.
type Hasher interface {
	Hash(ctx context.Context, raw string) (string, error)
	Verify(ctx context.Context, raw, encodedHash string) (bool, error)
}

// Service applies the account rules to in-memory users. It never persists;
// callers save through a [Repository].
type Service struct {
	hasher Hasher
	now    func() time.Time
	newID  func() (uuid.UUID, error)
}

// NewService returns a service that hashes with h and assigns UUIDv7 ids.
func NewService(h Hasher) *Service {
	return &Service{
		hasher: h,
		now:    time.Now,
		newID:  uuid.NewV7,
	}
}

// Create validates input and builds an active user with a hashed password.
// Super admin cannot be assigned.
func (s *Service) Create(ctx context.Context, username, rawPassword string, role permission.Role) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidatePassword(rawPassword); err != nil {
		return nil, err
	}
	if !role.IsAssignable() {
		return nil, fmt.Errorf("%w: %s", ErrRoleAssignmentNotPermitted, role)
	}

	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(ctx, rawPassword)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	return &User{
		ID:           id,
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsPasswordValid verifies rawPassword against the stored hash.
func (s *Service) IsPasswordValid(ctx context.Context, u *User, rawPassword string) (bool, error) {
	return s.hasher.Verify(ctx, rawPassword, u.PasswordHash)
}

// ChangePassword validates and hashes rawPassword into u.
func (s *Service) ChangePassword(ctx context.Context, u *User, rawPassword string) error {
	if err := ValidatePassword(rawPassword); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(ctx, rawPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now().UTC()
	return nil
}

// ToggleActivation sets u.IsActive and reports whether it changed.
func (s *Service) ToggleActivation(u *User, active bool) (bool, error) {
	if !u.Role.IsChangeable() {
		return false, fmt.Errorf("%w: %s is %s", ErrActivationChangeNotPermitted, u.Username, u.Role)
	}
	if u.IsActive == active {
		return false, nil
	}
	u.IsActive = active
	u.UpdatedAt = s.now().UTC()
	return true, nil
}

// ToggleAdminRole moves u between user and admin and reports whether it changed.
func (s *Service) ToggleAdminRole(u *User, admin bool) (bool, error) {
	if !u.Role.IsChangeable() {
		return false, fmt.Errorf("%w: %s is %s", ErrRoleChangeNotPermitted, u.Username, u.Role)
	}
	target := permission.RoleUser
	if admin {
		target = permission.RoleAdmin
	}
	if u.Role == target {
		return false, nil
	}
	u.Role = target
	u.UpdatedAt = s.now().UTC()
	return true, nil
}
