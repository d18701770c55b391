package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice/internal/audit"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository"
	apperrors "github.com/spec-kit/backoffice/pkg/util/errorutil"
)

// UserService manages backoffice accounts.
type UserService struct {
	users      repository.UserRepository
	recorder   *audit.Recorder
	bcryptCost int
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Recorder   *audit.Recorder
	BcryptCost int
}

// UserInput describes a new account.
type UserInput struct {
	Email    string
	Name     string
	Role     domain.Role
	Password string
}

// UserPatch changes role and/or active flag. An empty patch toggles active.
type UserPatch struct {
	Role   *domain.Role
	Active *bool
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		recorder:   deps.Recorder,
		bcryptCost: deps.BcryptCost,
	}
}

// Create registers an account. Only owners may create accounts.
func (s *UserService) Create(ctx context.Context, actor Actor, input UserInput) (*domain.User, error) {
	if err := actor.authorize(auth.OpManageUsers); err != nil {
		return nil, err
	}
	user, err := s.create(ctx, input)
	if err != nil {
		return nil, err
	}
	record(s.recorder, actor, audit.ActionCreateUser, "user:"+user.ID,
		fmt.Sprintf("email=%s role=%s", user.Email, user.Role))
	return user, nil
}

// BootstrapOwner creates the first owner account. It fails once any active
// owner exists.
func (s *UserService) BootstrapOwner(ctx context.Context, email, name, password string) (*domain.User, error) {
	owners, err := s.users.CountActiveOwners(ctx)
	if err != nil {
		return nil, storeError(err, "user")
	}
	if owners > 0 {
		return nil, apperrors.NewConflict("an owner account already exists", nil)
	}
	user, err := s.create(ctx, UserInput{Email: email, Name: name, Role: domain.RoleOwner, Password: password})
	if err != nil {
		return nil, err
	}
	record(s.recorder, Actor{User: user}, audit.ActionCreateUser, "user:"+user.ID, "bootstrap owner")
	return user, nil
}

// List returns every account, oldest first.
func (s *UserService) List(ctx context.Context, actor Actor) ([]domain.User, error) {
	if err := actor.authorize(auth.OpManageUsers); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storeError(err, "user")
	}
	return users, nil
}

// Update applies a role or active-flag change. It refuses to leave the
// directory without an active owner.
func (s *UserService) Update(ctx context.Context, actor Actor, id string, patch UserPatch) (*domain.User, error) {
	if err := actor.authorize(auth.OpManageUsers); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "user")
	}

	wasActiveOwner := user.IsActiveOwner()
	if patch.Role == nil && patch.Active == nil {
		user.Active = !user.Active
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": string(*patch.Role)})
		}
		user.Role = *patch.Role
	}
	if patch.Active != nil {
		user.Active = *patch.Active
	}

	if wasActiveOwner && !user.IsActiveOwner() {
		if err := s.ensureAnotherOwner(ctx, "cannot demote or deactivate the last owner"); err != nil {
			return nil, err
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, storeError(err, "user")
	}
	record(s.recorder, actor, audit.ActionUpdateUser, "user:"+id,
		fmt.Sprintf("role=%s active=%t", user.Role, user.Active))
	return user, nil
}

// Delete removes an account unless it is the last active owner.
func (s *UserService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := actor.authorize(auth.OpManageUsers); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return storeError(err, "user")
	}
	if user.IsActiveOwner() {
		if err := s.ensureAnotherOwner(ctx, "cannot delete the last owner"); err != nil {
			return err
		}
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return storeError(err, "user")
	}
	record(s.recorder, actor, audit.ActionDeleteUser, "user:"+id, "email="+user.Email)
	return nil
}

func (s *UserService) create(ctx context.Context, input UserInput) (*domain.User, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": string(input.Role)})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, storeError(err, "user")
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "password"})
		}
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		Role:         input.Role,
		Active:       true,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.HasCode(apperrors.MapError(err), "CONFLICT") {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, storeError(err, "user")
	}
	return user, nil
}

func (s *UserService) ensureAnotherOwner(ctx context.Context, message string) error {
	owners, err := s.users.CountActiveOwners(ctx)
	if err != nil {
		return storeError(err, "user")
	}
	if owners <= 1 {
		return apperrors.NewPermissionError(message, nil)
	}
	return nil
}
