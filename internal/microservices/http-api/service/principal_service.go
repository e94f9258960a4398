package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"coursehub/internal/microservices/http-api/models"
	"coursehub/internal/microservices/http-api/repository"
)

type PrincipalService interface {
	Save(ctx context.Context, email, name, photo string) (*models.Principal, bool, error)
	Get(ctx context.Context, email string) (*models.Principal, error)
	List(ctx context.Context, requesterEmail string) ([]models.Principal, error)
	SetRole(ctx context.Context, requesterEmail, targetEmail, role string) (*models.Principal, error)
	IsAdmin(ctx context.Context, email string) (bool, error)
}

type principalService struct {
	principals repository.PrincipalRepository
}

func NewPrincipalService(principals repository.PrincipalRepository) PrincipalService {
	return &principalService{principals: principals}
}

// Save creates the principal on first login. A repeated save returns the
// stored record untouched and created=false.
func (s *principalService) Save(ctx context.Context, email, name, photo string) (*models.Principal, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, false, fmt.Errorf("%w: email is required", ErrValidation)
	}

	existing, err := s.principals.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up principal: %w", err)
	}

	principal := &models.Principal{
		Email: email,
		Name:  name,
		Photo: photo,
		Role:  models.RoleUser,
	}
	if err := s.principals.Create(ctx, principal); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// lost a race with a concurrent first login
			existing, err := s.principals.FindByEmail(ctx, email)
			if err != nil {
				return nil, false, fmt.Errorf("failed to look up principal: %w", err)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create principal: %w", err)
	}

	slog.Info("principal_created", "email", email)
	return principal, true, nil
}

func (s *principalService) Get(ctx context.Context, email string) (*models.Principal, error) {
	principal, err := s.principals.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: principal not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up principal: %w", err)
	}
	return principal, nil
}

func (s *principalService) List(ctx context.Context, requesterEmail string) ([]models.Principal, error) {
	if _, err := requireAdmin(ctx, s.principals, requesterEmail); err != nil {
		return nil, err
	}
	return s.principals.List(ctx)
}

// SetRole changes another principal's role. Admin only.
func (s *principalService) SetRole(ctx context.Context, requesterEmail, targetEmail, role string) (*models.Principal, error) {
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("%w: role must be admin or user", ErrValidation)
	}
	if _, err := requireAdmin(ctx, s.principals, requesterEmail); err != nil {
		return nil, err
	}

	targetEmail = strings.ToLower(targetEmail)
	if err := s.principals.UpdateRole(ctx, targetEmail, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: principal not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	slog.Info("principal_role_changed", "email", targetEmail, "role", role, "by", requesterEmail)
	return s.Get(ctx, targetEmail)
}

func (s *principalService) IsAdmin(ctx context.Context, email string) (bool, error) {
	principal, err := s.principals.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up principal: %w", err)
	}
	return principal.IsAdmin(), nil
}

// requireAdmin resolves the requester and fails with ErrForbidden unless
// they hold the admin role. An unknown requester is forbidden too.
func requireAdmin(ctx context.Context, principals repository.PrincipalRepository, email string) (*models.Principal, error) {
	principal, err := principals.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: admin role required", ErrForbidden)
		}
		return nil, fmt.Errorf("failed to look up principal: %w", err)
	}
	if !principal.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return principal, nil
}
