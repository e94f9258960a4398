package repository

import (
	"context"
	"errors"

	"coursehub/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PrincipalRepository stores the principals known to the service.
type PrincipalRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Principal, error)
	Create(ctx context.Context, principal *models.Principal) error
	UpdateRole(ctx context.Context, email, role string) error
	List(ctx context.Context) ([]models.Principal, error)
}

// principalRepository is the GORM implementation of PrincipalRepository.
type principalRepository struct {
	db *gorm.DB
}

func NewPrincipalRepository(db *gorm.DB) PrincipalRepository {
	return &principalRepository{db: db}
}

func (r *principalRepository) FindByEmail(ctx context.Context, email string) (*models.Principal, error) {
	var principal models.Principal
	if err := r.db.WithContext(ctx).First(&principal, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &principal, nil
}

// Create inserts the principal; a concurrent first save loses with ErrDuplicate
func (r *principalRepository) Create(ctx context.Context, principal *models.Principal) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(principal)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *principalRepository) UpdateRole(ctx context.Context, email, role string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Principal{}).
		Where("email = ?", email).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *principalRepository) List(ctx context.Context) ([]models.Principal, error) {
	var principals []models.Principal
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&principals).Error
	return principals, err
}
