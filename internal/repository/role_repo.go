package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/notebook-grading-api/internal/models"
)

// RoleRepository persists role selections.
type RoleRepository interface {
	Get(ctx context.Context, userID string) (models.UserRole, error)
	Upsert(ctx context.Context, role *models.UserRole) error
	Touch(ctx context.Context, userID string, at time.Time) error
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository instantiates the repository.
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Get(ctx context.Context, userID string) (models.UserRole, error) {
	var role models.UserRole
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&role).Error; err != nil {
		return models.UserRole{}, err
	}
	return role, nil
}

func (r *roleRepository) Upsert(ctx context.Context, role *models.UserRole) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "email", "last_active"}),
	}).Create(role).Error
}

func (r *roleRepository) Touch(ctx context.Context, userID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.UserRole{}).
		Where("user_id = ?", userID).
		Update("last_active", at).Error
}
