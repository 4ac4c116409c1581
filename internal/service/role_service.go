package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/notebook-grading-api/internal/dto"
	"github.com/noah-isme/notebook-grading-api/internal/models"
	"github.com/noah-isme/notebook-grading-api/internal/repository"
)

// ErrRoleNotSelected indicates the user has not picked a role yet.
var ErrRoleNotSelected = errors.New("role not selected")

// RoleService manages the role a user plays on the platform.
type RoleService interface {
	Get(ctx context.Context, userID string) (dto.RoleResponse, error)
	Select(ctx context.Context, actor Actor, req dto.RoleSelectRequest) (dto.RoleResponse, error)
	Resolve(ctx context.Context, userID string) (string, error)
}

type roleService struct {
	roles     repository.RoleRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewRoleService constructs a role service.
func NewRoleService(repo repository.RoleRepository, validate *validator.Validate, logger zerolog.Logger) RoleService {
	return &roleService{
		roles:     repo,
		validator: validate,
		logger:    logger.With().Str("component", "role_service").Logger(),
		now:       time.Now,
	}
}

func (s *roleService) Get(ctx context.Context, userID string) (dto.RoleResponse, error) {
	role, err := s.roles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RoleResponse{}, ErrRoleNotSelected
		}
		return dto.RoleResponse{}, fmt.Errorf("load role: %w", err)
	}
	return newRoleResponse(role), nil
}

func (s *roleService) Select(ctx context.Context, actor Actor, req dto.RoleSelectRequest) (dto.RoleResponse, error) {
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if err := s.validator.Struct(req); err != nil {
		return dto.RoleResponse{}, err
	}
	if strings.TrimSpace(actor.ID) == "" {
		return dto.RoleResponse{}, ErrForbidden
	}

	now := s.now().UTC()
	record := models.UserRole{
		UserID:     actor.ID,
		Role:       req.Role,
		Email:      actor.Email,
		CreatedAt:  now,
		LastActive: now,
	}
	if err := s.roles.Upsert(ctx, &record); err != nil {
		return dto.RoleResponse{}, fmt.Errorf("store role: %w", err)
	}

	stored, err := s.roles.Get(ctx, actor.ID)
	if err != nil {
		return dto.RoleResponse{}, fmt.Errorf("reload role: %w", err)
	}

	s.logger.Info().Str("user_id", actor.ID).Str("role", stored.Role).Msg("role selected")
	return newRoleResponse(stored), nil
}

// Resolve returns the stored role and records activity. Unknown users resolve to an empty role.
func (s *roleService) Resolve(ctx context.Context, userID string) (string, error) {
	role, err := s.roles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("load role: %w", err)
	}

	if err := s.roles.Touch(ctx, userID, s.now().UTC()); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to record activity")
	}

	return role.Role, nil
}

func newRoleResponse(role models.UserRole) dto.RoleResponse {
	return dto.RoleResponse{
		UserID:     role.UserID,
		Role:       role.Role,
		Email:      role.Email,
		CreatedAt:  role.CreatedAt,
		LastActive: role.LastActive,
	}
}
