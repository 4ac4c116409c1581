package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/notebook-grading-api/internal/dto"
	"github.com/noah-isme/notebook-grading-api/internal/middleware"
	"github.com/noah-isme/notebook-grading-api/internal/service"
	"github.com/noah-isme/notebook-grading-api/internal/utils"
)

// RoleHandler lets a user read and pick their platform role.
type RoleHandler struct {
	service service.RoleService
	logger  zerolog.Logger
}

// NewRoleHandler constructs a role handler.
func NewRoleHandler(service service.RoleService, logger zerolog.Logger) *RoleHandler {
	return &RoleHandler{
		service: service,
		logger:  logger.With().Str("component", "role_handler").Logger(),
	}
}

// Register binds the role routes.
func (h *RoleHandler) Register(router fiber.Router) {
	authenticated := middleware.AuthOptions{Role: middleware.AuthRoleAny, RequireUser: true}
	router.Get("/role", middleware.WithAuth(h.get, authenticated))
	router.Put("/role", middleware.WithAuth(h.selectRole, authenticated))
}

func (h *RoleHandler) get(c *fiber.Ctx) error {
	role, err := h.service.Get(requestContext(c), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "role retrieved", role)
}

func (h *RoleHandler) selectRole(c *fiber.Ctx) error {
	var payload dto.RoleSelectRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	role, err := h.service.Select(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "role selected", role)
}

func (h *RoleHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrRoleNotSelected):
		return utils.SendError(c, fiber.StatusNotFound, "role not selected")
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "forbidden")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
