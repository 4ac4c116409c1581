package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/notebook-grading-api/internal/middleware"
	"github.com/noah-isme/notebook-grading-api/internal/service"
	"github.com/noah-isme/notebook-grading-api/internal/utils"
)

// StatsHandler serves dashboard counters.
type StatsHandler struct {
	service service.StatsService
	logger  zerolog.Logger
}

// NewStatsHandler constructs a stats handler.
func NewStatsHandler(service service.StatsService, logger zerolog.Logger) *StatsHandler {
	return &StatsHandler{
		service: service,
		logger:  logger.With().Str("component", "stats_handler").Logger(),
	}
}

// Register binds the stats routes.
func (h *StatsHandler) Register(router fiber.Router) {
	router.Get("/student", middleware.WithAuth(h.student, middleware.AuthOptions{Role: middleware.AuthRoleStudent}))
	router.Get("/grader", middleware.WithAuth(h.grader, middleware.AuthOptions{Role: middleware.AuthRoleGrader}))
}

func (h *StatsHandler) student(c *fiber.Ctx) error {
	stats, err := h.service.Student(requestContext(c), userIDFromContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load student stats")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "student stats", stats)
}

func (h *StatsHandler) grader(c *fiber.Ctx) error {
	stats, err := h.service.Grader(requestContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load grader stats")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "grader stats", stats)
}
