package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/notebook-grading-api/internal/dto"
	"github.com/noah-isme/notebook-grading-api/internal/grading"
	"github.com/noah-isme/notebook-grading-api/internal/middleware"
	"github.com/noah-isme/notebook-grading-api/internal/service"
	"github.com/noah-isme/notebook-grading-api/internal/utils"
)

// GradingHandler exposes the rubric and the grading workflow.
type GradingHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradingHandler constructs a grading handler.
func NewGradingHandler(service service.GradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service: service,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// RegisterRubric binds the read-only rubric endpoint.
func (h *GradingHandler) RegisterRubric(router fiber.Router) {
	router.Get("/rubric", middleware.WithAuth(h.rubric, middleware.AuthOptions{Role: middleware.AuthRoleAny, RequireUser: true}))
}

// Register binds the grader-only grading routes.
func (h *GradingHandler) Register(router fiber.Router) {
	graderOnly := middleware.AuthOptions{Role: middleware.AuthRoleGrader}
	router.Post("/preview", middleware.WithAuth(h.preview, graderOnly))
	router.Post("/feedback", middleware.WithAuth(h.feedback, graderOnly))
	router.Post("/:id", middleware.WithAuth(h.commit, graderOnly))
}

func (h *GradingHandler) rubric(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "rubric retrieved", h.service.Rubric())
}

func (h *GradingHandler) preview(c *fiber.Ctx) error {
	var payload dto.GradingPreviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	preview, err := h.service.Preview(payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "grade preview", preview)
}

func (h *GradingHandler) feedback(c *fiber.Ctx) error {
	var payload dto.FeedbackCompileRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	compiled, err := h.service.CompileFeedback(payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "feedback compiled", compiled)
}

func (h *GradingHandler) commit(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "submission id required")
	}

	var payload dto.GradeCommitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Commit(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "grade committed", result)
}

func (h *GradingHandler) handleError(c *fiber.Ctx, err error) error {
	var incomplete *grading.IncompleteRubricError
	var invalid *grading.InvalidScoreError
	switch {
	case errors.As(err, &invalid):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, invalid.Error(), dto.InvalidScoreDetails{
			Category: invalid.Category,
			Score:    invalid.Score,
		})
	case errors.As(err, &incomplete):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, "please score every rubric category before saving", dto.IncompleteRubricDetails{
			Total:     incomplete.Total,
			Scored:    incomplete.Scored,
			Remaining: incomplete.Remaining(),
			Missing:   incomplete.Missing,
		})
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "forbidden")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to save grade")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
