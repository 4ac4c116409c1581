package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/notebook-grading-api/internal/certificate"
	"github.com/noah-isme/notebook-grading-api/internal/middleware"
	"github.com/noah-isme/notebook-grading-api/internal/service"
	"github.com/noah-isme/notebook-grading-api/internal/utils"
)

// CertificateHandler streams certificates to their owners as attachments.
type CertificateHandler struct {
	service service.CertificateService
	logger  zerolog.Logger
}

// NewCertificateHandler constructs a certificate handler.
func NewCertificateHandler(service service.CertificateService, logger zerolog.Logger) *CertificateHandler {
	return &CertificateHandler{
		service: service,
		logger:  logger.With().Str("component", "certificate_handler").Logger(),
	}
}

// Register binds the certificate download route under the submissions group.
func (h *CertificateHandler) Register(router fiber.Router) {
	router.Get("/:id/certificate", middleware.WithAuth(h.download, middleware.AuthOptions{Role: middleware.AuthRoleStudent}))
}

func (h *CertificateHandler) download(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "submission id required")
	}

	ctx := requestContext(c)
	file, err := h.service.Issue(ctx, actorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	if err := certificate.TriggerDownload(ctx, attachmentSaver{c: c}, file.Data, file.Filename); err != nil {
		return h.handleError(c, err)
	}

	return nil
}

func (h *CertificateHandler) handleError(c *fiber.Ctx, err error) error {
	var generation *certificate.GenerationError
	var download *certificate.DownloadError
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrCertificateUnavailable):
		return utils.SendError(c, fiber.StatusConflict, service.ErrCertificateUnavailable.Error())
	case errors.Is(err, certificate.ErrUnsupportedText):
		requestLogger(h.logger, c).Warn().Err(err).Msg("certificate text not renderable")
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "certificate name contains characters that cannot be printed")
	case errors.As(err, &generation):
		requestLogger(h.logger, c).Error().Err(err).Msg("certificate generation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to generate certificate")
	case errors.As(err, &download):
		requestLogger(h.logger, c).Error().Err(err).Str("filename", download.Filename).Msg("certificate delivery failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to deliver certificate")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

// attachmentSaver writes the file as an HTTP attachment on the current response.
type attachmentSaver struct {
	c *fiber.Ctx
}

func (s attachmentSaver) Save(_ context.Context, filename, contentType string, data []byte) error {
	s.c.Set(fiber.HeaderContentType, contentType)
	s.c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	s.c.Set(fiber.HeaderCacheControl, "no-store")
	return s.c.Status(fiber.StatusOK).Send(data)
}
