package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/notebook-grading-api/internal/config"
	"github.com/noah-isme/notebook-grading-api/internal/handler"
	"github.com/noah-isme/notebook-grading-api/internal/middleware"
	"github.com/noah-isme/notebook-grading-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SubmissionHandler     *handler.SubmissionHandler
	SubmissionFeedHandler *handler.SubmissionFeedHandler
	GradingHandler        *handler.GradingHandler
	CertificateHandler    *handler.CertificateHandler
	StatsHandler          *handler.StatsHandler
	RoleHandler           *handler.RoleHandler
	HealthProbes          []handler.HealthProbe
	JWTMiddleware         fiber.Handler
	RoleMiddleware        fiber.Handler
	RateLimiter           fiber.Handler
	Logger                *zerolog.Logger
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	logger := zerolog.Nop()
	if deps.Logger != nil {
		logger = *deps.Logger
	}
	app.Get("/metrics", observability.MetricsHandler(logger))

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes...))

	// Missing middlewares become no-ops so tests can inject identity directly.
	authenticated := api.Group("", orNext(deps.JWTMiddleware), orNext(deps.RoleMiddleware))

	if deps.RoleHandler != nil {
		deps.RoleHandler.Register(authenticated.Group("/me"))
	}

	if deps.GradingHandler != nil {
		deps.GradingHandler.RegisterRubric(authenticated)
		// Role is checked before the limiter so rejected callers do not spend grader quota.
		deps.GradingHandler.Register(authenticated.Group("/grading", middleware.RequireRole(middleware.AuthRoleGrader), orNext(deps.RateLimiter)))
	}

	submissions := authenticated.Group("/submissions")
	// Literal stream routes must be registered before /:id.
	if deps.SubmissionFeedHandler != nil {
		deps.SubmissionFeedHandler.Register(submissions)
	}
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(submissions)
	}
	if deps.CertificateHandler != nil {
		deps.CertificateHandler.Register(submissions)
	}

	if deps.StatsHandler != nil {
		deps.StatsHandler.Register(authenticated.Group("/stats"))
	}
}

func orNext(h fiber.Handler) fiber.Handler {
	if h == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return h
}
