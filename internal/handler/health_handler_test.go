package handler_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/notebook-grading-api/internal/config"
	"github.com/noah-isme/notebook-grading-api/internal/handler"
	"github.com/noah-isme/notebook-grading-api/internal/models"
)

func TestHealthCheckReportsDependencies(t *testing.T) {
	cfg := config.Config{AppName: "Test", AppEnv: "test"}
	healthy := handler.HealthProbe{Name: "database", Check: func(context.Context) error { return nil }}
	broken := handler.HealthProbe{Name: "redis", Check: func(context.Context) error { return errors.New("refused") }}

	app := fiber.New()
	app.Get("/ok", handler.HealthCheck(cfg, healthy))
	app.Get("/degraded", handler.HealthCheck(cfg, healthy, broken))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var ok handler.HealthResponse
	decodeData(t, resp, &ok)
	require.Equal(t, "ok", ok.Status)
	require.Equal(t, map[string]string{"database": "up"}, ok.Dependencies)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/degraded", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	var degraded struct {
		Details handler.HealthResponse `json:"details"`
	}
	decodeResponse(t, resp, &degraded)
	require.Equal(t, "degraded", degraded.Details.Status)
	require.Equal(t, "down", degraded.Details.Dependencies["redis"])
}

func TestRouterServesHealthAndMetrics(t *testing.T) {
	tb := setupTestbed(t)

	resp := tb.do(t, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Test", resp.Header.Get("X-Application"))
	require.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))

	resp = tb.do(t, http.MethodGet, "/api/v1/rubric", bearer(t, "student-1", models.RoleStudent), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = tb.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `http_requests_total{method="GET",route="/api/v1/rubric",status="200"}`)
}
