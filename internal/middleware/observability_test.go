package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestObservabilityLabelsSurviveLaterRequests(t *testing.T) {
	app := fiber.New()
	app.Use(Observability(zerolog.Nop()))
	app.Post("/api/labels/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })
	app.Get("/api/labels/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Delete("/api/labels/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	for _, method := range []string{http.MethodPost, http.MethodGet, http.MethodDelete, http.MethodGet, http.MethodPost} {
		resp, err := app.Test(httptest.NewRequest(method, "/api/labels/1", nil), -1)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
	}

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, family := range families {
		if family.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if strings.HasPrefix(labels["route"], "/api/labels") {
				seen[labels["method"]+" "+labels["status"]] = true
			}
		}
	}
	require.Equal(t, map[string]bool{"POST 201": true, "GET 200": true, "DELETE 204": true}, seen)
}
