package observability

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// MetricsHandler serves the scrape endpoint for the grading collectors. Gather failures
// are logged and answered with 500 so a broken collector is visible to the scraper.
func MetricsHandler(logger zerolog.Logger) fiber.Handler {
	RegisterMetrics()

	handler := promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			ErrorLog:      scrapeErrorLog{logger: logger.With().Str("component", "metrics").Logger()},
			ErrorHandling: promhttp.HTTPErrorOnError,
		}),
	)
	return adaptor.HTTPHandler(handler)
}

type scrapeErrorLog struct {
	logger zerolog.Logger
}

func (l scrapeErrorLog) Println(v ...interface{}) {
	l.logger.Error().Msg(fmt.Sprint(v...))
}
