package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/notebook-grading-api/internal/certificate"
	"github.com/noah-isme/notebook-grading-api/internal/config"
	"github.com/noah-isme/notebook-grading-api/internal/grading"
	"github.com/noah-isme/notebook-grading-api/internal/handler"
	"github.com/noah-isme/notebook-grading-api/internal/middleware"
	"github.com/noah-isme/notebook-grading-api/internal/models"
	"github.com/noah-isme/notebook-grading-api/internal/repository"
	"github.com/noah-isme/notebook-grading-api/internal/router"
	"github.com/noah-isme/notebook-grading-api/internal/service"
)

const testJWTSecret = "handler-test-secret"

type testUploader struct {
	uploaded []string
}

func (u *testUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	u.uploaded = append(u.uploaded, name)
	return "https://files.test/" + name, nil
}

type testbed struct {
	app      *fiber.App
	db       *gorm.DB
	uploader *testUploader
}

func setupTestbed(t *testing.T) *testbed {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Submission{}, &models.UserRole{}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)
	uploader := &testUploader{}
	graders := service.NewGraderDirectory(map[string]string{"grader-1": "Dr. Moleboge"})

	submissionRepo := repository.NewSubmissionRepository(db)
	roleService := service.NewRoleService(repository.NewRoleRepository(db), validate, logger)
	feed := service.NewSubmissionFeed(nil, "", nil, logger)
	engine := grading.NewEngine(grading.NotebookRubric(), grading.DefaultPolicy())
	renderer := certificate.NewRenderer(certificate.DefaultLayout(), nil, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})

	router.Register(app, config.Config{AppName: "Test", JWTSecret: testJWTSecret}, router.Dependencies{
		SubmissionHandler:     handler.NewSubmissionHandler(service.NewSubmissionService(submissionRepo, validate, uploader, feed, graders, 1, logger), logger),
		SubmissionFeedHandler: handler.NewSubmissionFeedHandler(feed, logger, time.Second),
		GradingHandler:        handler.NewGradingHandler(service.NewGradingService(engine, submissionRepo, feed, graders, validate, logger), logger),
		CertificateHandler:    handler.NewCertificateHandler(service.NewCertificateService(submissionRepo, renderer, "", logger), logger),
		StatsHandler:          handler.NewStatsHandler(service.NewStatsService(submissionRepo, nil, 0, logger), logger),
		RoleHandler:           handler.NewRoleHandler(roleService, logger),
		JWTMiddleware:         middleware.JWTProtected(testJWTSecret),
		RoleMiddleware:        middleware.RoleResolver(roleService, logger),
	})

	return &testbed{app: app, db: db, uploader: uploader}
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": userID, "email": userID + "@school.test"}
	if role != "" {
		claims["role"] = role
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func (tb *testbed) do(t *testing.T, method, path, auth string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := tb.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(body, target))
}

func decodeData(t *testing.T, resp *http.Response, target interface{}) envelope {
	t.Helper()
	var env envelope
	decodeResponse(t, resp, &env)
	if target != nil {
		require.NoError(t, json.Unmarshal(env.Data, target))
	}
	return env
}

func startFiberServer(t *testing.T, app *fiber.App) (string, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)

	shutdown := func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	}

	return "http://" + listener.Addr().String(), shutdown
}

func jsonUnmarshal(raw json.RawMessage, target interface{}) error {
	return json.Unmarshal(raw, target)
}
