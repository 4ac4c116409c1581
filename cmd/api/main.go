package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/notebook-grading-api/internal/certificate"
	"github.com/noah-isme/notebook-grading-api/internal/config"
	"github.com/noah-isme/notebook-grading-api/internal/database"
	"github.com/noah-isme/notebook-grading-api/internal/grading"
	"github.com/noah-isme/notebook-grading-api/internal/handler"
	"github.com/noah-isme/notebook-grading-api/internal/middleware"
	"github.com/noah-isme/notebook-grading-api/internal/models"
	"github.com/noah-isme/notebook-grading-api/internal/repository"
	"github.com/noah-isme/notebook-grading-api/internal/router"
	"github.com/noah-isme/notebook-grading-api/internal/service"
	cloud "github.com/noah-isme/notebook-grading-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	db, err := database.ConnectPostgres(context.Background(), cfg.DatabaseURL, cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Submission{}, &models.UserRole{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL, cfg.Database.ConnectTimeout)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured, stats cache and cross-node feed disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	var uploader service.FileUploader
	if cfg.CloudinaryCloudName != "" {
		cloudinary, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		uploader = cloudinary
	} else {
		logger.Warn().Msg("cloudinary not configured, notebook file uploads disabled")
	}

	rubric, err := grading.LoadFile(cfg.RubricFile)
	if err != nil {
		log.Fatalf("failed to load rubric: %v", err)
	}
	engine := grading.NewEngine(rubric, grading.Policy{PassThreshold: cfg.PassThreshold})

	renderer := certificate.NewRenderer(
		certificateLayout(cfg),
		certificate.NewHTTPFetcher(cfg.Certificate.AssetTimeout),
		logger,
	)

	validate := validator.New(validator.WithRequiredStructEnabled())
	graders := service.NewGraderDirectory(cfg.GraderNames)

	submissionRepo := repository.NewSubmissionRepository(db)
	roleRepo := repository.NewRoleRepository(db)

	feedCtx, stopFeed := context.WithCancel(context.Background())
	defer stopFeed()
	feed := service.NewSubmissionFeed(redisClient, cfg.ChannelBase, natsConn, logger)
	feed.Start(feedCtx)

	submissionService := service.NewSubmissionService(submissionRepo, validate, uploader, feed, graders, cfg.NotebookMaxSizeMB, logger)
	gradingService := service.NewGradingService(engine, submissionRepo, feed, graders, validate, logger)
	certificateService := service.NewCertificateService(submissionRepo, renderer, cfg.CertificateDateLayout, logger)
	statsService := service.NewStatsService(submissionRepo, redisClient, cfg.StatsCacheTTL, logger)
	roleService := service.NewRoleService(roleRepo, validate, logger)

	probes := []handler.HealthProbe{{
		Name: "database",
		Check: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if redisClient != nil {
		probes = append(probes, handler.HealthProbe{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		SubmissionHandler:     handler.NewSubmissionHandler(submissionService, logger),
		SubmissionFeedHandler: handler.NewSubmissionFeedHandler(feed, logger, cfg.FeedKeepAlive),
		GradingHandler:        handler.NewGradingHandler(gradingService, logger),
		CertificateHandler:    handler.NewCertificateHandler(certificateService, logger),
		StatsHandler:          handler.NewStatsHandler(statsService, logger),
		RoleHandler:           handler.NewRoleHandler(roleService, logger),
		HealthProbes:          probes,
		JWTMiddleware:         middleware.JWTProtected(cfg.JWTSecret),
		RoleMiddleware:        middleware.RoleResolver(roleService, logger),
		RateLimiter:           middleware.RateLimit("grading", 60, time.Minute),
		Logger:                &logger,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

// certificateLayout overlays configured wording on the default certificate layout.
func certificateLayout(cfg config.Config) certificate.Layout {
	layout := certificate.DefaultLayout()
	overrides := []struct {
		target *string
		value  string
	}{
		{&layout.LogoURL, cfg.Certificate.LogoURL},
		{&layout.SignatureURL, cfg.Certificate.SignatureURL},
		{&layout.Title, cfg.Certificate.Title},
		{&layout.CourseLine1, cfg.Certificate.CourseLine1},
		{&layout.CourseLine2, cfg.Certificate.CourseLine2},
		{&layout.SignatoryName, cfg.Certificate.SignatoryName},
		{&layout.SignatoryTitle, cfg.Certificate.SignatoryTitle},
	}
	for _, override := range overrides {
		if override.value != "" {
			*override.target = override.value
		}
	}
	return layout
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
