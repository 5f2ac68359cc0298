package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/Houman6460/fooodis-blog-sub005/configs"
	"github.com/Houman6460/fooodis-blog-sub005/internal/api/handlers"
	"github.com/Houman6460/fooodis-blog-sub005/internal/api/middleware"
	job "github.com/Houman6460/fooodis-blog-sub005/internal/jobs"
	"github.com/Houman6460/fooodis-blog-sub005/internal/metrics"
	"github.com/Houman6460/fooodis-blog-sub005/internal/queue"
	"github.com/Houman6460/fooodis-blog-sub005/internal/repository"
	"github.com/Houman6460/fooodis-blog-sub005/internal/service"
	"github.com/Houman6460/fooodis-blog-sub005/internal/telemetry"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	telemetry.SetupLogger()
	metrics.Register(prometheus.DefaultRegisterer)

	cfg := config.LoadConfig()

	// Without a database the API still serves and reports the store as
	// unavailable on every call that needs it.
	var db *sql.DB
	if cfg.DatabaseURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		var err error
		db, err = repository.Open(ctx, cfg.DBDriver, cfg.DatabaseURI)
		if err != nil {
			cancel()
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := repository.Migrate(ctx, db); err != nil {
			cancel()
			log.Fatalf("Failed to migrate database: %v", err)
		}
		cancel()
	} else {
		slog.Warn("DATABASE_URI is not set, scheduled posts are unavailable")
	}
	sb := repository.Builder(cfg.DBDriver)

	var (
		client    *asynq.Client
		enqueuer  queue.Enqueuer
		redisConn asynq.RedisClientOpt
	)
	if cfg.RedisURI != "" {
		redisConn = asynq.RedisClientOpt{Addr: cfg.RedisURI}
		client = asynq.NewClient(redisConn)
		defer client.Close()
		enqueuer = client
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Minute,
		WriteTimeout: 5 * time.Minute,
		BodyLimit:    20 * 1024 * 1024, // 20 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("request failed", "path", c.Path(), "error", err)
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	scheduledPostRepo := repository.NewScheduledPostRepository(db, sb)
	blogPostRepo := repository.NewBlogPostRepository(db, sb)
	historyRepo := repository.NewScheduledPostHistoryRepository(db, sb)
	categoryRepo := repository.NewCategoryRepository(db, sb)
	mediaAssetRepo := repository.NewMediaAssetRepository(db, sb)

	publisherService := service.NewPublisherService(db, scheduledPostRepo, blogPostRepo, historyRepo, categoryRepo)
	scheduledPostService := service.NewScheduledPostService(db, scheduledPostRepo, historyRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	r2Service := service.NewR2Service(cfg.R2)
	mediaService := service.NewMediaService(mediaAssetRepo, r2Service)
	authService := service.NewAuthService(*cfg)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Post("/auth/login", auth.Login)
	app.Post("/auth/logout", auth.Logout)

	api := app.Group("/api")

	// The due-check endpoints are hit by external schedulers and stay public.
	check := handlers.NewCheckHandler(publisherService)
	api.Get("/scheduled-posts/check", check.ListDue)
	api.Post("/scheduled-posts/check", check.CheckAndPublish)

	protected := api.Group("", authMiddleware.AuthMiddleware())

	scheduledPosts := handlers.NewScheduledPostHandler(scheduledPostService, publisherService, enqueuer)
	protected.Get("/scheduled-posts", scheduledPosts.ListScheduledPosts)
	protected.Post("/scheduled-posts", scheduledPosts.CreateScheduledPost)
	protected.Get("/scheduled-posts/:id", scheduledPosts.GetScheduledPost)
	protected.Put("/scheduled-posts/:id", scheduledPosts.UpdateScheduledPost)
	protected.Delete("/scheduled-posts/:id", scheduledPosts.RemoveScheduledPost)
	protected.Post("/scheduled-posts/:id/publish", scheduledPosts.PublishScheduledPost)

	categories := handlers.NewCategoryHandler(categoryService)
	protected.Get("/categories", categories.ListCategories)
	protected.Post("/categories", categories.CreateCategory)

	media := handlers.NewMediaHandler(mediaService)
	protected.Get("/media", media.ListMedia)
	protected.Post("/media", media.UploadMedia)

	// cron jobs
	publishJob := job.NewPublishJob(publisherService)
	strandedJob := job.NewStrandedPostJob(publisherService, cfg.PublishingTimeout)

	c := cron.New()
	if err := c.AddFunc(cfg.CheckSchedule, publishJob.Run); err != nil {
		log.Fatalf("Invalid CHECK_SCHEDULE %q: %v", cfg.CheckSchedule, err)
	}
	if err := c.AddFunc(cfg.RequeueSchedule, strandedJob.Run); err != nil {
		log.Fatalf("Invalid REQUEUE_SCHEDULE %q: %v", cfg.RequeueSchedule, err)
	}
	c.Start()
	defer c.Stop()

	// queue
	var server *asynq.Server
	if client != nil {
		queueW := queue.NewQueue(publisherService)
		server = asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 2,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeCheckScheduledPosts, queueW.HandleCheckTask)

		go func() {
			slog.Info("Starting the Asynq server...")
			if err := server.Run(mux); err != nil {
				log.Fatalf("Could not start Asynq server: %v", err)
			}
		}()
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	slog.Info("Server is running", "port", cfg.Port)

	gracefulShutdown(app, server, db)
}

func closeDB(db *sql.DB) {
	if db == nil {
		return
	}
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, server *asynq.Server, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	slog.Info("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}
	if server != nil {
		server.Shutdown()
	}

	closeDB(db)
	slog.Info("Server shutdown complete.")
}
