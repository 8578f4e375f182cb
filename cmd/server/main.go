package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/postqueue/configs"
	"github.com/maheshrc27/postqueue/internal/api/handlers"
	"github.com/maheshrc27/postqueue/internal/api/middleware"
	job "github.com/maheshrc27/postqueue/internal/jobs"
	"github.com/maheshrc27/postqueue/internal/publisher"
	"github.com/maheshrc27/postqueue/internal/queue"
	"github.com/maheshrc27/postqueue/internal/repository"
	"github.com/maheshrc27/postqueue/internal/service"
	"github.com/maheshrc27/postqueue/internal/statestore"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Failed to load environment variables", "error", err)
	}

	cfg := config.LoadConfig()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		fatal("Failed to connect to database", err)
	}

	if err := db.Ping(); err != nil {
		fatal("Database is unreachable", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	defer rdb.Close()

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error(err.Error(), "path", c.Path())
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	states := statestore.NewRedisStore(rdb, cfg.OAuthStateTTL)

	transactor := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	queueRepo := repository.NewQueueRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	postLogRepo := repository.NewPostLogRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	postMediaRepo := repository.NewPostMediaRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	apiKeyRepository := repository.NewApiKeyRepository(db)

	storage, err := service.NewR2Storage(context.Background(), cfg.R2)
	if err != nil {
		fatal("Failed to configure media storage", err)
	}

	authService := service.NewAuthService(*cfg, userRepo, states)
	userService := service.NewUserService(userRepo)
	apiKeyService := service.NewApiKeyService(apiKeyRepository)
	subscriptionService := service.NewSubscriptionService(userRepo, subscriptionRepo)
	linkedInService := service.NewLinkedInService(*cfg, socialAccountRepo, nil)
	lifecycleService := service.NewLifecycleService(transactor, postRepo, queueRepo, postLogRepo)
	platformService := service.NewPlatformService(*cfg, transactor, socialAccountRepo, calendarRepo, linkedInService, states)
	calendarService := service.NewCalendarService(calendarRepo, socialAccountRepo)
	queueService := service.NewQueueService(transactor, postRepo, queueRepo, calendarRepo, socialAccountRepo, mediaAssetRepo, lifecycleService)
	postService := service.NewPostService(transactor, postRepo, queueRepo, calendarRepo, socialAccountRepo, mediaAssetRepo, postMediaRepo, postLogRepo, lifecycleService, storage)

	pub := publisher.New(postRepo, mediaAssetRepo, lifecycleService, subscriptionService, linkedInService, publisher.Options{
		Workers:      cfg.Publish.Workers,
		CallTimeout:  cfg.Publish.CallTimeout,
		ClaimTimeout: cfg.Publish.ClaimTimeout,
	})

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)

	payment := handlers.NewPaymentHandler(subscriptionService)
	app.Post("/webhooks/payment", payment.PaymentWebhook)

	platform := handlers.NewPlatformHandler(platformService, *cfg)
	app.Get("/auth/linkedin/callback", platform.CallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	api.Get("/auth/linkedin", platform.AddSocialAccount)

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)
	api.Delete("/user", user.DeleteUser)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Delete("/api_key/:id", apiKeys.RemoveAPIKey)

	// social accounts
	api.Get("/accounts", platform.ListSocialAccounts)
	api.Put("/accounts/:id/timezone", platform.UpdateTimezone)
	api.Delete("/accounts/:id", platform.DeleteSocialAccount)

	calendar := handlers.NewCalendarHandler(calendarService)
	api.Get("/accounts/:id/calendar", calendar.GetCalendar)
	api.Put("/accounts/:id/calendar", calendar.UpdateCalendar)

	queueH := handlers.NewQueueHandler(queueService)
	api.Get("/accounts/:id/queue", queueH.ListQueue)
	api.Get("/accounts/:id/queue/next-slot", queueH.NextSlot)
	api.Post("/accounts/:id/queue/shuffle", queueH.Shuffle)

	post := handlers.NewPostHandler(postService, client)
	api.Post("/posts", post.CreateDraft)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/pending", post.PendingPosts)
	api.Get("/posts/:id", post.GetPost)
	api.Put("/posts/:id", post.UpdateDraft)
	api.Delete("/posts/:id", post.RemovePost)
	api.Get("/posts/:id/logs", post.PostLogs)
	api.Post("/posts/:id/media", post.AttachMedia)
	api.Post("/posts/:id/enqueue", queueH.Enqueue)
	api.Post("/posts/:id/schedule", post.SchedulePost)
	api.Post("/posts/:id/unschedule", queueH.Unschedule)
	api.Post("/posts/:id/publish", post.PublishNow)
	api.Post("/posts/:id/retry", post.RetryPost)

	// background jobs
	refreshTokenJob := job.NewTokenRefreshJob(socialAccountRepo, linkedInService)

	scheduler := job.NewScheduler()
	if err := job.RegisterAll(scheduler, cfg.Publish, pub, subscriptionService, refreshTokenJob); err != nil {
		fatal("Failed to register jobs", err)
	}
	scheduler.Start()

	server := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: 10,
	})
	go func() {
		mux := asynq.NewServeMux()
		queue.NewWorker(pub).Register(mux)

		slog.Info("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			fatal("Could not start Asynq server", err)
		}
	}()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			fatal("Failed to start server", err)
		}
	}()
	slog.Info("Server is running", "port", cfg.Port)

	gracefulShutdown(app, scheduler, server, db)
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, scheduler *job.Scheduler, server *asynq.Server, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	slog.Info("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("Failed to shut down server", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	scheduler.Stop(ctx)
	server.Shutdown()

	closeDB(db)
	slog.Info("Server shutdown complete.")
}
