package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"

	config "github.com/sambecker/postdeck/configs"
	"github.com/sambecker/postdeck/internal/api/handlers"
	"github.com/sambecker/postdeck/internal/api/middleware"
	job "github.com/sambecker/postdeck/internal/jobs"
	"github.com/sambecker/postdeck/internal/notify"
	"github.com/sambecker/postdeck/internal/platforms"
	"github.com/sambecker/postdeck/internal/queue"
	"github.com/sambecker/postdeck/internal/repository"
	"github.com/sambecker/postdeck/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	defer rdb.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return origin == cfg.FrontendURL
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	hub := repository.NewHub()
	postRepo := repository.NewPostRepository(db, hub)
	draftRepo := repository.NewDraftRepository(db, hub)
	connectionRepo := repository.NewConnectionRepository(db, []byte(cfg.SecretKey))
	mediaAssetRepo := repository.NewMediaAssetRepository(db)

	toaster := notify.NewToaster(notify.DefaultToastTTL)
	center := notify.NewCenter(rdb)
	emitter := notify.NewEmitter(toaster, center)

	factory := platforms.NewFactory(*cfg, connectionRepo)

	assetService := service.NewAssetService(*cfg, mediaAssetRepo)
	publisherService := service.NewPublisherService(postRepo, factory, emitter)
	schedulerService := service.NewSchedulerService(postRepo, emitter)
	draftService := service.NewDraftService(draftRepo)
	calendarService := service.NewCalendarService(postRepo)
	postService := service.NewPostService(postRepo)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(publisherService, schedulerService, draftService, assetService, client)
	api.Post("/posts/publish", post.PublishNow)
	api.Post("/posts/schedule", post.SchedulePost)
	api.Post("/posts/:id/retry", post.RetryPost)
	api.Post("/posts/remove", post.RemovePost)
	api.Post("/posts/remove_pending", post.RemovePending)

	calendar := handlers.NewCalendarHandler(calendarService, postService)
	api.Get("/posts", calendar.ListPosts)
	api.Get("/calendar", calendar.GetCalendar)

	draft := handlers.NewDraftHandler(draftService)
	api.Post("/drafts/save", draft.SaveDraft)
	api.Get("/drafts", draft.ListDrafts)
	api.Post("/drafts/remove", draft.RemoveDraft)

	notification := handlers.NewNotificationHandler(toaster, center)
	api.Get("/toasts", notification.ListToasts)
	api.Get("/notifications", notification.ListNotifications)
	api.Post("/notifications/dismiss", notification.DismissNotification)

	// cron jobs
	reconcileJob := job.NewReconcileJob(postRepo, client)

	// queue
	queueW := queue.NewQueue(publisherService)

	c := cron.New()
	c.AddFunc("@every 00h05m00s", reconcileJob.Sweep)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
