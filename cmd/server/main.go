package main

import (
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mtsuji/kanban-board-api/internal/config"
	"github.com/mtsuji/kanban-board-api/internal/constants"
	"github.com/mtsuji/kanban-board-api/internal/database"
	"github.com/mtsuji/kanban-board-api/internal/events"
	"github.com/mtsuji/kanban-board-api/internal/handlers"
	"github.com/mtsuji/kanban-board-api/internal/middleware"
	"github.com/mtsuji/kanban-board-api/internal/notifications"
	"github.com/mtsuji/kanban-board-api/internal/repository"
	"github.com/mtsuji/kanban-board-api/internal/services"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg, log); err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}
	if err := database.AddIndexes(database.GetDB()); err != nil {
		log.WithError(err).Fatal("failed to add indexes")
	}

	// Event bus with the logging notifier attached
	bus := events.NewBus()
	notifications.NewNotifier(log).Register(bus)

	// Repositories
	taskRepo := repository.NewTaskRepository(database.GetDB())
	boardRepo := repository.NewBoardRepository(database.GetDB())
	labelRepo := repository.NewLabelRepository(database.GetDB())
	userRepo := repository.NewUserRepository(database.GetDB())

	// Services
	reconciler := services.NewOrderReconciler(database.GetDB(), taskRepo, log)
	taskService := services.NewTaskService(taskRepo, boardRepo, reconciler, bus, log)
	boardService := services.NewBoardService(boardRepo, reconciler, log)
	labelService := services.NewLabelService(labelRepo)
	authService := services.NewAuthService(userRepo)

	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	taskHandler := handlers.NewTaskHandler(taskService, aiService)
	boardHandler := handlers.NewBoardHandler(boardService)
	labelHandler := handlers.NewLabelHandler(labelService)
	plannerHandler := handlers.NewPlannerHandler(taskService)

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(log))

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,
		"tcp",
		redisAddr,
		"",
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to create Redis store")
	}
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Kanban Board API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Board routes (protected)
		boards := api.Group("/boards")
		boards.Use(middleware.RequireAuth())
		{
			boards.POST("", boardHandler.CreateBoard)
			boards.GET("", boardHandler.ListBoards)
			boards.GET("/:id", middleware.RequireBoard(), boardHandler.GetBoard)
			boards.PUT("/:id", middleware.RequireBoard(), boardHandler.UpdateBoard)
			boards.DELETE("/:id", middleware.RequireBoard(), boardHandler.DeleteBoard)
			boards.POST("/:id/fix-order", middleware.RequireBoard(), boardHandler.FixOrder)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.POST("/generate", taskHandler.GenerateTasks)
			tasks.GET("/:id", middleware.RequireTask(), taskHandler.GetTask)
			tasks.PATCH("/:id", middleware.RequireTask(), taskHandler.UpdateTask)
			tasks.DELETE("/:id", middleware.RequireTask(), taskHandler.DeleteTask)
			tasks.POST("/:id/move", middleware.RequireTask(), taskHandler.MoveTask)
			tasks.POST("/:id/archive", middleware.RequireTask(), taskHandler.ArchiveTask)
			tasks.POST("/:id/unarchive", middleware.RequireTask(), taskHandler.UnarchiveTask)
			tasks.POST("/:id/assign", middleware.RequireTask(), taskHandler.AssignTask)
			tasks.POST("/:id/unassign", middleware.RequireTask(), taskHandler.UnassignTask)
			tasks.POST("/:id/plan", middleware.RequireTask(), plannerHandler.PlanTask)
			tasks.DELETE("/:id/plan", middleware.RequireTask(), plannerHandler.UnplanTask)
		}

		// Label routes (protected)
		labels := api.Group("/labels")
		labels.Use(middleware.RequireAuth())
		{
			labels.POST("", labelHandler.CreateLabel)
			labels.GET("", labelHandler.ListLabels)
			labels.PUT("/:id", labelHandler.UpdateLabel)
			labels.DELETE("/:id", labelHandler.DeleteLabel)
		}

		// Daily planner (protected)
		planner := api.Group("/planner")
		planner.Use(middleware.RequireAuth())
		{
			planner.GET("", plannerHandler.ListPlanned)
		}
	}

	// Start server
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}
