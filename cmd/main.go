// cmd/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"manabi_quest/internal/config"
	"manabi_quest/internal/handlers"
	"manabi_quest/internal/middleware"
	"manabi_quest/internal/model"
	"manabi_quest/internal/repository"
	"manabi_quest/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	//　設定ファイル読み込み用の一時的なロガー設定
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)

	// Configを読み込み
	if err := config.LoadConfig("./configs"); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// === 設定に基づいて slog ロガーを初期化 ===
	logLevel := new(slog.LevelVar)
	switch strings.ToLower(config.Cfg.Log.Level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
		slog.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", config.Cfg.Log.Level))
	}

	// 開発環境は色付きテキスト、その他はJSONで出力
	var handler slog.Handler
	appEnv := os.Getenv("APP_ENV")
	if strings.ToLower(appEnv) == "dev" {
		tintOpts := &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		}
		handler = tint.NewHandler(os.Stderr, tintOpts)
		tempLogger.Info("Using TINT log handler", slog.String("APP_ENV", appEnv))
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}
		handler = slog.NewJSONHandler(os.Stderr, jsonOpts)
		tempLogger.Info("Using JSON log handler", slog.String("APP_ENV", appEnv))
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Info("Application starting...", slog.String("app", config.Cfg.App.Name))

	// Initialize Database Connection (GORM)
	db, err := repository.NewDB(config.Cfg.Database.URL, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing database connection", slog.Any("error", err))
		} else {
			slog.Info("Database connection closed.")
		}
	}()

	// スキーマのマイグレーション
	if err := db.AutoMigrate(
		&model.User{},
		&model.Lesson{},
		&model.Quiz{},
		&model.QuizAttempt{},
		&model.Progress{},
		&model.Notification{},
		&model.Badge{},
	); err != nil {
		slog.Error("Error migrating database schema", slog.Any("error", err))
		os.Exit(1)
	}

	// Dependency Injection
	userRepo := repository.NewGormUserRepository()
	lessonRepo := repository.NewGormLessonRepository()
	quizRepo := repository.NewGormQuizRepository()
	attemptRepo := repository.NewGormAttemptRepository()
	progressRepo := repository.NewGormProgressRepository()
	notifRepo := repository.NewGormNotificationRepository()
	badgeRepo := repository.NewGormBadgeRepository()

	mailer := service.NewMailer(&config.Cfg)
	badgeService := service.NewBadgeService(notifRepo)
	authService := service.NewAuthService(db, userRepo, mailer, &config.Cfg)
	lessonService := service.NewLessonService(db, lessonRepo)
	progressService := service.NewProgressService(db, progressRepo, lessonRepo, userRepo, badgeRepo, badgeService, &config.Cfg)
	quizService := service.NewQuizService(db, quizRepo, attemptRepo, progressRepo, userRepo, badgeService, &config.Cfg)
	syncService := service.NewSyncService(db, progressService)
	notificationService := service.NewNotificationService(db, notifRepo)

	authHandler := handlers.NewAuthHandler(authService, logger)
	lessonHandler := handlers.NewLessonHandler(lessonService, logger)
	quizHandler := handlers.NewQuizHandler(quizService, logger)
	progressHandler := handlers.NewProgressHandler(progressService, logger)
	syncHandler := handlers.NewSyncHandler(syncService, logger)
	xpHandler := handlers.NewXPHandler(progressService, logger)
	notificationHandler := handlers.NewNotificationHandler(notificationService, logger)

	// Setup Router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(logger))

	// CORS 設定と適用 (設定ファイルから読み込んだ値を使用)
	corsOptions := cors.Options{
		AllowedOrigins:   config.Cfg.CORS.AllowedOrigins,
		AllowedMethods:   config.Cfg.CORS.AllowedMethods,
		AllowedHeaders:   config.Cfg.CORS.AllowedHeaders,
		ExposedHeaders:   config.Cfg.CORS.ExposedHeaders,
		AllowCredentials: config.Cfg.CORS.AllowCredentials,
		MaxAge:           config.Cfg.CORS.MaxAge,
		Debug:            false,
	}
	corsHandler := cors.New(corsOptions)
	r.Use(corsHandler.Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// --- Public routes ---
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// --- Protected routes ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuthMiddleware(&config.Cfg))

			r.Get("/users/me", authHandler.GetMe)

			// Lesson routes
			r.Route("/lessons", func(r chi.Router) {
				r.Get("/", lessonHandler.GetLessons)
				r.Get("/{lesson_id}", lessonHandler.GetLesson)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(model.RoleTeacher, model.RoleAdmin))
					r.Post("/", lessonHandler.PostLesson)
					r.Delete("/{lesson_id}", lessonHandler.DeleteLesson)
				})
			})

			// Quiz routes
			r.Route("/quizzes", func(r chi.Router) {
				r.Get("/", quizHandler.GetQuizzes)
				r.Get("/{quiz_id}", quizHandler.GetQuiz)
				r.Post("/{quiz_id}/attempt", quizHandler.AttemptQuiz)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(model.RoleTeacher, model.RoleAdmin))
					r.Post("/", quizHandler.PostQuiz)
					r.Delete("/{quiz_id}", quizHandler.DeleteQuiz)
				})
			})
			r.Get("/attempts", quizHandler.GetAttempts)

			// Progress routes
			r.Route("/progress", func(r chi.Router) {
				r.Get("/{student_id}", progressHandler.GetProgress)
				r.Get("/{student_id}/badges", progressHandler.GetBadges)
				r.Post("/complete", progressHandler.PostComplete)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(model.RoleTeacher, model.RoleAdmin))
					r.Post("/award", progressHandler.PostAward)
				})
			})

			// Offline sync
			r.Post("/sync", syncHandler.PostSync)

			// XP award by email (管理ツール向け)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleTeacher, model.RoleAdmin))
				r.Post("/xp/add", xpHandler.PostAddXP)
			})

			// Notification routes
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.GetNotifications)
				r.Patch("/{notification_id}/read", notificationHandler.PatchNotificationRead)
			})
		})
	})

	// Health Check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sqlDB, err := db.DB()
		if err != nil {
			slog.ErrorContext(ctx, "Health check failed: could not get DB object", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			slog.ErrorContext(ctx, "Health check failed: could not ping DB", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Start Server
	server := &http.Server{
		Addr:         config.Cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", config.Cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", config.Cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Println("Server exiting")
}
