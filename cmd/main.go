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
	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"vocab_trainer/internal/config"
	"vocab_trainer/internal/handlers"
	"vocab_trainer/internal/middleware"
	"vocab_trainer/internal/repository"
	"vocab_trainer/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	// 設定ファイル読み込み用の一時的なロガー設定
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)
	log.Println("Log Config Loading...")

	// Configを読み込み (起動時に一度だけ解決し、以降は読み取り専用)
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// === 設定に基づいて slog ロガーを初期化 ===
	logLevel := new(slog.LevelVar)
	switch strings.ToLower(cfg.Log.Level) {
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
		slog.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", cfg.Log.Level))
	}

	var handler slog.Handler
	appEnv := os.Getenv("APP_ENV")
	if strings.ToLower(appEnv) == "dev" {
		// 開発環境では色付きの読みやすいログを使う
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

	slog.Info("Application starting...", slog.String("app", cfg.App.Name), slog.String("version", config.AppVersion))

	// 2. Initialize Database Connection (GORM)
	db, err := repository.NewDB(cfg.Database.URL, logger)
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

	// 3. Dependency Injection
	userRepo := repository.NewGormUserRepository()
	vocabRepo := repository.NewGormVocabularyRepository()
	tagRepo := repository.NewGormTagRepository()
	reviewRepo := repository.NewGormReviewRepository()
	usageRepo := repository.NewGormUsageRepository()
	tokenRepo := repository.NewGormTokenRepository()

	mailer, err := service.NewMailer(cfg)
	if err != nil {
		slog.Error("Failed to initialize mailer", slog.Any("error", err))
		os.Exit(1)
	}

	authService := service.NewAuthService(db, userRepo, tokenRepo, mailer, cfg)
	userService := service.NewUserService(db, userRepo, usageRepo, tokenRepo)
	vocabService := service.NewVocabularyService(db, vocabRepo, tagRepo)
	tagService := service.NewTagService(db, tagRepo)
	reviewService := service.NewReviewService(db, reviewRepo, vocabRepo, userRepo, cfg)

	authHandler := handlers.NewAuthHandler(authService, logger)
	userHandler := handlers.NewUserHandler(userService, logger)
	vocabHandler := handlers.NewVocabularyHandler(vocabService, logger)
	tagHandler := handlers.NewTagHandler(tagService, logger)
	reviewHandler := handlers.NewReviewHandler(reviewService, logger)

	// 使用量計上はミドルウェアからリポジトリをクロージャ越しに呼ぶ
	recordUsage := middleware.UsageRecorder(func(ctx context.Context, userID uuid.UUID, date, endpoint string) error {
		return usageRepo.Increment(ctx, db, userID, date, endpoint)
	})

	// 4. Setup Router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(logger))

	// CORS 設定と適用 (設定ファイルから読み込んだ値を使用)
	corsOptions := cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
		Debug:            false,
	}
	corsHandler := cors.New(corsOptions)
	r.Use(corsHandler.Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// --- Public routes ---
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/password/forgot", authHandler.ForgotPassword)
			r.Post("/password/reset", authHandler.ResetPassword)
		})

		// --- Protected routes (require JWT) ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuthMiddleware(cfg))
			r.Use(middleware.UsageTrackingMiddleware(recordUsage))

			// Account routes
			r.Route("/me", func(r chi.Router) {
				r.Get("/", userHandler.GetMe)
				r.Patch("/settings", userHandler.PatchSettings)
				r.Delete("/", userHandler.DeleteMe)
				r.Get("/usage", userHandler.GetUsage)
			})

			// Vocabulary routes
			r.Route("/vocabularies", func(r chi.Router) {
				r.Post("/", vocabHandler.PostVocabulary)
				r.Get("/", vocabHandler.GetVocabularies)
				r.Get("/{vocabulary_id}", vocabHandler.GetVocabulary)
				r.Put("/{vocabulary_id}", vocabHandler.PutVocabulary)
				r.Patch("/{vocabulary_id}", vocabHandler.PatchVocabulary)
				r.Delete("/{vocabulary_id}", vocabHandler.DeleteVocabulary)
				r.Put("/{vocabulary_id}/tags", vocabHandler.PutVocabularyTags)
			})

			// Tag routes
			r.Route("/tags", func(r chi.Router) {
				r.Post("/", tagHandler.PostTag)
				r.Get("/", tagHandler.GetTags)
				r.Put("/{tag_id}", tagHandler.PutTag)
				r.Delete("/{tag_id}", tagHandler.DeleteTag)
			})

			// Review routes
			r.Route("/reviews", func(r chi.Router) {
				r.Get("/due", reviewHandler.GetDueReviews)
				r.Post("/", reviewHandler.PostReview)
				r.Post("/batch", reviewHandler.PostReviewBatch)
			})
		})
	})

	// Health Check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := sqlDB.PingContext(r.Context()); err != nil {
			slog.ErrorContext(r.Context(), "Health check failed: could not ping DB", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// 5. Start Server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", cfg.Server.Port), slog.Any("error", err))
			os.Exit(1) // Listen失敗は致命的
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
