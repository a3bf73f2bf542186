package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/taskcloud/internal/config"
	"github.com/benvon/taskcloud/internal/database"
	"github.com/benvon/taskcloud/internal/handlers"
	"github.com/benvon/taskcloud/internal/logger"
	"github.com/benvon/taskcloud/internal/middleware"
	"github.com/benvon/taskcloud/internal/queue"
	"github.com/benvon/taskcloud/internal/services/auth"
	"github.com/benvon/taskcloud/internal/telemetry"
	"github.com/gorilla/mux"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

const serviceName = "taskcloud-api"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.Bool("shared_mode", cfg.SharedMode),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx := context.Background()

	var tracerProvider *sdktrace.TracerProvider
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(ctx, telemetry.Options{
				ServiceName: serviceName,
				Endpoint:    cfg.OTELEndpoint,
				Insecure:    true,
			})
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerProvider = tp
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := telemetry.Shutdown(shutdownCtx, tracerProvider); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("failed_to_migrate_database", zap.Error(err))
	}

	redisClient, err := middleware.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	rateLimiter, err := middleware.NewRateLimiter(redisClient, cfg.RateLimit, "taskcloud")
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}
	rateLimitMW := rateLimiter.Middleware()

	// The broker is optional here; without it deleted tasks are only reclaimed by the worker's sweep
	var jobQueue queue.JobQueue
	if cfg.RabbitMQURL != "" {
		rmq := connectRabbitMQ(cfg.RabbitMQURL, zapLogger)
		if rmq != nil {
			jobQueue = rmq
			defer func() {
				if err := rmq.Close(); err != nil {
					zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
				}
			}()
		}
	} else {
		zapLogger.Info("rabbitmq_not_configured_purge_jobs_disabled")
	}

	userRepo := database.NewUserRepository(db)
	taskRepo := database.NewTaskRepository(db)
	recycleRepo := database.NewRecycleBinRepository(db)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)

	taskOpts := []handlers.TaskHandlerOption{}
	healthOpts := []handlers.HealthOption{
		handlers.WithCheck("database", db.HealthCheck),
		handlers.WithCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	}
	if jobQueue != nil {
		taskOpts = append(taskOpts, handlers.WithJobQueue(jobQueue, cfg.PurgeDelay))
		healthOpts = append(healthOpts, handlers.WithCheck("queue", jobQueue.HealthCheck))
	}

	authHandler := handlers.NewAuthHandler(userRepo, tokens, zapLogger)
	taskHandler := handlers.NewTaskHandler(taskRepo, zapLogger, taskOpts...)
	recycleHandler := handlers.NewRecycleBinHandler(recycleRepo, zapLogger)
	healthChecker := handlers.NewHealthChecker(healthOpts...)
	requireAuth := middleware.Auth(tokens, cfg.SharedMode, zapLogger)

	r := mux.NewRouter()

	// gorilla/mux runs middleware in registration order, first registered is outermost
	r.Use(middleware.RequestID)
	if tracerProvider != nil {
		r.Use(telemetry.Middleware(serviceName))
		zapLogger.Info("otel_middleware_enabled")
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORSFromEnv(cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	healthChecker.RegisterRoutes(r)

	if openAPIHandler, err := handlers.NewOpenAPIHandler(cfg.OpenAPIPath); err != nil {
		zapLogger.Warn("openapi_document_unavailable",
			zap.String("path", cfg.OpenAPIPath),
			zap.Error(err),
		)
	} else {
		openAPIHandler.RegisterRoutes(r)
	}

	apiRouter := r.PathPrefix("/api").Subrouter()

	authRouter := apiRouter.PathPrefix("/auth").Subrouter()
	authRouter.Use(rateLimitMW)
	authHandler.RegisterRoutes(authRouter, requireAuth)

	tasksRouter := apiRouter.PathPrefix("/tasks").Subrouter()
	tasksRouter.Use(requireAuth)
	tasksRouter.Use(rateLimitMW)
	taskHandler.RegisterRoutes(tasksRouter)

	binRouter := apiRouter.PathPrefix("/recycle-bin").Subrouter()
	binRouter.Use(requireAuth)
	binRouter.Use(rateLimitMW)
	recycleHandler.RegisterRoutes(binRouter)

	// Preflight requests have their headers set by the CORS middleware
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   35 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectRabbitMQ retries with exponential backoff to ride out broker startup.
// It returns nil once the retries are exhausted.
func connectRabbitMQ(url string, zapLogger *zap.Logger) *queue.RabbitMQQueue {
	const maxRetries = 5
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		q, err := queue.NewRabbitMQQueue(url, zapLogger)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return q
		}

		lastErr = err
		delay := min(initialDelay*time.Duration(1<<uint(attempt)), 30*time.Second)
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		time.Sleep(delay)
	}

	zapLogger.Error("rabbitmq_unavailable_purge_jobs_disabled",
		zap.Int("max_retries", maxRetries),
		zap.Error(lastErr),
	)
	return nil
}
