package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"planforge.app/forge/common/id"
	"planforge.app/forge/common/llm"
	"planforge.app/forge/common/logger"
	"planforge.app/forge/common/otel"
	"planforge.app/forge/core/config"
	"planforge.app/forge/core/db"
	"planforge.app/forge/internal/http/middleware"
	httprouter "planforge.app/forge/internal/http/router"
	"planforge.app/forge/internal/retriever"
	"planforge.app/forge/internal/service"
	"planforge.app/forge/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet — OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "forge starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	auditStore := store.NewAuditStore(database)
	if err := auditStore.EnsureSchema(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to ensure audit schema", "error", err)
		os.Exit(1)
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected")

	coverageCache := store.NewCoverageCache(redisClient, time.Duration(cfg.Redis.CacheTTL)*time.Second)

	sessionStore, err := store.NewArangoSessionStore(ctx, store.ArangoConfig{
		URL:      cfg.ArangoDB.URL,
		Username: cfg.ArangoDB.Username,
		Password: cfg.ArangoDB.Password,
		Database: cfg.ArangoDB.Database,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to arangodb", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "arangodb connected", "database", cfg.ArangoDB.Database)

	var (
		ret     retriever.Retriever = retriever.Disabled{}
		indexer retriever.Indexer   = retriever.Disabled{}
	)
	if cfg.Typesense.Enabled() {
		ts, err := retriever.NewTypesenseStore(ctx, retriever.TypesenseConfig{
			URL:        cfg.Typesense.URL,
			APIKey:     cfg.Typesense.APIKey,
			Collection: cfg.Typesense.Collection,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to typesense", "error", err)
			os.Exit(1)
		}
		ret, indexer = ts, ts
		slog.InfoContext(ctx, "typesense connected", "collection", cfg.Typesense.Collection)
	} else {
		slog.InfoContext(ctx, "requirements search disabled (typesense not configured)")
	}

	exportStore, err := store.NewLocalExportStore(cfg.Exports.Dir, cfg.Exports.BaseURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize export store", "error", err)
		os.Exit(1)
	}

	generator, err := llm.New(llm.Config{
		APIKey:  cfg.GeneratorLLM.APIKey,
		BaseURL: cfg.GeneratorLLM.BaseURL,
		Model:   cfg.GeneratorLLM.Model,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize generation client", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "generation client ready", "model", generator.Model())

	planService := service.NewPlanService(
		sessionStore,
		coverageCache,
		auditStore,
		exportStore,
		generator,
		ret,
		indexer,
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, planService)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second, // generation requests are slow
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, planService service.PlanService) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, planService)

	return router
}

const banner = `
██████╗ ██╗      █████╗ ███╗   ██╗███████╗ ██████╗ ██████╗  ██████╗ ███████╗
██╔══██╗██║     ██╔══██╗████╗  ██║██╔════╝██╔═══██╗██╔══██╗██╔════╝ ██╔════╝
██████╔╝██║     ███████║██╔██╗ ██║█████╗  ██║   ██║██████╔╝██║  ███╗█████╗
██╔═══╝ ██║     ██╔══██║██║╚██╗██║██╔══╝  ██║   ██║██╔══██╗██║   ██║██╔══╝
██║     ███████╗██║  ██║██║ ╚████║██║     ╚██████╔╝██║  ██║╚██████╔╝███████╗
╚═╝     ╚══════╝╚═╝  ╚═╝╚═╝  ╚═══╝╚═╝      ╚═════╝ ╚═╝  ╚═╝ ╚═════╝ ╚══════╝
`
