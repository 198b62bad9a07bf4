package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gomoku/backend/internal/analytics"
	"github.com/gomoku/backend/internal/api"
	"github.com/gomoku/backend/internal/bot"
	"github.com/gomoku/backend/internal/config"
	"github.com/gomoku/backend/internal/database"
	"github.com/gomoku/backend/internal/logger"
	"github.com/gomoku/backend/internal/middleware"
	"github.com/gomoku/backend/internal/utils"
	"github.com/gomoku/backend/internal/ws"
)

func main() {
	// optional; the process environment wins
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)

	if err := run(cfg); err != nil {
		logger.Error("server stopped", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resources := utils.NewResourceManager()
	defer resources.Cleanup()

	registry, err := loadRegistry(cfg.Engine.ProfilesFile)
	if err != nil {
		return err
	}
	if _, err := registry.Lookup(cfg.Engine.DefaultDifficulty); err != nil {
		return fmt.Errorf("ENGINE_DIFFICULTY: %w", err)
	}
	logger.Info("engine profiles loaded", map[string]interface{}{"profiles": registry.Names()})

	// Database (optional)
	var db *database.DB
	if cfg.Database.Enabled {
		db, err = database.NewDB(ctx, cfg.Database.DSN(), cfg.Database.ConnectAttempts)
		if err != nil {
			logger.Warn("running without database", map[string]interface{}{"error": err.Error()})
			db = nil
		} else {
			resources.AddCleanupFunc("database", db.Close)
			if err := db.Migrate(ctx); err != nil {
				return err
			}
		}
	}

	hub := ws.NewHub(ws.Config{
		Registry:          registry,
		DefaultDifficulty: cfg.Engine.DefaultDifficulty,
		TTLimit:           cfg.Engine.TTLimit,
		Workers:           cfg.Engine.SearchWorkers,
		SessionTTL:        cfg.Engine.SessionTTL,
		MoveDelay:         cfg.Engine.MoveDelay,
		ReconnectWindow:   cfg.Server.ReconnectWindow,
		AllowedOrigins:    cfg.Security.AllowedOrigins,
	})
	resources.AddCleanupFunc("hub", hub.Close)

	handler := api.NewHandler(registry, bot.WithTTLimit(cfg.Engine.TTLimit), bot.WithWorkers(cfg.Engine.SearchWorkers))
	handler.SetDefaultDifficulty(cfg.Engine.DefaultDifficulty)
	if db != nil {
		hub.SetDB(db)
		handler.SetStore(db)
	}

	// Kafka (optional)
	if cfg.Kafka.Enabled {
		startAnalytics(ctx, cfg, db, hub, resources)
	}

	go hub.Run(ctx)

	limiter := middleware.NewClientLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst, 10*time.Minute)
	resources.AddCleanupFunc("rate limiter", func() error {
		limiter.Close()
		return nil
	})

	mux := http.NewServeMux()
	handler.Register(mux)
	mux.HandleFunc("GET /active-users", hub.HandleActiveUsers)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, w, r)
	})

	var h http.Handler = mux
	h = middleware.RateLimitMiddleware(limiter)(h)
	h = middleware.CORSMiddleware(cfg.Security.AllowedOrigins)(h)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loadRegistry(path string) (*bot.Registry, error) {
	if path == "" {
		return bot.NewRegistry(), nil
	}
	return bot.LoadRegistryFile(path)
}

// startAnalytics wires the Kafka producer into the hub and, with a
// database, the consumer that stores events. Failures only disable analytics.
func startAnalytics(ctx context.Context, cfg *config.Config, db *database.DB, hub *ws.Hub, resources *utils.ResourceManager) {
	producer, err := analytics.NewProducer(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ConnectAttempts)
	if err != nil {
		logger.Warn("running without analytics", map[string]interface{}{"error": err.Error()})
		return
	}
	resources.AddCleanupFunc("kafka producer", producer.Close)
	hub.SetProducer(producer)

	if db == nil {
		return
	}
	consumer, err := analytics.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, db.DB)
	if err != nil {
		logger.Warn("analytics consumer disabled", map[string]interface{}{"error": err.Error()})
		return
	}
	resources.AddCleanupFunc("kafka consumer", consumer.Close)
	go func() {
		if err := consumer.Start(ctx, []string{cfg.Kafka.Topic}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("analytics consumer stopped", err)
		}
	}()
}
