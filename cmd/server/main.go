package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moodsync-server/internal/config"
	"moodsync-server/internal/handler"
	"moodsync-server/internal/merge"
	"moodsync-server/internal/middleware"
	"moodsync-server/internal/repository"
	"moodsync-server/internal/service"
	"moodsync-server/internal/telemetry"
	"moodsync-server/internal/websocket"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	couchURL := fmt.Sprintf("http://%s:%s@%s:%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
	)

	client, err := kivik.New("couch", couchURL)
	if err != nil {
		logger.Fatal("failed to connect to couchdb", zap.Error(err))
	}

	exists, err := client.DBExists(context.Background(), cfg.Database.Name)
	if err != nil {
		logger.Fatal("failed to check database existence", zap.Error(err))
	}

	if !exists {
		if err := client.CreateDB(context.Background(), cfg.Database.Name); err != nil {
			logger.Fatal("failed to create database", zap.Error(err))
		}
		logger.Info("created database", zap.String("name", cfg.Database.Name))
	}

	userRepo := repository.NewUserRepository(client, cfg.Database.Name)
	deviceRepo := repository.NewDeviceRepository(client, cfg.Database.Name)
	entryRepo := repository.NewEntryRepository(client, cfg.Database.Name)
	tombstoneRepo := repository.NewTombstoneRepository(client, cfg.Database.Name)

	baseURL := fmt.Sprintf("%s/%s", couchURL, cfg.Database.Name)
	conflictRepo := repository.NewConflictRepository(baseURL)
	syncMetadataRepo := repository.NewSyncMetadataRepository(baseURL)
	mergeHistoryRepo := repository.NewMergeHistoryRepository(baseURL)

	wsManager := websocket.NewManager(
		cfg.WebSocket.MaxConnPerUser,
		cfg.WebSocket.WriteWait,
		cfg.WebSocket.PongWait,
		cfg.WebSocket.PingPeriod,
		logger,
	)
	go wsManager.Run()

	engine := merge.New(
		engineConfig(cfg.Merge),
		tombstoneRepo,
		telemetry.NewZapEmitter(logger),
	)

	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.RefreshTokenExpiration)
	userService := service.NewUserService(userRepo)
	deviceService := service.NewDeviceService(deviceRepo)
	syncService := service.NewSyncService(entryRepo, conflictRepo, syncMetadataRepo, mergeHistoryRepo, engine, wsManager, logger)
	conflictService := service.NewConflictService(conflictRepo, entryRepo)
	entryService := service.NewEntryService(entryRepo, tombstoneRepo, conflictRepo, engine, syncService)

	wsMessageHandler := handler.NewWebSocketMessageHandler(logger)
	wsManager.SetMessageHandler(wsMessageHandler)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	deviceHandler := handler.NewDeviceHandler(deviceService)
	entryHandler := handler.NewEntryHandler(entryService)
	syncHandler := handler.NewSyncHandler(syncService, conflictService)
	wsHandler := handler.NewWebSocketHandler(wsManager, cfg.JWT.Secret, logger)

	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/refresh", authHandler.Refresh).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST", "OPTIONS")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret))

	protected.HandleFunc("/users/me", userHandler.GetMe).Methods("GET", "OPTIONS")
	protected.HandleFunc("/users/me", userHandler.UpdateMe).Methods("PUT", "OPTIONS")

	protected.HandleFunc("/devices", deviceHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/devices/register", deviceHandler.Register).Methods("POST", "OPTIONS")
	protected.HandleFunc("/devices/{id}", deviceHandler.Revoke).Methods("DELETE", "OPTIONS")

	protected.HandleFunc("/entries", entryHandler.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/entries", entryHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/entries/{id}", entryHandler.Get).Methods("GET", "OPTIONS")
	protected.HandleFunc("/entries/{id}", entryHandler.Update).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/entries/{id}", entryHandler.Delete).Methods("DELETE", "OPTIONS")

	protected.HandleFunc("/sync/merge", syncHandler.Merge).Methods("POST", "OPTIONS")
	protected.HandleFunc("/sync/health", syncHandler.GetHealth).Methods("GET", "OPTIONS")
	protected.HandleFunc("/sync/changes", syncHandler.GetChanges).Methods("GET", "OPTIONS")
	protected.HandleFunc("/sync/history", syncHandler.GetHistory).Methods("GET", "OPTIONS")
	protected.HandleFunc("/sync/conflicts", syncHandler.ListConflicts).Methods("GET", "OPTIONS")
	protected.HandleFunc("/sync/conflicts/{id}", syncHandler.DismissConflict).Methods("DELETE", "OPTIONS")
	protected.HandleFunc("/sync/resolve/{id}", syncHandler.ResolveConflict).Methods("POST", "OPTIONS")

	r.HandleFunc("/ws", wsHandler.HandleConnection)

	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.HandleFunc("/", rootHandler).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting moodsync server",
			zap.String("addr", addr),
			zap.String("env", cfg.Server.Env),
			zap.String("couchdb", fmt.Sprintf("%s:%s", cfg.Database.Host, cfg.Database.Port)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped gracefully")
}

// engineConfig starts from the engine defaults and applies the operator's
// env overrides on top.
func engineConfig(mc config.MergeConfig) merge.Config {
	c := merge.DefaultConfig()
	c.DuplicateWindow = time.Duration(mc.DuplicateWindowSeconds) * time.Second
	c.DuplicateScoreDelta = mc.DuplicateScoreDelta
	c.QualityGap = mc.QualityGap
	c.MoodAverageDelta = mc.MoodAverageDelta
	c.LevelAverageDelta = mc.LevelAverageDelta
	c.SeverityMediumCutoff = mc.SeverityMediumCutoff
	c.SeverityHighCutoff = mc.SeverityHighCutoff
	return c
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.Server.Env == "production" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"moodsync-server"}`))
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"MoodSync Server API","version":"1.0.0","endpoints":{"/api/v1/auth/register":"POST","/api/v1/auth/login":"POST","/api/v1/entries":"GET/POST (protected)","/api/v1/sync/merge":"POST (protected)"}}`))
}
