package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"messagely/config"
	"messagely/internal/handler"
	"messagely/internal/middleware"
	"messagely/internal/model"
	"messagely/internal/repository"
	"messagely/internal/router"
	"messagely/internal/service"
	dbPkg "messagely/pkg/db"
	"messagely/pkg/jwt"
	"messagely/pkg/logger"
	"messagely/pkg/password"
	redisPkg "messagely/pkg/redis"
	"messagely/pkg/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config.yaml")
	flag.Parse()

	// 1. configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		fatalf("invalid config: %v", err)
	}

	// 2. logging
	log, err := logger.InitLogger(cfg.Log)
	if err != nil {
		fatalf("init logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("messagely starting",
		zap.String("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("database_host", cfg.Database.Host),
		zap.String("database_name", cfg.Database.Database),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.Duration("jwt_expire_time", cfg.JWT.ExpireTime),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. database
	db, err := dbPkg.Open(cfg.Database)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer func() {
		if err := dbPkg.Close(db); err != nil {
			log.Error("close database", zap.Error(err))
		}
	}()
	if err := dbPkg.AutoMigrate(db, &model.User{}, &model.Message{}); err != nil {
		log.Fatal("auto migrate failed", zap.Error(err))
	}
	log.Info("database ready")

	// 4. services
	hasher, err := password.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		log.Fatal("init password hasher", zap.Error(err))
	}
	tokens := jwt.NewService(cfg.JWT)
	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	wsManager := websocket.NewManager()

	userSvc := service.NewUserService(userRepo, tokens, hasher)
	messageSvc := service.NewMessageService(messageRepo, userRepo).WithNotifier(wsManager)

	var redisPing handler.Pinger
	if cfg.Redis.Enabled {
		rdb, err := redisPkg.NewClient(context.Background(), cfg.Redis)
		if err != nil {
			log.Fatal("redis connection failed", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
		messageSvc.WithCache(redisPkg.NewParticipantCache(rdb, cfg.Redis.ParticipantTTL))
		redisPing = func(ctx context.Context) error { return redisPkg.HealthCheck(ctx, rdb) }
		log.Info("redis participant cache enabled", zap.String("addr", cfg.Redis.Addr()))
	}

	// 5. HTTP
	gin.SetMode(cfg.Server.Mode)
	engine := router.New(router.Deps{
		Guards:   middleware.NewAuthenticator(tokens, messageSvc, cfg.Auth),
		Auth:     handler.NewAuthHandler(userSvc),
		Users:    handler.NewUserHandler(userSvc, messageSvc),
		Messages: handler.NewMessageHandler(messageSvc),
		Health: handler.NewHealthHandler(func(ctx context.Context) error {
			return dbPkg.HealthCheck(ctx, db)
		}, redisPing, wsManager.Count),
		WebSocket: websocket.NewHandler(wsManager, cfg.WebSocket),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("http server listening", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	// 6. graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("http server shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}

// fatalf reports startup errors that happen before the logger exists.
func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "messagely: "+format+"\n", args...)
	os.Exit(1)
}
