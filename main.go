package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"inkline/backend"
	"inkline/config"
	"inkline/database"
	"inkline/handlers"
	"inkline/middleware"
	"inkline/session"
	"inkline/websocket"
)

func main() {
	if err := config.Load(); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	if _, err := backend.New(cfg.BackendURL); err != nil {
		slog.Error("invalid BACKEND_URL", "error", err)
		os.Exit(1)
	}
	dial := func() (session.Backend, error) {
		return backend.New(cfg.BackendURL, backend.WithTimeout(15*time.Second))
	}

	store, err := credentialStore(cfg)
	if err != nil {
		slog.Error("failed to open credential store", "error", err)
		os.Exit(1)
	}

	prefs, err := themeStore(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions := session.NewManager(dial, store, cfg.SessionTTL, slog.Default())
	go sessions.Run(ctx, time.Minute)

	hub := websocket.NewHub()
	go hub.Run()

	r := gin.Default()
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "sessions": sessions.Len()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	app := r.Group("", middleware.SessionMiddleware(sessions, []byte(cfg.SessionSecret), cfg.SecureCookies))
	handlers.NewAPI(prefs, hub).Register(app, middleware.RequireViewer())
	app.GET("/ws", websocket.NewHandler(hub, cfg.AllowedOrigins).Serve)

	srv := &http.Server{Addr: cfg.ServerAddr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			slog.Warn("server shutdown", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.ServerAddr, "backend", cfg.BackendURL)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}

// credentialStore keeps backend cookies in Redis when REDIS_ADDR is set, so
// sessions survive a restart; otherwise in process.
func credentialStore(cfg *config.Config) (session.CredentialStore, error) {
	if cfg.RedisAddr == "" {
		return session.NewMemoryStore(), nil
	}
	sealer, err := session.NewSealer([]byte(cfg.SessionSecret))
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	slog.Info("redis connected", "addr", cfg.RedisAddr)
	return session.NewRedisStore(rdb, sealer), nil
}

func themeStore(cfg *config.Config) (handlers.ThemeStore, error) {
	if cfg.MysqlDSN == "" {
		return database.NewMemoryPreferences(), nil
	}
	db, err := database.Connect(cfg.MysqlDSN)
	if err != nil {
		return nil, err
	}
	prefs := database.NewPreferences(db)
	if err := prefs.CreateTables(context.Background()); err != nil {
		return nil, err
	}
	return prefs, nil
}
