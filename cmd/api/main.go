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

	gocql "github.com/apache/cassandra-gocql-driver/v2"

	"github.com/prolucid/identity-cassandra/internal/config"
	"github.com/prolucid/identity-cassandra/internal/handler"
	"github.com/prolucid/identity-cassandra/internal/logging"
	"github.com/prolucid/identity-cassandra/internal/middleware"
	"github.com/prolucid/identity-cassandra/internal/repository"
	"github.com/prolucid/identity-cassandra/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("identity-api", cfg.LogLevel, cfg.AppEnv)

	session, err := connect(cfg)
	if err != nil {
		slog.Error("failed to connect to cassandra", "error", err)
		os.Exit(1)
	}

	db := repository.NewDB(session, true)
	defer db.Close()

	if !cfg.SkipSchemaBootstrap {
		if err := repository.EnsureSchema(session); err != nil {
			slog.Error("failed to bootstrap schema", "error", err)
			os.Exit(1)
		}
	}

	users := repository.NewUserStore(db)
	identity := service.NewIdentity(users, cfg.MaxAccessFailed,
		time.Duration(cfg.LockoutMinutes)*time.Minute)

	jwtExpiry := time.Duration(cfg.JWTExpiryH) * time.Hour
	authHandler := handler.NewAuthHandler(identity, cfg.JWTSecret, jwtExpiry)
	userHandler := handler.NewUserHandler(identity, users)

	requireAuth := middleware.Auth(cfg.JWTSecret)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.Health)
	mux.HandleFunc("POST /api/v1/auth/register", userHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.Handle("GET /api/v1/me", requireAuth(http.HandlerFunc(userHandler.Me)))
	mux.Handle("PUT /api/v1/me", requireAuth(http.HandlerFunc(userHandler.UpdateProfile)))
	mux.Handle("DELETE /api/v1/me", requireAuth(http.HandlerFunc(userHandler.Deactivate)))
	mux.Handle("PUT /api/v1/me/two-factor", requireAuth(http.HandlerFunc(userHandler.SetTwoFactor)))
	mux.Handle("GET /api/v1/me/logins", requireAuth(http.HandlerFunc(userHandler.ListLogins)))
	mux.Handle("POST /api/v1/me/logins", requireAuth(http.HandlerFunc(userHandler.AddLogin)))
	mux.Handle("DELETE /api/v1/me/logins", requireAuth(http.HandlerFunc(userHandler.RemoveLogin)))
	mux.Handle("GET /api/v1/me/claims", requireAuth(http.HandlerFunc(userHandler.ListClaims)))
	mux.Handle("POST /api/v1/me/claims", requireAuth(http.HandlerFunc(userHandler.AddClaim)))
	mux.Handle("DELETE /api/v1/me/claims", requireAuth(http.HandlerFunc(userHandler.RemoveClaim)))

	root := middleware.Recovery(middleware.RequestID(middleware.Logging(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func connect(cfg *config.Config) (*gocql.Session, error) {
	cluster := repository.ClusterConfig{
		Hosts:       cfg.CassandraHosts,
		Keyspace:    cfg.CassandraKeyspace,
		Consistency: cfg.CassandraConsistency,
		Timeout:     time.Duration(cfg.CassandraTimeoutMS) * time.Millisecond,
	}

	var err error
	for i := range 30 {
		if !cfg.SkipSchemaBootstrap {
			if err = repository.EnsureKeyspace(cluster, cfg.ReplicationFactor); err != nil {
				slog.Info("waiting for cassandra", "attempt", i+1)
				time.Sleep(time.Second)
				continue
			}
		}

		var session *gocql.Session
		if session, err = repository.NewCassandraSession(cluster); err == nil {
			return session, nil
		}
		slog.Info("waiting for cassandra", "attempt", i+1)
		time.Sleep(time.Second)
	}

	return nil, fmt.Errorf("connect: gave up after 30 attempts: %w", err)
}
