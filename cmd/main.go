package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/collab-service/config"
	"github.com/cwrk-planet/collab-service/internal/assistant"
	"github.com/cwrk-planet/collab-service/internal/judge0"
	"github.com/cwrk-planet/collab-service/internal/postgres"
	"github.com/cwrk-planet/collab-service/internal/security"
	"github.com/cwrk-planet/collab-service/internal/service"
	"github.com/cwrk-planet/collab-service/internal/session"
	httpx "github.com/cwrk-planet/collab-service/internal/transport/http"
	"github.com/cwrk-planet/collab-service/internal/transport/ws"
	"github.com/cwrk-planet/logger/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting collab-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	// --- security ---
	priv, err := security.LoadRSAPrivateKeyFromPEM(cfg.JWT.PrivateKeyPath)
	if err != nil {
		log.Fatalf("jwt private key: %v", err)
	}
	pub, err := security.LoadRSAPublicKeyFromPEM(cfg.JWT.PublicKeyPath)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}
	signer := security.NewJWTSigner(priv, pub, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWTTTL(), cfg.JWTClockSkew())

	// --- repos ---
	userRepo := postgres.NewUserRepository(db.Pool)
	dirRepo := postgres.NewDirectoryRepository(db.Pool)
	notepadRepo := postgres.NewNotepadRepository(db.Pool)

	// --- services ---
	passPolicy := security.BcryptConfig{
		Cost:      cfg.Auth.BcryptCost,
		MinLength: cfg.Auth.PasswordMinLength,
	}
	authSvc := service.NewAuthService(userRepo, signer, passPolicy, nil)
	dirSvc := service.NewDirectoryService(dirRepo)
	notepadSvc := service.NewNotepadService(notepadRepo)

	// --- coordinator core & WS ---
	hub := ws.NewHub()
	sess := session.New(hub)
	sess.OnDocumentChange(notepadSvc.SnapshotDocument)
	wsServer := ws.NewServer(hub, sess, signer)

	// --- clients ---
	execClient := judge0.New(cfg.Judge0.URL)
	asstClient := assistant.New(cfg.Assistant.URL, cfg.Assistant.Model, cfg.AssistantTimeout())

	// --- HTTP ---
	handler := httpx.NewHandler(sess, authSvc, dirSvc, notepadSvc, execClient, asstClient)
	router := httpx.NewRouter(handler, signer, wsServer)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
