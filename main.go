package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pliu/prava/internal/auth"
	"github.com/pliu/prava/internal/config"
	"github.com/pliu/prava/internal/email"
	"github.com/pliu/prava/internal/handlers"
	"github.com/pliu/prava/internal/logging"
	"github.com/pliu/prava/internal/service"
	"github.com/pliu/prava/internal/store/sqlstore"
	"github.com/pliu/prava/internal/ws"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logging.New(os.Stderr, "error").Error(context.Background(), "invalid configuration", "err", err)
		os.Exit(2)
	}
	log := logging.New(os.Stdout, cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error(context.Background(), "server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	store, err := sqlstore.New(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	// Initialize WebSocket Hub
	var members ws.MembershipChecker
	if cfg.EnforceRoomMembership {
		members = store
	}
	hub := ws.NewHub(members, log)
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	// Initialize Services
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	mailer := email.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, log)
	notifications := service.NewNotificationService(store, hub, log)
	services := handlers.Services{
		Auth:          service.NewAuthService(store, tokens, mailer, cfg, log),
		Users:         service.NewUserService(store),
		Feed:          service.NewFeedService(store, notifications, log),
		Chat:          service.NewChatService(store, hub, notifications, log),
		Keys:          service.NewKeyService(store),
		Notifications: notifications,
	}

	router := handlers.NewRouter(services, handlers.RouterConfig{
		Tokens:             tokens,
		Hub:                hub,
		Log:                log,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting server", "addr", cfg.Addr, "driver", cfg.DatabaseDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info(context.Background(), "shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	stop()
	<-hubDone
	return err
}
