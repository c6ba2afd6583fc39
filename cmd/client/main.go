// Package main is the entry point for the signals client.
package main

import (
	"context"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"signals-client/internal/api"
	"signals-client/internal/config"
	"signals-client/internal/model"
	"signals-client/internal/notify"
	"signals-client/internal/reconcile"
	"signals-client/internal/service"
	"signals-client/internal/session"
	"signals-client/internal/signal"
	"signals-client/internal/storage"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open the durable local store
	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open local store")
	}
	defer store.Close()

	// Remote service clients
	httpClient := &http.Client{Timeout: cfg.Services.HTTPTimeout}
	authClient := api.NewAuthClient(cfg.Services.AuthURL, httpClient)
	directoryClient := api.NewDirectoryClient(cfg.Services.DirectoryURL, httpClient)

	notifier := notify.Log{}

	// Session store and restore
	sess := session.New(store)
	state, err := sess.Restore()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to restore session")
	}

	// Signal generators, one per channel
	registry := signal.NewRegistry()

	standard := signal.New(&signal.Config{
		Channel:  model.ChannelStandard,
		Tiers:    signal.StandardTiers(),
		Cooldown: cfg.Signals.Standard.CooldownSeconds,
	})
	if err := registry.Register(standard); err != nil {
		log.Fatal().Err(err).Msg("Failed to register standard generator")
	}

	premium := signal.New(&signal.Config{
		Channel:  model.ChannelPremium,
		Tiers:    signal.PremiumTiers(),
		Cooldown: cfg.Signals.Premium.CooldownSeconds,
	})
	if err := registry.Register(premium); err != nil {
		log.Fatal().Err(err).Msg("Failed to register premium generator")
	}

	log.Info().
		Int("channel_count", registry.Count()).
		Msg("Signal generators registered")

	// Services
	authService := service.NewAuthService(
		authClient,
		directoryClient,
		sess,
		notifier,
		cfg.Admin.Username,
		cfg.Registration.MaxAccounts,
	)
	adminService := service.NewAdminService(directoryClient, sess)

	// Reconciliation loop runs only for a regular user session
	loop := reconcile.New(directoryClient, sess, notifier, cfg.Reconcile.PollInterval)
	if state == session.StateUser {
		loop.Start(ctx)
	}
	if state == session.StateAdmin {
		if _, err := adminService.ListUsers(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to load directory for restored admin session")
		}
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	ossignal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	r := &repl{
		ctx:      ctx,
		session:  sess,
		auth:     authService,
		admin:    adminService,
		registry: registry,
		loop:     loop,
	}

	replDone := make(chan struct{})
	go func() {
		defer close(replDone)
		r.run(os.Stdin, os.Stdout)
	}()

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-replDone:
	}

	loop.Stop()
	log.Info().Msg("Client stopped gracefully")
}
