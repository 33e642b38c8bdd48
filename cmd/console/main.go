package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	zlog "github.com/rs/zerolog/log"

	"keyadmin/internal/api"
	apiContext "keyadmin/internal/api/context"
	"keyadmin/internal/api/handlers"
	"keyadmin/internal/api/middleware"
	"keyadmin/internal/engine/keys"
	"keyadmin/internal/engine/session"
	backend "keyadmin/internal/platform/api"
	"keyadmin/internal/platform/config"
	"keyadmin/internal/pkg/logger"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	// The backend client reads the caller's session token from the request
	// context; the session middleware puts it there.
	tokenSource := func(ctx context.Context) string {
		token, _ := ctx.Value(apiContext.AccessToken).(string)
		return token
	}

	// A 401 anywhere clears the cached identities exactly once per failure
	// epoch; a successful identity fetch re-arms the signal.
	var identity *session.Identity
	monitor := session.NewMonitor(func() {
		zlog.Warn().Msg("backend rejected session, clearing cached identities")
		identity.Clear()
	})

	client, err := backend.NewClient(cfg.Backend, tokenSource, monitor.Trip)
	if err != nil {
		log.Fatalf("Failed to build backend client: %v", err)
	}
	identity = session.NewIdentity(client, tokenSource, monitor.Reset)

	// Engine
	aggregator := keys.NewAggregator(client)
	spendCache := keys.NewSpendCache(client)
	budgetMutator := keys.NewBudgetMutator(client, spendCache)
	provisioner := keys.NewProvisioner(client, aggregator)

	// Handlers
	authHandler := handlers.NewAuthHandler(cfg, identity)
	keysHandler := handlers.NewKeysHandler(identity, aggregator, spendCache, budgetMutator, provisioner)

	router := api.NewRouter(&api.Dependencies{
		AuthHandler:       authHandler,
		KeysHandler:       keysHandler,
		SessionMiddleware: middleware.NewSessionMiddleware(cfg.Session),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	zlog.Info().Str("addr", addr).Str("backend", cfg.Backend.BaseURL).Msg("key admin console listening")
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
