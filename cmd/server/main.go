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
	"time"

	"github.com/rs/zerolog"

	"github.com/anvaya/identity-service/internal/api"
	"github.com/anvaya/identity-service/internal/core/domain"
	"github.com/anvaya/identity-service/internal/infrastructure/audit"
	"github.com/anvaya/identity-service/internal/infrastructure/config"
	mongoinfra "github.com/anvaya/identity-service/internal/infrastructure/db/mongo"
	redisinfra "github.com/anvaya/identity-service/internal/infrastructure/db/redis"
	"github.com/anvaya/identity-service/pkg/hash"
	"github.com/anvaya/identity-service/pkg/logger"
)

func main() {
	seed := flag.Bool("seed", false, "create the bootstrap admin account and exit")
	flag.Parse()

	cfg, err := config.Load(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, db, err := mongoinfra.Connect(ctx, mongoinfra.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	store := mongoinfra.NewIdentityRepository(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	if *seed {
		seedAdmin(ctx, cfg, store, log)
		return
	}

	rdb, err := redisinfra.Connect(ctx, redisinfra.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	dispatcher := audit.NewDispatcher(0, audit.NewMongoSink(db), log)
	dispatcher.Start(ctx)

	e := api.NewRouter(db, rdb, cfg, dispatcher, log)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("identity service listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

// seedAdmin upserts the bootstrap admin account. Admin cannot be
// self-registered, so deployments create it out of band with
// `server -seed`.
func seedAdmin(ctx context.Context, cfg *config.Config, store *mongoinfra.IdentityRepository, log zerolog.Logger) {
	if cfg.SeedAdminPassword == "" {
		log.Fatal().Msg("SEED_ADMIN_PASSWORD is required with -seed")
	}

	if _, err := store.FindByEmail(ctx, cfg.SeedAdminEmail); err == nil {
		log.Info().Str("email", cfg.SeedAdminEmail).Msg("admin account already present")
		return
	} else if !errors.Is(err, domain.ErrIdentityNotFound) {
		log.Fatal().Err(err).Msg("admin lookup failed")
	}

	hashed, err := hash.New(cfg.BcryptCost).Hash(cfg.SeedAdminPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("admin password hash failed")
	}

	now := time.Now().UTC()
	created, err := store.Create(ctx, &domain.Identity{
		Email:        cfg.SeedAdminEmail,
		PasswordHash: hashed,
		Role:         domain.RoleAdmin,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("admin creation failed")
	}
	log.Info().Str("id", created.ID).Str("email", created.Email).Msg("admin account created")
}
