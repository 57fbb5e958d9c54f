// @title          Aid Attendance Portal API
// @version        1.0
// @description    Two-step login, sessions and role-based access for the benefits portal.
// @BasePath       /
// @securityDefinitions.apikey BearerAuth
// @in             header
// @name           Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/aidattendance/portal/internal/api"
	"github.com/aidattendance/portal/internal/api/metrics"
	"github.com/aidattendance/portal/internal/api/middleware"
	"github.com/aidattendance/portal/internal/core/domain"
	"github.com/aidattendance/portal/internal/core/ports"
	"github.com/aidattendance/portal/internal/core/service"
	"github.com/aidattendance/portal/internal/infrastructure/config"
	"github.com/aidattendance/portal/internal/infrastructure/db/mongo"
	"github.com/aidattendance/portal/internal/infrastructure/db/redis"
	"github.com/aidattendance/portal/internal/infrastructure/memory"
	"github.com/aidattendance/portal/internal/infrastructure/notify"
	"github.com/aidattendance/portal/internal/infrastructure/queue"
	"github.com/aidattendance/portal/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fallback := logger.Init(logger.Options{})
		fallback.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.Init(logger.ForEnv(cfg.Env, cfg.LogLevel))

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("portal stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	var (
		rdb *goredis.Client
		mdb *mongodriver.Database
	)
	if cfg.NeedsRedis() {
		client, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Timeout:  cfg.Redis.Timeout,
		})
		if err != nil {
			return err
		}
		defer client.Close()
		rdb = client
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
	}
	if cfg.NeedsMongo() {
		client, db, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  cfg.Mongo.AppName,
			Timeout:  cfg.Mongo.Timeout,
		})
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		mdb = db
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongo")
	}

	// --- Notifications ---
	var sink ports.Notifier = notify.NewLogNotifier(log)
	if cfg.Notifier == "twilio" {
		sink = notify.NewTwilioNotifier(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, sink)
	}
	dispatcher := queue.NewDispatcher(cfg.Auth.NotifyWorkers, sink, log)
	dispatcher.Start(ctx)

	// --- Identity and credentials ---
	var (
		resolver ports.IdentityResolver = service.StaticResolver{}
		creds    ports.CredentialStore  = memory.NewCredentials()
		profiles ports.ProfileStore
	)
	if cfg.CredentialBackend == "mongo" {
		dir := mongo.NewDirectory(mdb, resolver)
		if err := dir.EnsureIndexes(ctx); err != nil {
			return err
		}
		resolver, creds, profiles = dir, dir, dir
	}

	// --- Sessions ---
	var store ports.SessionStore
	switch cfg.SessionBackend {
	case "redis":
		store = redis.NewSessionStore(rdb, cfg.Auth.SessionTTL)
	case "mongo":
		s := mongo.NewSessionStore(mdb, cfg.Auth.SessionTTL)
		if err := s.EnsureIndexes(ctx); err != nil {
			return err
		}
		store = s
	default:
		store = memory.NewSessionStore()
	}

	// --- Verification codes ---
	var otp ports.OtpChallenger = memory.NewAcceptAnyOtp(log)
	if cfg.OtpBackend == "redis" {
		otp = redis.NewOtpChallenger(rdb, dispatcher, resolver, redis.OtpConfig{
			TTL:         time.Duration(cfg.Auth.OtpSeconds) * time.Second,
			MaxAttempts: cfg.Auth.OtpMaxAttempts,
			Channel:     domain.Channel(cfg.Auth.OtpChannel),
		})
	}

	var resets ports.ResetTokenStore = memory.NewResetTokens()
	if rdb != nil {
		resets = redis.NewResetTokenStore(rdb)
	}

	table := service.DefaultAccessTable()
	if cfg.Auth.AccessTableFile != "" {
		f, err := os.Open(cfg.Auth.AccessTableFile)
		if err != nil {
			return err
		}
		table, err = service.LoadAccessTable(f)
		_ = f.Close()
		if err != nil {
			return err
		}
	}

	flows := service.NewFlowRegistry(service.FlowDeps{
		Credentials: creds,
		Resolver:    resolver,
		Otp:         otp,
		Store:       store,
		Profiles:    profiles,
		Log:         log,
		Config:      service.FlowConfig{OtpSeconds: cfg.Auth.OtpSeconds},
	}, cfg.Auth.FlowIdleTTL)
	go flows.Run(ctx)
	metrics.RegisterActiveFlows(func() float64 { return float64(flows.Len()) })

	e := api.NewRouter(api.Deps{
		Flows:    flows,
		Tokens:   service.NewJWTService(cfg.JWTSecret, cfg.Auth.TokenTTL),
		Accounts: service.NewAccountService(creds, resets, dispatcher, cfg.Auth.ResetURL, log),
		Table:    table,
		Limiter:  middleware.NewRateLimiter(cfg.Auth.RateLimit, cfg.Auth.RateBurst),
		Mongo:    mdb,
		Redis:    rdb,
		Log:      log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("portal listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
