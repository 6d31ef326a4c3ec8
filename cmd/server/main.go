// @title        SkillSwap API
// @version      1.0
// @description  Time-credit skill exchange: accounts, credit ledger, session lifecycle, notifications and WebRTC signaling.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tempoedu/skillswap/internal/api"
	"github.com/tempoedu/skillswap/internal/api/handler"
	"github.com/tempoedu/skillswap/internal/core/ports"
	"github.com/tempoedu/skillswap/internal/core/service"
	"github.com/tempoedu/skillswap/internal/infrastructure/db/memory"
	"github.com/tempoedu/skillswap/internal/infrastructure/db/mongo"
	"github.com/tempoedu/skillswap/internal/infrastructure/db/redis"
	"github.com/tempoedu/skillswap/internal/infrastructure/queue"
	"github.com/tempoedu/skillswap/internal/pkg/config"
	"github.com/tempoedu/skillswap/internal/signaling"
	"github.com/tempoedu/skillswap/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// repositories groups the storage backend selected at startup.
type repositories struct {
	users         ports.UserRepository
	ledger        ports.LedgerRepository
	sessions      ports.SessionRepository
	notifications ports.NotificationRepository
	reviews       ports.ReviewRepository
	checks        []handler.DependencyCheck
	close         func(context.Context)
}

func main() {
	cfg := config.Load()
	log := logger.Init(logger.FromEnv(cfg.Env, cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("storage unavailable")
	}

	locker, rdb, err := openLocker(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("redis unavailable")
	}
	if rdb != nil {
		repos.checks = append(repos.checks, handler.RedisCheck(rdb))
	}

	// --- Notifications: async fan-out into the read model ---
	dispatcher := queue.NewDispatcher(cfg.Notify.Workers, cfg.Notify.Buffer,
		service.NewStoreSink(repos.notifications), logger.Module("notifications"))
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)

	// --- Core services ---
	tokens := service.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	ledger := service.NewLedgerService(repos.ledger, logger.Module("ledger"))
	auth := service.NewAuthService(repos.users, ledger, tokens, cfg.InitialCredits, logger.Module("auth"))
	sessions := service.NewSessionService(repos.sessions, repos.users, ledger, locker, dispatcher, logger.Module("sessions"))
	notifications := service.NewNotificationService(repos.notifications)
	reviews := service.NewReviewService(repos.reviews, repos.sessions, dispatcher, logger.Module("reviews"))

	// --- Signaling ---
	var guard signaling.RoomGuard
	if cfg.Signaling.EnforceSessionRooms {
		guard = sessions
	}
	registry := signaling.NewRegistry(cfg.Signaling.MaxRoomSize)
	gateway := signaling.NewGateway(registry, tokens, guard, log)
	wsServer := signaling.NewServer(gateway, signaling.ServerConfig{
		ReadLimit:      cfg.Signaling.ReadLimit,
		PingPeriod:     cfg.Signaling.PingPeriod,
		SendBuffer:     cfg.Signaling.SendBuffer,
		AllowedOrigins: cfg.CORSOrigin,
		MessageRate:    rate.Limit(cfg.Signaling.MessageRate),
		MessageBurst:   cfg.Signaling.MessageBurst,
	}, log)

	e := api.NewRouter(api.Deps{
		Auth:          auth,
		Ledger:        ledger,
		Sessions:      sessions,
		Notifications: notifications,
		Reviews:       reviews,
		Verifier:      tokens,
		Signaling:     wsServer,
		Registry:      registry,
		Health:        repos.checks,
		CORSOrigins:   cfg.CORSOrigin,
		Log:           logger.Module("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("storage", cfg.StorageDriver).Msg("skillswap server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// Drain queued notifications before closing storage.
	stopWorkers()
	dispatcher.Wait()

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close")
		}
	}
	repos.close(shutdownCtx)
	log.Info().Msg("server exited gracefully")
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*repositories, error) {
	if cfg.StorageDriver == config.StorageMemory {
		log.Warn().Msg("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			users:         store.Users(),
			ledger:        store.Ledger(),
			sessions:      store.Sessions(),
			notifications: store.Notifications(),
			reviews:       store.Reviews(),
			close:         func(context.Context) {},
		}, nil
	}

	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return nil, err
	}

	users := mongo.NewUserRepository(db, cfg.Mongo.Timeout)
	ledger := mongo.NewLedgerRepository(db, cfg.Mongo.Timeout)
	sessions := mongo.NewSessionRepository(db, cfg.Mongo.Timeout)
	notifications := mongo.NewNotificationRepository(db, cfg.Mongo.Timeout)
	reviews := mongo.NewReviewRepository(db, cfg.Mongo.Timeout)
	if err := mongo.EnsureIndexes(ctx, users, ledger, sessions, notifications, reviews); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	return &repositories{
		users:         users,
		ledger:        ledger,
		sessions:      sessions,
		notifications: notifications,
		reviews:       reviews,
		checks:        []handler.DependencyCheck{handler.MongoCheck(db)},
		close: func(ctx context.Context) {
			if err := client.Disconnect(ctx); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect")
			}
		},
	}, nil
}

// openLocker returns the distributed lock when Redis is configured and a
// process-local one otherwise.
func openLocker(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.Locker, *goredis.Client, error) {
	if cfg.Redis.Addr == "" {
		log.Info().Msg("REDIS_ADDR not set; session locks are process-local")
		return memory.NewLocker(), nil, nil
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		Timeout:      cfg.Redis.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("addr", cfg.Redis.Addr).Int("pool_size", rdb.Options().PoolSize).Msg("connected to redis")
	return redis.NewLocker(rdb, cfg.Redis.LockTTL, logger.Module("lock")), rdb, nil
}
