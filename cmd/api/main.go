package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/SysArcDCMS/dcms-scheduler/internal/audit"
	"github.com/SysArcDCMS/dcms-scheduler/internal/cache"
	"github.com/SysArcDCMS/dcms-scheduler/internal/config"
	dbpkg "github.com/SysArcDCMS/dcms-scheduler/internal/db"
	domain "github.com/SysArcDCMS/dcms-scheduler/internal/domain/appointment"
	"github.com/SysArcDCMS/dcms-scheduler/internal/infra/repository"
	"github.com/SysArcDCMS/dcms-scheduler/internal/lock"
	"github.com/SysArcDCMS/dcms-scheduler/internal/observability"
	"github.com/SysArcDCMS/dcms-scheduler/internal/ratelimit"
	"github.com/SysArcDCMS/dcms-scheduler/internal/redisclient"
	"github.com/SysArcDCMS/dcms-scheduler/internal/routes"
	"github.com/SysArcDCMS/dcms-scheduler/internal/timezone"
	ucAppointment "github.com/SysArcDCMS/dcms-scheduler/internal/usecase/appointment"
)

const serviceName = "dcms-scheduler"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	observability.InitLogger(serviceName, cfg.Env)
	log.Info().
		Str("env", cfg.Env).
		Str("registry", cfg.Registry).
		Str("lock_backend", cfg.LockBackend).
		Str("timezone", cfg.Timezone).
		Msg("api starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.Setup(rootCtx, serviceName, cfg.ServiceVersion, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup error")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("metrics init error")
	}

	// ======================================================
	// REGISTRY + AUDIT
	// ======================================================
	var (
		db       *gorm.DB
		registry domain.Registry
		recorder audit.Recorder
	)

	switch cfg.Registry {
	case config.RegistryPostgres:
		db, err = dbpkg.NewDB(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres connection error")
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		registry = repository.NewAppointmentGormRepository(db)
		recorder = audit.New(db)
		log.Info().Msg("connected to Postgres")
	default:
		registry = repository.NewAppointmentMemoryRepository()
		recorder = audit.LogRecorder{}
		log.Warn().Msg("in-memory registry: appointments are lost on restart")
	}

	auditDispatcher := audit.NewDispatcher(recorder)

	// ======================================================
	// LOCK / CACHE / RATE LIMIT
	// ======================================================
	var (
		rdb     *redis.Client
		locker  lock.Locker
		slots   cache.SlotCache = cache.Noop{}
		limiter ratelimit.Limiter
	)

	switch cfg.LockBackend {
	case config.LockRedis:
		rdb, err = redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection error")
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("error closing redis")
			}
		}()
		log.Info().Msg("connected to Redis")

		locker = lock.NewRedisLocker(rdb, cfg.LockTTL, cfg.LockWait)
		if cfg.SlotCacheTTL > 0 {
			slots = cache.NewRedisSlotCache(rdb, cfg.SlotCacheTTL)
		}
		limiter = ratelimit.NewRedisLimiter(rdb, cfg.BookingRateLimit, cfg.BookingRateWindow)
	default:
		locker = lock.NewLocalLocker(cfg.LockWait)
		if cfg.SlotCacheTTL > 0 {
			slots = cache.NewMemorySlotCache(cfg.SlotCacheTTL)
		}
		limiter = ratelimit.Noop{}
		log.Warn().Msg("local lock backend: single instance only, booking rate limit disabled")
	}

	// ======================================================
	// HTTP
	// ======================================================
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, routes.Dependencies{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Logger: log.Logger,
		Booking: ucAppointment.Deps{
			Registry: registry,
			Clock:    timezone.NewClinicClock(cfg.Location),
			Hours:    cfg.Hours,
			Locker:   locker,
			Cache:    slots,
			Limiter:  limiter,
			Audit:    auditDispatcher,
			Metrics:  metrics,
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutting down api")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	// Flush audit events queued by in-flight requests.
	auditDispatcher.Close()
}
