package api

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"taskbounty/portal/internal/common"
	"taskbounty/portal/internal/config"
	"taskbounty/portal/internal/db"
	"taskbounty/portal/internal/jobs"
	"taskbounty/portal/internal/logging"
	"taskbounty/portal/internal/metrics"
	"taskbounty/portal/internal/payment"
	"taskbounty/portal/internal/providers"
	"taskbounty/portal/internal/store"
)

// Dependencies is everything the router needs, built once at startup.
type Dependencies struct {
	Config   *config.Config
	Metrics  *metrics.MetricsRegistry
	Backend  *providers.BackendProvider
	Redis    *redis.Client
	ORM      *gorm.DB
	SQL      *sqlx.DB
	Cache    common.CacheInterface
	Sessions common.SessionStore
	Registry *store.Registry
	Checkout *payment.Service
	Sweeper  *jobs.SessionSweeper
}

// InitDependencies connects the configured session backend and builds the
// services on top of it. Background jobs are bound to ctx.
func InitDependencies(ctx context.Context, cfg *config.Config, metricsReg *metrics.MetricsRegistry) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Metrics: metricsReg,
		Backend: providers.NewBackendProvider(cfg.Backend, metricsReg),
	}

	switch cfg.Session.Store {
	case "sql":
		orm, err := db.OpenORM(cfg.DB, cfg.App.Env)
		if err != nil {
			return nil, err
		}
		sqlStore := common.NewSQLSessionStore(orm, cfg.Session.TTL, metricsReg)
		if err := sqlStore.Migrate(); err != nil {
			return nil, fmt.Errorf("failed to migrate session table: %w", err)
		}
		sqlDB, err := db.OpenSQLX(cfg.DB, orm)
		if err != nil {
			return nil, err
		}
		deps.ORM = orm
		deps.SQL = sqlDB
		deps.Sessions = sqlStore
		deps.Cache = common.NewCacheService(cfg.Checkout.IntentTTL, 10*time.Minute)
		deps.Sweeper = jobs.InitializeJobs(ctx, sqlDB, metricsReg, cfg.Session.SweepInterval)
	default:
		client := common.NewRedisClient(cfg.Redis)
		deps.Redis = client
		deps.Sessions = common.NewSessionService(client, cfg.Session.TTL, metricsReg)
		deps.Cache = common.NewRedisCacheService(client)
	}

	deps.Registry = store.NewRegistry(deps.Backend, metricsReg, cfg.App.StoreIdle, 0)

	secret := cfg.Checkout.SigningSecret
	if secret == "" {
		secret = uuid.NewString()
		logging.Warn("CHECKOUT_SIGNING_SECRET not set, using a per-process secret")
	}
	signer := common.NewCheckoutSigner([]byte(secret), deps.Cache, cfg.Checkout.IntentTTL)
	deps.Checkout = payment.NewService(cfg.Checkout, signer)

	return deps, nil
}

// Close releases connections.
func (d *Dependencies) Close() {
	if d.Cache != nil {
		_ = d.Cache.Close()
	}
	if d.SQL != nil && d.Config.DB.Driver == "postgres" {
		_ = d.SQL.Close()
	}
	if d.ORM != nil {
		if sqlDB, err := d.ORM.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
