package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"travelenda/internal/shared/config"
	"travelenda/pkg/logger"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB bundles the two stores the API runs on.
type DB struct {
	PostgreSQL *gorm.DB
	Redis      *redis.Client
}

// InitDB opens Postgres and Redis, waits until both answer and applies the schema.
func InitDB(ctx context.Context, cfg *config.Config, log *logger.Logger) (*DB, error) {
	pg, err := openPostgres(cfg.Database, cfg.IsDevelopment(), log)
	if err != nil {
		return nil, err
	}
	db := &DB{PostgreSQL: pg, Redis: openRedis(cfg.Redis)}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
	defer cancel()
	if err := db.HealthCheck(pingCtx); err != nil {
		return nil, errors.Join(err, db.Close())
	}

	if err := Migrate(pg); err != nil {
		return nil, errors.Join(fmt.Errorf("migrate: %w", err), db.Close())
	}
	if err := MigrateConstraints(pg); err != nil {
		return nil, errors.Join(fmt.Errorf("constraints: %w", err), db.Close())
	}

	log.Info("✅ Stores ready", "postgres", cfg.Database.Host+":"+cfg.Database.Port, "redis", cfg.Redis.Addr)
	return db, nil
}

func openPostgres(cfg config.DatabaseConfig, verbose bool, log *logger.Logger) (*gorm.DB, error) {
	level := gormlogger.Warn
	if verbose {
		level = gormlogger.Info
	}
	sqlLog := gormlogger.New(slog.NewLogLogger(log.Handler(), slog.LevelDebug), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger:                                   sqlLog,
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: true,
		// unique violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	pool, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

func openRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// Close releases both pools.
func (db *DB) Close() error {
	var pgErr error
	if pool, err := db.PostgreSQL.DB(); err == nil {
		pgErr = pool.Close()
	}
	return errors.Join(pgErr, db.Redis.Close())
}

// HealthCheck pings both stores concurrently.
func (db *DB) HealthCheck(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pool, err := db.PostgreSQL.DB()
		if err == nil {
			err = pool.PingContext(ctx)
		}
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := db.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (db *DB) GetRedis() *redis.Client {
	return db.Redis
}

func (db *DB) GetPostgreSQL() *gorm.DB {
	return db.PostgreSQL
}
