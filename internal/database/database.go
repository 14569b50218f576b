package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"catalog-api/internal/config"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
)

const (
	// connectAttempts is the total number of ping attempts before giving up.
	connectAttempts = 5
	// backoffBase is the initial retry delay; it doubles per attempt.
	backoffBase = time.Second
	// backoffCap bounds the delay between attempts.
	backoffCap = 30 * time.Second

	pingTimeout = 5 * time.Second
)

// Service holds the connection pool for the configured provider.
type Service struct {
	db       *sql.DB
	provider Provider
	dialect  Dialect
	logger   *zap.Logger
}

// Connect selects the configured provider, opens its connection pool and
// verifies connectivity. Transient failures are retried with exponential
// backoff (up to 5 attempts, capped at 30s between attempts).
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Service, error) {
	provider, err := ParseProvider(cfg.Database.Provider)
	if err != nil {
		return nil, err
	}

	dsn := dsnFor(provider, cfg)
	if dsn == "" {
		return nil, fmt.Errorf("no connection string configured for provider %q", provider)
	}

	db, err := sql.Open(provider.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", provider, err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetimeMinutes) * time.Minute)

	backoff := retry.WithMaxRetries(connectAttempts-1, retry.WithCappedDuration(backoffCap, retry.NewExponential(backoffBase)))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()

		if err := db.PingContext(pingCtx); err != nil {
			logger.Warn("Database ping failed, retrying",
				zap.String("provider", string(provider)),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", provider, err)
	}

	logger.Info("Database connected", zap.String("provider", string(provider)))

	return &Service{
		db:       db,
		provider: provider,
		dialect:  provider.Dialect(),
		logger:   logger,
	}, nil
}

// DB returns the underlying connection pool.
func (s *Service) DB() *sql.DB { return s.db }

// Provider returns the selected backend.
func (s *Service) Provider() Provider { return s.provider }

// Dialect returns the SQL dialect for the selected backend.
func (s *Service) Dialect() Dialect { return s.dialect }

// Health reports connectivity and connection pool statistics.
func (s *Service) Health() map[string]string {
	stats := make(map[string]string)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = err.Error()
		return stats
	}

	poolStats := s.db.Stats()
	stats["status"] = "up"
	stats["provider"] = string(s.provider)
	stats["open_connections"] = strconv.Itoa(poolStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(poolStats.InUse)
	stats["idle"] = strconv.Itoa(poolStats.Idle)
	stats["wait_count"] = strconv.FormatInt(poolStats.WaitCount, 10)

	return stats
}

// Close releases the connection pool.
func (s *Service) Close() error {
	s.logger.Info("Closing database connection", zap.String("provider", string(s.provider)))
	return s.db.Close()
}

func dsnFor(provider Provider, cfg *config.Config) string {
	switch provider {
	case ProviderMySQL:
		return cfg.Database.MySQLDSN
	case ProviderSQLServer:
		return cfg.Database.SQLServerDSN
	default:
		return cfg.Database.PostgresDSN
	}
}
