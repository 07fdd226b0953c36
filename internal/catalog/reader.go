package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jmylchreest/immich-offline-remover/internal/config"
)

// assetQuery selects live assets whose original path matches a LIKE pattern.
// LIKE is case-sensitive in PostgreSQL; % and _ are the only wildcards.
const assetQuery = `SELECT id, "originalPath" FROM asset WHERE "originalPath" LIKE ? AND "deletedAt" IS NULL`

// Opener establishes a catalog connection for one read
type Opener func(ctx context.Context) (*gorm.DB, error)

// Reader lists assets from the catalog, opening a fresh connection per call
type Reader struct {
	open   Opener
	logger *slog.Logger
}

// NewReader creates a reader connecting with the given database settings
func NewReader(cfg config.DatabaseConfig, logger *slog.Logger) *Reader {
	return NewReaderWithOpener(func(ctx context.Context) (*gorm.DB, error) {
		return Open(ctx, cfg)
	}, logger)
}

// NewReaderWithOpener creates a reader using a custom connection opener
func NewReaderWithOpener(open Opener, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}

	return &Reader{
		open:   open,
		logger: logger.With("component", "catalog"),
	}
}

// FindAssets returns every non-deleted asset whose path matches any pattern.
// Results are concatenated in pattern order without deduplication.
// On any failure no assets are returned, even if earlier patterns succeeded.
func (r *Reader) FindAssets(ctx context.Context, patterns []string) ([]Asset, error) {
	db, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.close(db)

	var all []Asset
	for _, pattern := range patterns {
		var batch []Asset
		if err := db.WithContext(ctx).Raw(assetQuery, pattern).Scan(&batch).Error; err != nil {
			return nil, &QueryError{Pattern: pattern, Err: err}
		}

		r.logger.DebugContext(ctx, "matched assets", "pattern", pattern, "count", len(batch))
		all = append(all, batch...)
	}

	return all, nil
}

func (r *Reader) close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		r.logger.Debug("failed to close catalog connection", "error", err)
	}
}

// Open connects to the catalog and verifies the connection with a ping.
// Failures are reported as *ConnectionError.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	connErr := func(err error) error {
		return &ConnectionError{
			Host:     cfg.Hostname,
			Port:     cfg.Port,
			Database: cfg.Name,
			User:     cfg.Username,
			Err:      err,
		}
	}

	db, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, connErr(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, connErr(err)
	}
	sqlDB.SetMaxOpenConns(1)

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, connErr(err)
	}

	return db, nil
}

// DSN builds a keyword/value connection string for the catalog
func DSN(cfg config.DatabaseConfig) string {
	parts := []string{
		"host=" + quoteDSN(cfg.Hostname),
		fmt.Sprintf("port=%d", cfg.Port),
		"dbname=" + quoteDSN(cfg.Name),
		"user=" + quoteDSN(cfg.Username),
		"password=" + quoteDSN(cfg.Password),
	}
	if cfg.ConnectTimeout > 0 {
		parts = append(parts, fmt.Sprintf("connect_timeout=%d", int(cfg.ConnectTimeout.Seconds())))
	}
	if cfg.QueryTimeout > 0 {
		parts = append(parts, fmt.Sprintf("statement_timeout=%d", cfg.QueryTimeout.Milliseconds()))
	}
	return strings.Join(parts, " ")
}

// quoteDSN single-quotes a value, escaping backslashes and quotes
func quoteDSN(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
