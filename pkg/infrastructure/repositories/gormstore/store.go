// Package gormstore persists items, BOM edges and price history through gorm
// on PostgreSQL or SQLite.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/vsinha/bomcost/pkg/domain/bomerr"
	"github.com/vsinha/bomcost/pkg/domain/repositories"
	"github.com/vsinha/bomcost/pkg/infrastructure/config"
	"github.com/vsinha/bomcost/pkg/infrastructure/logger"
)

// activePairIndex enforces one active edge per parent/child pair while
// leaving any number of inactive rows alone.
const activePairIndex = `CREATE UNIQUE INDEX IF NOT EXISTS ux_bom_active_pair
	ON bom (parent_item_id, child_item_id) WHERE is_active`

// Store implements the item, BOM and price repositories on a gorm connection
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

var (
	_ repositories.ItemRepository  = (*Store)(nil)
	_ repositories.BOMRepository   = (*Store)(nil)
	_ repositories.PriceRepository = (*Store)(nil)
	_ repositories.Transactor      = (*Store)(nil)
)

// Open connects with the configured driver and migrates the schema
func Open(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}

	gormLog := gormLogger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == "sqlite" {
		// SQLite allows a single writer; in-memory databases also vanish with their last connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	store := New(db, log)
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}
	log.Info("database ready", "driver", cfg.Driver)
	return store, nil
}

// New wraps an open connection without migrating
func New(db *gorm.DB, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{db: db, log: log}
}

// DB exposes the underlying connection
func (s *Store) DB() *gorm.DB { return s.db }

// Close releases the connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates the items, bom and item_price_history tables
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(&itemRow{}, &bomRow{}, &priceRow{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	if err := db.Exec(activePairIndex).Error; err != nil {
		return fmt.Errorf("failed to create active pair index: %w", err)
	}
	return nil
}

type txKey struct{}

// InTx runs fn in a transaction carried by the context. Nested calls join
// the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction in ctx, or the shared connection
func (s *Store) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.TrimSpace(pgErr.Code) == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// edgeWriteError maps a failed edge insert or update. A unique violation
// can only come from the active pair index.
func edgeWriteError(op string, err error) error {
	if isUniqueViolation(err) {
		return bomerr.Wrap(bomerr.ErrDuplicateEdge, "", fmt.Errorf("%s: %w", op, err))
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
