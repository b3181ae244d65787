package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migrator применяет goose-миграции поверх пула pgx
type Migrator struct {
	db             *sql.DB
	migrationsPath string
	logger         *zap.Logger
}

func NewMigrator(pool *pgxpool.Pool, migrationsPath string, logger *zap.Logger) (*Migrator, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}

	// goose работает с *sql.DB
	return &Migrator{
		db:             stdlib.OpenDBFromPool(pool),
		migrationsPath: migrationsPath,
		logger:         logger,
	}, nil
}

// Up применяет все ещё не применённые миграции
func (mg *Migrator) Up(ctx context.Context) error {
	mg.logger.Info("Applying database migrations", zap.String("dir", mg.migrationsPath))

	if err := goose.UpContext(ctx, mg.db, mg.migrationsPath); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, mg.db)
	if err != nil {
		return fmt.Errorf("get migrations version: %w", err)
	}

	mg.logger.Info("Migrations applied", zap.Int64("version", version))
	return nil
}

// Close закрывает только *sql.DB, пул закрывается владельцем
func (mg *Migrator) Close() error {
	if mg.db != nil {
		return mg.db.Close()
	}
	return nil
}
