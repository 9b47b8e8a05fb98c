package database

import (
	"database/sql"
	"fmt"
	"strings"

	"kitchen-store/migrations"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// gooseTarget maps a database/sql driver name to its goose dialect and
// embedded migration directory.
func gooseTarget(driverName string) (dialect, dir string, err error) {
	switch driverName {
	case DriverSQLite:
		return "sqlite3", "sqlite", nil
	case pgxDriverName, DriverPostgres:
		return "postgres", "postgres", nil
	default:
		return "", "", fmt.Errorf("no migrations for driver %q", driverName)
	}
}

// gooseLogger sends goose's progress lines to zap.
type gooseLogger struct {
	sugar *zap.SugaredLogger
}

func newGooseLogger(logger *zap.Logger) gooseLogger {
	return gooseLogger{sugar: logger.WithOptions(zap.AddCallerSkip(1)).Sugar().With("component", "goose")}
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.sugar.Infof(strings.TrimSuffix(format, "\n"), v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.sugar.Fatalf(strings.TrimSuffix(format, "\n"), v...)
}

func prepareGoose(driverName string, logger *zap.Logger) (string, error) {
	dialect, dir, err := gooseTarget(driverName)
	if err != nil {
		return "", err
	}

	goose.SetLogger(newGooseLogger(logger))
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return dir, nil
}

// RunMigrations executes all pending database migrations
func RunMigrations(db *sql.DB, driverName string, logger *zap.Logger) error {
	dir, err := prepareGoose(driverName, logger)
	if err != nil {
		return err
	}

	logger.Info("Checking for pending migrations...", zap.String("dir", dir))

	if err := goose.Up(db, dir); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Migrations completed successfully")
	return nil
}

// GetMigrationStatus logs the current migration status
func GetMigrationStatus(db *sql.DB, driverName string, logger *zap.Logger) error {
	dir, err := prepareGoose(driverName, logger)
	if err != nil {
		return err
	}

	return goose.Status(db, dir)
}
