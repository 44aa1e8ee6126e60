// Package sqlstore persists audits in a relational database through database/sql.
// The schema and statements stay within the dialect shared by SQLite and MySQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store"
)

// Supported driver names.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

const (
	unsupportedDriverTemplateConstant = "unsupported sql driver %q"
	dataSourceRequiredMessageConstant = "sql data source name must be provided"
	openErrorTemplateConstant         = "unable to open %s database: %w"
	pingErrorTemplateConstant         = "unable to reach %s database: %w"
	pragmaErrorTemplateConstant       = "unable to apply sqlite pragma %q: %w"
	migrationErrorTemplateConstant    = "unable to migrate schema: %w"
	databaseOpenedLogMessageConstant  = "audit database opened"
	logFieldDriverConstant            = "driver"
	mysqlMaxOpenConnectionsConstant   = 10
	sqliteMaxOpenConnectionsConstant  = 1
)

var (
	errDataSourceRequired = errors.New(dataSourceRequiredMessageConstant)

	sqlitePragmas = []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
)

// Configuration selects the driver and data source.
type Configuration struct {
	Driver string
	DSN    string
}

// Store implements store.Store on a *sql.DB.
type Store struct {
	database *sql.DB
	driver   string
	logger   *zap.Logger
	now      func() time.Time
}

// Open connects, applies driver settings, and creates missing tables.
func Open(executionContext context.Context, configuration Configuration, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	driver := strings.ToLower(strings.TrimSpace(configuration.Driver))
	if driver != DriverSQLite && driver != DriverMySQL {
		return nil, fmt.Errorf(unsupportedDriverTemplateConstant, configuration.Driver)
	}
	dataSourceName := strings.TrimSpace(configuration.DSN)
	if len(dataSourceName) == 0 {
		return nil, errDataSourceRequired
	}

	database, openError := sql.Open(driver, dataSourceName)
	if openError != nil {
		return nil, fmt.Errorf(openErrorTemplateConstant, driver, openError)
	}
	if driver == DriverSQLite {
		database.SetMaxOpenConns(sqliteMaxOpenConnectionsConstant)
	} else {
		database.SetMaxOpenConns(mysqlMaxOpenConnectionsConstant)
	}

	if pingError := database.PingContext(executionContext); pingError != nil {
		_ = database.Close()
		return nil, fmt.Errorf(pingErrorTemplateConstant, driver, pingError)
	}

	if driver == DriverSQLite {
		for _, pragma := range sqlitePragmas {
			if _, pragmaError := database.ExecContext(executionContext, pragma); pragmaError != nil {
				_ = database.Close()
				return nil, fmt.Errorf(pragmaErrorTemplateConstant, pragma, pragmaError)
			}
		}
	}

	if migrationError := migrate(executionContext, database); migrationError != nil {
		_ = database.Close()
		return nil, fmt.Errorf(migrationErrorTemplateConstant, migrationError)
	}

	logger.Debug(databaseOpenedLogMessageConstant, zap.String(logFieldDriverConstant, driver))
	return &Store{database: database, driver: driver, logger: logger, now: time.Now}, nil
}

// Close releases the database handle.
func (sqlStore *Store) Close() error {
	return sqlStore.database.Close()
}

func migrate(executionContext context.Context, database *sql.DB) error {
	for _, statement := range schemaStatements {
		if _, execError := database.ExecContext(executionContext, statement); execError != nil {
			return execError
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS standards (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		code VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		version VARCHAR(64) NOT NULL,
		sort_index INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS standard_items (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		standard_id VARCHAR(64) NOT NULL,
		parent_id VARCHAR(64) NOT NULL,
		item_number VARCHAR(64) NOT NULL,
		title TEXT NOT NULL,
		field_type VARCHAR(32) NOT NULL,
		sort_index INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		title VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS templates (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		category_id VARCHAR(64) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		organization_id VARCHAR(64) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audits (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		organization_id VARCHAR(64) NOT NULL,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		category_id VARCHAR(64) NOT NULL,
		template_id VARCHAR(64) NOT NULL,
		target_entity VARCHAR(255) NOT NULL,
		target_entity_type VARCHAR(64) NOT NULL,
		start_date VARCHAR(32) NOT NULL,
		end_date VARCHAR(32) NOT NULL,
		lead_auditor_id VARCHAR(64) NOT NULL,
		created_by VARCHAR(64) NOT NULL,
		status VARCHAR(32) NOT NULL,
		total_items INTEGER NOT NULL,
		created_at_unixms BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_standards (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		audit_id VARCHAR(36) NOT NULL,
		standard_id VARCHAR(64) NOT NULL,
		display_order INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_sessions (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		audit_id VARCHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		session_date VARCHAR(32) NOT NULL,
		start_time VARCHAR(16) NOT NULL,
		end_time VARCHAR(16) NOT NULL,
		location VARCHAR(255) NOT NULL,
		display_order INTEGER NOT NULL,
		total_items INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS session_items (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		session_id VARCHAR(36) NOT NULL,
		item_id VARCHAR(64) NOT NULL,
		display_order INTEGER NOT NULL
	)`,
}

var _ store.Store = (*Store)(nil)
