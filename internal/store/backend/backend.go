// Package backend selects and opens a store.Store implementation from configuration.
package backend

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store/memory"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store/sqlstore"
)

// DriverMemory selects the in-process store.
const DriverMemory = "memory"

const (
	unsupportedDriverTemplateConstant = "unsupported store driver %q (expected %s, %s, or %s)"
	storeSelectedLogMessageConstant   = "store backend selected"
	logFieldDriverConstant            = "driver"
)

// Configuration describes the store backend.
type Configuration struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// Open returns the store named by configuration.Driver. An empty driver selects memory.
func Open(executionContext context.Context, configuration Configuration, logger *zap.Logger) (store.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	driver := strings.ToLower(strings.TrimSpace(configuration.Driver))
	if len(driver) == 0 {
		driver = DriverMemory
	}

	logger.Debug(storeSelectedLogMessageConstant, zap.String(logFieldDriverConstant, driver))

	switch driver {
	case DriverMemory:
		return memory.New(), nil
	case sqlstore.DriverSQLite, sqlstore.DriverMySQL:
		sqlStore, openError := sqlstore.Open(executionContext, sqlstore.Configuration{Driver: driver, DSN: configuration.DSN}, logger)
		if openError != nil {
			return nil, openError
		}
		return sqlStore, nil
	default:
		return nil, fmt.Errorf(unsupportedDriverTemplateConstant, configuration.Driver, DriverMemory, sqlstore.DriverSQLite, sqlstore.DriverMySQL)
	}
}
