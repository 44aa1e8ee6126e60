// Package services assembles the store, the creation saga, and notification
// plumbing that the CLI commands and the HTTP server share.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/catalog"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/notify"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/saga"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store/backend"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/ui"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/wizard"
)

const (
	storeOpenErrorTemplateConstant      = "unable to open store: %w"
	seedImportErrorTemplateConstant     = "unable to import seed %s: %w"
	sagaCreationErrorTemplateConstant   = "unable to configure audit creation: %w"
	templatesLoadErrorTemplateConstant  = "unable to load templates: %w"
	seedImportedLogMessageConstant      = "catalog seed imported"
	servicesReadyLogMessageConstant     = "services ready"
	logFieldSeedFileConstant            = "seed_file"
	logFieldStandardCountConstant       = "standard_count"
	logFieldDriverConstant              = "driver"
	logFieldCompensateOnFailureConstant = "compensate_on_failure"
)

// Configuration collects the settings the services need.
type Configuration struct {
	Store               backend.Configuration
	SeedFile            string
	CompensateOnFailure bool
}

// Dependencies describes ambient collaborators. Nil loggers and notifiers are replaced with no-ops.
type Dependencies struct {
	Logger        *zap.Logger
	ConsoleLogger *zap.Logger
	Tracer        trace.Tracer
	Notifier      notify.Notifier
}

// Services holds the opened store and the saga bound to it.
type Services struct {
	Store    store.Store
	Saga     *saga.Saga
	Notifier notify.Notifier
	logger   *zap.Logger
}

// Open connects the store, imports the optional seed file, and builds the saga.
func Open(executionContext context.Context, configuration Configuration, dependencies Dependencies) (*Services, error) {
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	auditStore, openError := backend.Open(executionContext, configuration.Store, logger)
	if openError != nil {
		return nil, fmt.Errorf(storeOpenErrorTemplateConstant, openError)
	}

	seedFile := strings.TrimSpace(configuration.SeedFile)
	if len(seedFile) > 0 {
		if importError := ImportSeedFile(executionContext, auditStore, seedFile, logger); importError != nil {
			return nil, errors.Join(importError, auditStore.Close())
		}
	}

	creationSaga, sagaError := saga.New(saga.Dependencies{
		Logger:        logger,
		Organizations: auditStore,
		Writer:        auditStore,
		Compensator:   auditStore,
		Observer:      ui.NewConsoleStepEventLogger(dependencies.ConsoleLogger),
		Tracer:        dependencies.Tracer,
	}, saga.Options{CompensateOnFailure: configuration.CompensateOnFailure})
	if sagaError != nil {
		return nil, errors.Join(fmt.Errorf(sagaCreationErrorTemplateConstant, sagaError), auditStore.Close())
	}

	logger.Debug(
		servicesReadyLogMessageConstant,
		zap.String(logFieldDriverConstant, configuration.Store.Driver),
		zap.Bool(logFieldCompensateOnFailureConstant, configuration.CompensateOnFailure),
	)

	return &Services{
		Store:    auditStore,
		Saga:     creationSaga,
		Notifier: notify.NewFanout(notify.NewLogging(logger), dependencies.Notifier),
		logger:   logger,
	}, nil
}

// ImportSeedFile parses a YAML seed and loads it into importer.
func ImportSeedFile(executionContext context.Context, importer store.CatalogImporter, seedFile string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	seed, loadError := catalog.LoadSeedFile(seedFile)
	if loadError != nil {
		return fmt.Errorf(seedImportErrorTemplateConstant, seedFile, loadError)
	}
	if importError := importer.ImportSeed(executionContext, seed); importError != nil {
		return fmt.Errorf(seedImportErrorTemplateConstant, seedFile, importError)
	}
	logger.Info(
		seedImportedLogMessageConstant,
		zap.String(logFieldSeedFileConstant, seedFile),
		zap.Int(logFieldStandardCountConstant, len(seed.Standards)),
	)
	return nil
}

// NewController builds a wizard controller committing through the saga with the template catalog preloaded.
func (services *Services) NewController(executionContext context.Context) (*wizard.Controller, error) {
	templates, templatesError := services.Store.FetchTemplates(executionContext)
	if templatesError != nil {
		return nil, fmt.Errorf(templatesLoadErrorTemplateConstant, templatesError)
	}
	return wizard.NewController(wizard.Dependencies{
		Logger:       services.logger,
		Committer:    services.Saga,
		Notifier:     services.Notifier,
		ItemsFetcher: services.Store,
		Templates:    templates,
	})
}

// Close releases the store.
func (services *Services) Close() error {
	if services == nil || services.Store == nil {
		return nil
	}
	return services.Store.Close()
}
