// Package serve wires the serve command, which exposes the catalog and audit
// creation over HTTP with websocket notifications.
package serve

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/server"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/services"
)

const (
	commandUseConstant               = "serve"
	commandShortDescriptionConstant  = "Serve the audit API"
	commandLongDescriptionConstant   = "serve exposes standards, templates, and audit creation over HTTP until interrupted."
	addressFlagNameConstant          = "address"
	addressFlagUsageConstant         = "Listen address, overriding server.address."
	defaultAddressConstant           = ":8080"
	defaultShutdownTimeoutConstant   = "5s"
	addressKeySuffixConstant         = ".address"
	shutdownTimeoutKeySuffixConstant = ".shutdown_timeout"
	servicesProviderMissingConstant  = "serve services not configured"
)

var errServicesProviderMissing = errors.New(servicesProviderMissingConstant)

// CommandConfiguration captures the server settings.
type CommandConfiguration struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DefaultConfigurationValues returns the defaults for the server section.
func DefaultConfigurationValues(sectionKey string) map[string]any {
	return map[string]any{
		sectionKey + addressKeySuffixConstant:         defaultAddressConstant,
		sectionKey + shutdownTimeoutKeySuffixConstant: defaultShutdownTimeoutConstant,
	}
}

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ServicesProvider opens the shared services for one command execution. The caller closes them.
type ServicesProvider func(executionContext context.Context) (*services.Services, error)

// ConfigurationProvider returns the current server configuration.
type ConfigurationProvider func() CommandConfiguration

// IdentityProvider yields the user id that acts for requests without a user header.
type IdentityProvider func() string

// Listener runs a configured server until the context ends.
type Listener func(executionContext context.Context, httpServer *server.Server, address string) error

// CommandBuilder assembles the serve command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ServicesProvider      ServicesProvider
	ConfigurationProvider ConfigurationProvider
	IdentityProvider      IdentityProvider
	Listener              Listener
}

// Build constructs the serve command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}
	command.Flags().String(addressFlagNameConstant, "", addressFlagUsageConstant)
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) (runError error) {
	if builder.ServicesProvider == nil {
		return errServicesProviderMissing
	}
	configuration := builder.resolveConfiguration()
	if command.Flags().Changed(addressFlagNameConstant) {
		configuration.Address, _ = command.Flags().GetString(addressFlagNameConstant)
	}
	if len(strings.TrimSpace(configuration.Address)) == 0 {
		configuration.Address = defaultAddressConstant
	}

	executionContext := command.Context()
	if executionContext == nil {
		executionContext = context.Background()
	}
	signalContext, stop := signal.NotifyContext(executionContext, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opened, openError := builder.ServicesProvider(signalContext)
	if openError != nil {
		return openError
	}
	defer func() {
		runError = errors.Join(runError, opened.Close())
	}()

	defaultUserID := ""
	if builder.IdentityProvider != nil {
		defaultUserID = builder.IdentityProvider()
	}

	httpServer, serverError := server.New(server.Dependencies{
		Logger:          builder.resolveLogger(),
		Repository:      opened.Store,
		Committer:       opened.Saga,
		Notifier:        opened.Notifier,
		DefaultUserID:   defaultUserID,
		ShutdownTimeout: configuration.ShutdownTimeout,
	})
	if serverError != nil {
		return serverError
	}

	listener := builder.Listener
	if listener == nil {
		listener = func(listenContext context.Context, httpServer *server.Server, address string) error {
			return httpServer.ListenAndServe(listenContext, address)
		}
	}
	return listener(signalContext, httpServer, configuration.Address)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return CommandConfiguration{Address: defaultAddressConstant}
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
