package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	auditscmd "github.com/Web-Star-Studio/daton-esg-insight-sub000/cmd/cli/audits"
	catalogcmd "github.com/Web-Star-Studio/daton-esg-insight-sub000/cmd/cli/catalog"
	servecmd "github.com/Web-Star-Studio/daton-esg-insight-sub000/cmd/cli/serve"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/console"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/services"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store/backend"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/telemetry"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store/sqlstore"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/utils"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/utils/flags"
	pathutils "github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/utils/path"
)

const (
	applicationNameConstant                 = "esg-audit"
	applicationShortDescriptionConstant     = "Plan ESG and compliance audits against standard checklists"
	applicationLongDescriptionConstant      = "esg-audit builds audits from standard checklists, groups selected questions into sessions, and persists them."
	applicationVersionConstant              = "0.1.0"
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	storeDriverFlagNameConstant             = "store-driver"
	storeDriverFlagUsageConstant            = "Override the configured audit store."
	environmentFileFlagNameConstant         = "env-file"
	environmentFileFlagUsageConstant        = "Dotenv file loaded before configuration is resolved."
	defaultEnvironmentFileConstant          = ".env"
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	storeDriverConfigKeyConstant            = "store.driver"
	sagaCompensateConfigKeyConstant         = "saga.compensate_on_failure"
	telemetryTraceStdoutConfigKeyConstant   = "telemetry.trace_stdout"
	serverConfigurationKeyConstant          = "server"
	environmentPrefixConstant               = "ESGAUDIT"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	userConfigurationDirectoryNameConstant  = "esg-audit"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	environmentFilesFieldConstant           = "environment_files"
	storeDriverFieldConstant                = "store_driver"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	telemetryErrorTemplateConstant          = "unable to configure telemetry: %w"
	telemetryShutdownErrorTemplateConstant  = "unable to flush telemetry: %w"
	rootCommandInfoMessageConstant          = "esg-audit CLI executed"
	rootCommandDebugMessageConstant         = "esg-audit CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
	tracerNameConstant                      = "github.com/Web-Star-Studio/daton-esg-insight-sub000"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common    ApplicationCommonConfiguration   `mapstructure:"common"`
	Identity  ApplicationIdentityConfiguration `mapstructure:"identity"`
	Store     backend.Configuration            `mapstructure:"store"`
	Catalog   ApplicationCatalogConfiguration  `mapstructure:"catalog"`
	Saga      ApplicationSagaConfiguration     `mapstructure:"saga"`
	Server    servecmd.CommandConfiguration    `mapstructure:"server"`
	Telemetry telemetry.Configuration          `mapstructure:"telemetry"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationIdentityConfiguration names the user the CLI acts as.
type ApplicationIdentityConfiguration struct {
	UserID string `mapstructure:"user_id"`
}

// ApplicationCatalogConfiguration points at a seed imported whenever the store opens.
type ApplicationCatalogConfiguration struct {
	SeedFile string `mapstructure:"seed_file"`
}

// ApplicationSagaConfiguration tunes audit creation failure handling.
type ApplicationSagaConfiguration struct {
	CompensateOnFailure bool `mapstructure:"compensate_on_failure"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	consoleLogger          *zap.Logger
	telemetryProvider      *telemetry.Provider
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	environmentFilePath    string
	logLevelFlagValue      string
	logFormatFlagValue     string
	storeDriverFlagValue   string
	commandContextAccessor utils.CommandContextAccessor
	homeExpander           *pathutils.HomeExpander
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	searchPaths := []string{defaultConfigurationSearchPathConstant}
	if userConfigurationDirectory, directoryError := os.UserConfigDir(); directoryError == nil {
		searchPaths = append(searchPaths, filepath.Join(userConfigurationDirectory, userConfigurationDirectoryNameConstant))
	}
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		searchPaths,
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		consoleLogger:          zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		homeExpander:           pathutils.NewHomeExpander(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       applicationVersionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	flags.AddChoiceFlag(cobraCommand.PersistentFlags(), &application.logFormatFlagValue, logFormatFlagNameConstant,
		string(utils.LogFormatConsole), []string{string(utils.LogFormatStructured), string(utils.LogFormatConsole)}, logFormatFlagUsageConstant)
	flags.AddChoiceFlag(cobraCommand.PersistentFlags(), &application.storeDriverFlagValue, storeDriverFlagNameConstant,
		backend.DriverMemory, []string{backend.DriverMemory, sqlstore.DriverSQLite, sqlstore.DriverMySQL}, storeDriverFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.environmentFilePath, environmentFileFlagNameConstant, defaultEnvironmentFileConstant, environmentFileFlagUsageConstant)

	loggerProvider := func() *zap.Logger {
		return application.logger
	}

	catalogBuilder := catalogcmd.CommandGroupBuilder{
		LoggerProvider:   loggerProvider,
		ServicesProvider: application.openServices,
	}
	catalogCommand, catalogBuildError := catalogBuilder.Build()
	if catalogBuildError == nil {
		cobraCommand.AddCommand(catalogCommand)
	}

	auditsBuilder := auditscmd.CommandGroupBuilder{
		LoggerProvider:   loggerProvider,
		ServicesProvider: application.openServices,
		IdentityProvider: application.actingUserID,
		PrompterFactory:  application.prompterFor,
	}
	auditsCommand, auditsBuildError := auditsBuilder.Build()
	if auditsBuildError == nil {
		cobraCommand.AddCommand(auditsCommand)
	}

	serveBuilder := servecmd.CommandBuilder{
		LoggerProvider:   loggerProvider,
		ServicesProvider: application.openServices,
		ConfigurationProvider: func() servecmd.CommandConfiguration {
			return application.configuration.Server
		},
		IdentityProvider: application.actingUserID,
	}
	serveCommand, serveBuildError := serveBuilder.Build()
	if serveBuildError == nil {
		cobraCommand.AddCommand(serveCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger and span flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if shutdownError := application.telemetryProvider.Shutdown(context.Background()); shutdownError != nil {
		executionError = errors.Join(executionError, fmt.Errorf(telemetryShutdownErrorTemplateConstant, shutdownError))
	}
	if syncError := application.flushLogger(); syncError != nil {
		return errors.Join(executionError, fmt.Errorf(loggerSyncErrorTemplateConstant, syncError))
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:       string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:      string(utils.LogFormatStructured),
		storeDriverConfigKeyConstant:          backend.DriverMemory,
		sagaCompensateConfigKeyConstant:       false,
		telemetryTraceStdoutConfigKeyConstant: false,
	}
	for configurationKey, configurationValue := range servecmd.DefaultConfigurationValues(serverConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	application.homeExpander.ExpandAll(&application.configurationFilePath, &application.environmentFilePath)
	application.configurationLoader.SetEnvironmentFiles(application.environmentFilePath)
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	if application.persistentFlagChanged(command, storeDriverFlagNameConstant) {
		application.configuration.Store.Driver = application.storeDriverFlagValue
	}

	application.homeExpander.ExpandAll(&application.configuration.Catalog.SeedFile)
	if strings.EqualFold(strings.TrimSpace(application.configuration.Store.Driver), sqlstore.DriverSQLite) {
		application.homeExpander.ExpandAll(&application.configuration.Store.DSN)
	}

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = loggerOutputs.DiagnosticLogger
	application.consoleLogger = loggerOutputs.ConsoleLogger

	telemetryProvider, telemetryError := telemetry.Setup(application.configuration.Telemetry, nil)
	if telemetryError != nil {
		return fmt.Errorf(telemetryErrorTemplateConstant, telemetryError)
	}
	application.telemetryProvider = telemetryProvider

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.Strings(environmentFilesFieldConstant, application.configurationMetadata.EnvironmentFilesUsed),
		zap.String(storeDriverFieldConstant, application.configuration.Store.Driver),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfiguration(command.Context(), application.configurationMetadata)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) openServices(executionContext context.Context) (*services.Services, error) {
	return services.Open(executionContext, services.Configuration{
		Store:               application.configuration.Store,
		SeedFile:            application.configuration.Catalog.SeedFile,
		CompensateOnFailure: application.configuration.Saga.CompensateOnFailure,
	}, services.Dependencies{
		Logger:        application.logger,
		ConsoleLogger: application.stepLogger(),
		Tracer:        application.telemetryProvider.Tracer(tracerNameConstant),
	})
}

func (application *Application) actingUserID() string {
	return strings.TrimSpace(application.configuration.Identity.UserID)
}

func (application *Application) prompterFor(command *cobra.Command, plain bool) console.Prompter {
	if plain {
		return console.NewLinePrompter(command.InOrStdin(), command.OutOrStdout())
	}
	return console.NewHuhPrompter()
}

// stepLogger returns the console logger when output is meant for people and the diagnostic logger otherwise.
func (application *Application) stepLogger() *zap.Logger {
	if application.humanReadableLoggingEnabled() {
		return application.consoleLogger
	}
	return application.logger
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	if len(arguments) == 0 {
		return command.Help()
	}

	return nil
}

func (application *Application) flushLogger() error {
	return errors.Join(
		application.syncLoggerInstance(application.logger),
		application.syncLoggerInstance(application.consoleLogger),
	)
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
