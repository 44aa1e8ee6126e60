// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses the ConfigurationLoader, which merges embedded defaults, config
// files, dotenv files, and prefixed environment variables through Viper, and the
// LoggerFactory, which builds the diagnostic and console zap loggers.
package utils
