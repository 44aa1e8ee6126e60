package utils

import "context"

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	environmentFilesContextKeyConstant      = commandContextKey("environmentFiles")
)

type commandContextKey string

// CommandContextAccessor manages values stored in command execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfiguration attaches the resolved configuration sources to the provided context.
func (accessor CommandContextAccessor) WithConfiguration(parentContext context.Context, loadedConfiguration LoadedConfiguration) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	environmentFiles := append([]string(nil), loadedConfiguration.EnvironmentFilesUsed...)
	updatedContext := context.WithValue(parentContext, configurationFilePathContextKeyConstant, loadedConfiguration.ConfigFileUsed)
	return context.WithValue(updatedContext, environmentFilesContextKeyConstant, environmentFiles)
}

// ConfigurationFilePath extracts the configuration file path from the provided context.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	configurationFilePath, configurationFilePathAvailable := executionContext.Value(configurationFilePathContextKeyConstant).(string)
	if !configurationFilePathAvailable {
		return "", false
	}
	return configurationFilePath, true
}

// EnvironmentFiles extracts the dotenv files that were loaded for the command.
func (accessor CommandContextAccessor) EnvironmentFiles(executionContext context.Context) []string {
	if executionContext == nil {
		return nil
	}
	environmentFiles, _ := executionContext.Value(environmentFilesContextKeyConstant).([]string)
	return environmentFiles
}
