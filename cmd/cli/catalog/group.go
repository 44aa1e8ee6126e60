// Package catalog wires the catalog command group: importing a seed document
// and browsing standards and their question trees.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	auditcatalog "github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/catalog"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/console"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/selection"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/services"
)

const (
	groupUseConstant                  = "catalog"
	groupShortDescriptionConstant     = "Manage the audit standards catalog"
	groupLongDescriptionConstant      = "catalog imports seed documents and lists standards and their checklist questions."
	importUseConstant                 = "import <seed-file>"
	importShortDescriptionConstant    = "Import standards, categories, templates, and users from a YAML seed"
	standardsUseConstant              = "standards"
	standardsShortDescriptionConstant = "List the available standards"
	itemsUseConstant                  = "items <standard-id>"
	itemsShortDescriptionConstant     = "Show the question tree of a standard"
	searchFlagNameConstant            = "search"
	searchFlagUsageConstant           = "Only show questions whose number or title contains the term, with their groups."
	importedMessageTemplateConstant   = "Imported %s\n"
	standardLineTemplateConstant      = "%s  %s  %s (%s)\n"
	noStandardsMessageConstant        = "no standards"
	servicesProviderMissingConstant   = "catalog services not configured"
	importArgumentCountConstant       = 1
	itemsArgumentCountConstant        = 1
	standardsListedLogMessageConstant = "standards listed"
	logFieldStandardCountConstant     = "standard_count"
)

var errServicesProviderMissing = errors.New(servicesProviderMissingConstant)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ServicesProvider opens the shared services for one command execution. The caller closes them.
type ServicesProvider func(executionContext context.Context) (*services.Services, error)

// CommandGroupBuilder assembles the catalog command group.
type CommandGroupBuilder struct {
	LoggerProvider   LoggerProvider
	ServicesProvider ServicesProvider
}

// Build constructs the catalog command hierarchy.
func (builder *CommandGroupBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   groupUseConstant,
		Short: groupShortDescriptionConstant,
		Long:  groupLongDescriptionConstant,
	}

	command.AddCommand(&cobra.Command{
		Use:   importUseConstant,
		Short: importShortDescriptionConstant,
		Args:  cobra.ExactArgs(importArgumentCountConstant),
		RunE:  builder.runImport,
	})

	command.AddCommand(&cobra.Command{
		Use:   standardsUseConstant,
		Short: standardsShortDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.runStandards,
	})

	itemsCommand := &cobra.Command{
		Use:   itemsUseConstant,
		Short: itemsShortDescriptionConstant,
		Args:  cobra.ExactArgs(itemsArgumentCountConstant),
		RunE:  builder.runItems,
	}
	itemsCommand.Flags().String(searchFlagNameConstant, "", searchFlagUsageConstant)
	command.AddCommand(itemsCommand)

	return command, nil
}

func (builder *CommandGroupBuilder) runImport(command *cobra.Command, arguments []string) error {
	return builder.withServices(command, func(opened *services.Services) error {
		seedFile := strings.TrimSpace(arguments[0])
		if importError := services.ImportSeedFile(command.Context(), opened.Store, seedFile, builder.resolveLogger()); importError != nil {
			return importError
		}
		_, writeError := fmt.Fprintf(command.OutOrStdout(), importedMessageTemplateConstant, seedFile)
		return writeError
	})
}

func (builder *CommandGroupBuilder) runStandards(command *cobra.Command, arguments []string) error {
	return builder.withServices(command, func(opened *services.Services) error {
		standards, fetchError := opened.Store.FetchStandards(command.Context())
		if fetchError != nil {
			return fetchError
		}
		builder.resolveLogger().Debug(standardsListedLogMessageConstant, zap.Int(logFieldStandardCountConstant, len(standards)))
		output := command.OutOrStdout()
		if len(standards) == 0 {
			_, writeError := fmt.Fprintln(output, noStandardsMessageConstant)
			return writeError
		}
		for _, standard := range standards {
			if _, writeError := fmt.Fprintf(output, standardLineTemplateConstant, standard.ID, standard.Code, standard.Name, standard.Version); writeError != nil {
				return writeError
			}
		}
		return nil
	})
}

func (builder *CommandGroupBuilder) runItems(command *cobra.Command, arguments []string) error {
	searchTerm, _ := command.Flags().GetString(searchFlagNameConstant)
	return builder.withServices(command, func(opened *services.Services) error {
		items, fetchError := opened.Store.FetchStandardItems(command.Context(), strings.TrimSpace(arguments[0]))
		if fetchError != nil {
			return fetchError
		}
		_, writeError := fmt.Fprint(command.OutOrStdout(), console.RenderItemTree(auditcatalog.FilterBySearch(items, searchTerm), selection.New()))
		return writeError
	})
}

func (builder *CommandGroupBuilder) withServices(command *cobra.Command, operation func(opened *services.Services) error) (operationError error) {
	if builder.ServicesProvider == nil {
		return errServicesProviderMissing
	}
	opened, openError := builder.ServicesProvider(command.Context())
	if openError != nil {
		return openError
	}
	defer func() {
		operationError = errors.Join(operationError, opened.Close())
	}()
	return operation(opened)
}

func (builder *CommandGroupBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
