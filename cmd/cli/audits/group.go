// Package audits wires the audit command group: creating an audit through the
// interactive wizard or from a draft file, and reading created audits back.
package audits

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/console"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/draft"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/services"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store"
	pathutils "github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/utils/path"
)

const (
	groupUseConstant                 = "audit"
	groupShortDescriptionConstant    = "Create and inspect audits"
	groupLongDescriptionConstant     = "audit creates audits with the step-by-step wizard or from a draft file and lists the audits of your organization."
	createUseConstant                = "create"
	createShortDescriptionConstant   = "Create an audit interactively or from a draft file"
	listUseConstant                  = "list"
	listShortDescriptionConstant     = "List the audits of your organization"
	showUseConstant                  = "show <audit-id>"
	showShortDescriptionConstant     = "Show an audit with its standards and sessions"
	fromFileFlagNameConstant         = "from-file"
	fromFileFlagUsageConstant        = "Submit the audit draft in this YAML or JSON file instead of prompting."
	assumeYesFlagNameConstant        = "yes"
	assumeYesFlagShorthandConstant   = "y"
	assumeYesFlagUsageConstant       = "Create the audit from --from-file without asking for confirmation."
	plainFlagNameConstant            = "plain"
	plainFlagUsageConstant           = "Prompt with plain numbered lines instead of interactive forms."
	userFlagNameConstant             = "user"
	userFlagUsageConstant            = "Act as this user id instead of the configured identity."
	servicesProviderMissingConstant  = "audit services not configured"
	userMissingMessageConstant       = "no acting user; set identity.user_id or pass --user"
	auditNotFoundTemplateConstant    = "audit %s: %w"
	showArgumentCountConstant        = 1
	creationCancelledMessageConstant = "No audit was created."
	auditListedLogMessageConstant    = "audits listed"
	logFieldOrganizationIDConstant   = "organization_id"
	logFieldAuditCountConstant       = "audit_count"
)

var (
	errServicesProviderMissing = errors.New(servicesProviderMissingConstant)
	errUserMissing             = errors.New(userMissingMessageConstant)
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ServicesProvider opens the shared services for one command execution. The caller closes them.
type ServicesProvider func(executionContext context.Context) (*services.Services, error)

// IdentityProvider yields the configured acting user id.
type IdentityProvider func() string

// PrompterFactory creates the prompter used by the wizard for a command.
type PrompterFactory func(command *cobra.Command, plain bool) console.Prompter

// CommandGroupBuilder assembles the audit command group.
type CommandGroupBuilder struct {
	LoggerProvider   LoggerProvider
	ServicesProvider ServicesProvider
	IdentityProvider IdentityProvider
	PrompterFactory  PrompterFactory
}

// Build constructs the audit command hierarchy.
func (builder *CommandGroupBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   groupUseConstant,
		Short: groupShortDescriptionConstant,
		Long:  groupLongDescriptionConstant,
	}
	command.PersistentFlags().String(userFlagNameConstant, "", userFlagUsageConstant)

	createCommand := &cobra.Command{
		Use:   createUseConstant,
		Short: createShortDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.runCreate,
	}
	createCommand.Flags().String(fromFileFlagNameConstant, "", fromFileFlagUsageConstant)
	createCommand.Flags().BoolP(assumeYesFlagNameConstant, assumeYesFlagShorthandConstant, false, assumeYesFlagUsageConstant)
	createCommand.Flags().Bool(plainFlagNameConstant, false, plainFlagUsageConstant)
	command.AddCommand(createCommand)

	command.AddCommand(&cobra.Command{
		Use:   listUseConstant,
		Short: listShortDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.runList,
	})

	command.AddCommand(&cobra.Command{
		Use:   showUseConstant,
		Short: showShortDescriptionConstant,
		Args:  cobra.ExactArgs(showArgumentCountConstant),
		RunE:  builder.runShow,
	})

	return command, nil
}

func (builder *CommandGroupBuilder) runCreate(command *cobra.Command, arguments []string) error {
	fromFileValue, _ := command.Flags().GetString(fromFileFlagNameConstant)
	fromFile := pathutils.NewHomeExpander().Expand(fromFileValue)
	assumeYes, _ := command.Flags().GetBool(assumeYesFlagNameConstant)
	plain, _ := command.Flags().GetBool(plainFlagNameConstant)

	var prepared *draft.Audit
	if len(fromFile) > 0 {
		audit, loadError := draft.LoadFile(fromFile)
		if loadError != nil {
			return loadError
		}
		prepared = &audit
	}

	executionContext, identityError := builder.actingContext(command)
	if identityError != nil {
		return identityError
	}

	return builder.withServices(command, func(opened *services.Services) error {
		controller, controllerError := opened.NewController(executionContext)
		if controllerError != nil {
			return controllerError
		}
		runner, runnerError := console.NewRunner(console.RunnerDependencies{
			Controller: controller,
			Prompter:   builder.resolvePrompter(command, plain),
			Catalog:    opened.Store,
			Output:     command.OutOrStdout(),
			Logger:     builder.resolveLogger(),
		})
		if runnerError != nil {
			return runnerError
		}

		var runError error
		if prepared != nil {
			_, runError = runner.SubmitDraft(executionContext, *prepared, assumeYes)
		} else {
			_, runError = runner.Run(executionContext)
		}
		if errors.Is(runError, console.ErrCancelled) || errors.Is(runError, console.ErrDeclined) {
			_, writeError := fmt.Fprintln(command.OutOrStdout(), creationCancelledMessageConstant)
			return writeError
		}
		return runError
	})
}

func (builder *CommandGroupBuilder) runList(command *cobra.Command, arguments []string) error {
	executionContext, identityError := builder.actingContext(command)
	if identityError != nil {
		return identityError
	}
	return builder.withServices(command, func(opened *services.Services) error {
		organizationID, resolveError := opened.Store.ResolveCurrentUserOrganization(executionContext)
		if resolveError != nil {
			return resolveError
		}
		records, listError := opened.Store.ListAudits(executionContext, organizationID)
		if listError != nil {
			return listError
		}
		builder.resolveLogger().Debug(
			auditListedLogMessageConstant,
			zap.String(logFieldOrganizationIDConstant, organizationID),
			zap.Int(logFieldAuditCountConstant, len(records)),
		)
		_, writeError := fmt.Fprint(command.OutOrStdout(), console.RenderAuditList(records))
		return writeError
	})
}

func (builder *CommandGroupBuilder) runShow(command *cobra.Command, arguments []string) error {
	executionContext, identityError := builder.actingContext(command)
	if identityError != nil {
		return identityError
	}
	auditID := strings.TrimSpace(arguments[0])
	return builder.withServices(command, func(opened *services.Services) error {
		organizationID, resolveError := opened.Store.ResolveCurrentUserOrganization(executionContext)
		if resolveError != nil {
			return resolveError
		}
		detail, getError := opened.Store.GetAudit(executionContext, auditID)
		if getError != nil {
			return getError
		}
		if detail.Audit.OrganizationID != organizationID {
			return fmt.Errorf(auditNotFoundTemplateConstant, auditID, store.ErrNotFound)
		}
		_, writeError := fmt.Fprint(command.OutOrStdout(), console.RenderAuditDetail(detail))
		return writeError
	})
}

func (builder *CommandGroupBuilder) actingContext(command *cobra.Command) (context.Context, error) {
	userID, _ := command.Flags().GetString(userFlagNameConstant)
	userID = strings.TrimSpace(userID)
	if len(userID) == 0 && builder.IdentityProvider != nil {
		userID = strings.TrimSpace(builder.IdentityProvider())
	}
	if len(userID) == 0 {
		return nil, errUserMissing
	}
	executionContext := command.Context()
	if executionContext == nil {
		executionContext = context.Background()
	}
	return store.WithActingUserID(executionContext, userID), nil
}

func (builder *CommandGroupBuilder) resolvePrompter(command *cobra.Command, plain bool) console.Prompter {
	if builder.PrompterFactory != nil {
		if prompter := builder.PrompterFactory(command, plain); prompter != nil {
			return prompter
		}
	}
	if plain {
		return console.NewLinePrompter(command.InOrStdin(), command.OutOrStdout())
	}
	return console.NewHuhPrompter()
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
