package saga

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/draft"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store"
)

const (
	tracerNameConstant                    = "github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/saga"
	spanNamePrefixConstant                = "audit.create."
	organizationResolverMissingConstant   = "organization resolver not configured"
	auditWriterMissingConstant            = "audit writer not configured"
	compensatorMissingConstant            = "compensation enabled without an audit compensator"
	logFieldStepConstant                  = "step"
	logFieldSessionIndexConstant          = "session_index"
	logFieldAuditIDConstant               = "audit_id"
	logFieldOrganizationIDConstant        = "organization_id"
	logFieldTotalItemsConstant            = "total_items"
	logFieldRecordCountConstant           = "record_count"
	stepCompletedLogMessageConstant       = "audit creation step completed"
	stepFailedLogMessageConstant          = "audit creation step failed"
	creationCompletedLogMessageConstant   = "audit created"
	compensationStartedLogMessageConstant = "rolling back committed audit creation steps"
	compensationFailedLogMessageConstant  = "audit creation rollback step failed"
	attributeStepConstant                 = "audit.step"
	attributeSessionIndexConstant         = "audit.session_index"
	attributeAuditIDConstant              = "audit.id"
	auditLevelSessionIndexConstant        = -1
)

var (
	errOrganizationResolverMissing = errors.New(organizationResolverMissingConstant)
	errAuditWriterMissing          = errors.New(auditWriterMissingConstant)
	errCompensatorMissing          = errors.New(compensatorMissingConstant)
)

// Dependencies describes the collaborators of a Saga.
type Dependencies struct {
	Logger        *zap.Logger
	Organizations store.OrganizationResolver
	Writer        store.AuditWriter
	Compensator   store.AuditCompensator
	Observer      EventObserver
	Tracer        trace.Tracer
}

// Options tunes failure handling.
type Options struct {
	// CompensateOnFailure deletes committed records in reverse order when a later write fails.
	CompensateOnFailure bool
}

// Saga commits an audit draft as an ordered sequence of independent writes.
// It is not atomic and not idempotent: each call creates a new audit.
type Saga struct {
	logger        *zap.Logger
	organizations store.OrganizationResolver
	writer        store.AuditWriter
	compensator   store.AuditCompensator
	observer      EventObserver
	tracer        trace.Tracer
	options       Options
}

// New constructs a Saga.
func New(dependencies Dependencies, options Options) (*Saga, error) {
	if dependencies.Organizations == nil {
		return nil, errOrganizationResolverMissing
	}
	if dependencies.Writer == nil {
		return nil, errAuditWriterMissing
	}
	if options.CompensateOnFailure && dependencies.Compensator == nil {
		return nil, errCompensatorMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var observer EventObserver = noopObserver{}
	if dependencies.Observer != nil {
		observer = dependencies.Observer
	}
	tracer := dependencies.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerNameConstant)
	}

	return &Saga{
		logger:        logger,
		organizations: dependencies.Organizations,
		writer:        dependencies.Writer,
		compensator:   dependencies.Compensator,
		observer:      observer,
		tracer:        tracer,
		options:       options,
	}, nil
}

// Execute writes the audit root, its standard links, each session with its item
// links, and finally the audit's total item count. The first failure aborts the
// remaining writes.
func (saga *Saga) Execute(executionContext context.Context, audit draft.Audit) (Result, error) {
	frozen := audit.Clone()
	run := &execution{saga: saga}

	var organizationID string
	resolveError := run.step(executionContext, StepEvent{Step: StepResolveOrganization, SessionIndex: auditLevelSessionIndexConstant}, func(stepContext context.Context) (int, error) {
		resolved, resolutionError := saga.organizations.ResolveCurrentUserOrganization(stepContext)
		organizationID = resolved
		return 0, resolutionError
	})
	if resolveError != nil {
		return Result{}, PreconditionError{Err: resolveError}
	}

	createdBy, _ := store.ActingUserID(executionContext)
	var auditRecord store.AuditRecord
	insertAuditError := run.step(executionContext, StepEvent{Step: StepInsertAudit, SessionIndex: auditLevelSessionIndexConstant}, func(stepContext context.Context) (int, error) {
		inserted, insertError := saga.writer.InsertAudit(stepContext, auditFieldsFromDraft(frozen, organizationID, createdBy))
		auditRecord = inserted
		return 1, insertError
	})
	if insertAuditError != nil {
		return Result{}, run.fail(executionContext, StepInsertAudit, auditLevelSessionIndexConstant, insertAuditError)
	}
	run.auditID = auditRecord.ID
	run.push(func(compensationContext context.Context) error {
		return saga.compensator.DeleteAudit(compensationContext, auditRecord.ID)
	})

	if len(frozen.StandardIDs) > 0 {
		links := make([]store.StandardLink, 0, len(frozen.StandardIDs))
		for order, standardID := range frozen.StandardIDs {
			links = append(links, store.StandardLink{StandardID: standardID, Order: order})
		}
		linkError := run.step(executionContext, StepEvent{Step: StepInsertStandardLinks, SessionIndex: auditLevelSessionIndexConstant}, func(stepContext context.Context) (int, error) {
			records, insertError := saga.writer.InsertStandardLinks(stepContext, auditRecord.ID, links)
			return len(records), insertError
		})
		if linkError != nil {
			return Result{}, run.fail(executionContext, StepInsertStandardLinks, auditLevelSessionIndexConstant, linkError)
		}
		run.push(func(compensationContext context.Context) error {
			return saga.compensator.DeleteStandardLinks(compensationContext, auditRecord.ID)
		})
	}

	sessionIDs := make([]string, 0, len(frozen.Sessions))
	for sessionIndex, session := range frozen.Sessions {
		var sessionRecord store.SessionRecord
		sessionError := run.step(executionContext, StepEvent{Step: StepInsertSession, SessionIndex: sessionIndex}, func(stepContext context.Context) (int, error) {
			inserted, insertError := saga.writer.InsertSession(stepContext, auditRecord.ID, sessionFieldsFromDraft(session), sessionIndex, session.TotalItems())
			sessionRecord = inserted
			return 1, insertError
		})
		if sessionError != nil {
			return Result{}, run.fail(executionContext, StepInsertSession, sessionIndex, sessionError)
		}
		run.push(func(compensationContext context.Context) error {
			return saga.compensator.DeleteSession(compensationContext, sessionRecord.ID)
		})
		sessionIDs = append(sessionIDs, sessionRecord.ID)

		itemIDs := session.ItemIDs.IDs()
		if len(itemIDs) == 0 {
			continue
		}
		links := make([]store.SessionItemLink, 0, len(itemIDs))
		for order, itemID := range itemIDs {
			links = append(links, store.SessionItemLink{ItemID: itemID, Order: order})
		}
		itemLinkError := run.step(executionContext, StepEvent{Step: StepInsertSessionItemLinks, SessionIndex: sessionIndex}, func(stepContext context.Context) (int, error) {
			records, insertError := saga.writer.InsertSessionItemLinks(stepContext, sessionRecord.ID, links)
			return len(records), insertError
		})
		if itemLinkError != nil {
			return Result{}, run.fail(executionContext, StepInsertSessionItemLinks, sessionIndex, itemLinkError)
		}
		run.push(func(compensationContext context.Context) error {
			return saga.compensator.DeleteSessionItemLinks(compensationContext, sessionRecord.ID)
		})
	}

	totalItems := frozen.TotalItems()
	totalError := run.step(executionContext, StepEvent{Step: StepUpdateAuditTotalItems, SessionIndex: auditLevelSessionIndexConstant}, func(stepContext context.Context) (int, error) {
		_, updateError := saga.writer.UpdateAuditTotalItems(stepContext, auditRecord.ID, totalItems)
		return 1, updateError
	})
	if totalError != nil {
		return Result{}, run.fail(executionContext, StepUpdateAuditTotalItems, auditLevelSessionIndexConstant, totalError)
	}

	saga.logger.Info(creationCompletedLogMessageConstant,
		zap.String(logFieldAuditIDConstant, auditRecord.ID),
		zap.String(logFieldOrganizationIDConstant, organizationID),
		zap.Int(logFieldTotalItemsConstant, totalItems),
	)

	return Result{
		AuditID:        auditRecord.ID,
		OrganizationID: organizationID,
		SessionIDs:     sessionIDs,
		TotalItems:     totalItems,
	}, nil
}

type compensation func(compensationContext context.Context) error

// execution tracks one Execute call.
type execution struct {
	saga          *Saga
	auditID       string
	compensations []compensation
}

func (run *execution) step(executionContext context.Context, event StepEvent, action func(stepContext context.Context) (int, error)) error {
	event.AuditID = run.auditID
	stepContext, span := run.saga.tracer.Start(executionContext, spanNamePrefixConstant+string(event.Step))
	defer span.End()
	span.SetAttributes(
		attribute.String(attributeStepConstant, string(event.Step)),
		attribute.Int(attributeSessionIndexConstant, event.SessionIndex),
		attribute.String(attributeAuditIDConstant, run.auditID),
	)

	run.saga.observer.StepStarted(event)
	recordCount, actionError := action(stepContext)
	if actionError != nil {
		span.RecordError(actionError)
		span.SetStatus(codes.Error, actionError.Error())
		run.saga.observer.StepFailed(event, actionError)
		run.saga.logger.Warn(stepFailedLogMessageConstant,
			zap.String(logFieldStepConstant, string(event.Step)),
			zap.Int(logFieldSessionIndexConstant, event.SessionIndex),
			zap.String(logFieldAuditIDConstant, run.auditID),
			zap.Error(actionError),
		)
		return actionError
	}

	event.RecordCount = recordCount
	run.saga.observer.StepCompleted(event)
	run.saga.logger.Debug(stepCompletedLogMessageConstant,
		zap.String(logFieldStepConstant, string(event.Step)),
		zap.Int(logFieldSessionIndexConstant, event.SessionIndex),
		zap.String(logFieldAuditIDConstant, run.auditID),
		zap.Int(logFieldRecordCountConstant, recordCount),
	)
	return nil
}

func (run *execution) push(undo compensation) {
	if !run.saga.options.CompensateOnFailure {
		return
	}
	run.compensations = append(run.compensations, undo)
}

func (run *execution) fail(executionContext context.Context, step Step, sessionIndex int, cause error) error {
	writeError := WriteError{Step: step, SessionIndex: sessionIndex, AuditID: run.auditID, Err: cause}
	if !run.saga.options.CompensateOnFailure || len(run.compensations) == 0 {
		return writeError
	}

	run.saga.logger.Warn(compensationStartedLogMessageConstant, zap.String(logFieldAuditIDConstant, run.auditID))
	compensationContext := context.WithoutCancel(executionContext)
	var compensationErrors []error
	for index := len(run.compensations) - 1; index >= 0; index-- {
		if undoError := run.compensations[index](compensationContext); undoError != nil {
			run.saga.logger.Error(compensationFailedLogMessageConstant, zap.String(logFieldAuditIDConstant, run.auditID), zap.Error(undoError))
			compensationErrors = append(compensationErrors, undoError)
		}
	}
	writeError.CompensationError = errors.Join(compensationErrors...)
	writeError.Compensated = writeError.CompensationError == nil
	return writeError
}

func auditFieldsFromDraft(audit draft.Audit, organizationID string, createdBy string) store.AuditFields {
	return store.AuditFields{
		OrganizationID:   organizationID,
		Title:            audit.Title,
		Description:      audit.Description,
		CategoryID:       audit.CategoryID,
		TemplateID:       audit.TemplateID,
		TargetEntity:     audit.TargetEntity,
		TargetEntityType: audit.TargetEntityType,
		StartDate:        audit.StartDate,
		EndDate:          audit.EndDate,
		LeadAuditorID:    audit.LeadAuditorID,
		CreatedBy:        createdBy,
		Status:           store.AuditStatusPlanning,
	}
}

func sessionFieldsFromDraft(session draft.Session) store.SessionFields {
	return store.SessionFields{
		Name:        session.Name,
		Description: session.Description,
		Date:        session.Date,
		StartTime:   session.StartTime,
		EndTime:     session.EndTime,
		Location:    session.Location,
	}
}
