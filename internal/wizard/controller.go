package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/catalog"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/draft"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/notify"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/saga"
)

const (
	templateFieldConstant                 = "template_id"
	templateUnknownMessageConstant        = "template is not part of the catalog"
	templateCategoryMismatchConstant      = "template does not belong to the selected category"
	sessionItemsFieldTemplateConstant     = "sessions[%d].item_ids"
	sessionFieldTemplateConstant          = "sessions[%d].%s"
	itemOutsideStandardsTemplateConstant  = "item %s does not belong to a selected standard"
	membershipLoadErrorTemplateConstant   = "unable to load standard items for validation: %w"
	logFieldStepConstant                  = "step"
	logFieldAuditIDConstant               = "audit_id"
	stepChangedLogMessageConstant         = "wizard step changed"
	submissionStartedLogMessageConstant   = "submitting audit draft"
	submissionCompletedLogMessageConstant = "audit draft submitted"
	submissionFailedLogMessageConstant    = "audit draft submission failed"
	stepIncompleteErrorTemplateConstant   = "%w: %s"
	noPendingDeletionIndexConstant        = -1
)

// Committer persists a frozen audit draft.
type Committer interface {
	Execute(executionContext context.Context, audit draft.Audit) (saga.Result, error)
}

// Dependencies describes the collaborators of a Controller.
type Dependencies struct {
	Logger    *zap.Logger
	Committer Committer
	Notifier  notify.Notifier
	// ItemsFetcher enables commit-time validation of session items against the selected standards.
	ItemsFetcher catalog.ItemsFetcher
	Templates    []catalog.Template
}

// Controller owns the wizard state and is its only writer.
type Controller struct {
	mutex             sync.Mutex
	logger            *zap.Logger
	committer         Committer
	notifier          notify.Notifier
	itemsFetcher      catalog.ItemsFetcher
	templates         []catalog.Template
	step              Step
	audit             draft.Audit
	pendingDeletion   int
	// sessionGeneration changes whenever session positions may shift.
	sessionGeneration uint64
	submitting        bool
}

// NewController constructs a Controller positioned on the first step with an empty draft.
func NewController(dependencies Dependencies) (*Controller, error) {
	if dependencies.Committer == nil {
		return nil, errCommitterMissing
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var notifier notify.Notifier = notify.Noop{}
	if dependencies.Notifier != nil {
		notifier = dependencies.Notifier
	}

	controller := &Controller{
		logger:       logger,
		committer:    dependencies.Committer,
		notifier:     notifier,
		itemsFetcher: dependencies.ItemsFetcher,
		templates:    append([]catalog.Template(nil), dependencies.Templates...),
	}
	controller.resetLocked()
	return controller, nil
}

// Step returns the current page.
func (controller *Controller) Step() Step {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.step
}

// Draft returns a copy of the current draft.
func (controller *Controller) Draft() draft.Audit {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.audit.Clone()
}

// Submitting reports whether a submission is in flight.
func (controller *Controller) Submitting() bool {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.submitting
}

// CanProceed reports whether the current step's gate holds.
func (controller *Controller) CanProceed() bool {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.stepCompleteLocked(controller.step)
}

// NextStep advances one page when the current step is complete.
func (controller *Controller) NextStep() error {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	if controller.step == StepReview {
		return ErrInvalidTransition
	}
	if !controller.stepCompleteLocked(controller.step) {
		return fmt.Errorf(stepIncompleteErrorTemplateConstant, ErrStepIncomplete, controller.step)
	}
	controller.moveLocked(controller.step + 1)
	return nil
}

// PrevStep goes back one page.
func (controller *Controller) PrevStep() error {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	if controller.step == StepGeneral {
		return ErrInvalidTransition
	}
	controller.moveLocked(controller.step - 1)
	return nil
}

// EditStep jumps from the review page back to an earlier page.
func (controller *Controller) EditStep(target Step) error {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	if controller.step != StepReview || !target.Valid() || target >= StepReview {
		return ErrInvalidTransition
	}
	controller.moveLocked(target)
	return nil
}

// SetTitle sets the audit title.
func (controller *Controller) SetTitle(title string) {
	controller.update(func(audit *draft.Audit) { audit.Title = title })
}

// SetDescription sets the audit description.
func (controller *Controller) SetDescription(description string) {
	controller.update(func(audit *draft.Audit) { audit.Description = description })
}

// SetTargetEntity sets the audited entity and its type.
func (controller *Controller) SetTargetEntity(entity string, entityType string) {
	controller.update(func(audit *draft.Audit) {
		audit.TargetEntity = entity
		audit.TargetEntityType = entityType
	})
}

// SetPeriod sets the audit start and end dates.
func (controller *Controller) SetPeriod(startDate string, endDate string) {
	controller.update(func(audit *draft.Audit) {
		audit.StartDate = startDate
		audit.EndDate = endDate
	})
}

// SetLeadAuditor sets the lead auditor id.
func (controller *Controller) SetLeadAuditor(leadAuditorID string) {
	controller.update(func(audit *draft.Audit) { audit.LeadAuditorID = leadAuditorID })
}

// SetCategory sets the category and always clears the template.
func (controller *Controller) SetCategory(categoryID string) {
	controller.update(func(audit *draft.Audit) {
		audit.CategoryID = categoryID
		audit.TemplateID = ""
	})
}

// SetTemplateCatalog replaces the templates the wizard offers.
func (controller *Controller) SetTemplateCatalog(templates []catalog.Template) {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	controller.templates = append([]catalog.Template(nil), templates...)
}

// AvailableTemplates lists the templates of the selected category, or all of them without one.
func (controller *Controller) AvailableTemplates() []catalog.Template {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return catalog.FilterTemplatesByCategory(controller.templates, controller.audit.CategoryID)
}

// SetTemplate selects a template offered for the current category. An empty id clears it.
func (controller *Controller) SetTemplate(templateID string) error {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	if len(templateID) == 0 {
		controller.audit.TemplateID = ""
		return nil
	}
	if templateError := controller.checkTemplateLocked(controller.audit.CategoryID, templateID); templateError != nil {
		return templateError
	}
	controller.audit.TemplateID = templateID
	return nil
}

// ToggleStandard adds a standard at the end of the selection or removes it.
func (controller *Controller) ToggleStandard(standardID string) {
	controller.update(func(audit *draft.Audit) {
		for index, existing := range audit.StandardIDs {
			if existing == standardID {
				audit.StandardIDs = append(append([]string{}, audit.StandardIDs[:index]...), audit.StandardIDs[index+1:]...)
				return
			}
		}
		audit.StandardIDs = append(append([]string{}, audit.StandardIDs...), standardID)
	})
}

// SetStandards replaces the selected standards, dropping blanks and duplicates.
func (controller *Controller) SetStandards(standardIDs []string) {
	controller.update(func(audit *draft.Audit) { audit.StandardIDs = normalizeStandardIDs(standardIDs) })
}

// Sessions returns a copy of the session list.
func (controller *Controller) Sessions() []draft.Session {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return append([]draft.Session{}, controller.audit.Sessions...)
}

// OpenNewSession starts an editor on a blank session.
func (controller *Controller) OpenNewSession() *SessionEditor {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return newSessionEditor(newSessionIndexConstant, controller.sessionGeneration, draft.Session{})
}

// OpenSessionForEdit starts an editor on a copy of the session at index.
func (controller *Controller) OpenSessionForEdit(index int) (*SessionEditor, error) {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	if index < 0 || index >= len(controller.audit.Sessions) {
		return nil, ErrSessionIndexOutOfRange
	}
	return newSessionEditor(index, controller.sessionGeneration, controller.audit.Sessions[index]), nil
}

// SaveSession validates the editor and appends or replaces its session. An editor opened
// before a deletion, reset, or load is rejected with ErrStaleSessionEditor.
func (controller *Controller) SaveSession(editor *SessionEditor) error {
	if validationError := editor.Validate(); validationError != nil {
		return validationError
	}
	session := editor.Session()
	session.Name = strings.TrimSpace(session.Name)

	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	if editor.generation != controller.sessionGeneration {
		return ErrStaleSessionEditor
	}
	if editor.IsNew() {
		controller.audit.Sessions = append(append([]draft.Session{}, controller.audit.Sessions...), session)
		return nil
	}
	if editor.Index() >= len(controller.audit.Sessions) {
		return ErrSessionIndexOutOfRange
	}
	replaced := append([]draft.Session{}, controller.audit.Sessions...)
	replaced[editor.Index()] = session
	controller.audit.Sessions = replaced
	return nil
}

// RequestSessionDeletion marks the session at index for removal pending confirmation.
func (controller *Controller) RequestSessionDeletion(index int) error {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	if index < 0 || index >= len(controller.audit.Sessions) {
		return ErrSessionIndexOutOfRange
	}
	controller.pendingDeletion = index
	return nil
}

// PendingDeletion returns the index awaiting confirmation.
func (controller *Controller) PendingDeletion() (int, bool) {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.pendingDeletion, controller.pendingDeletion != noPendingDeletionIndexConstant
}

// ConfirmSessionDeletion removes the session marked by RequestSessionDeletion.
func (controller *Controller) ConfirmSessionDeletion() error {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	index := controller.pendingDeletion
	if index == noPendingDeletionIndexConstant {
		return ErrNoPendingDeletion
	}
	controller.pendingDeletion = noPendingDeletionIndexConstant
	if index >= len(controller.audit.Sessions) {
		return ErrSessionIndexOutOfRange
	}

	remaining := make([]draft.Session, 0, len(controller.audit.Sessions)-1)
	for sessionIndex, session := range controller.audit.Sessions {
		if sessionIndex != index {
			remaining = append(remaining, session)
		}
	}
	controller.audit.Sessions = remaining
	controller.sessionGeneration++
	return nil
}

// CancelSessionDeletion drops a pending deletion request.
func (controller *Controller) CancelSessionDeletion() {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	controller.pendingDeletion = noPendingDeletionIndexConstant
}

// Close discards the draft and returns to the first step.
func (controller *Controller) Close() {
	controller.Reset()
}

// Reset discards the draft and returns to the first step.
func (controller *Controller) Reset() {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	controller.resetLocked()
}

// Load replaces the draft wholesale, as when replaying a saved draft file, and returns to the first step.
// Standards are normalized as by SetStandards and session names are trimmed. A draft with an unnamed
// session or a template outside its category is rejected and the current draft is kept.
func (controller *Controller) Load(audit draft.Audit) error {
	loaded := audit.Clone()
	loaded.StandardIDs = normalizeStandardIDs(loaded.StandardIDs)
	for index := range loaded.Sessions {
		loaded.Sessions[index].Name = strings.TrimSpace(loaded.Sessions[index].Name)
	}

	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	if validationError := controller.validateDraftLocked(loaded); validationError != nil {
		return validationError
	}
	controller.resetLocked()
	controller.audit = loaded
	return nil
}

// Submit commits a frozen copy of the draft from the review page. On success the
// wizard resets; on failure the draft is kept for another attempt.
func (controller *Controller) Submit(executionContext context.Context) (saga.Result, error) {
	controller.mutex.Lock()
	if controller.submitting {
		controller.mutex.Unlock()
		return saga.Result{}, ErrSubmissionInFlight
	}
	if controller.step != StepReview {
		controller.mutex.Unlock()
		return saga.Result{}, ErrNotAtReview
	}
	for _, gatedStep := range []Step{StepGeneral, StepStandards} {
		if !controller.stepCompleteLocked(gatedStep) {
			controller.mutex.Unlock()
			return saga.Result{}, fmt.Errorf(stepIncompleteErrorTemplateConstant, ErrStepIncomplete, gatedStep)
		}
	}
	if validationError := controller.validateDraftLocked(controller.audit); validationError != nil {
		controller.mutex.Unlock()
		return saga.Result{}, validationError
	}
	controller.submitting = true
	frozen := controller.audit.Clone()
	controller.mutex.Unlock()

	defer func() {
		controller.mutex.Lock()
		controller.submitting = false
		controller.mutex.Unlock()
	}()

	controller.logger.Info(submissionStartedLogMessageConstant)
	if membershipError := controller.validateMembership(executionContext, frozen); membershipError != nil {
		controller.logger.Warn(submissionFailedLogMessageConstant, zap.Error(membershipError))
		controller.notifier.AuditCreationFailed(membershipError)
		return saga.Result{}, membershipError
	}

	result, commitError := controller.committer.Execute(executionContext, frozen)
	controller.notifier.AuditListInvalidated()
	if commitError != nil {
		controller.logger.Warn(submissionFailedLogMessageConstant, zap.Error(commitError))
		controller.notifier.AuditCreationFailed(commitError)
		return saga.Result{}, commitError
	}

	controller.notifier.AuditCreated(notify.AuditHandle{
		AuditID:        result.AuditID,
		OrganizationID: result.OrganizationID,
		Title:          frozen.Title,
		TotalItems:     result.TotalItems,
	})

	controller.logger.Info(submissionCompletedLogMessageConstant, zap.String(logFieldAuditIDConstant, result.AuditID))

	controller.mutex.Lock()
	controller.resetLocked()
	controller.mutex.Unlock()
	return result, nil
}

func (controller *Controller) validateMembership(executionContext context.Context, audit draft.Audit) error {
	if controller.itemsFetcher == nil {
		return nil
	}
	loader, loaderError := catalog.NewLoader(controller.itemsFetcher, controller.logger)
	if loaderError != nil {
		return loaderError
	}
	index := catalog.NewIndex()
	if loadError := loader.Load(executionContext, index, audit.StandardIDs); loadError != nil {
		return fmt.Errorf(membershipLoadErrorTemplateConstant, loadError)
	}

	owners := index.QuestionOwners(audit.StandardIDs)
	for sessionIndex, session := range audit.Sessions {
		for _, itemID := range session.ItemIDs.IDs() {
			if _, owned := owners[itemID]; !owned {
				return ValidationError{
					Field:   fmt.Sprintf(sessionItemsFieldTemplateConstant, sessionIndex),
					Message: fmt.Sprintf(itemOutsideStandardsTemplateConstant, itemID),
				}
			}
		}
	}
	return nil
}

func (controller *Controller) checkTemplateLocked(categoryID string, templateID string) error {
	if len(templateID) == 0 || len(controller.templates) == 0 {
		return nil
	}
	for _, template := range controller.templates {
		if template.ID != templateID {
			continue
		}
		if len(categoryID) > 0 && template.CategoryID != categoryID {
			return ValidationError{Field: templateFieldConstant, Message: templateCategoryMismatchConstant}
		}
		return nil
	}
	return ValidationError{Field: templateFieldConstant, Message: templateUnknownMessageConstant}
}

func (controller *Controller) validateDraftLocked(audit draft.Audit) error {
	if templateError := controller.checkTemplateLocked(audit.CategoryID, audit.TemplateID); templateError != nil {
		return templateError
	}
	for sessionIndex, session := range audit.Sessions {
		sessionError := validateSession(session)
		if sessionError == nil {
			continue
		}
		var fieldError ValidationError
		if errors.As(sessionError, &fieldError) {
			fieldError.Field = fmt.Sprintf(sessionFieldTemplateConstant, sessionIndex, fieldError.Field)
			return fieldError
		}
		return sessionError
	}
	return nil
}

func (controller *Controller) update(mutation func(audit *draft.Audit)) {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	mutation(&controller.audit)
}

func (controller *Controller) stepCompleteLocked(step Step) bool {
	switch step {
	case StepGeneral:
		return len(strings.TrimSpace(controller.audit.Title)) > 0
	case StepStandards:
		return len(controller.audit.StandardIDs) > 0
	default:
		return true
	}
}

func (controller *Controller) moveLocked(target Step) {
	controller.step = target
	controller.logger.Debug(stepChangedLogMessageConstant, zap.String(logFieldStepConstant, target.String()))
}

func normalizeStandardIDs(standardIDs []string) []string {
	seen := make(map[string]struct{}, len(standardIDs))
	ordered := make([]string, 0, len(standardIDs))
	for _, standardID := range standardIDs {
		trimmed := strings.TrimSpace(standardID)
		if len(trimmed) == 0 {
			continue
		}
		if _, duplicate := seen[trimmed]; duplicate {
			continue
		}
		seen[trimmed] = struct{}{}
		ordered = append(ordered, trimmed)
	}
	return ordered
}

func (controller *Controller) resetLocked() {
	controller.step = StepGeneral
	controller.audit = draft.Audit{}
	controller.pendingDeletion = noPendingDeletionIndexConstant
	controller.sessionGeneration++
}
