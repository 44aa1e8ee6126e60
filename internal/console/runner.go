package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/catalog"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/draft"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/saga"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/wizard"
)

const (
	titlePromptConstant                   = "Audit title"
	descriptionPromptConstant             = "Description"
	categoryPromptConstant                = "Category"
	templatePromptConstant                = "Template"
	targetEntityPromptConstant            = "Audited entity"
	targetEntityTypePromptConstant        = "Audited entity type"
	startDatePromptConstant               = "Start date (YYYY-MM-DD)"
	endDatePromptConstant                 = "End date (YYYY-MM-DD)"
	leadAuditorPromptConstant             = "Lead auditor id"
	standardsPromptConstant               = "Standards to audit"
	sessionsPromptConstant                = "Sessions"
	sessionNamePromptConstant             = "Session name"
	sessionDescriptionPromptConstant      = "Session description"
	sessionDatePromptConstant             = "Session date (YYYY-MM-DD)"
	sessionStartPromptConstant            = "Start time (HH:MM)"
	sessionEndPromptConstant              = "End time (HH:MM)"
	sessionLocationPromptConstant         = "Location"
	questionsPromptTemplateConstant       = "Questions from %s"
	searchPromptConstant                  = "Search questions"
	reviewPromptConstant                  = "Next"
	deletePromptTemplateConstant          = "Delete session %q?"
	submitConfirmPromptConstant           = "Create this audit?"
	noCategoryLabelConstant               = "No category"
	noTemplateLabelConstant               = "No template"
	addSessionLabelConstant               = "Add session"
	editSessionTemplateConstant           = "Edit %s"
	deleteSessionTemplateConstant         = "Delete %s"
	backLabelConstant                     = "Back"
	continueLabelConstant                 = "Continue to review"
	chooseQuestionsLabelConstant          = "Choose questions"
	selectAllLabelConstant                = "Select all"
	clearAllLabelConstant                 = "Clear all"
	searchLabelConstant                   = "Search"
	doneLabelConstant                     = "Done"
	submitLabelConstant                   = "Create audit"
	editGeneralLabelConstant              = "Edit general information"
	editStandardsLabelConstant            = "Edit standards"
	editSessionsLabelConstant             = "Edit sessions"
	cancelLabelConstant                   = "Cancel"
	discardSessionLabelConstant           = "Discard session"
	keepEditingPromptConstant             = "Keep editing this session?"
	sessionDiscardedMessageConstant       = "session discarded"
	standardHeadingTemplateConstant       = "%s %s"
	questionLabelTemplateConstant         = "%s %s"
	searchStatusTemplateConstant          = "filter: %q\n"
	createdMessageTemplateConstant        = "Created audit %s with %d questions\n"
	actionAddConstant                     = "add"
	actionEditPrefixConstant              = "edit:"
	actionDeletePrefixConstant            = "delete:"
	actionBackConstant                    = "back"
	actionNextConstant                    = "next"
	actionChooseConstant                  = "choose"
	actionToggleAllConstant               = "toggle"
	actionSearchConstant                  = "search"
	actionDoneConstant                    = "done"
	actionSubmitConstant                  = "submit"
	actionEditGeneralConstant             = "general"
	actionEditStandardsConstant           = "standards"
	actionEditSessionsConstant            = "sessions"
	actionCancelConstant                  = "cancel"
	actionDiscardConstant                 = "discard"
	catalogLoadErrorTemplateConstant      = "unable to load catalog: %w"
	logFieldStandardIDConstant            = "standard_id"
	standardItemsLoadedLogMessageConstant = "standard items loaded for session editing"
	cancelledMessageConstant              = "audit creation cancelled"
	declinedMessageConstant               = "audit creation declined"
	controllerMissingMessageConstant      = "wizard controller not configured"
	prompterMissingMessageConstant        = "prompter not configured"
	catalogMissingMessageConstant         = "catalog reader not configured"
)

var (
	// ErrCancelled reports that the user left the wizard without creating an audit.
	ErrCancelled = errors.New(cancelledMessageConstant)
	// ErrDeclined reports that the user declined the final confirmation.
	ErrDeclined = errors.New(declinedMessageConstant)

	errControllerMissing = errors.New(controllerMissingMessageConstant)
	errSessionDiscarded  = errors.New(sessionDiscardedMessageConstant)
	errPrompterMissing   = errors.New(prompterMissingMessageConstant)
	errCatalogMissing    = errors.New(catalogMissingMessageConstant)
)

// RunnerDependencies describes the collaborators of a Runner.
type RunnerDependencies struct {
	Controller *wizard.Controller
	Prompter   Prompter
	Catalog    store.CatalogReader
	Output     io.Writer
	Logger     *zap.Logger
}

// Runner walks a wizard controller through its pages using a prompter.
type Runner struct {
	controller *wizard.Controller
	prompter   Prompter
	catalog    store.CatalogReader
	output     io.Writer
	logger     *zap.Logger
	standards  []catalog.Standard
	items      map[string][]catalog.StandardItem
}

// NewRunner validates dependencies and constructs a Runner.
func NewRunner(dependencies RunnerDependencies) (*Runner, error) {
	if dependencies.Controller == nil {
		return nil, errControllerMissing
	}
	if dependencies.Prompter == nil {
		return nil, errPrompterMissing
	}
	if dependencies.Catalog == nil {
		return nil, errCatalogMissing
	}
	output := dependencies.Output
	if output == nil {
		output = io.Discard
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		controller: dependencies.Controller,
		prompter:   dependencies.Prompter,
		catalog:    dependencies.Catalog,
		output:     output,
		logger:     logger,
		items:      make(map[string][]catalog.StandardItem),
	}, nil
}

// Run drives the wizard interactively until an audit is created, the user cancels, or a prompt aborts.
func (runner *Runner) Run(executionContext context.Context) (saga.Result, error) {
	categories, loadError := runner.loadCatalog(executionContext)
	if loadError != nil {
		return saga.Result{}, loadError
	}

	for {
		var stepError error
		switch runner.controller.Step() {
		case wizard.StepGeneral:
			stepError = runner.collectGeneral(categories)
		case wizard.StepStandards:
			stepError = runner.collectStandards()
		case wizard.StepSessions:
			stepError = runner.manageSessions(executionContext)
		case wizard.StepReview:
			result, finished, reviewError := runner.review(executionContext)
			if reviewError != nil {
				return saga.Result{}, reviewError
			}
			if finished {
				return result, nil
			}
		}
		if stepError != nil {
			return saga.Result{}, stepError
		}
	}
}

// SubmitDraft loads a prepared draft, walks it to the review page, and submits it.
// Without assumeYes the review is printed and the user must confirm.
func (runner *Runner) SubmitDraft(executionContext context.Context, audit draft.Audit, assumeYes bool) (saga.Result, error) {
	if loadError := runner.controller.Load(audit); loadError != nil {
		return saga.Result{}, loadError
	}
	for runner.controller.Step() != wizard.StepReview {
		if nextError := runner.controller.NextStep(); nextError != nil {
			return saga.Result{}, nextError
		}
	}

	fmt.Fprint(runner.output, RenderReview(runner.controller.Review()))
	if !assumeYes {
		confirmed, confirmError := runner.prompter.Confirm(submitConfirmPromptConstant)
		if confirmError != nil {
			return saga.Result{}, confirmError
		}
		if !confirmed {
			return saga.Result{}, ErrDeclined
		}
	}

	result, submitError := runner.controller.Submit(executionContext)
	if submitError != nil {
		return saga.Result{}, submitError
	}
	fmt.Fprintf(runner.output, createdMessageTemplateConstant, result.AuditID, result.TotalItems)
	return result, nil
}

func (runner *Runner) loadCatalog(executionContext context.Context) ([]catalog.Category, error) {
	standards, standardsError := runner.catalog.FetchStandards(executionContext)
	if standardsError != nil {
		return nil, fmt.Errorf(catalogLoadErrorTemplateConstant, standardsError)
	}
	categories, categoriesError := runner.catalog.FetchCategories(executionContext)
	if categoriesError != nil {
		return nil, fmt.Errorf(catalogLoadErrorTemplateConstant, categoriesError)
	}
	templates, templatesError := runner.catalog.FetchTemplates(executionContext)
	if templatesError != nil {
		return nil, fmt.Errorf(catalogLoadErrorTemplateConstant, templatesError)
	}
	runner.standards = standards
	runner.controller.SetTemplateCatalog(templates)
	return categories, nil
}

func (runner *Runner) collectGeneral(categories []catalog.Category) error {
	current := runner.controller.Draft()

	title, titleError := runner.prompter.Input(titlePromptConstant, current.Title)
	if titleError != nil {
		return titleError
	}
	runner.controller.SetTitle(title)

	description, descriptionError := runner.prompter.Input(descriptionPromptConstant, current.Description)
	if descriptionError != nil {
		return descriptionError
	}
	runner.controller.SetDescription(description)

	categoryOptions := []Option{{Label: noCategoryLabelConstant}}
	for _, category := range categories {
		categoryOptions = append(categoryOptions, Option{Label: category.Title, Value: category.ID})
	}
	categoryID, categoryError := runner.prompter.Select(categoryPromptConstant, categoryOptions, current.CategoryID)
	if categoryError != nil {
		return categoryError
	}
	if categoryID != current.CategoryID {
		runner.controller.SetCategory(categoryID)
	}

	templateOptions := []Option{{Label: noTemplateLabelConstant}}
	for _, template := range runner.controller.AvailableTemplates() {
		templateOptions = append(templateOptions, Option{Label: template.Name, Value: template.ID})
	}
	templateID, templatePromptError := runner.prompter.Select(templatePromptConstant, templateOptions, runner.controller.Draft().TemplateID)
	if templatePromptError != nil {
		return templatePromptError
	}
	if templateError := runner.controller.SetTemplate(templateID); templateError != nil {
		fmt.Fprint(runner.output, RenderFailure(templateError))
	}

	targetEntity, targetError := runner.prompter.Input(targetEntityPromptConstant, current.TargetEntity)
	if targetError != nil {
		return targetError
	}
	targetEntityType, targetTypeError := runner.prompter.Input(targetEntityTypePromptConstant, current.TargetEntityType)
	if targetTypeError != nil {
		return targetTypeError
	}
	runner.controller.SetTargetEntity(targetEntity, targetEntityType)

	startDate, startError := runner.prompter.Input(startDatePromptConstant, current.StartDate)
	if startError != nil {
		return startError
	}
	endDate, endError := runner.prompter.Input(endDatePromptConstant, current.EndDate)
	if endError != nil {
		return endError
	}
	runner.controller.SetPeriod(startDate, endDate)

	leadAuditorID, leadError := runner.prompter.Input(leadAuditorPromptConstant, current.LeadAuditorID)
	if leadError != nil {
		return leadError
	}
	runner.controller.SetLeadAuditor(leadAuditorID)

	runner.advance()
	return nil
}

func (runner *Runner) collectStandards() error {
	options := make([]Option, 0, len(runner.standards))
	for _, standard := range runner.standards {
		options = append(options, Option{Label: fmt.Sprintf(standardHeadingTemplateConstant, standard.Code, standard.Name), Value: standard.ID})
	}
	chosen, chooseError := runner.prompter.MultiSelect(standardsPromptConstant, options, runner.controller.Draft().StandardIDs)
	if chooseError != nil {
		return chooseError
	}
	runner.controller.SetStandards(chosen)
	runner.advance()
	return nil
}

func (runner *Runner) manageSessions(executionContext context.Context) error {
	sessions := runner.controller.Sessions()
	options := []Option{{Label: addSessionLabelConstant, Value: actionAddConstant}}
	for index, session := range sessions {
		options = append(options,
			Option{Label: fmt.Sprintf(editSessionTemplateConstant, session.Name), Value: actionEditPrefixConstant + strconv.Itoa(index)},
			Option{Label: fmt.Sprintf(deleteSessionTemplateConstant, session.Name), Value: actionDeletePrefixConstant + strconv.Itoa(index)},
		)
	}
	options = append(options,
		Option{Label: backLabelConstant, Value: actionBackConstant},
		Option{Label: continueLabelConstant, Value: actionNextConstant},
	)

	action, actionError := runner.prompter.Select(sessionsPromptConstant, options, actionNextConstant)
	if actionError != nil {
		return actionError
	}

	switch {
	case action == actionAddConstant:
		return runner.editSession(executionContext, runner.controller.OpenNewSession())
	case strings.HasPrefix(action, actionEditPrefixConstant):
		index, _ := strconv.Atoi(strings.TrimPrefix(action, actionEditPrefixConstant))
		editor, openError := runner.controller.OpenSessionForEdit(index)
		if openError != nil {
			return openError
		}
		return runner.editSession(executionContext, editor)
	case strings.HasPrefix(action, actionDeletePrefixConstant):
		index, _ := strconv.Atoi(strings.TrimPrefix(action, actionDeletePrefixConstant))
		return runner.deleteSession(index, sessions[index].Name)
	case action == actionBackConstant:
		return runner.controller.PrevStep()
	default:
		runner.advance()
		return nil
	}
}

func (runner *Runner) deleteSession(index int, name string) error {
	if requestError := runner.controller.RequestSessionDeletion(index); requestError != nil {
		return requestError
	}
	confirmed, confirmError := runner.prompter.Confirm(fmt.Sprintf(deletePromptTemplateConstant, name))
	if confirmError != nil {
		runner.controller.CancelSessionDeletion()
		return confirmError
	}
	if !confirmed {
		runner.controller.CancelSessionDeletion()
		return nil
	}
	return runner.controller.ConfirmSessionDeletion()
}

// editSession fills the editor and saves it. An aborted prompt or a discard answer drops the
// editor and returns to the sessions page with the draft unchanged.
func (runner *Runner) editSession(executionContext context.Context, editor *wizard.SessionEditor) error {
	fillError := runner.fillSession(executionContext, editor)
	switch {
	case fillError == nil:
	case errors.Is(fillError, ErrAborted), errors.Is(fillError, errSessionDiscarded):
		fmt.Fprintln(runner.output, mutedStyle.Render(sessionDiscardedMessageConstant))
		return nil
	default:
		return fillError
	}

	if saveError := runner.controller.SaveSession(editor); saveError != nil {
		fmt.Fprint(runner.output, RenderFailure(saveError))
	}
	return nil
}

func (runner *Runner) fillSession(executionContext context.Context, editor *wizard.SessionEditor) error {
	for {
		name, nameError := runner.prompter.Input(sessionNamePromptConstant, editor.Session().Name)
		if nameError != nil {
			return nameError
		}
		editor.SetName(name)
		validationError := editor.Validate()
		if validationError == nil {
			break
		}
		fmt.Fprint(runner.output, RenderFailure(validationError))
		keepEditing, confirmError := runner.prompter.Confirm(keepEditingPromptConstant)
		if confirmError != nil {
			return confirmError
		}
		if !keepEditing {
			return errSessionDiscarded
		}
	}

	session := editor.Session()
	description, descriptionError := runner.prompter.Input(sessionDescriptionPromptConstant, session.Description)
	if descriptionError != nil {
		return descriptionError
	}
	editor.SetDescription(description)

	date, dateError := runner.prompter.Input(sessionDatePromptConstant, session.Date)
	if dateError != nil {
		return dateError
	}
	startTime, startError := runner.prompter.Input(sessionStartPromptConstant, session.StartTime)
	if startError != nil {
		return startError
	}
	endTime, endError := runner.prompter.Input(sessionEndPromptConstant, session.EndTime)
	if endError != nil {
		return endError
	}
	editor.SetSchedule(date, startTime, endTime)

	location, locationError := runner.prompter.Input(sessionLocationPromptConstant, session.Location)
	if locationError != nil {
		return locationError
	}
	editor.SetLocation(location)

	for _, standardID := range runner.controller.Draft().StandardIDs {
		if selectError := runner.selectQuestions(executionContext, editor, standardID); selectError != nil {
			return selectError
		}
	}
	return nil
}

func (runner *Runner) selectQuestions(executionContext context.Context, editor *wizard.SessionEditor, standardID string) error {
	items, itemsError := runner.standardItems(executionContext, standardID)
	if itemsError != nil {
		return itemsError
	}
	searchTerm := ""
	for {
		visibleItems := catalog.FilterBySearch(items, searchTerm)
		fmt.Fprintln(runner.output, headingStyle.Render(runner.standardLabel(standardID)))
		if len(searchTerm) > 0 {
			fmt.Fprintf(runner.output, searchStatusTemplateConstant, searchTerm)
		}
		fmt.Fprint(runner.output, RenderItemTree(visibleItems, editor.Session().ItemIDs))

		visibleQuestions := questionOptions(visibleItems)
		options := []Option{}
		if len(visibleQuestions) > 0 {
			options = append(options, Option{Label: chooseQuestionsLabelConstant, Value: actionChooseConstant})
		}
		summary := editor.Summary(items)
		if summary.BulkToggleAvailable() {
			toggleLabel := selectAllLabelConstant
			if summary.AllSelected() {
				toggleLabel = clearAllLabelConstant
			}
			options = append(options, Option{Label: toggleLabel, Value: actionToggleAllConstant})
		}
		options = append(options,
			Option{Label: searchLabelConstant, Value: actionSearchConstant},
			Option{Label: discardSessionLabelConstant, Value: actionDiscardConstant},
			Option{Label: doneLabelConstant, Value: actionDoneConstant},
		)

		action, actionError := runner.prompter.Select(runner.standardLabel(standardID), options, actionDoneConstant)
		if actionError != nil {
			return actionError
		}

		switch action {
		case actionChooseConstant:
			visibleIDs := make([]string, 0, len(visibleQuestions))
			selectedIDs := []string{}
			currentSelection := editor.Session().ItemIDs
			for _, option := range visibleQuestions {
				visibleIDs = append(visibleIDs, option.Value)
				if currentSelection.Contains(option.Value) {
					selectedIDs = append(selectedIDs, option.Value)
				}
			}
			chosen, chooseError := runner.prompter.MultiSelect(fmt.Sprintf(questionsPromptTemplateConstant, runner.standardLabel(standardID)), visibleQuestions, selectedIDs)
			if chooseError != nil {
				return chooseError
			}
			editor.ApplyVisible(visibleIDs, chosen)
		case actionToggleAllConstant:
			editor.ToggleAllInStandard(items)
		case actionSearchConstant:
			term, searchError := runner.prompter.Input(searchPromptConstant, searchTerm)
			if searchError != nil {
				return searchError
			}
			searchTerm = term
		case actionDiscardConstant:
			return errSessionDiscarded
		default:
			return nil
		}
	}
}

func (runner *Runner) review(executionContext context.Context) (saga.Result, bool, error) {
	fmt.Fprint(runner.output, RenderReview(runner.controller.Review()))
	options := []Option{
		{Label: submitLabelConstant, Value: actionSubmitConstant},
		{Label: editGeneralLabelConstant, Value: actionEditGeneralConstant},
		{Label: editStandardsLabelConstant, Value: actionEditStandardsConstant},
		{Label: editSessionsLabelConstant, Value: actionEditSessionsConstant},
		{Label: cancelLabelConstant, Value: actionCancelConstant},
	}
	action, actionError := runner.prompter.Select(reviewPromptConstant, options, actionSubmitConstant)
	if actionError != nil {
		return saga.Result{}, false, actionError
	}

	switch action {
	case actionSubmitConstant:
		result, submitError := runner.controller.Submit(executionContext)
		if submitError != nil {
			fmt.Fprint(runner.output, RenderFailure(submitError))
			return saga.Result{}, false, nil
		}
		fmt.Fprintf(runner.output, createdMessageTemplateConstant, result.AuditID, result.TotalItems)
		return result, true, nil
	case actionEditGeneralConstant:
		return saga.Result{}, false, runner.controller.EditStep(wizard.StepGeneral)
	case actionEditStandardsConstant:
		return saga.Result{}, false, runner.controller.EditStep(wizard.StepStandards)
	case actionEditSessionsConstant:
		return saga.Result{}, false, runner.controller.EditStep(wizard.StepSessions)
	default:
		runner.controller.Close()
		return saga.Result{}, false, ErrCancelled
	}
}

func (runner *Runner) advance() {
	if nextError := runner.controller.NextStep(); nextError != nil {
		fmt.Fprint(runner.output, RenderFailure(nextError))
	}
}

func (runner *Runner) standardItems(executionContext context.Context, standardID string) ([]catalog.StandardItem, error) {
	if items, cached := runner.items[standardID]; cached {
		return items, nil
	}
	items, fetchError := runner.catalog.FetchStandardItems(executionContext, standardID)
	if fetchError != nil {
		return nil, fetchError
	}
	runner.logger.Debug(standardItemsLoadedLogMessageConstant, zap.String(logFieldStandardIDConstant, standardID))
	runner.items[standardID] = items
	return items, nil
}

func (runner *Runner) standardLabel(standardID string) string {
	for _, standard := range runner.standards {
		if standard.ID == standardID {
			return fmt.Sprintf(standardHeadingTemplateConstant, standard.Code, standard.Name)
		}
	}
	return standardID
}

func questionOptions(items []catalog.StandardItem) []Option {
	options := []Option{}
	for _, item := range items {
		if item.IsQuestion() {
			options = append(options, Option{Label: fmt.Sprintf(questionLabelTemplateConstant, item.ItemNumber, item.Title), Value: item.ID})
		}
		options = append(options, questionOptions(item.Children)...)
	}
	return options
}
