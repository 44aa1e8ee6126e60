package ui

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/saga"
)

const (
	stepStartedMessageTemplateConstant    = "Running %s"
	stepCompletedMessageTemplateConstant  = "Completed %s"
	stepRecordCountSuffixTemplateConstant = " (%d records)"
	stepFailedMessageTemplateConstant     = "%s failed: %s"
	stepSessionLabelTemplateConstant      = "%s for session %d"
	stepAuditSuffixTemplateConstant       = " [audit %s]"
	stepWordSeparatorConstant             = "_"
	stepLabelSeparatorConstant            = " "
	unknownFailureMessageConstant         = "unknown error"
	emptyStringConstant                   = ""
)

// StepEventFormatter builds human-readable messages for audit creation steps.
type StepEventFormatter struct{}

// BuildStartedMessage formats the message describing a step about to run.
func (formatter StepEventFormatter) BuildStartedMessage(event saga.StepEvent) string {
	return fmt.Sprintf(stepStartedMessageTemplateConstant, formatter.formatStepLabel(event))
}

// BuildCompletedMessage formats the message describing a committed step.
func (formatter StepEventFormatter) BuildCompletedMessage(event saga.StepEvent) string {
	message := fmt.Sprintf(stepCompletedMessageTemplateConstant, formatter.formatStepLabel(event))
	if event.RecordCount > 1 {
		message += fmt.Sprintf(stepRecordCountSuffixTemplateConstant, event.RecordCount)
	}
	return message
}

// BuildFailureMessage formats the message describing a failed step.
func (formatter StepEventFormatter) BuildFailureMessage(event saga.StepEvent, failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	return fmt.Sprintf(stepFailedMessageTemplateConstant, formatter.formatStepLabel(event), failureMessage) + formatter.formatAuditSuffix(event)
}

func (formatter StepEventFormatter) formatStepLabel(event saga.StepEvent) string {
	label := strings.ReplaceAll(string(event.Step), stepWordSeparatorConstant, stepLabelSeparatorConstant)
	if event.SessionIndex < 0 {
		return label
	}
	return fmt.Sprintf(stepSessionLabelTemplateConstant, label, event.SessionIndex+1)
}

func (formatter StepEventFormatter) formatAuditSuffix(event saga.StepEvent) string {
	trimmedAuditID := strings.TrimSpace(event.AuditID)
	if len(trimmedAuditID) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(stepAuditSuffixTemplateConstant, trimmedAuditID)
}

// ConsoleStepEventLogger renders audit creation steps using a zap logger configured for human-readable output.
type ConsoleStepEventLogger struct {
	logger    *zap.Logger
	formatter StepEventFormatter
}

// NewConsoleStepEventLogger constructs a console event logger backed by the provided zap logger.
func NewConsoleStepEventLogger(logger *zap.Logger) *ConsoleStepEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleStepEventLogger{logger: logger, formatter: StepEventFormatter{}}
}

// StepStarted implements saga.EventObserver.
func (eventLogger *ConsoleStepEventLogger) StepStarted(event saga.StepEvent) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Debug(eventLogger.formatter.BuildStartedMessage(event))
}

// StepCompleted implements saga.EventObserver.
func (eventLogger *ConsoleStepEventLogger) StepCompleted(event saga.StepEvent) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(eventLogger.formatter.BuildCompletedMessage(event))
}

// StepFailed implements saga.EventObserver. The audit id is included so partially written records can be located.
func (eventLogger *ConsoleStepEventLogger) StepFailed(event saga.StepEvent, failure error) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Error(eventLogger.formatter.BuildFailureMessage(event, failure))
}

var _ saga.EventObserver = (*ConsoleStepEventLogger)(nil)
