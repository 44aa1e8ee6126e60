package ui_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/saga"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/ui"
)

const (
	testAuditIdentifierConstant     = "a-1"
	testFailureReasonConstant       = "constraint violation"
	testSessionStepLabelConstant    = "insert session item links for session 2"
	testStartMessageExpectation     = "Running " + testSessionStepLabelConstant
	testCompletedMessageExpectation = "Completed " + testSessionStepLabelConstant + " (3 records)"
	testAuditCompletedExpectation   = "Completed insert audit"
	testFailureMessageExpectation   = testSessionStepLabelConstant + " failed: " + testFailureReasonConstant + " [audit a-1]"
	testUnknownFailureExpectation   = "resolve organization failed: unknown error"
)

func TestConsoleStepEventLoggerEmitsMessages(testInstance *testing.T) {
	sessionEvent := saga.StepEvent{
		Step:         saga.StepInsertSessionItemLinks,
		SessionIndex: 1,
		AuditID:      testAuditIdentifierConstant,
		RecordCount:  3,
	}

	testCases := []struct {
		name            string
		invoke          func(logger *ui.ConsoleStepEventLogger)
		expectedLevel   zapcore.Level
		expectedMessage string
	}{
		{
			name: "step_started",
			invoke: func(logger *ui.ConsoleStepEventLogger) {
				logger.StepStarted(sessionEvent)
			},
			expectedLevel:   zapcore.DebugLevel,
			expectedMessage: testStartMessageExpectation,
		},
		{
			name: "step_completed_with_records",
			invoke: func(logger *ui.ConsoleStepEventLogger) {
				logger.StepCompleted(sessionEvent)
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: testCompletedMessageExpectation,
		},
		{
			name: "audit_step_completed",
			invoke: func(logger *ui.ConsoleStepEventLogger) {
				logger.StepCompleted(saga.StepEvent{Step: saga.StepInsertAudit, SessionIndex: -1, RecordCount: 1})
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: testAuditCompletedExpectation,
		},
		{
			name: "step_failed",
			invoke: func(logger *ui.ConsoleStepEventLogger) {
				logger.StepFailed(sessionEvent, errors.New(testFailureReasonConstant))
			},
			expectedLevel:   zapcore.ErrorLevel,
			expectedMessage: testFailureMessageExpectation,
		},
		{
			name: "step_failed_without_cause",
			invoke: func(logger *ui.ConsoleStepEventLogger) {
				logger.StepFailed(saga.StepEvent{Step: saga.StepResolveOrganization, SessionIndex: -1}, nil)
			},
			expectedLevel:   zapcore.ErrorLevel,
			expectedMessage: testUnknownFailureExpectation,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			observerCore, observedLogs := observer.New(zapcore.DebugLevel)
			eventLogger := ui.NewConsoleStepEventLogger(zap.New(observerCore))

			testCase.invoke(eventLogger)

			entries := observedLogs.All()
			require.Len(subTest, entries, 1)
			require.Equal(subTest, testCase.expectedLevel, entries[0].Level)
			require.Equal(subTest, testCase.expectedMessage, entries[0].Message)
		})
	}
}

func TestNilConsoleStepEventLoggerIsSafe(testInstance *testing.T) {
	var eventLogger *ui.ConsoleStepEventLogger
	require.NotPanics(testInstance, func() {
		eventLogger.StepStarted(saga.StepEvent{})
		eventLogger.StepCompleted(saga.StepEvent{})
		eventLogger.StepFailed(saga.StepEvent{}, nil)
	})
}
