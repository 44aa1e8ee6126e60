package audits_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/cmd/cli/audits"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/console"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/services"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store"
)

const (
	testUserIDConstant       = "auditor-1"
	testSeedDocumentConstant = `
standards:
  - id: iso-9001
    code: ISO 9001
    name: Quality
    version: "2015"
    items:
      - id: q4.1
        item_number: "4.1"
        title: Understanding the organization
        field_type: question
      - id: q5
        item_number: "5"
        title: Leadership
        field_type: question
users:
  - id: auditor-1
    organization_id: org-1
  - id: auditor-2
    organization_id: org-2
`
	testDraftDocumentConstant = `
title: Leadership review
standard_ids: [iso-9001]
sessions:
  - name: Board interview
    item_ids: [q5]
`
)

type auditsFixture struct {
	directory string
	opened    *services.Services
	builder   audits.CommandGroupBuilder
}

func newAuditsFixture(testInstance *testing.T) *auditsFixture {
	testInstance.Helper()
	directory := testInstance.TempDir()
	seedPath := filepath.Join(directory, "seed.yaml")
	require.NoError(testInstance, os.WriteFile(seedPath, []byte(testSeedDocumentConstant), 0o600))
	require.NoError(testInstance, os.WriteFile(filepath.Join(directory, "draft.yaml"), []byte(testDraftDocumentConstant), 0o600))

	opened, openError := services.Open(context.Background(), services.Configuration{SeedFile: seedPath}, services.Dependencies{})
	require.NoError(testInstance, openError)

	fixture := &auditsFixture{directory: directory, opened: opened}
	fixture.builder = audits.CommandGroupBuilder{
		ServicesProvider: func(context.Context) (*services.Services, error) {
			return fixture.opened, nil
		},
		IdentityProvider: func() string { return testUserIDConstant },
		PrompterFactory: func(command *cobra.Command, plain bool) console.Prompter {
			return console.NewLinePrompter(command.InOrStdin(), command.OutOrStdout())
		},
	}
	return fixture
}

func (fixture *auditsFixture) execute(testInstance *testing.T, input string, arguments ...string) (string, error) {
	testInstance.Helper()
	command, buildError := fixture.builder.Build()
	require.NoError(testInstance, buildError)
	output := &bytes.Buffer{}
	command.SetOut(output)
	command.SetErr(output)
	command.SetIn(strings.NewReader(input))
	command.SetArgs(arguments)
	command.SetContext(context.Background())
	executionError := command.Execute()
	return output.String(), executionError
}

func TestCreateFromFileThenListAndShow(testInstance *testing.T) {
	fixture := newAuditsFixture(testInstance)
	draftPath := filepath.Join(fixture.directory, "draft.yaml")

	createOutput, createError := fixture.execute(testInstance, "", "create", "--from-file", draftPath, "-y")
	require.NoError(testInstance, createError)
	require.Contains(testInstance, createOutput, "with 1 questions")

	listOutput, listError := fixture.execute(testInstance, "", "list")
	require.NoError(testInstance, listError)
	require.Contains(testInstance, listOutput, "Leadership review")

	records, recordsError := fixture.opened.Store.ListAudits(context.Background(), "org-1")
	require.NoError(testInstance, recordsError)
	require.Len(testInstance, records, 1)

	showOutput, showError := fixture.execute(testInstance, "", "show", records[0].ID)
	require.NoError(testInstance, showError)
	require.Contains(testInstance, showOutput, "Board interview")

	_, foreignError := fixture.execute(testInstance, "", "show", records[0].ID, "--user", "auditor-2")
	require.ErrorIs(testInstance, foreignError, store.ErrNotFound)

	otherListOutput, otherListError := fixture.execute(testInstance, "", "list", "--user", "auditor-2")
	require.NoError(testInstance, otherListError)
	require.Contains(testInstance, otherListOutput, "no audits")
}

func TestCreateConfirmation(testInstance *testing.T) {
	testCases := []struct {
		name           string
		input          string
		expectError    bool
		expectedOutput string
		expectedAudits int
	}{
		{name: "confirmed", input: "yes\n", expectedOutput: "Created audit", expectedAudits: 1},
		{name: "declined", input: "n\n", expectedOutput: "No audit was created.", expectedAudits: 0},
		{name: "aborted", input: "", expectError: true, expectedAudits: 0},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			fixture := newAuditsFixture(subTest)
			output, createError := fixture.execute(subTest, testCase.input, "create", "--from-file", filepath.Join(fixture.directory, "draft.yaml"))
			if testCase.expectError {
				require.ErrorIs(subTest, createError, console.ErrAborted)
			} else {
				require.NoError(subTest, createError)
				require.Contains(subTest, output, testCase.expectedOutput)
			}
			records, listError := fixture.opened.Store.ListAudits(context.Background(), "")
			require.NoError(subTest, listError)
			require.Len(subTest, records, testCase.expectedAudits)
		})
	}
}

func TestCommandPreconditions(testInstance *testing.T) {
	testCases := []struct {
		name      string
		configure func(builder *audits.CommandGroupBuilder)
		arguments []string
	}{
		{
			name:      "missing_identity",
			configure: func(builder *audits.CommandGroupBuilder) { builder.IdentityProvider = nil },
			arguments: []string{"list"},
		},
		{
			name:      "missing_services",
			configure: func(builder *audits.CommandGroupBuilder) { builder.ServicesProvider = nil },
			arguments: []string{"list"},
		},
		{
			name:      "missing_draft_file",
			configure: func(*audits.CommandGroupBuilder) {},
			arguments: []string{"create", "--from-file", "/nonexistent/draft.yaml", "--yes"},
		},
		{
			name:      "unknown_audit",
			configure: func(*audits.CommandGroupBuilder) {},
			arguments: []string{"show", "missing-id"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			fixture := newAuditsFixture(subTest)
			testCase.configure(&fixture.builder)
			_, executionError := fixture.execute(subTest, "", testCase.arguments...)
			require.Error(subTest, executionError)
		})
	}
}
