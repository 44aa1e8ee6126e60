package services_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/draft"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/notify"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/selection"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/services"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store/backend"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/wizard"
)

const (
	testSeedFileNameConstant = "seed.yaml"
	testUserIDConstant       = "auditor-1"
	testSeedDocumentConstant = `
standards:
  - id: iso-9001
    code: ISO 9001
    name: Quality management systems
    version: "2015"
    items:
      - id: q4.1
        item_number: "4.1"
        title: Understanding the organization
        field_type: question
      - id: q4.2
        item_number: "4.2"
        title: Interested parties
        field_type: question
categories:
  - id: quality
    title: Quality
templates:
  - id: internal
    name: Internal audit
    category_id: quality
users:
  - id: auditor-1
    organization_id: org-1
`
)

func writeSeed(testInstance *testing.T, content string) string {
	testInstance.Helper()
	seedPath := filepath.Join(testInstance.TempDir(), testSeedFileNameConstant)
	require.NoError(testInstance, os.WriteFile(seedPath, []byte(content), 0o600))
	return seedPath
}

func TestOpenImportsSeedAndCommitsThroughController(testInstance *testing.T) {
	testCases := []struct {
		name          string
		configuration func(seedPath string, directory string) services.Configuration
	}{
		{
			name: "memory",
			configuration: func(seedPath string, directory string) services.Configuration {
				return services.Configuration{SeedFile: seedPath}
			},
		},
		{
			name: "sqlite_with_compensation",
			configuration: func(seedPath string, directory string) services.Configuration {
				return services.Configuration{
					Store:               backend.Configuration{Driver: "sqlite", DSN: filepath.Join(directory, "audits.db")},
					SeedFile:            seedPath,
					CompensateOnFailure: true,
				}
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			seedPath := writeSeed(subTest, testSeedDocumentConstant)
			recorder := &notify.Recorder{}
			opened, openError := services.Open(context.Background(), testCase.configuration(seedPath, subTest.TempDir()), services.Dependencies{
				Logger:   zap.NewNop(),
				Notifier: recorder,
			})
			require.NoError(subTest, openError)
			subTest.Cleanup(func() {
				require.NoError(subTest, opened.Close())
			})

			executionContext := store.WithActingUserID(context.Background(), testUserIDConstant)
			controller, controllerError := opened.NewController(executionContext)
			require.NoError(subTest, controllerError)
			require.Len(subTest, controller.AvailableTemplates(), 1)

			require.NoError(subTest, controller.Load(draft.Audit{
				Title:       "Quality audit",
				CategoryID:  "quality",
				TemplateID:  "internal",
				StandardIDs: []string{"iso-9001"},
				Sessions:    []draft.Session{{Name: "Opening", ItemIDs: selection.New("q4.2")}},
			}))
			for controller.Step() != wizard.StepReview {
				require.NoError(subTest, controller.NextStep())
			}

			result, submitError := controller.Submit(executionContext)
			require.NoError(subTest, submitError)
			require.Equal(subTest, 1, result.TotalItems)
			require.Len(subTest, recorder.Created, 1)

			listed, listError := opened.Store.ListAudits(context.Background(), "org-1")
			require.NoError(subTest, listError)
			require.Len(subTest, listed, 1)
		})
	}
}

func TestOpenFailures(testInstance *testing.T) {
	testCases := []struct {
		name          string
		configuration func(testInstance *testing.T) services.Configuration
	}{
		{
			name: "unknown_driver",
			configuration: func(*testing.T) services.Configuration {
				return services.Configuration{Store: backend.Configuration{Driver: "oracle"}}
			},
		},
		{
			name: "missing_seed",
			configuration: func(testInstance *testing.T) services.Configuration {
				return services.Configuration{SeedFile: filepath.Join(testInstance.TempDir(), "absent.yaml")}
			},
		},
		{
			name: "invalid_seed",
			configuration: func(testInstance *testing.T) services.Configuration {
				return services.Configuration{SeedFile: writeSeed(testInstance, "users:\n  - id: u1\n")}
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			opened, openError := services.Open(context.Background(), testCase.configuration(subTest), services.Dependencies{})
			require.Error(subTest, openError)
			require.Nil(subTest, opened)
		})
	}
}

func TestCloseOnNilServices(testInstance *testing.T) {
	var opened *services.Services
	require.NoError(testInstance, opened.Close())
}
