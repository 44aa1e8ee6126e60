package backend_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store/backend"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store/memory"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store/sqlstore"
)

func TestOpenSelectsBackend(testInstance *testing.T) {
	testCases := []struct {
		name          string
		configuration func(directory string) backend.Configuration
		assert        func(subTest *testing.T, opened any)
		expectError   bool
	}{
		{
			name: "default_memory",
			configuration: func(string) backend.Configuration {
				return backend.Configuration{}
			},
			assert: func(subTest *testing.T, opened any) {
				require.IsType(subTest, &memory.Store{}, opened)
			},
		},
		{
			name: "sqlite_file",
			configuration: func(directory string) backend.Configuration {
				return backend.Configuration{Driver: " SQLite ", DSN: filepath.Join(directory, "audits.db")}
			},
			assert: func(subTest *testing.T, opened any) {
				require.IsType(subTest, &sqlstore.Store{}, opened)
			},
		},
		{
			name: "unknown_driver",
			configuration: func(string) backend.Configuration {
				return backend.Configuration{Driver: "oracle"}
			},
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			opened, openError := backend.Open(context.Background(), testCase.configuration(subTest.TempDir()), nil)
			if testCase.expectError {
				require.Error(subTest, openError)
				return
			}
			require.NoError(subTest, openError)
			testCase.assert(subTest, opened)
			require.NoError(subTest, opened.Close())
		})
	}
}
