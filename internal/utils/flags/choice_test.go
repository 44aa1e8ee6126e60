package flags_test

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/utils/flags"
)

func TestFormatChoiceUsage(testInstance *testing.T) {
	testCases := []struct {
		name           string
		defaultChoice  string
		choices        []string
		description    string
		expectedOutput string
	}{
		{
			name:           "default_first_choice",
			defaultChoice:  "memory",
			choices:        []string{"memory", "sqlite", "mysql"},
			description:    "Select the audit store.",
			expectedOutput: "`<MEMORY|sqlite|mysql>` Select the audit store.",
		},
		{
			name:           "default_later_choice",
			defaultChoice:  "console",
			choices:        []string{"structured", "console"},
			description:    "Pick a log format.",
			expectedOutput: "`<structured|CONSOLE>` Pick a log format.",
		},
		{
			name:           "empty_description",
			defaultChoice:  "sqlite",
			choices:        []string{"sqlite", "mysql"},
			expectedOutput: "`<SQLITE|mysql>`",
		},
		{
			name:           "duplicates_and_whitespace_ignored",
			defaultChoice:  "mysql",
			choices:        []string{" mysql ", "MySQL", "sqlite", ""},
			description:    "Choose.",
			expectedOutput: "`<MYSQL|sqlite>` Choose.",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			require.Equal(subTest, testCase.expectedOutput, flags.FormatChoiceUsage(testCase.defaultChoice, testCase.choices, testCase.description))
		})
	}
}

func TestAddChoiceFlag(testInstance *testing.T) {
	testCases := []struct {
		name          string
		arguments     []string
		expectedValue string
		expectError   bool
	}{
		{name: "default_kept", arguments: []string{}, expectedValue: "memory"},
		{name: "case_insensitive", arguments: []string{"--store-driver", "SQLite"}, expectedValue: "sqlite"},
		{name: "rejected_value", arguments: []string{"--store-driver", "postgres"}, expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			flagSet := pflag.NewFlagSet(testCase.name, pflag.ContinueOnError)
			var target string
			flags.AddChoiceFlag(flagSet, &target, "store-driver", "memory", []string{"memory", "sqlite", "mysql"}, "Select the audit store.")

			parseError := flagSet.Parse(testCase.arguments)
			if testCase.expectError {
				require.Error(subTest, parseError)
				return
			}
			require.NoError(subTest, parseError)
			require.Equal(subTest, testCase.expectedValue, target)
			require.Equal(subTest, "choice", flagSet.Lookup("store-driver").Value.Type())
		})
	}
}
