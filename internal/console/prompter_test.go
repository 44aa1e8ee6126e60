package console_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/console"
)

func testOptions() []console.Option {
	return []console.Option{
		{Label: "Quality", Value: "quality"},
		{Label: "Environment", Value: "environment"},
		{Label: "Safety", Value: "safety"},
	}
}

func TestLinePrompterInput(testInstance *testing.T) {
	testCases := []struct {
		name     string
		input    string
		initial  string
		expected string
	}{
		{name: "answer", input: "  Plant A \n", expected: "Plant A"},
		{name: "blank_keeps_initial", input: "\n", initial: "HQ", expected: "HQ"},
		{name: "last_line_without_newline", input: "Warehouse", expected: "Warehouse"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			prompter := console.NewLinePrompter(strings.NewReader(testCase.input), nil)
			value, inputError := prompter.Input("Location", testCase.initial)
			require.NoError(subTest, inputError)
			require.Equal(subTest, testCase.expected, value)
		})
	}
}

func TestLinePrompterSelect(testInstance *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "by_number", input: "2\n", expected: "environment"},
		{name: "by_value", input: "safety\n", expected: "safety"},
		{name: "blank_keeps_initial", input: "\n", expected: "quality"},
		{name: "reasks_after_invalid", input: "9\nsafety\n", expected: "safety"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			output := &bytes.Buffer{}
			prompter := console.NewLinePrompter(strings.NewReader(testCase.input), output)
			value, selectError := prompter.Select("Category", testOptions(), "quality")
			require.NoError(subTest, selectError)
			require.Equal(subTest, testCase.expected, value)
			require.Contains(subTest, output.String(), "2) Environment")
		})
	}
}

func TestLinePrompterMultiSelect(testInstance *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "numbers_and_values", input: "1, safety\n", expected: []string{"quality", "safety"}},
		{name: "duplicates_collapse", input: "1,quality\n", expected: []string{"quality"}},
		{name: "blank_keeps_selection", input: "\n", expected: []string{"environment"}},
		{name: "dash_clears", input: "-\n", expected: []string{}},
		{name: "reasks_after_invalid", input: "1,7\n3\n", expected: []string{"safety"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			prompter := console.NewLinePrompter(strings.NewReader(testCase.input), nil)
			values, selectError := prompter.MultiSelect("Standards", testOptions(), []string{"environment"})
			require.NoError(subTest, selectError)
			require.Equal(subTest, testCase.expected, values)
		})
	}
}

func TestLinePrompterConfirm(testInstance *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "yes", input: "yes\n", expected: true},
		{name: "short_yes", input: "Y\n", expected: true},
		{name: "no", input: "n\n", expected: false},
		{name: "blank", input: "\n", expected: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			prompter := console.NewLinePrompter(strings.NewReader(testCase.input), nil)
			confirmed, confirmError := prompter.Confirm("Create this audit?")
			require.NoError(subTest, confirmError)
			require.Equal(subTest, testCase.expected, confirmed)
		})
	}
}

func TestLinePrompterAbortsWhenInputEnds(testInstance *testing.T) {
	prompter := console.NewLinePrompter(strings.NewReader(""), nil)

	_, inputError := prompter.Input("Title", "kept")
	require.ErrorIs(testInstance, inputError, console.ErrAborted)

	_, selectError := prompter.Select("Category", testOptions(), "")
	require.ErrorIs(testInstance, selectError, console.ErrAborted)
}
