package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
)

const (
	inputPromptTemplateConstant     = "%s [%s]: "
	plainPromptTemplateConstant     = "%s: "
	optionLineTemplateConstant      = "  %d) %s\n"
	titleLineTemplateConstant       = "%s\n"
	confirmPromptTemplateConstant   = "%s [y/N]: "
	invalidChoiceTemplateConstant   = "invalid choice %q\n"
	multiSelectSeparatorConstant    = ","
	multiSelectClearTokenConstant   = "-"
	affirmativeShortConstant        = "y"
	affirmativeLongConstant         = "yes"
	abortedMessageConstant          = "prompt aborted"
	confirmAffirmativeLabelConstant = "Yes"
	confirmNegativeLabelConstant    = "No"
)

// ErrAborted reports that the user abandoned a prompt or input ran out.
var ErrAborted = errors.New(abortedMessageConstant)

// Option is one choice of a Select or MultiSelect prompt.
type Option struct {
	Label string
	Value string
}

// Prompter asks the user for values.
type Prompter interface {
	Input(title string, initial string) (string, error)
	Select(title string, options []Option, initial string) (string, error)
	MultiSelect(title string, options []Option, selected []string) ([]string, error)
	Confirm(title string) (bool, error)
}

// HuhPrompter renders each prompt as a single-field huh form.
type HuhPrompter struct {
	theme *huh.Theme
}

// NewHuhPrompter constructs a HuhPrompter with the Dracula theme.
func NewHuhPrompter() *HuhPrompter {
	return &HuhPrompter{theme: huh.ThemeDracula()}
}

// Input asks for free text.
func (prompter *HuhPrompter) Input(title string, initial string) (string, error) {
	value := initial
	runError := prompter.run(huh.NewInput().Title(title).Value(&value))
	return strings.TrimSpace(value), runError
}

// Select asks for exactly one option.
func (prompter *HuhPrompter) Select(title string, options []Option, initial string) (string, error) {
	value := initial
	runError := prompter.run(huh.NewSelect[string]().Title(title).Options(huhOptions(options)...).Value(&value))
	return value, runError
}

// MultiSelect asks for any subset of options.
func (prompter *HuhPrompter) MultiSelect(title string, options []Option, selected []string) ([]string, error) {
	values := append([]string(nil), selected...)
	runError := prompter.run(huh.NewMultiSelect[string]().Title(title).Options(huhOptions(options)...).Value(&values))
	return values, runError
}

// Confirm asks a yes or no question.
func (prompter *HuhPrompter) Confirm(title string) (bool, error) {
	confirmed := false
	runError := prompter.run(huh.NewConfirm().Title(title).Affirmative(confirmAffirmativeLabelConstant).Negative(confirmNegativeLabelConstant).Value(&confirmed))
	return confirmed, runError
}

func (prompter *HuhPrompter) run(field huh.Field) error {
	runError := huh.NewForm(huh.NewGroup(field)).WithTheme(prompter.theme).Run()
	if errors.Is(runError, huh.ErrUserAborted) {
		return ErrAborted
	}
	return runError
}

func huhOptions(options []Option) []huh.Option[string] {
	converted := make([]huh.Option[string], 0, len(options))
	for _, option := range options {
		converted = append(converted, huh.NewOption(option.Label, option.Value))
	}
	return converted
}

// LinePrompter reads one answer per line from an io.Reader.
// An empty answer keeps the initial value; end of input aborts.
type LinePrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewLinePrompter constructs a prompter from the provided reader and writer.
func NewLinePrompter(input io.Reader, output io.Writer) *LinePrompter {
	if output == nil {
		output = io.Discard
	}
	return &LinePrompter{reader: bufio.NewReader(input), writer: output}
}

// Input writes the prompt and returns the trimmed answer.
func (prompter *LinePrompter) Input(title string, initial string) (string, error) {
	if len(initial) > 0 {
		fmt.Fprintf(prompter.writer, inputPromptTemplateConstant, title, initial)
	} else {
		fmt.Fprintf(prompter.writer, plainPromptTemplateConstant, title)
	}
	answer, readError := prompter.readLine()
	if readError != nil {
		return initial, readError
	}
	if len(answer) == 0 {
		return initial, nil
	}
	return answer, nil
}

// Select accepts an option number or value, re-asking on unknown answers.
func (prompter *LinePrompter) Select(title string, options []Option, initial string) (string, error) {
	for {
		prompter.writeOptions(title, options)
		answer, readError := prompter.readLine()
		if readError != nil {
			return initial, readError
		}
		if len(answer) == 0 {
			return initial, nil
		}
		if value, found := resolveOption(options, answer); found {
			return value, nil
		}
		fmt.Fprintf(prompter.writer, invalidChoiceTemplateConstant, answer)
	}
}

// MultiSelect accepts a comma separated list of option numbers or values. A lone "-" clears the selection.
func (prompter *LinePrompter) MultiSelect(title string, options []Option, selected []string) ([]string, error) {
	for {
		prompter.writeOptions(title, options)
		answer, readError := prompter.readLine()
		if readError != nil {
			return selected, readError
		}
		if len(answer) == 0 {
			return selected, nil
		}
		if answer == multiSelectClearTokenConstant {
			return []string{}, nil
		}
		values, valid := resolveOptions(options, answer)
		if valid {
			return values, nil
		}
		fmt.Fprintf(prompter.writer, invalidChoiceTemplateConstant, answer)
	}
}

// Confirm writes the prompt and interprets affirmative responses (y/yes).
func (prompter *LinePrompter) Confirm(title string) (bool, error) {
	fmt.Fprintf(prompter.writer, confirmPromptTemplateConstant, title)
	answer, readError := prompter.readLine()
	if readError != nil {
		return false, readError
	}
	switch strings.ToLower(answer) {
	case affirmativeShortConstant, affirmativeLongConstant:
		return true, nil
	default:
		return false, nil
	}
}

func (prompter *LinePrompter) writeOptions(title string, options []Option) {
	fmt.Fprintf(prompter.writer, titleLineTemplateConstant, title)
	for index, option := range options {
		fmt.Fprintf(prompter.writer, optionLineTemplateConstant, index+1, option.Label)
	}
}

func (prompter *LinePrompter) readLine() (string, error) {
	line, readError := prompter.reader.ReadString('\n')
	if readError != nil {
		if errors.Is(readError, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(readError, io.EOF) {
			return "", ErrAborted
		}
		return "", readError
	}
	return strings.TrimSpace(line), nil
}

func resolveOption(options []Option, answer string) (string, bool) {
	if number, parseError := strconv.Atoi(answer); parseError == nil && number >= 1 && number <= len(options) {
		return options[number-1].Value, true
	}
	for _, option := range options {
		if option.Value == answer {
			return option.Value, true
		}
	}
	return "", false
}

func resolveOptions(options []Option, answer string) ([]string, bool) {
	values := []string{}
	seen := make(map[string]struct{})
	for _, token := range strings.Split(answer, multiSelectSeparatorConstant) {
		trimmedToken := strings.TrimSpace(token)
		if len(trimmedToken) == 0 {
			continue
		}
		value, found := resolveOption(options, trimmedToken)
		if !found {
			return nil, false
		}
		if _, duplicate := seen[value]; duplicate {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	return values, true
}
