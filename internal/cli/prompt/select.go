package prompt

import (
	"github.com/manifoldco/promptui"
)

// SelectOption represents an item in a selection list.
type SelectOption struct {
	Label       string
	Value       string
	Description string
}

// selectTemplates returns the standard templates for selection prompts.
func selectTemplates(withDetails bool) *promptui.SelectTemplates {
	t := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label | white }}",
		Selected: "* {{ .Label | green }}",
	}
	if withDetails {
		t.Details = `
{{ "Description:" | faint }}	{{ .Description }}`
	}
	return t
}

// Select prompts the user to select from a list of options, starting at
// the option whose value is defaultValue. Returns the selected value.
func Select(label string, options []SelectOption, defaultValue string) (string, error) {
	if !stdinIsTerminal() {
		return "", ErrNotInteractive
	}
	prompt := promptui.Select{
		Label:     label,
		Items:     options,
		Templates: selectTemplates(len(options) > 0 && options[0].Description != ""),
		Size:      10,
		CursorPos: indexOf(options, defaultValue),
	}

	i, _, err := prompt.Run()
	if err != nil {
		return "", wrapError(err)
	}

	return options[i].Value, nil
}

// SelectString prompts the user to select from a list of strings.
func SelectString(label string, items []string, defaultValue string) (string, error) {
	options := make([]SelectOption, len(items))
	for i, item := range items {
		options[i] = SelectOption{Label: item, Value: item}
	}
	return Select(label, options, defaultValue)
}

func indexOf(options []SelectOption, value string) int {
	for i, opt := range options {
		if opt.Value == value {
			return i
		}
	}
	return 0
}
