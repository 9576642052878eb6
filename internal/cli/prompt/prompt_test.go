package prompt

import (
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name     string
		validate func(string) error
		input    string
		ok       bool
	}{
		{"PortValid", ValidatePort, "6000", true},
		{"PortZero", ValidatePort, "0", false},
		{"PortTooLarge", ValidatePort, "70000", false},
		{"PortNotNumber", ValidatePort, "http", false},
		{"IntMin", ValidateIntMin(1), "4", true},
		{"IntBelowMin", ValidateIntMin(1), "0", false},
		{"IntGarbage", ValidateIntMin(0), "four", false},
		{"ByteSizeUnits", ValidateByteSize, "4KiB", true},
		{"ByteSizePlain", ValidateByteSize, "1024", true},
		{"ByteSizeZero", ValidateByteSize, "0", false},
		{"ByteSizeGarbage", ValidateByteSize, "big", false},
		{"DurationValid", ValidateDuration, "30s", true},
		{"DurationZero", ValidateDuration, "0s", true},
		{"DurationNegative", ValidateDuration, "-1s", false},
		{"DurationGarbage", ValidateDuration, "soon", false},
		{"RequiredValue", ValidateRequired, "./quarantine", true},
		{"RequiredEmpty", ValidateRequired, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validate(tt.input)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestParseYes(t *testing.T) {
	assert.True(t, parseYes("y", false))
	assert.True(t, parseYes(" YES ", false))
	assert.False(t, parseYes("n", true))
	assert.True(t, parseYes("", true))
	assert.False(t, parseYes("", false))
}

func TestIsAborted(t *testing.T) {
	assert.True(t, IsAborted(promptui.ErrInterrupt))
	assert.True(t, IsAborted(ErrAborted))
	assert.False(t, IsAborted(nil))
	assert.Equal(t, ErrAborted, wrapError(promptui.ErrInterrupt))
	assert.NoError(t, wrapError(nil))
}

func TestIndexOf(t *testing.T) {
	opts := []SelectOption{{Value: "graceful"}, {Value: "force"}}
	assert.Equal(t, 1, indexOf(opts, "force"))
	assert.Equal(t, 0, indexOf(opts, "missing"))
}

func TestConfirmWithForce(t *testing.T) {
	ok, err := ConfirmWithForce("Overwrite?", true)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestConfirm_NotInteractive(t *testing.T) {
	saved := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }
	t.Cleanup(func() { stdinIsTerminal = saved })

	ok, err := ConfirmWithForce("Overwrite?", false)
	assert.ErrorIs(t, err, ErrNotInteractive)
	assert.False(t, ok)
}
