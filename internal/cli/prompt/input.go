package prompt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/manifoldco/promptui"

	"github.com/marmos91/sigscan/internal/bytesize"
)

// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
var ErrAborted = errors.New("aborted")

// IsAborted returns true if the error indicates the user aborted (Ctrl+C).
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) || errors.Is(err, ErrAborted)
}

// wrapError converts promptui interrupt/abort errors to ErrAborted for consistent handling.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsAborted(err) {
		return ErrAborted
	}
	return err
}

func run(label, defaultValue string, validate promptui.ValidateFunc) (string, error) {
	if !stdinIsTerminal() {
		return "", ErrNotInteractive
	}
	prompt := promptui.Prompt{
		Label:    label,
		Default:  defaultValue,
		Validate: validate,
	}

	result, err := prompt.Run()
	return result, wrapError(err)
}

// Input prompts for text input.
func Input(label string, defaultValue string) (string, error) {
	return run(label, defaultValue, nil)
}

// InputRequired prompts for non-empty text input.
func InputRequired(label string, defaultValue string) (string, error) {
	return run(label, defaultValue, ValidateRequired)
}

// InputInt prompts for an integer of at least minValue.
func InputInt(label string, defaultValue, minValue int) (int, error) {
	result, err := run(label, strconv.Itoa(defaultValue), ValidateIntMin(minValue))
	if err != nil {
		return 0, err
	}
	value, _ := strconv.Atoi(result) // Already validated
	return value, nil
}

// InputPort prompts for a network port (1-65535).
func InputPort(label string, defaultValue int) (int, error) {
	result, err := run(label, strconv.Itoa(defaultValue), ValidatePort)
	if err != nil {
		return 0, err
	}
	value, _ := strconv.Atoi(result) // Already validated
	return value, nil
}

// InputByteSize prompts for a size such as "4KiB".
func InputByteSize(label string, defaultValue bytesize.ByteSize) (bytesize.ByteSize, error) {
	result, err := run(label, defaultValue.String(), ValidateByteSize)
	if err != nil {
		return 0, err
	}
	return bytesize.Parse(result)
}

// InputDuration prompts for a Go duration such as "30s". "0" is accepted.
func InputDuration(label string, defaultValue time.Duration) (time.Duration, error) {
	result, err := run(label, defaultValue.String(), ValidateDuration)
	if err != nil {
		return 0, err
	}
	return time.ParseDuration(result)
}

// ValidateRequired rejects empty input.
func ValidateRequired(input string) error {
	if input == "" {
		return errors.New("value is required")
	}
	return nil
}

// ValidateIntMin returns a validator accepting integers >= minValue.
func ValidateIntMin(minValue int) promptui.ValidateFunc {
	return func(input string) error {
		n, err := strconv.Atoi(input)
		if err != nil {
			return errors.New("must be a valid integer")
		}
		if n < minValue {
			return fmt.Errorf("must be at least %d", minValue)
		}
		return nil
	}
}

// ValidatePort accepts 1-65535.
func ValidatePort(input string) error {
	port, err := strconv.Atoi(input)
	if err != nil {
		return errors.New("must be a valid integer")
	}
	if port < 1 || port > 65535 {
		return errors.New("must be a valid port (1-65535)")
	}
	return nil
}

// ValidateByteSize accepts positive sizes such as "4096" or "4KiB".
func ValidateByteSize(input string) error {
	size, err := bytesize.Parse(input)
	if err != nil {
		return err
	}
	if size == 0 {
		return errors.New("must be greater than zero")
	}
	return nil
}

// ValidateDuration accepts non-negative Go durations.
func ValidateDuration(input string) error {
	d, err := time.ParseDuration(input)
	if err != nil {
		return errors.New(`must be a duration such as "30s" or "1m"`)
	}
	if d < 0 {
		return errors.New("must not be negative")
	}
	return nil
}
