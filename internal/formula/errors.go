package formula

import "fmt"

// ErrorType categorizes formula failures.
type ErrorType string

const (
	ErrorTypeCompilation ErrorType = "compilation"
	ErrorTypeExecution   ErrorType = "execution"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeResult      ErrorType = "result"
)

// FormulaError reports a preset whose formula could not produce a damage
// value.
type FormulaError struct {
	Type    ErrorType
	Preset  string
	Message string
	Cause   error
}

func (e *FormulaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("formula %s (%s): %s: %v", e.Preset, e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("formula %s (%s): %s", e.Preset, e.Type, e.Message)
}

func (e *FormulaError) Unwrap() error {
	return e.Cause
}

func newError(t ErrorType, preset, message string, cause error) *FormulaError {
	return &FormulaError{Type: t, Preset: preset, Message: message, Cause: cause}
}
