package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gitm/javango/internal/datasource"
	"github.com/gitm/javango/internal/model"
	"github.com/gitm/javango/internal/record"
)

// Error codes for CLI output.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeConfig        = "E002" // Config or logger setup failed
	ErrCodeModels        = "E003" // Model declarations failed to load
	ErrCodeConnect       = "E004" // Database unreachable
	ErrCodeUnknownModel  = "E005" // No model with that name
	ErrCodeReadFailed    = "E006" // Input file or stdin unreadable
	ErrCodeMigrateFailed = "E007" // Migration run failed

	ErrCodeInvalidField = "E101" // Filter or record names undeclared fields
	ErrCodeMalformed    = "E102" // Record text is not a JSON object
	ErrCodeBadArgument  = "E103" // Filter argument is not field=value

	ErrCodeCreateFailed   = "E201" // Backend rejected the insert
	ErrCodeRetrieveFailed = "E202" // Backend rejected the query
	ErrCodeImportFailed   = "E203" // Some imported records were not created
)

// malformedMessage is reported for record text that does not decode.
const malformedMessage = "Your record is malformed. Ensure your JSON is correctly formatted."

// outputError writes the error and returns an ExitError carrying the code.
func outputError(f *OutputFormatter, exitCode int, code, message string, details interface{}) error {
	_ = f.Error(code, message, details)
	return NewExitError(exitCode, fmt.Sprintf("%s: %s", code, message))
}

// outputOperationError maps an error from a model operation onto the
// code, message and exit code reported to the caller.
func outputOperationError(f *OutputFormatter, err error) error {
	var fieldErr *model.InvalidFieldError
	var parseErr *record.ParseError
	var createErr *datasource.CreateError
	var retrieveErr *datasource.RetrievalError

	switch {
	case errors.As(err, &fieldErr):
		msg := fmt.Sprintf("The '%s' model does not have %s field(s).",
			fieldErr.Model, strings.Join(fieldErr.Fields, ", "))
		return outputError(f, ExitCommandError, ErrCodeInvalidField, msg, fieldErr.Fields)
	case errors.As(err, &parseErr):
		return outputError(f, ExitCommandError, ErrCodeMalformed, malformedMessage, parseErr.Error())
	case errors.As(err, &createErr):
		msg := fmt.Sprintf(`backend returned an error: "%s".`, createErr.Diagnostic())
		return outputError(f, ExitFailure, ErrCodeCreateFailed, msg, nil)
	case errors.As(err, &retrieveErr):
		msg := fmt.Sprintf(`backend returned an error: "%v".`, retrieveErr.Err)
		return outputError(f, ExitFailure, ErrCodeRetrieveFailed, msg, nil)
	default:
		return outputError(f, ExitFailure, ErrCodeGeneric, err.Error(), nil)
	}
}

// outputSetupError reports failures that happen before a model operation
// runs. They are all command errors.
func outputSetupError(f *OutputFormatter, err error) error {
	var unknown *unknownModelError

	switch {
	case errors.As(err, &unknown):
		return outputError(f, ExitCommandError, ErrCodeUnknownModel, unknown.Error(), unknown.Known)
	case errors.Is(err, errModels):
		return outputError(f, ExitCommandError, ErrCodeModels, err.Error(), nil)
	case errors.Is(err, errConnect):
		return outputError(f, ExitCommandError, ErrCodeConnect, err.Error(), nil)
	default:
		return outputError(f, ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
}

// unknownModelError is returned when no loaded declaration has the name.
type unknownModelError struct {
	Name  string
	Known []string
}

func (e *unknownModelError) Error() string {
	return fmt.Sprintf("unknown model %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

var (
	errModels  = errors.New("failed to load models")
	errConnect = errors.New("failed to connect")
)
