package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("not found")
	ErrConflict           = fmt.Errorf("already exists")
	ErrEventChannel       = fmt.Errorf("event channel closed")
	ErrExecutionFailed    = fmt.Errorf("execution failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrNothingSelected = fmt.Errorf("nothing selected")
	ErrCancelled       = fmt.Errorf("cancelled")
)
