package plan

import "errors"

// Sentinel errors for the plan package
var (
	// ErrNoChecks indicates the plan has no checks defined
	ErrNoChecks = errors.New("plan must contain at least one check")

	// ErrEmptyRequest indicates a check is missing the required request field
	ErrEmptyRequest = errors.New("check request cannot be empty")

	// ErrConflictingExpect indicates a check sets both expect and expect_error
	ErrConflictingExpect = errors.New("check cannot set both expect and expect_error")

	// ErrUnknownErrorKind indicates an expect_error value that names no error kind
	ErrUnknownErrorKind = errors.New("unknown expect_error kind")

	// ErrInvalidFormat indicates the plan file is not valid YAML or JSON
	ErrInvalidFormat = errors.New("plan must be valid YAML or JSON")

	// ErrFileNotFound indicates the plan file does not exist
	ErrFileNotFound = errors.New("plan file not found")

	// ErrUnsupportedExt indicates an unsupported file extension
	ErrUnsupportedExt = errors.New("unsupported file extension (use .yaml, .yml, or .json)")

	// ErrExpectationFailed indicates a check produced an unexpected outcome
	ErrExpectationFailed = errors.New("expectation failed")
)
