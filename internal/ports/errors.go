package ports

import (
	"errors"
	"fmt"
)

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Import Errors
	ErrMalformedInput      = errors.New("malformed input file")
	ErrHeaderInvalid       = errors.New("required columns missing")
	ErrValidationFailed    = errors.New("csv validation failed")
	ErrConcurrencyRejected = errors.New("import request rejected")
	ErrImportInProgress    = fmt.Errorf("%w: CSV upload already in progress", ErrConcurrencyRejected)
	ErrDuplicateSubmission = fmt.Errorf("%w: this file was already processed", ErrConcurrencyRejected)

	// Database Specific Errors
	ErrConstraintViolation = errors.New("database constraint violated")
	ErrDBConnection        = errors.New("database connection error")
	ErrQueryFailed         = errors.New("database query failed")
	ErrUpdateFailed        = errors.New("database update failed")
)
