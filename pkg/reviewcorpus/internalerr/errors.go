package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrMissingColumn     = errors.New("required column missing")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrSchemaMismatch    = errors.New("schema mismatch")
	ErrMalformedSource   = errors.New("malformed source")
	ErrLedgerUnavailable = errors.New("ledger unavailable")
)
