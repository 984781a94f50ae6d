package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedExtraction  = errors.New("extraction output is not a parseable invoice envelope")
	ErrAmbiguousQuestion    = errors.New("question could not be translated with sufficient confidence")
	ErrQueryTimeout         = errors.New("query exceeded execution timeout")
	ErrStoreUnavailable     = errors.New("record store unavailable")
	ErrRecordNotFound       = errors.New("invoice record not found")
	ErrImageNotRetained     = errors.New("source image was not retained")
	ErrUnsupportedImageType = errors.New("unsupported image type")
	ErrImageTooLarge        = errors.New("image exceeds maximum allowed size")
	ErrEmptyQuestion        = errors.New("question is empty")
)

// GuardErrorKind classifies why the query guard vetoed a statement.
type GuardErrorKind string

const (
	GuardDisallowedStatementKind GuardErrorKind = "disallowed_statement_kind"
	GuardMultiStatementRejected  GuardErrorKind = "multi_statement_rejected"
	GuardUnknownIdentifier       GuardErrorKind = "unknown_identifier"
	GuardDisallowedFunction      GuardErrorKind = "disallowed_function"
)

// GuardError is a deterministic pre-execution rejection. It is never retried
// and its Detail is kept for logs, not shown to end callers.
type GuardError struct {
	Kind   GuardErrorKind
	Detail string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("query guard: %s: %s", e.Kind, e.Detail)
}

// ExecErrorKind classifies store-native execution failures.
type ExecErrorKind string

const (
	ExecSchemaDrift  ExecErrorKind = "schema_drift"
	ExecTypeMismatch ExecErrorKind = "type_mismatch"
	ExecInternal     ExecErrorKind = "internal"
)

// ExecError wraps a store-native error with a classified kind and a safe
// message. The raw store error text never reaches the end caller.
type ExecError struct {
	Kind        ExecErrorKind
	SafeMessage string
	Err         error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("query execution: %s: %v", e.Kind, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
