package program

import "errors"

// Sentinel errors for program document decoding
var (
	ErrMalformedDocument    = errors.New("malformed program document")
	ErrSchemaViolation      = errors.New("program document violates schema")
	ErrUnknownStatementKind = errors.New("unknown statement kind")
	ErrUnknownExprType      = errors.New("unknown expression type")
	ErrMissingExpression    = errors.New("missing expression")
)
