package ornprog

import "github.com/fmhr12/ORN-Prognosis/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation       = domain.ErrValidation
	ErrUnknownTimePoint = domain.ErrUnknownTimePoint
	ErrUnknownCause     = domain.ErrUnknownCause
	ErrCurveNotFound    = domain.ErrCurveNotFound
	ErrSchemaMismatch   = domain.ErrSchemaMismatch
	ErrModelContract    = domain.ErrModelContract
)
