package patterngen

import "fmt"

// PatternError is satisfied by every error this module returns that also
// carries one of the historical numeric codes from the original
// generator (spec section 6): callers that only understand those codes
// can still branch on Code(), while idiomatic callers use errors.Is.
type PatternError interface {
	error
	Code() int
}

type patternError struct {
	code int
	msg  string
	base error
}

func (e *patternError) Error() string { return e.msg }
func (e *patternError) Code() int     { return e.code }
func (e *patternError) Unwrap() error { return e.base }

var (
	// ErrWrongFootType is returned when an online edit targets an
	// interval that is not double support; both orchestrators' ChangeFoot
	// also return it for a step index outside the queued steps.
	ErrWrongFootType PatternError = &patternError{code: -1, msg: "patterngen: edited interval is not a double support interval"}

	// ErrTooLateForModification is returned when an online edit is
	// requested after the editable window for the targeted interval has
	// closed.
	ErrTooLateForModification PatternError = &patternError{code: -2, msg: "patterngen: too late to modify this footstep"}

	// ErrSingularSystem signals that the analytical linear system's LU
	// factorization failed (Z is singular or ill-conditioned for the
	// requested interval/degree configuration).
	ErrSingularSystem PatternError = &patternError{code: -3, msg: "patterngen: analytical linear system is singular"}

	// ErrInfeasibleQP mirrors the historical QLD/QPAS ifail != 0
	// convention: the per-tick quadratic program has no feasible point.
	ErrInfeasibleQP PatternError = &patternError{code: -4, msg: "patterngen: quadratic program infeasible"}

	// ErrMissingFootDimensions signals that initialization was attempted
	// without the foot geometry or support model the generator needs.
	ErrMissingFootDimensions PatternError = &patternError{code: -5, msg: "patterngen: missing foot dimensions or support model"}
)

// CodeOf extracts the historical numeric error code from err, or 0 if err
// is nil, and -128 if err does not carry one.
func CodeOf(err error) int {
	if err == nil {
		return 0
	}
	if pe, ok := err.(PatternError); ok {
		return pe.Code()
	}
	return -128
}

// Wrapf adds caller-specific detail (which step index, which timestamp)
// to one of the sentinel PatternErrors above while preserving its Code(),
// so a caller that branches on Code() still sees the same historical
// numeric code even though the message now names the specific offender.
func Wrapf(base PatternError, format string, args ...interface{}) PatternError {
	return &patternError{code: base.Code(), msg: fmt.Sprintf("%s: %s", base.Error(), fmt.Sprintf(format, args...)), base: base}
}
