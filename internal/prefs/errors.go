package prefs

import "errors"

// Errors raised while turning a delta into commands. None of them is
// transient: callers abort the run and report.
var (
	// ErrTypeMismatch means a value's kind does not fit the requested write type.
	ErrTypeMismatch = errors.New("prefs: type mismatch")
	// ErrSerialization means a fragment did not contain exactly one element.
	ErrSerialization = errors.New("prefs: serialization error")
	// ErrNotImplementedKind is returned for data and date values.
	ErrNotImplementedKind = errors.New("prefs: kind not implemented")
	// ErrLookupFailure means no registered kind matches a native value.
	ErrLookupFailure = errors.New("prefs: no kind matches value")
)
