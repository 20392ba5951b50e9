package service

import "errors"

// ErrDependencyUnavailable is surfaced to callers when every fallback path
// of a data operation is exhausted, including fast-rejects from an open
// circuit. It is the only user-visible failure the accessor produces.
var ErrDependencyUnavailable = errors.New("dependency unavailable")
