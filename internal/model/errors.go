package model

import "errors"

// ErrProjection marks a Projection error: the declared state violates a
// local invariant that is checked at projection time (e.g. an approval
// count too large to fit a uint8). These are programmer errors and abort
// immediately; they are never retried.
var ErrProjection = errors.New("projection error")

// ErrConsistency marks a Consistency error: a reference in the declaration
// cannot be resolved against the Provider (e.g. a member id with no known
// username). The core fails loud; it never silently skips an unresolved
// reference (invariant I1).
var ErrConsistency = errors.New("consistency error")
