package glimmer

import "errors"

// ErrCancelled is returned by query operations interrupted by their
// context, matching the Cancelled error kind (spec §7). Wrap it into an
// *Error with ErrKindCancelled at the call site that owns the ctx.
var ErrCancelled = errors.New("glimmer: cancelled")
