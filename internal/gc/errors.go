package gc

import "errors"

// ErrDoubleFree is raised (wrapped into an internal_error exception_map
// by internal/errors) when SetDebug(true) is active and Track observes a
// second allocation at an identity the side table still has poisoned
// from a prior Sweep (spec §4.R.2's use-after-free detection).
var ErrDoubleFree = errors.New("gc: double free detected on poisoned allocation")
