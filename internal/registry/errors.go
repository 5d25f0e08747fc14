package registry

import "errors"

// ErrUnknownPackage is wrapped into Cache.Get failures for packages the
// cache has never seen, matching the UnknownPackage error kind (spec §7).
var ErrUnknownPackage = errors.New("unknown package")
