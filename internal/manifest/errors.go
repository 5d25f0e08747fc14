package manifest

import "errors"

// ErrProjectMisconfigured is wrapped into every Load/Parse failure, matching
// the ProjectMisconfigured error kind from spec §7.
var ErrProjectMisconfigured = errors.New("project misconfigured")
