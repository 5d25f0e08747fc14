package registry

import "github.com/jward/glimmer/internal/semver"

// Release is one published version of a package together with the
// constraints it declares on its own dependencies.
type Release struct {
	Version      semver.Version
	Dependencies map[string]semver.Constraint // PackageName -> Constraint
}

// Cache is the package cache contract from spec §4.2: get(name) returns
// the list of published releases for a package. Implementations are pure
// functions of on-disk metadata once loaded.
type Cache interface {
	// Get returns all published releases of name, in no particular order.
	// Returns ErrUnknownPackage if name has never been seen.
	Get(name string) ([]Release, error)
}
