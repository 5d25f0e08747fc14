// Package depsolve implements the dependency solver (C3): given a root
// dependency map, picks one version per transitively-reachable package such
// that every declared constraint is simultaneously satisfied (spec §4.3).
package depsolve

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jward/glimmer/internal/registry"
	"github.com/jward/glimmer/internal/semver"
)

// ErrUnsolvable is returned when no assignment of versions satisfies every
// reachable constraint.
var ErrUnsolvable = errors.New("dependency solver: unsolvable")

// Solution maps each transitively-reachable package to its chosen version.
type Solution map[string]semver.Version

// Solve runs the backtracking search from spec §4.3 against rootDeps,
// consulting cache for each package's published releases. Returns
// ErrUnsolvable if no assignment satisfies every constraint, or an error
// wrapping registry.ErrUnknownPackage if a reachable dependency is absent
// from the cache entirely.
func Solve(cache registry.Cache, rootDeps map[string]semver.Constraint) (Solution, error) {
	pending := make(map[string]semver.Constraint, len(rootDeps))
	for k, v := range rootDeps {
		pending[k] = v
	}
	partial, err := solve(cache, pending, map[string]semver.Version{})
	if err != nil {
		return nil, err
	}
	if partial == nil {
		return nil, ErrUnsolvable
	}
	return Solution(partial), nil
}

// solve is the linear-recursive backtracking search. A nil, nil return
// means "no solution found along this branch" (the caller should try the
// next candidate or itself return nil, nil); a non-nil error is a hard
// failure (UnknownPackage) that aborts the whole search immediately.
func solve(cache registry.Cache, pending map[string]semver.Constraint, partial map[string]semver.Version) (map[string]semver.Version, error) {
	if len(pending) == 0 {
		return partial, nil
	}

	p := smallestPendingName(pending)
	constraint := pending[p]

	remaining := make(map[string]semver.Constraint, len(pending)-1)
	for k, v := range pending {
		if k != p {
			remaining[k] = v
		}
	}

	releases, err := cache.Get(p)
	if err != nil {
		return nil, fmt.Errorf("depsolve: %w", err)
	}

	candidates := make([]registry.Release, 0, len(releases))
	for _, r := range releases {
		if semver.Satisfies(r.Version, constraint) {
			candidates = append(candidates, r)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return semver.Compare(candidates[i].Version, candidates[j].Version) > 0 // descending: newest first
	})

	if fixed, ok := partial[p]; ok {
		filtered := candidates[:0]
		for _, c := range candidates {
			if semver.Compare(c.Version, fixed) == 0 {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
	}

	for _, candidate := range candidates {
		merged, ok := combine(remaining, candidate.Dependencies)
		if !ok {
			continue
		}
		newPartial := make(map[string]semver.Version, len(partial)+1)
		for k, v := range partial {
			newPartial[k] = v
		}
		newPartial[p] = candidate.Version

		result, err := solve(cache, merged, newPartial)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
	}

	return nil, nil
}

// smallestPendingName picks the lexicographically smallest package name
// still pending a decision, matching the deterministic pick order §4.3
// specifies.
func smallestPendingName(pending map[string]semver.Constraint) string {
	names := make([]string, 0, len(pending))
	for name := range pending {
		names = append(names, name)
	}
	sort.Strings(names)
	return names[0]
}

// combine unions remaining with deps, intersecting constraints where both
// maps declare the same package. Returns ok=false if any intersection is
// empty.
func combine(remaining, deps map[string]semver.Constraint) (map[string]semver.Constraint, bool) {
	merged := make(map[string]semver.Constraint, len(remaining)+len(deps))
	for k, v := range remaining {
		merged[k] = v
	}
	for name, c := range deps {
		if existing, ok := merged[name]; ok {
			intersected, ok := semver.Intersect(existing, c)
			if !ok {
				return nil, false
			}
			merged[name] = intersected
		} else {
			merged[name] = c
		}
	}
	return merged, true
}
