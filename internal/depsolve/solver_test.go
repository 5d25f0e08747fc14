package depsolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/glimmer/internal/manifest"
	"github.com/jward/glimmer/internal/registry"
	"github.com/jward/glimmer/internal/semver"
)

// fakeCache is an in-memory registry.Cache for solver tests.
type fakeCache struct {
	releases map[string][]registry.Release
}

func newFakeCache() *fakeCache {
	return &fakeCache{releases: map[string][]registry.Release{}}
}

func (f *fakeCache) add(name, version string, deps map[string]string) {
	depConstraints := map[string]semver.Constraint{}
	for depName, raw := range deps {
		c, err := manifest.ParseConstraint(raw)
		if err != nil {
			panic(err)
		}
		depConstraints[depName] = c
	}
	f.releases[name] = append(f.releases[name], registry.Release{
		Version:      semver.MustParse(version),
		Dependencies: depConstraints,
	})
}

func (f *fakeCache) Get(name string) ([]registry.Release, error) {
	rs, ok := f.releases[name]
	if !ok {
		return nil, registry.ErrUnknownPackage
	}
	return rs, nil
}

func rootDeps(t *testing.T, m map[string]string) map[string]semver.Constraint {
	t.Helper()
	out := map[string]semver.Constraint{}
	for name, raw := range m {
		c, err := manifest.ParseConstraint(raw)
		require.NoError(t, err)
		out[name] = c
	}
	return out
}

// Scenario 5 from spec §8: root needs P: 1.0.0<=v<2.0.0; P@1.5.0 needs
// Q: 1.0.0<=v<2.0.0, P@1.4.0 needs Q: 2.0.0<=v<3.0.0; Q@1.9.0, Q@2.1.0 exist.
// Expected: {P: 1.5.0, Q: 1.9.0}.
func TestSolve_SpecScenario5(t *testing.T) {
	cache := newFakeCache()
	cache.add("P", "1.5.0", map[string]string{"Q": "1.0.0 <= v < 2.0.0"})
	cache.add("P", "1.4.0", map[string]string{"Q": "2.0.0 <= v < 3.0.0"})
	cache.add("Q", "1.9.0", nil)
	cache.add("Q", "2.1.0", nil)

	sol, err := Solve(cache, rootDeps(t, map[string]string{"P": "1.0.0 <= v < 2.0.0"}))
	require.NoError(t, err)
	assert.Equal(t, semver.MustParse("1.5.0"), sol["P"])
	assert.Equal(t, semver.MustParse("1.9.0"), sol["Q"])
}

// Scenario 6 from spec §8: root needs P and Q, but the single overlapping
// constraint on a common transitive dep is empty. Expect Unsolvable.
func TestSolve_SpecScenario6_Unsolvable(t *testing.T) {
	cache := newFakeCache()
	cache.add("P", "1.0.0", map[string]string{"R": "1.0.0 <= v < 2.0.0"})
	cache.add("Q", "1.0.0", map[string]string{"R": "2.0.0 <= v < 3.0.0"})
	cache.add("R", "1.5.0", nil)
	cache.add("R", "2.5.0", nil)

	_, err := Solve(cache, rootDeps(t, map[string]string{
		"P": "1.0.0 <= v < 2.0.0",
		"Q": "1.0.0 <= v < 2.0.0",
	}))
	assert.ErrorIs(t, err, ErrUnsolvable)
}

func TestSolve_UnknownTransitivePackage(t *testing.T) {
	cache := newFakeCache()
	cache.add("P", "1.0.0", map[string]string{"ghost": "1.0.0 <= v < 2.0.0"})

	_, err := Solve(cache, rootDeps(t, map[string]string{"P": "1.0.0 <= v < 2.0.0"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, registry.ErrUnknownPackage)
}

func TestSolve_SatisfiesEveryConstraint(t *testing.T) {
	cache := newFakeCache()
	cache.add("A", "1.0.0", map[string]string{"B": "1.0.0 <= v < 2.0.0"})
	cache.add("A", "2.0.0", map[string]string{"B": "2.0.0 <= v < 3.0.0"})
	cache.add("B", "1.5.0", nil)
	cache.add("B", "2.5.0", nil)

	sol, err := Solve(cache, rootDeps(t, map[string]string{"A": "0.0.0 <= v < 3.0.0"}))
	require.NoError(t, err)

	// Every direct and transitive constraint reachable in the chosen
	// solution must be satisfied by the chosen versions.
	aVer := sol["A"]
	require.Contains(t, sol, "B")
	if aVer.Major == 2 {
		assert.True(t, semver.Satisfies(sol["B"], mustC(t, "2.0.0 <= v < 3.0.0")))
	} else {
		assert.True(t, semver.Satisfies(sol["B"], mustC(t, "1.0.0 <= v < 2.0.0")))
	}
}

func TestSolve_NewestWins(t *testing.T) {
	cache := newFakeCache()
	cache.add("A", "1.0.0", nil)
	cache.add("A", "1.1.0", nil)
	cache.add("A", "1.2.0", nil)

	sol, err := Solve(cache, rootDeps(t, map[string]string{"A": "1.0.0 <= v < 2.0.0"}))
	require.NoError(t, err)
	assert.Equal(t, semver.MustParse("1.2.0"), sol["A"])
}

func TestSolve_Monotonicity_TighteningNeverAddsSolutions(t *testing.T) {
	cache := newFakeCache()
	cache.add("A", "1.0.0", nil)
	cache.add("A", "1.5.0", nil)

	loose, err := Solve(cache, rootDeps(t, map[string]string{"A": "1.0.0 <= v < 2.0.0"}))
	require.NoError(t, err)
	assert.Equal(t, semver.MustParse("1.5.0"), loose["A"])

	tight, err := Solve(cache, rootDeps(t, map[string]string{"A": "1.0.0 <= v < 1.2.0"}))
	require.NoError(t, err)
	assert.Equal(t, semver.MustParse("1.0.0"), tight["A"])

	// Tightening restricted the candidate set; the tightened solution's
	// version must still satisfy the original, looser constraint.
	assert.True(t, semver.Satisfies(tight["A"], mustC(t, "1.0.0 <= v < 2.0.0")))
}

func mustC(t *testing.T, raw string) semver.Constraint {
	t.Helper()
	c, err := manifest.ParseConstraint(raw)
	require.NoError(t, err)
	return c
}
