// Package manifest loads the root project manifest (§6 "Manifest format")
// and the on-disk release metadata consumed by the package cache (§4.2).
// Both use the same constraint string grammar: `LOWER OP v OP UPPER`.
package manifest

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jward/glimmer/internal/semver"
)

// Manifest is the parsed form of a project's root manifest: the package
// name, its source directories (glob patterns resolved by internal/source),
// and its direct dependency constraints.
type Manifest struct {
	Name              string                       `yaml:"name"`
	SourceDirectories []string                      `yaml:"source-directories"`
	Dependencies      map[string]semver.Constraint `yaml:"-"`

	// RawDependencies mirrors the on-disk "lower op v op upper" strings;
	// kept around for diagnostics and round-tripping.
	RawDependencies map[string]string `yaml:"dependencies"`
}

// Load reads and parses a manifest file from path. Returns
// ErrProjectMisconfigured-wrapping errors on any failure — unreadable file,
// malformed YAML, or a malformed constraint string.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read manifest %s: %v", ErrProjectMisconfigured, path, err)
	}
	return Parse(data)
}

// Parse parses manifest bytes (already read from disk or elsewhere).
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parse manifest: %v", ErrProjectMisconfigured, err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("%w: manifest is missing a package name", ErrProjectMisconfigured)
	}
	if len(m.SourceDirectories) == 0 {
		m.SourceDirectories = []string{"src/**/*.glim"}
	}

	m.Dependencies = make(map[string]semver.Constraint, len(m.RawDependencies))
	for name, raw := range m.RawDependencies {
		c, err := ParseConstraint(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: dependency %s: %v", ErrProjectMisconfigured, name, err)
		}
		m.Dependencies[name] = c
	}
	return &m, nil
}

// constraintPattern matches "LOWER OP1 v OP2 UPPER", e.g. "1.0.0 <= v < 2.0.0".
var constraintPattern = regexp.MustCompile(`^\s*([0-9]+\.[0-9]+\.[0-9]+)\s*(<=?)\s*v\s*(<=?)\s*([0-9]+\.[0-9]+\.[0-9]+)\s*$`)

// ParseConstraint parses the manifest's constraint string form,
// `LOWER OP v OP UPPER` where `OP ∈ {<, ≤}` (written `<` or `<=`), into a
// semver.Constraint.
func ParseConstraint(raw string) (semver.Constraint, error) {
	m := constraintPattern.FindStringSubmatch(raw)
	if m == nil {
		return semver.Constraint{}, fmt.Errorf("malformed constraint %q, want \"LOWER <|<= v <|<= UPPER\"", raw)
	}
	lower, err := semver.Parse(m[1])
	if err != nil {
		return semver.Constraint{}, fmt.Errorf("constraint %q: %w", raw, err)
	}
	upper, err := semver.Parse(m[4])
	if err != nil {
		return semver.Constraint{}, fmt.Errorf("constraint %q: %w", raw, err)
	}
	lowerOp := opFromString(m[2])
	upperOp := opFromString(m[3])
	c, err := semver.New(lower, lowerOp, upper, upperOp)
	if err != nil {
		return semver.Constraint{}, fmt.Errorf("constraint %q: %w", raw, err)
	}
	return c, nil
}

func opFromString(s string) semver.Op {
	if strings.TrimSpace(s) == "<=" {
		return semver.LE
	}
	return semver.LT
}
