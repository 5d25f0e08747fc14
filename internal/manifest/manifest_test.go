package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/glimmer/internal/semver"
)

func TestParse_ValidManifest(t *testing.T) {
	data := []byte(`
name: author/project
source-directories:
  - src/**/*.glim
dependencies:
  author/widgets: "1.0.0 <= v < 2.0.0"
`)
	m, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "author/project", m.Name)
	assert.Equal(t, []string{"src/**/*.glim"}, m.SourceDirectories)
	require.Contains(t, m.Dependencies, "author/widgets")
	c := m.Dependencies["author/widgets"]
	assert.Equal(t, semver.MustParse("1.0.0"), c.Lower)
	assert.Equal(t, semver.LE, c.LowerOp)
	assert.Equal(t, semver.MustParse("2.0.0"), c.Upper)
	assert.Equal(t, semver.LT, c.UpperOp)
}

func TestParse_MissingNameIsMisconfigured(t *testing.T) {
	_, err := Parse([]byte(`source-directories: [src]`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProjectMisconfigured)
}

func TestParse_DefaultsSourceDirectories(t *testing.T) {
	m, err := Parse([]byte(`name: a/b`))
	require.NoError(t, err)
	assert.NotEmpty(t, m.SourceDirectories)
}

func TestParse_MalformedConstraintIsMisconfigured(t *testing.T) {
	_, err := Parse([]byte(`
name: a/b
dependencies:
  a/c: "not a constraint"
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProjectMisconfigured)
}

func TestParseConstraint_Forms(t *testing.T) {
	c, err := ParseConstraint("1.2.0 <= v <= 3.0.0")
	require.NoError(t, err)
	assert.Equal(t, semver.LE, c.LowerOp)
	assert.Equal(t, semver.LE, c.UpperOp)

	c2, err := ParseConstraint("1.2.0 < v < 3.0.0")
	require.NoError(t, err)
	assert.Equal(t, semver.LT, c2.LowerOp)
	assert.Equal(t, semver.LT, c2.UpperOp)
}

func TestParseConstraint_Malformed(t *testing.T) {
	_, err := ParseConstraint("garbage")
	assert.Error(t, err)
}
