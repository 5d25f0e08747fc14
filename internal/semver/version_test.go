package semver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTripsDisplayForm(t *testing.T) {
	v, err := Parse("1.2.3")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Major)
	assert.Equal(t, 2, v.Minor)
	assert.Equal(t, 3, v.Patch)
	assert.Equal(t, "1.2.3", v.String())
}

func TestParse_RejectsMalformed(t *testing.T) {
	cases := []string{"1.2", "1.2.3.4", "a.b.c", "-1.0.0"}
	for _, c := range cases {
		_, err := Parse(c)
		assert.Errorf(t, err, "expected error for %q", c)
	}
}

func TestCompare_Lexicographic(t *testing.T) {
	assert.Equal(t, -1, Compare(MustParse("1.0.0"), MustParse("1.0.1")))
	assert.Equal(t, -1, Compare(MustParse("1.0.0"), MustParse("1.1.0")))
	assert.Equal(t, -1, Compare(MustParse("1.0.0"), MustParse("2.0.0")))
	assert.Equal(t, 0, Compare(MustParse("1.2.3"), MustParse("1.2.3")))
	assert.Equal(t, 1, Compare(MustParse("1.2.4"), MustParse("1.2.3")))
}

func TestLess(t *testing.T) {
	assert.True(t, Less(MustParse("1.0.0"), MustParse("1.0.1")))
	assert.False(t, Less(MustParse("1.0.1"), MustParse("1.0.1")))
}
