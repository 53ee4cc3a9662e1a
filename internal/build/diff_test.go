package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDiffShowsDifference(t *testing.T) {
	out, err := renderDiff("t", "line1\nline2\nline3\n", "line1\nCHANGED\nline3\n")
	require.NoError(t, err)
	assert.Contains(t, out, "-line2")
	assert.Contains(t, out, "+CHANGED")
	assert.Contains(t, out, " line1")
	assert.Contains(t, out, " line3")
}

func TestCommonPrefixAndSuffix(t *testing.T) {
	a := []string{"x", "y", "z"}
	b := []string{"x", "q", "z"}
	assert.Equal(t, 1, commonPrefixLen(a, b))
	assert.Equal(t, 1, commonSuffixLen(a[1:], b[1:]))
}
