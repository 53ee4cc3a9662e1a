package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterTransformJoinsNonOverlappingMatches(t *testing.T) {
	tr, err := NewFilterTransform(`ABCMK_CMP_BEGIN.*?ABCMK_CMP_END`)
	require.NoError(t, err)

	input := "noise\nABCMK_CMP_BEGIN\nkeep this\nABCMK_CMP_END\nmore noise\nABCMK_CMP_BEGINsecondABCMK_CMP_END"
	got := tr.Apply(input)
	assert.Equal(t, "ABCMK_CMP_BEGIN\nkeep this\nABCMK_CMP_END\nABCMK_CMP_BEGINsecondABCMK_CMP_END", got)
}

func TestFilterTransformNoMatchesYieldsEmptyString(t *testing.T) {
	tr, err := NewFilterTransform(`NEVER_PRESENT`)
	require.NoError(t, err)
	assert.Equal(t, "", tr.Apply("some text"))
}

func TestApplyTransformsInDeclarationOrder(t *testing.T) {
	first, _ := NewFilterTransform(`[a-z]+`)
	second, _ := NewFilterTransform(`^.{3}`)
	got := ApplyTransforms([]Transform{first, second}, "ABC123def456")
	// first keeps only "def", second then keeps its first 3 chars.
	assert.Equal(t, "def", got)
}
