package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOverrideArgsSplitsOnWhitespace(t *testing.T) {
	t.Setenv("COMPLEMAKE_TEST_FLAGS", `-DFOO="a b" -Wall`)
	assert.Equal(t, []string{"-DFOO=a b", "-Wall"}, envOverrideArgs("COMPLEMAKE_TEST_FLAGS"))
}

func TestEnvOverrideArgsEmptyWhenUnset(t *testing.T) {
	t.Setenv("COMPLEMAKE_TEST_FLAGS_UNSET", "")
	assert.Nil(t, envOverrideArgs("COMPLEMAKE_TEST_FLAGS_UNSET"))
}

func TestEnvOverrideArgsIgnoresMalformedValue(t *testing.T) {
	t.Setenv("COMPLEMAKE_TEST_FLAGS_BAD", `-DFOO="unterminated`)
	assert.Nil(t, envOverrideArgs("COMPLEMAKE_TEST_FLAGS_BAD"))
}
