package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNumericCode(t *testing.T) {
	code, err := GenerateNumericCode(6)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9', "unexpected rune %q", r)
	}
}

func TestNewReference(t *testing.T) {
	ref := NewReference("TRF")
	assert.True(t, strings.HasPrefix(ref, "TRF-"))
	assert.Len(t, strings.Split(ref, "-"), 3)
}
