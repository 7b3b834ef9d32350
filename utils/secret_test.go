package utils

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret(32)
	require.NoError(t, err)
	b, err := GenerateSecret(32)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	raw, err := base64.URLEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}
