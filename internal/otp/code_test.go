package otp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode_SixDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9', "non-digit %q in %q", c, code)
		}
	}
}

func TestHashCode_BoundToPhone(t *testing.T) {
	a := HashCode("+911234567890", "123456")
	assert.Equal(t, a, HashCode("+911234567890", "123456"))
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, HashCode("+441234567890", "123456"))
	assert.NotEqual(t, a, HashCode("+911234567890", "654321"))
}

func TestCodeEqual(t *testing.T) {
	stored := HashCode("+15550001111", "123456")

	assert.True(t, CodeEqual("+15550001111", "123456", stored))
	assert.False(t, CodeEqual("+15550001111", "654321", stored))
	assert.False(t, CodeEqual("+15550002222", "123456", stored))
	assert.False(t, CodeEqual("+15550001111", "123456", "a"+stored))
	assert.False(t, CodeEqual("+15550001111", "", stored))
	assert.False(t, CodeEqual("", "", ""))
}
