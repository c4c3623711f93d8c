package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerificationCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code := GenerateVerificationCode()
		require.Len(t, code, 10)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(verificationCodeAlphabet, r), "unexpected rune %q", r)
		}
		seen[code] = true
	}
	// 36^10 codes; 50 draws colliding would point at a broken generator.
	assert.Len(t, seen, 50)
}
