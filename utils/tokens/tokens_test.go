package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	tok, err := GenerateToken()
	require.NoError(t, err)

	// 32 bytes -> 43 chars of unpadded base64url.
	assert.Len(t, tok, 43)
	assert.NotContains(t, tok, "+")
	assert.NotContains(t, tok, "/")
	assert.NotContains(t, tok, "=")

	other, err := GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, tok, other)
}

func TestComputeTokenHashInputsMatter(t *testing.T) {
	base := ComputeTokenHash("req-1", "token-a", "pepper-1")

	assert.NotEqual(t, base, ComputeTokenHash("req-2", "token-a", "pepper-1"))
	assert.NotEqual(t, base, ComputeTokenHash("req-1", "token-b", "pepper-1"))
	assert.NotEqual(t, base, ComputeTokenHash("req-1", "token-a", "pepper-2"))
	assert.Equal(t, base, ComputeTokenHash("req-1", "token-a", "pepper-1"))
}

func TestVerify(t *testing.T) {
	stored := ComputeTokenHash("req-1", "token-a", "pepper-1")

	t.Run("MatchingDigest", func(t *testing.T) {
		candidate := ComputeTokenHash("req-1", "token-a", "pepper-1")
		assert.True(t, Verify(stored, candidate))
	})

	t.Run("SingleCharacterMutation", func(t *testing.T) {
		token := "token-a"
		for i := 0; i < len(token); i++ {
			mutated := token[:i] + "x" + token[i+1:]
			if mutated == token {
				continue
			}
			candidate := ComputeTokenHash("req-1", mutated, "pepper-1")
			assert.False(t, Verify(stored, candidate), "mutation at %d should not verify", i)
		}
	})

	t.Run("LengthMismatch", func(t *testing.T) {
		assert.False(t, Verify(stored, stored[:32]))
		assert.False(t, Verify(stored[:32], stored))
	})

	t.Run("UndecodableInput", func(t *testing.T) {
		assert.False(t, Verify(stored, "not hex at all"))
		assert.False(t, Verify("zzzz", "zzzz"))
	})

	t.Run("EmptyCandidate", func(t *testing.T) {
		assert.False(t, Verify(stored, ""))
	})
}

func TestDigestIsHex(t *testing.T) {
	digest := ComputeTokenHash("req-1", "token-a", "pepper-1")
	assert.Len(t, digest, 64)
	assert.Equal(t, strings.ToLower(digest), digest)
}
