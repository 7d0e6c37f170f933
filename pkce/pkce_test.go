package pkce_test

import (
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"testing"

	"github.com/jrsteele09/synco-server/pkce"
	"github.com/stretchr/testify/require"
)

var urlSafe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func TestGenerateVerifierChallenge(t *testing.T) {
	verifier, challenge, err := pkce.GenerateVerifierChallenge()
	require.NoError(t, err)

	require.Len(t, verifier, 43)
	require.Regexp(t, urlSafe, verifier)
	require.Regexp(t, urlSafe, challenge)

	sum := sha256.Sum256([]byte(verifier))
	require.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), challenge)
	require.Equal(t, challenge, pkce.ChallengeFor(verifier))
}

func TestChallengeFor_KnownVector(t *testing.T) {
	// RFC 7636 appendix B
	require.Equal(t,
		"E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
		pkce.ChallengeFor("dBjjJ1_ER4P9WGLdzsFYOfb3ouUbtdEg7PTaUwIIUFc"))
}

func TestGenerate_Unique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		state, err := pkce.GenerateState()
		require.NoError(t, err)
		nonce, err := pkce.GenerateNonce()
		require.NoError(t, err)
		v, _, err := pkce.GenerateVerifierChallenge()
		require.NoError(t, err)

		for _, s := range []string{state, nonce, v} {
			require.Len(t, s, 43)
			_, dup := seen[s]
			require.False(t, dup)
			seen[s] = struct{}{}
		}
	}
}
