// Package pkce generates the proof key, state and nonce values used in the
// Google authorization code flow.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// MethodS256 is the only code challenge method sent to the identity provider.
const MethodS256 = "S256"

const randomBytes = 32

func randomString() (string, error) {
	b := make([]byte, randomBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("[pkce randomString] failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateVerifierChallenge returns a 43 character code verifier and its S256 challenge.
func GenerateVerifierChallenge() (verifier, challenge string, err error) {
	verifier, err = randomString()
	if err != nil {
		return "", "", err
	}
	return verifier, ChallengeFor(verifier), nil
}

// ChallengeFor derives the S256 challenge of a verifier.
func ChallengeFor(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func GenerateState() (string, error) {
	return randomString()
}

func GenerateNonce() (string, error) {
	return randomString()
}
