package auth

import (
	"encoding/base64"
	"encoding/json"

	"github.com/jrsteele09/synco-server/internal/errors"
)

const stateVersion = 1

// stateEnvelope rides in the OAuth state parameter so nothing about an
// in-flight login is stored server side.
type stateEnvelope struct {
	V            int    `json:"v"`
	CodeVerifier string `json:"code_verifier"`
	Prompt       string `json:"prompt,omitempty"`
	Email        string `json:"email,omitempty"`
	Nonce        string `json:"nonce"`
}

func encodeState(s stateEnvelope) (string, error) {
	s.V = stateVersion
	b, err := json.Marshal(s)
	if err != nil {
		return "", errors.Wrapf(err, "[auth encodeState]")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func decodeState(raw string) (*stateEnvelope, error) {
	if raw == "" {
		return nil, errors.Wrapf(errors.ErrStateDecode, "missing state")
	}
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrStateDecode, "state is not base64url")
	}

	var s stateEnvelope
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, errors.Wrapf(errors.ErrStateDecode, "state is not json")
	}
	if s.V != stateVersion {
		return nil, errors.Wrapf(errors.ErrStateDecode, "unsupported state version %d", s.V)
	}
	if s.CodeVerifier == "" {
		return nil, errors.Wrapf(errors.ErrStateDecode, "state has no code verifier")
	}
	return &s, nil
}
