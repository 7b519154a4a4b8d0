package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// pkceParams are the per-login secrets of an authorization code flow.
type pkceParams struct {
	verifier  string
	challenge string
	state     string
}

// newPKCEParams draws a verifier with its S256 challenge, and an opaque
// state value the callback must echo.
func newPKCEParams() (pkceParams, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return pkceParams{}, fmt.Errorf("generating state: %w", err)
	}
	verifier := oauth2.GenerateVerifier()
	return pkceParams{
		verifier:  verifier,
		challenge: oauth2.S256ChallengeFromVerifier(verifier),
		state:     strings.ReplaceAll(id.String(), "-", ""),
	}, nil
}
