package session

import (
	"crypto/rand"
	"encoding/base64"
)

// DefaultIDBytes is the entropy of generated session ids.
const DefaultIDBytes = 32

// IDGenerator produces unguessable session identifiers.
type IDGenerator interface {
	Generate() (string, error)
}

// RandomIDGenerator reads Size bytes from crypto/rand and encodes them URL-safe
// without padding.
type RandomIDGenerator struct {
	Size int
}

// Generate returns a fresh identifier.
func (g RandomIDGenerator) Generate() (string, error) {
	size := g.Size
	if size <= 0 {
		size = DefaultIDBytes
	}
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
