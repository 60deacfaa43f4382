package password

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinBcryptCost is the lowest accepted bcrypt work factor.
const MinBcryptCost = 10

// DefaultBcryptCost is used when no work factor is configured.
const DefaultBcryptCost = 12

// Bcrypt is an [Algorithm] backed by golang.org/x/crypto/bcrypt.
type Bcrypt struct {
	cost int
}

var _ Algorithm = (*Bcrypt)(nil)

// NewBcrypt returns a bcrypt algorithm with the given work factor.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost < MinBcryptCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be in [%d, %d]", MinBcryptCost, bcrypt.MaxCost)
	}
	return &Bcrypt{cost: cost}, nil
}

// Name returns "bcrypt".
func (b *Bcrypt) Name() string { return "bcrypt" }

// Identify reports whether encodedHash is in modular crypt bcrypt format.
func (b *Bcrypt) Identify(encodedHash string) bool {
	return strings.HasPrefix(encodedHash, "$2a$") ||
		strings.HasPrefix(encodedHash, "$2b$") ||
		strings.HasPrefix(encodedHash, "$2y$")
}

// Hash returns a salted bcrypt hash. bcrypt rejects secrets above 72 bytes.
func (b *Bcrypt) Hash(secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("empty secret")
	}
	hash, err := bcrypt.GenerateFromPassword(secret, b.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify compares secret with encodedHash. A mismatch is not an error.
func (b *Bcrypt) Verify(secret []byte, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), secret)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

// NeedsUpgrade reports whether encodedHash uses a lower cost than configured.
func (b *Bcrypt) NeedsUpgrade(encodedHash string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return false, err
	}
	return cost < b.cost, nil
}
