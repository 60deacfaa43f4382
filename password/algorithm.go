package password

// Algorithm is a salted password hashing scheme. It receives the peppered
// secret, never the raw password.
type Algorithm interface {
	Name() string
	Identify(encodedHash string) bool
	Hash(secret []byte) (string, error)
	Verify(secret []byte, encodedHash string) (bool, error)
	NeedsUpgrade(encodedHash string) (bool, error)
}
