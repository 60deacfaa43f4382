package password

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
)

// MinPepperBytes is the shortest accepted pepper.
const MinPepperBytes = 32

// Pepper returns base64(HMAC-SHA384(pepper, raw)). The 64-byte result stays
// below bcrypt's input limit, so long passwords are pre-hashed instead of
// silently truncated.
func Pepper(pepper []byte, raw string) []byte {
	mac := hmac.New(sha512.New384, pepper)
	mac.Write([]byte(raw))
	sum := mac.Sum(nil)

	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum)
	return out
}
