package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type credentialSeeds struct {
	mgr     *Manager
	valid   string
	invalid map[string]string
}

// newCredentialSeeds builds an Ed25519 manager with key rotation and a set of
// credentials it must refuse.
func newCredentialSeeds(tb testing.TB) credentialSeeds {
	tb.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		tb.Fatal(err)
	}
	_, otherPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		tb.Fatal(err)
	}
	mgr, err := NewManager(Config{
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "goaccounts",
		Leeway:        30 * time.Second,
		RequireIAT:    true,
		MaxFutureIAT:  10 * time.Minute,
		KeyID:         "k1",
		VerifyKeys:    map[string][]byte{"k1": pub},
	})
	if err != nil {
		tb.Fatal(err)
	}

	valid, err := mgr.Issue("sid-1", time.Now().Add(5*time.Minute))
	if err != nil {
		tb.Fatal(err)
	}

	now := time.Now()
	claims := func(sid string, exp time.Time) SessionClaims {
		return SessionClaims{
			SID: sid,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(exp),
				IssuedAt:  jwt.NewNumericDate(now),
				Issuer:    "goaccounts",
			},
		}
	}
	sign := func(method jwt.SigningMethod, kid string, c SessionClaims, key interface{}) string {
		token := jwt.NewWithClaims(method, c)
		if kid != "" {
			token.Header["kid"] = kid
		}
		s, err := token.SignedString(key)
		if err != nil {
			tb.Fatal(err)
		}
		return s
	}
	live := now.Add(5 * time.Minute)

	return credentialSeeds{
		mgr:   mgr,
		valid: valid,
		invalid: map[string]string{
			"forged kid":      sign(jwt.SigningMethodEdDSA, "k2", claims("sid-1", live), otherPriv),
			"wrong key":       sign(jwt.SigningMethodEdDSA, "k1", claims("sid-1", live), otherPriv),
			"missing kid":     sign(jwt.SigningMethodEdDSA, "", claims("sid-1", live), priv),
			"missing sid":     sign(jwt.SigningMethodEdDSA, "k1", claims("", live), priv),
			"expired":         sign(jwt.SigningMethodEdDSA, "k1", claims("sid-1", now.Add(-time.Hour)), priv),
			"alg none":        sign(jwt.SigningMethodNone, "k1", claims("sid-1", live), jwt.UnsafeAllowNoneSignatureType),
			"alg hs384":       sign(jwt.SigningMethodHS384, "k1", claims("sid-1", live), []byte(pub)),
			"empty":           "",
			"not a jwt":       "not.a.jwt",
			"truncated":       valid[:len(valid)-4],
			"bare none token": "eyJhbGciOiJub25lIn0.eyJzaWQiOiJzaWQtMSJ9.",
		},
	}
}

func TestParseRejectsForgedSessionCredentials(t *testing.T) {
	seeds := newCredentialSeeds(t)

	claims, err := seeds.mgr.Parse(seeds.valid)
	if err != nil || claims.SID != "sid-1" {
		t.Fatalf("valid credential rejected: %v", err)
	}

	for name, token := range seeds.invalid {
		t.Run(name, func(t *testing.T) {
			if claims, err := seeds.mgr.Parse(token); err == nil {
				t.Fatalf("accepted %s credential with sid %q", name, claims.SID)
			}
		})
	}

	if _, err := seeds.mgr.Parse(seeds.invalid["missing sid"]); !errors.Is(err, ErrMissingSessionID) {
		t.Fatalf("expected ErrMissingSessionID, got %v", err)
	}
	if _, err := seeds.mgr.Parse(seeds.invalid["expired"]); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

// FuzzJWTParse feeds arbitrary strings to Parse. It must never panic, and any
// accepted credential names a session and has not expired.
func FuzzJWTParse(f *testing.F) {
	seeds := newCredentialSeeds(f)
	f.Add(seeds.valid)
	for _, token := range seeds.invalid {
		f.Add(token)
	}

	f.Fuzz(func(t *testing.T, input string) {
		claims, err := seeds.mgr.Parse(input)
		if err != nil {
			return
		}
		if claims == nil {
			t.Fatal("Parse returned nil claims without error")
		}
		if claims.SID == "" {
			t.Fatal("accepted credential without sid")
		}
		if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(time.Now().Add(-time.Minute)) {
			t.Fatalf("accepted expired credential: %v", claims.ExpiresAt)
		}
	})
}
