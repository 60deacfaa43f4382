package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func TestParseRejectsWrongAlgorithm(t *testing.T) {
	pub, _ := newEdKeys(t)
	m, err := NewManager(Config{SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := SessionClaims{SID: "s1", RegisteredClaims: gjwt.RegisteredClaims{ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute))}}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims)
	token, err := tok.SignedString([]byte("secret-secret-secret-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected wrong algorithm to be rejected")
	}
}

func TestParseIssuerAudienceAndLeeway(t *testing.T) {
	_, priv := newEdKeys(t)
	m, err := NewManager(Config{
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     priv.Public().(ed25519.PublicKey),
		Issuer:        "goaccounts",
		Audience:      "api",
		Leeway:        30 * time.Second,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	access, err := m.Issue("s1", time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	if _, err := m.Parse(access); err != nil {
		t.Fatalf("expected valid token to parse: %v", err)
	}

	wrongIssuer := SessionClaims{SID: "s1", RegisteredClaims: gjwt.RegisteredClaims{
		Issuer:    "other",
		Audience:  gjwt.ClaimStrings{"api"},
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
	}}
	badIssuerTok := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, wrongIssuer)
	badIssuer, _ := badIssuerTok.SignedString(priv)
	if _, err := m.Parse(badIssuer); err == nil {
		t.Fatal("expected wrong issuer to fail")
	}

	wrongAudience := SessionClaims{SID: "s1", RegisteredClaims: gjwt.RegisteredClaims{
		Issuer:    "goaccounts",
		Audience:  gjwt.ClaimStrings{"other-api"},
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
	}}
	badAudienceTok := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, wrongAudience)
	badAudience, _ := badAudienceTok.SignedString(priv)
	if _, err := m.Parse(badAudience); err == nil {
		t.Fatal("expected wrong audience to fail")
	}

	expWithinLeeway := SessionClaims{SID: "s1", RegisteredClaims: gjwt.RegisteredClaims{
		Issuer:    "goaccounts",
		Audience:  gjwt.ClaimStrings{"api"},
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(-15 * time.Second)),
		IssuedAt:  gjwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	withinTok := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, expWithinLeeway)
	within, _ := withinTok.SignedString(priv)
	if _, err := m.Parse(within); err != nil {
		t.Fatalf("expected token within leeway to pass: %v", err)
	}

	expired := SessionClaims{SID: "s1", RegisteredClaims: gjwt.RegisteredClaims{
		Issuer:    "goaccounts",
		Audience:  gjwt.ClaimStrings{"api"},
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
		IssuedAt:  gjwt.NewNumericDate(time.Now().Add(-3 * time.Minute)),
	}}
	expiredTok := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, expired)
	expiredSigned, _ := expiredTok.SignedString(priv)
	if _, err := m.Parse(expiredSigned); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestParseUnknownKidFails(t *testing.T) {
	pub1, priv1 := newEdKeys(t)
	pub2, _ := newEdKeys(t)
	m, err := NewManager(Config{
		SigningMethod: MethodEd25519,
		PrivateKey:    priv1,
		PublicKey:     pub1,
		KeyID:         "k1",
		VerifyKeys: map[string][]byte{
			"k1": pub1,
		},
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := SessionClaims{SID: "s1", RegisteredClaims: gjwt.RegisteredClaims{ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute))}}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, claims)
	tok.Header["kid"] = "k2"
	token, err := tok.SignedString(priv1)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected unknown kid failure")
	}

	tok2 := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, claims)
	tok2.Header["kid"] = "k1"
	good, _ := tok2.SignedString(priv1)
	if _, err := m.Parse(good); err != nil {
		t.Fatalf("expected known kid token to pass: %v", err)
	}

	m2, _ := NewManager(Config{SigningMethod: MethodEd25519, PublicKey: pub2, VerifyKeys: map[string][]byte{"k2": pub2}})
	if _, err := m2.Parse(good); err == nil {
		t.Fatal("expected parse failure with mismatched key set")
	}
}

func TestHMACMethodsRoundTrip(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	for _, method := range []SigningMethod{MethodHS256, MethodHS384, MethodHS512} {
		t.Run(string(method), func(t *testing.T) {
			m, err := NewManager(Config{SigningMethod: method, PrivateKey: secret})
			if err != nil {
				t.Fatalf("new manager: %v", err)
			}
			exp := time.Now().Add(30 * time.Minute)
			token, err := m.Issue("sid-1", exp)
			if err != nil {
				t.Fatalf("issue: %v", err)
			}
			claims, err := m.Parse(token)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if claims.SID != "sid-1" || claims.ExpiresAt.Unix() != exp.Unix() {
				t.Fatalf("unexpected claims %+v", claims)
			}
		})
	}
}

func TestNewManagerRejectsShortHMACSecret(t *testing.T) {
	if _, err := NewManager(Config{SigningMethod: MethodHS256, PrivateKey: []byte("short")}); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
	if _, err := NewManager(Config{SigningMethod: "rs256", PrivateKey: make([]byte, 64)}); err == nil {
		t.Fatal("expected unsupported method to be rejected")
	}
}

func TestParseRejectsTamperedAndForeignTokens(t *testing.T) {
	m, err := NewManager(Config{SigningMethod: MethodHS256, PrivateKey: []byte("0123456789abcdef0123456789abcdef")})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	other, _ := NewManager(Config{SigningMethod: MethodHS256, PrivateKey: []byte("fedcba9876543210fedcba9876543210")})

	token, _ := m.Issue("sid-1", time.Now().Add(time.Minute))
	foreign, _ := other.Issue("sid-1", time.Now().Add(time.Minute))

	if _, err := m.Parse(token + "x"); err == nil {
		t.Fatal("expected tampered token to fail")
	}
	if _, err := m.Parse(foreign); err == nil {
		t.Fatal("expected token signed with another secret to fail")
	}

	noSID := gjwt.NewWithClaims(gjwt.SigningMethodHS256, SessionClaims{RegisteredClaims: gjwt.RegisteredClaims{
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}})
	signed, _ := noSID.SignedString([]byte("0123456789abcdef0123456789abcdef"))
	if _, err := m.Parse(signed); err == nil {
		t.Fatal("expected token without sid to fail")
	}

	noExp := gjwt.NewWithClaims(gjwt.SigningMethodHS256, SessionClaims{SID: "sid-1"})
	signed, _ = noExp.SignedString([]byte("0123456789abcdef0123456789abcdef"))
	if _, err := m.Parse(signed); err == nil {
		t.Fatal("expected token without exp to fail")
	}
}
