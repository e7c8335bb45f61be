package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/subAuth/role"
	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func newHSManager(t *testing.T, now func() time.Time) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		AccessTTL:     15 * time.Minute,
		SigningMethod: MethodHS256,
		PrivateKey:    testSecret,
		Issuer:        "subauth",
		Now:           now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestCreateAndParseAccessHS256(t *testing.T) {
	m := newHSManager(t, nil)

	token, err := m.CreateAccess("user-1", role.Manager)
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	claims, err := m.ParseAccess(token)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.UID != "user-1" || claims.Role != role.Manager {
		t.Fatalf("unexpected claims: uid=%q role=%s", claims.UID, claims.Role)
	}
	if claims.Issuer != "subauth" {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 15*time.Minute {
		t.Fatalf("unexpected lifetime %v", got)
	}
}

func TestRoleEncodedAsName(t *testing.T) {
	m := newHSManager(t, nil)

	token, err := m.CreateAccess("user-1", role.ReadOnly)
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	parsed, _, err := gjwt.NewParser().ParseUnverified(token, gjwt.MapClaims{})
	if err != nil {
		t.Fatalf("parse unverified: %v", err)
	}
	mc := parsed.Claims.(gjwt.MapClaims)
	if mc["role"] != "READ_ONLY" {
		t.Fatalf("expected role name in payload, got %v", mc["role"])
	}
}

func TestCreateAccessRejectsInvalidInput(t *testing.T) {
	m := newHSManager(t, nil)

	if _, err := m.CreateAccess("", role.User); err == nil {
		t.Fatal("expected empty uid to be rejected")
	}
	if _, err := m.CreateAccess("u", role.Invalid); !errors.Is(err, role.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestParseAccessExpiredVersusInvalid(t *testing.T) {
	issuedAt := time.Now().Add(-time.Hour)
	past := newHSManager(t, func() time.Time { return issuedAt })
	token, err := past.CreateAccess("user-1", role.User)
	if err != nil {
		t.Fatalf("create access: %v", err)
	}

	m := newHSManager(t, nil)
	_, err = m.ParseAccess(token)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if errors.Is(err, ErrInvalid) {
		t.Fatal("expired token must not also report ErrInvalid")
	}

	tampered := token + "a"
	if _, err := m.ParseAccess(tampered); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for tampered token, got %v", err)
	}
	if _, err := m.ParseAccess("not.a.jwt"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for garbage, got %v", err)
	}
}

func TestParseAccessExpiryBoundary(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	clock := base
	m := newHSManager(t, func() time.Time { return clock })

	token, err := m.CreateAccess("user-1", role.User)
	if err != nil {
		t.Fatalf("create access: %v", err)
	}

	clock = base.Add(15*time.Minute - time.Second)
	if _, err := m.ParseAccess(token); err != nil {
		t.Fatalf("expected token to be valid before exp: %v", err)
	}
	clock = base.Add(15 * time.Minute)
	if _, err := m.ParseAccess(token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired at exp, got %v", err)
	}
}

func TestParseAccessRejectsWrongAlgorithm(t *testing.T) {
	pub, _ := newEdKeys(t)
	m, err := NewManager(Config{AccessTTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := AccessClaims{UID: "u", Role: role.User, RegisteredClaims: gjwt.RegisteredClaims{
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
	}}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims)
	token, err := tok.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.ParseAccess(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected wrong algorithm to be rejected, got %v", err)
	}
}

func TestParseAccessRejectsUnknownRole(t *testing.T) {
	m := newHSManager(t, nil)

	claims := gjwt.MapClaims{
		"uid":  "u",
		"role": "ROOT",
		"iss":  "subauth",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Minute).Unix(),
	}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.ParseAccess(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected unknown role to be rejected, got %v", err)
	}
}

func TestParseAccessIssuerAudienceAndLeeway(t *testing.T) {
	_, priv := newEdKeys(t)
	m, err := NewManager(Config{
		AccessTTL:     time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     priv.Public().(ed25519.PublicKey),
		Issuer:        "subauth",
		Audience:      "api",
		Leeway:        30 * time.Second,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	access, err := m.CreateAccess("u", role.Admin)
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	if _, err := m.ParseAccess(access); err != nil {
		t.Fatalf("expected valid token to parse: %v", err)
	}

	sign := func(iss, aud string, exp, iat time.Time) string {
		claims := AccessClaims{UID: "u", Role: role.User, RegisteredClaims: gjwt.RegisteredClaims{
			Issuer:    iss,
			Audience:  gjwt.ClaimStrings{aud},
			ExpiresAt: gjwt.NewNumericDate(exp),
			IssuedAt:  gjwt.NewNumericDate(iat),
		}}
		s, err := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, claims).SignedString(priv)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}

	now := time.Now()
	if _, err := m.ParseAccess(sign("other", "api", now.Add(time.Minute), now)); err == nil {
		t.Fatal("expected wrong issuer to fail")
	}
	if _, err := m.ParseAccess(sign("subauth", "other-api", now.Add(time.Minute), now)); err == nil {
		t.Fatal("expected wrong audience to fail")
	}
	if _, err := m.ParseAccess(sign("subauth", "api", now.Add(-15*time.Second), now.Add(-time.Minute))); err != nil {
		t.Fatalf("expected token within leeway to pass: %v", err)
	}
	if _, err := m.ParseAccess(sign("subauth", "api", now.Add(-2*time.Minute), now.Add(-3*time.Minute))); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected expired token to fail with ErrExpired, got %v", err)
	}
}

func TestParseAccessKeyID(t *testing.T) {
	pub, priv := newEdKeys(t)
	m, err := NewManager(Config{
		AccessTTL:     time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		KeyID:         "k1",
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	good, err := m.CreateAccess("u", role.User)
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	if _, err := m.ParseAccess(good); err != nil {
		t.Fatalf("expected known kid token to pass: %v", err)
	}

	claims := AccessClaims{UID: "u", Role: role.User, RegisteredClaims: gjwt.RegisteredClaims{
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
	}}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, claims)
	tok.Header["kid"] = "k2"
	other, err := tok.SignedString(priv)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.ParseAccess(other); err == nil {
		t.Fatal("expected unknown kid failure")
	}
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(Config{SigningMethod: MethodHS256, PrivateKey: testSecret}); err == nil {
		t.Fatal("expected missing TTL to fail")
	}
	if _, err := NewManager(Config{AccessTTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("short")}); err == nil {
		t.Fatal("expected short secret to fail")
	}
	if _, err := NewManager(Config{AccessTTL: time.Minute, SigningMethod: MethodEd25519}); err == nil {
		t.Fatal("expected ed25519 without public key to fail")
	}
	if _, err := NewManager(Config{AccessTTL: time.Minute, SigningMethod: "rs256", PrivateKey: testSecret}); err == nil {
		t.Fatal("expected unsupported method to fail")
	}
	_, err := NewManager(Config{AccessTTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: testSecret, Leeway: time.Hour})
	if err == nil || !strings.Contains(err.Error(), "leeway") {
		t.Fatalf("expected leeway error, got %v", err)
	}
}
