package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/gamedepot-backend/pkg/config"
	"github.com/angelmondragon/gamedepot-backend/pkg/enums"
)

func signTestToken(t *testing.T, secret string, method jwt.SigningMethod, claims AccessTokenClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func validClaims(cfg config.JWTConfig, now time.Time) AccessTokenClaims {
	return AccessTokenClaims{
		UserID: "op-42",
		Role:   enums.OperatorRoleManager,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
		},
	}
}

func TestParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "gamedepot"}
	now := time.Now().UTC()

	token := signTestToken(t, cfg.Secret, jwtSigningMethod, validClaims(cfg, now))

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != "op-42" {
		t.Fatalf("expected user_id op-42, got %s", claims.UserID)
	}
	if claims.Role != enums.OperatorRoleManager {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	principal := PrincipalFromClaims(claims)
	if principal.UserID != "op-42" || principal.Role != enums.OperatorRoleManager {
		t.Fatalf("unexpected principal %+v", principal)
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "gamedepot"}
	now := time.Now().UTC()

	expired := validClaims(cfg, now)
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))

	wrongIssuer := validClaims(cfg, now)
	wrongIssuer.Issuer = "someone-else"

	badRole := validClaims(cfg, now)
	badRole.Role = enums.OperatorRole("buyer")

	noUser := validClaims(cfg, now)
	noUser.UserID = ""

	noExpiry := validClaims(cfg, now)
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
	}{
		{name: "invalid signature", token: signTestToken(t, "other-secret", jwtSigningMethod, validClaims(cfg, now))},
		{name: "wrong algorithm", token: signTestToken(t, cfg.Secret, jwt.SigningMethodHS512, validClaims(cfg, now))},
		{name: "expired", token: signTestToken(t, cfg.Secret, jwtSigningMethod, expired)},
		{name: "wrong issuer", token: signTestToken(t, cfg.Secret, jwtSigningMethod, wrongIssuer)},
		{name: "unknown role", token: signTestToken(t, cfg.Secret, jwtSigningMethod, badRole)},
		{name: "missing user", token: signTestToken(t, cfg.Secret, jwtSigningMethod, noUser)},
		{name: "missing expiry", token: signTestToken(t, cfg.Secret, jwtSigningMethod, noExpiry)},
		{name: "garbage", token: "not-a-token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseAccessToken(cfg, tc.token); err == nil {
				t.Fatalf("expected %s token to be rejected", tc.name)
			}
		})
	}
}

func TestParseAccessTokenRequiresSecret(t *testing.T) {
	if _, err := ParseAccessToken(config.JWTConfig{Issuer: "gamedepot"}, "x"); err == nil {
		t.Fatal("expected missing secret to fail")
	}
}
