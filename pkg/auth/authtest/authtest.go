// Package authtest signs operator tokens for handler tests.
package authtest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/gamedepot-backend/pkg/auth"
	"github.com/angelmondragon/gamedepot-backend/pkg/config"
	"github.com/angelmondragon/gamedepot-backend/pkg/enums"
)

// Config is a JWT configuration suitable for tests.
func Config() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "gamedepot-test"}
}

// MintToken signs a short-lived HS256 token for userID with role.
func MintToken(t *testing.T, cfg config.JWTConfig, userID string, role enums.OperatorRole) string {
	t.Helper()
	now := time.Now()
	claims := auth.AccessTokenClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
