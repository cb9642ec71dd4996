package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/gamedepot-backend/pkg/enums"
)

// AccessTokenClaims represents the operator JWT presented to the API.
type AccessTokenClaims struct {
	UserID string             `json:"user_id"`
	Role   enums.OperatorRole `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the resolved, immutable identity of the operator making a
// request. Services receive it explicitly instead of reading request state.
type Principal struct {
	UserID string
	Role   enums.OperatorRole
}

// PrincipalFromClaims maps verified claims into a Principal.
func PrincipalFromClaims(claims *AccessTokenClaims) Principal {
	if claims == nil {
		return Principal{}
	}
	return Principal{UserID: claims.UserID, Role: claims.Role}
}

// IsZero reports whether no identity was resolved.
func (p Principal) IsZero() bool {
	return p.UserID == "" && p.Role == ""
}
