package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sharemeal/sharemeal-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Role     enums.Role
	Verified bool
	JTI      string
}

// AccessTokenClaims represents the typed JWT presented by clients.
type AccessTokenClaims struct {
	UserID   uuid.UUID  `json:"user_id"`
	Role     enums.Role `json:"role"`
	Verified bool       `json:"verified"`
	jwt.RegisteredClaims
}
