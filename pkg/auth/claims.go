package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mensahub/canteen-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
// Identity issuance lives outside this service; the payload mirrors what the
// identity collaborator signs.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Role     enums.ActorRole
	VendorID *uuid.UUID
	JTI      string
}

// AccessTokenClaims represents the typed JWT presented by clients.
type AccessTokenClaims struct {
	UserID   uuid.UUID       `json:"user_id"`
	Role     enums.ActorRole `json:"role"`
	VendorID *uuid.UUID      `json:"vendor_id,omitempty"`
	jwt.RegisteredClaims
}
