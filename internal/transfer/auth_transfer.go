package transfer

import "github.com/golang-jwt/jwt/v5"

type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// IdentityInfo is what the OAuth callback hands back to the browser.
// The access token stays server-side.
type IdentityInfo struct {
	LinkedinID string `json:"linkedin_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}
