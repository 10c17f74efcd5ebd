package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// StaffClaims represents the typed JWT issued to back-office sessions.
type StaffClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}
