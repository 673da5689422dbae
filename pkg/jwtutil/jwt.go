package jwtutil

import (
	"procurement-service/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

var secret = []byte("procurementservicesecretkey")

// Initialize sets the signing key from configuration
func Initialize(jwtConfig *config.JWTConfig) {
	if jwtConfig.SigningKey != "" {
		secret = []byte(jwtConfig.SigningKey)
	}
}

// UserClaims represents the JWT claims for user authentication
type UserClaims struct {
	Email  string `json:"email"`
	UserID uint   `json:"user_id"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
