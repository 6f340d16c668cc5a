package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// --- Context Keys ---

// contextKey is a custom type used for context keys to avoid collisions.
type contextKey string

const (
	UserIDKey contextKey = "userID"
)

const issuer = "chatbox-backend"

// ErrMissingUserID is returned for a valid token without a user id claim.
var ErrMissingUserID = errors.New("token has no user id")

// --- JWT Claims ---

// CustomClaims includes standard JWT claims plus the caller's identity.
type CustomClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	jwt.RegisteredClaims
}

// NewAccessToken generates a new HS256 access token for the user.
func NewAccessToken(userID uuid.UUID, name, jwtSecret string, expiration time.Duration) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		UserID: userID,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signedToken, nil
}

// ParseAccessToken validates the signature, expiry and issuer of tokenString
// and returns its claims. Errors wrap jwt.ErrTokenExpired / jwt.ErrTokenMalformed
// where applicable.
func ParseAccessToken(tokenString, jwtSecret string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if claims.UserID == uuid.Nil {
		return nil, ErrMissingUserID
	}
	return claims, nil
}
