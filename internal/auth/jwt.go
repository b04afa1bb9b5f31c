// Package auth issues and verifies the bearer tokens that identify treasury
// members on the API. The token subject is the member's on-chain address;
// membership itself is checked per treasury by the domain layer.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// MemberClaims defines the custom claims for member tokens
type MemberClaims struct {
	jwt.RegisteredClaims
	MemberAddress string `json:"member_address"`
}

// JWTManager handles JWT generation and validation
type JWTManager struct {
	secretKey     []byte
	issuer        string
	tokenDuration time.Duration
}

// NewJWTManager creates a new JWTManager. An empty secret generates a random
// one, which keeps development convenient but invalidates all tokens on
// restart.
func NewJWTManager(secretKey string, issuer string, tokenDuration time.Duration) *JWTManager {
	if secretKey == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			log.Fatal().Err(err).Msg("Failed to generate random JWT secret")
		}
		secretKey = hex.EncodeToString(buf)
		log.Warn().Msg("SERVER_AUTH_JWT_SECRET is empty, generated a random secret; tokens will not survive restarts")
	}
	if tokenDuration <= 0 {
		tokenDuration = 24 * time.Hour
	}

	return &JWTManager{
		secretKey:     []byte(secretKey),
		issuer:        issuer,
		tokenDuration: tokenDuration,
	}
}

// Generate creates a new JWT token for the given member address
func (m *JWTManager) Generate(memberAddress string) (string, error) {
	claims := MemberClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    m.issuer,
			Subject:   memberAddress,
			ID:        uuid.New().String(),
		},
		MemberAddress: memberAddress,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// Validate validates the JWT token and returns the claims
func (m *JWTManager) Validate(tokenString string) (*MemberClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &MemberClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())

	if err != nil {
		return nil, errors.Wrap(err, "invalid token")
	}

	claims, ok := token.Claims.(*MemberClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	if claims.MemberAddress == "" {
		claims.MemberAddress = claims.Subject
	}
	if claims.MemberAddress == "" {
		return nil, errors.New("token carries no member address")
	}

	return claims, nil
}
