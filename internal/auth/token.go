package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySecretKey = errors.New("secret key cannot be empty")
)

// tokenTTL is deliberately short: the service only validates the token
// when the connection is established, not continuously, and a fresh token
// is issued for every connection attempt.
const tokenTTL = 60 * time.Second

// Claims represents the access token claims
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Service issues signed access tokens for Web PubSub client connections
type Service struct {
	secretKey []byte
}

// NewService creates a new token service keyed by the service access key
func NewService(secretKey string) (*Service, error) {
	if secretKey == "" {
		return nil, ErrEmptySecretKey
	}
	return &Service{secretKey: []byte(secretKey)}, nil
}

// Issue generates a signed token authorizing the given permission against
// the hub at hubURL. The token audience is the hub URL itself.
func (s *Service) Issue(hubURL string, permission Permission) (string, error) {
	now := time.Now()
	claims := &Claims{
		Roles: []string{permission.Role()},
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{hubURL},
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}
