package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired, or has a bad signature.
	ErrInvalidToken = errors.New("invalid token")
)

// UserClaims holds JWT claims for a user access token.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// TokenProvider issues and validates HS256 user tokens signed with a shared secret.
type TokenProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenProvider returns a TokenProvider signing with the given HMAC secret.
// issuer is set as the iss claim and validated on parse.
func NewTokenProvider(secret []byte, issuer string, ttl time.Duration) *TokenProvider {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenProvider{secret: secret, issuer: issuer, ttl: ttl}
}

// Issue issues a signed access token for the given user.
// Returns the token string and its expiration time.
func (p *TokenProvider) Issue(userID int64, username string) (string, time.Time, error) {
	if len(p.secret) == 0 {
		return "", time.Time{}, errors.New("token provider: secret is not configured")
	}
	now := time.Now().UTC()
	expiresAt := now.Add(p.ttl)
	claims := UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:   userID,
		Username: username,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Validate parses and verifies a token string and returns its claims.
// Returns ErrInvalidToken for any malformed, expired, mis-signed, or
// wrong-issuer token.
func (p *TokenProvider) Validate(token string) (*UserClaims, error) {
	claims := &UserClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	}, jwt.WithIssuer(p.issuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
