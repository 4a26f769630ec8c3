package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
	"github.com/google/uuid"
)

// AccessToken represents a signed JWT access token.  ID is the unique "jti"
// claim under which the token is recorded in the access_tokens table; Exp is
// nil when tokens are configured not to expire.
type AccessToken struct {
	Token string     // the serialized JWT string
	ID    string     // jti
	Exp   *time.Time // UTC expiration time, nil for non-expiring tokens
}

// AccessClaims is the claim set carried by every access token.
type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject.
func (c AccessClaims) UserID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

// ErrInvalidToken is returned for any token that fails parsing or
// verification.  Callers answer it with 401 without further detail.
var ErrInvalidToken = errors.New("invalid token")

// NewAccessToken builds and signs an HS256 JWT for a user.  A ttlMin of zero
// or less issues a token without an exp claim; such tokens stay valid until
// revoked.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	claims := AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Subject:  strconv.FormatUint(userID, 10),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	var exp *time.Time
	if ttlMin > 0 {
		e := now.Add(time.Duration(ttlMin) * time.Minute)
		exp = &e
		claims.ExpiresAt = jwt.NewNumericDate(e)
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, ID: claims.ID, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and standard time claims of raw
// and returns its claims.  Only HS256 is accepted and the jti must be set.
func ParseAccessToken(secret, raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
