package jwt

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StreamTokenTTL is how long an issued stream URL stays valid.
const StreamTokenTTL = 10 * time.Minute

// SessionTokenTTL is the lifetime of a login token.
const SessionTokenTTL = 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid or expired token")
)

// CreateToken issues a session token for the given account. The token
// is self-contained: validity is only the signature plus expiry, so it
// cannot be revoked before it naturally expires.
func CreateToken(accountID int64, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(accountID, 10),
		"exp": time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// CreateStreamToken issues a stream-access token scoped to one asset.
func CreateStreamToken(mediaID int64, secret string) (string, error) {
	claims := jwt.MapClaims{
		"mid":   mediaID,
		"exp":   time.Now().Add(StreamTokenTTL).Unix(),
		"scope": "stream",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ExtractUserIDFromToken verifies a session token and returns the
// embedded account ID.
func ExtractUserIDFromToken(tokenString, secret string) (int64, error) {
	claims, err := parseClaims(tokenString, secret)
	if err != nil {
		return 0, err
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, ErrInvalidToken
	}

	accountID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}

	return accountID, nil
}

// ExtractMediaIDFromStreamToken verifies a stream token and returns
// the embedded media ID. Tokens without the stream scope are rejected.
func ExtractMediaIDFromStreamToken(tokenString, secret string) (int64, error) {
	claims, err := parseClaims(tokenString, secret)
	if err != nil {
		return 0, err
	}

	if scope, _ := claims["scope"].(string); scope != "stream" {
		return 0, ErrInvalidToken
	}

	mid, ok := claims["mid"].(float64)
	if !ok {
		return 0, ErrInvalidToken
	}

	return int64(mid), nil
}

func parseClaims(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
