package jwt

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var ErrInvalidToken = errors.New("invalid or expired token")

const (
	TokenTypeAccess = "access"
	TokenTypeSSE    = "sse"

	sseTokenLifetime = 5 * time.Minute
)

type Service interface {
	GenerateAccessToken(userID string, isAdmin bool) (token string, expiresAt int64, err error)
	GenerateSSEToken(userID string) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (userID string, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpiration time.Duration
	tokenAuth             *jwtauth.JWTAuth
	now                   func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// NewJWTService signs HS256 tokens with secretKey. accessTokenExpiration is a
// Go duration string such as "24h".
func NewJWTService(secretKey string, accessTokenExpiration string) (Service, error) {
	exp, err := time.ParseDuration(accessTokenExpiration)
	if err != nil {
		return nil, err
	}
	return &JWTService{
		accessTokenExpiration: exp,
		tokenAuth:             jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                   time.Now,
	}, nil
}

func (j *JWTService) GenerateAccessToken(userID string, isAdmin bool) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenExpiration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id":  userID,
		"is_admin": isAdmin,
		"type":     TokenTypeAccess,
		"exp":      expiresAt,
	})
	return tokenString, expiresAt, err
}

// GenerateSSEToken generates a short-lived token for SSE connections, which
// cannot carry an Authorization header.
func (j *JWTService) GenerateSSEToken(userID string) (token string, expiresIn int, err error) {
	expiresAt := j.now().Add(sseTokenLifetime).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": userID,
		"type":    TokenTypeSSE,
		"exp":     expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, int(sseTokenLifetime.Seconds()), nil
}

// ValidateSSEToken validates an SSE token and returns the user ID
func (j *JWTService) ValidateSSEToken(tokenString string) (userID string, err error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return "", ErrInvalidToken
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != TokenTypeSSE {
		return "", ErrInvalidToken
	}

	userIDVal, ok := token.Get("user_id")
	if !ok {
		return "", ErrInvalidToken
	}
	userID, ok = userIDVal.(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}

	return userID, nil
}
