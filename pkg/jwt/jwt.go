package jwt

import (
	"errors"
	"fmt"
	"time"

	"messagely/config"
	"messagely/pkg/errs"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Service issues and verifies identity tokens.
// Tokens are HS256 and carry only the username unless an issuer or an expiry
// is configured. Nothing is stored server-side.
type Service struct {
	secretKey   []byte        // symmetric key
	issuer      string        // optional iss
	expireAfter time.Duration // optional exp, 0 disables
	now         func() time.Time
}

// Claims is the token payload.
type Claims struct {
	Username string `json:"username"`
	jwtv5.RegisteredClaims
}

// NewService builds a Service from the JWT section of the config.
func NewService(cfg config.JWTConfig) *Service {
	return &Service{
		secretKey:   []byte(cfg.Secret),
		issuer:      cfg.Issuer,
		expireAfter: cfg.ExpireTime,
		now:         time.Now,
	}
}

// Issue returns a signed token bound to username.
func (s *Service) Issue(username string) (string, error) {
	if username == "" {
		return "", errors.New("username is required")
	}

	claims := &Claims{Username: username}
	claims.Issuer = s.issuer
	if s.expireAfter > 0 {
		now := s.now()
		claims.IssuedAt = jwtv5.NewNumericDate(now)
		claims.ExpiresAt = jwtv5.NewNumericDate(now.Add(s.expireAfter))
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token failed: %w", err)
	}
	return signed, nil
}

// Verify checks the signature (and iss/exp when present) and returns the
// bound username. Every failure is errs.ErrInvalidToken wrapping the cause.
// Whether that user still exists is the caller's concern.
func (s *Service) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", errs.ErrInvalidToken
	}

	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithTimeFunc(s.now),
		jwtv5.WithStrictDecoding(),
	}
	if s.issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	parsed, err := jwtv5.ParseWithClaims(tokenString, claims, func(*jwtv5.Token) (interface{}, error) {
		return s.secretKey, nil
	}, opts...)
	if err != nil {
		return "", errs.Wrap(errs.CodeUnauthorized, "invalid token", err)
	}
	if !parsed.Valid || claims.Username == "" {
		return "", errs.ErrInvalidToken
	}
	return claims.Username, nil
}
