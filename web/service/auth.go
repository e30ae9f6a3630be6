package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// TokenClaims is the payload of an API bearer token.
type TokenClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// AuthService issues and verifies HS256 bearer tokens for the JSON admin API.
type AuthService struct {
	users    *UserService
	identity IdentityStore
	secret   []byte
	ttl      time.Duration
}

func NewAuthService(users *UserService, identity IdentityStore, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{users: users, identity: identity, secret: secret, ttl: ttl}
}

// IssueToken checks the credentials and signs a token for the user.
func (s *AuthService) IssueToken(ctx context.Context, username, password string) (string, error) {
	user := s.users.CheckUser(ctx, username, password)
	if user == nil {
		return "", ErrInvalidCredentials
	}
	roles, err := s.identity.GetRoles(ctx, user)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := TokenClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken verifies signature and expiry and returns the username.
func (s *AuthService) ParseToken(token string) (string, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}
