package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles in ascending privilege.
const (
	RoleReader = "reader"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

var roleRank = map[string]int{
	RoleReader: 0,
	RoleEditor: 1,
	RoleAdmin:  2,
}

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrAuthUnavailable = errors.New("token verification is not configured")
)

// Principal is the caller identified by a verified token.
type Principal struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
	Role    string `json:"role"`
}

// HasRole reports whether the principal's role is at least min.
func (p *Principal) HasRole(min string) bool {
	if p == nil {
		return false
	}
	return roleRank[p.Role] >= roleRank[min]
}

// AuthService verifies tokens issued by the hosted auth provider.
// Sign-in happens there; this backend only checks signatures and roles.
type AuthService interface {
	Verify(token string) (*Principal, error)
}

type authService struct {
	secret []byte
	now    func() time.Time
}

// NewAuthService creates a verifier for HS256 tokens signed with secret.
func NewAuthService(secret string) AuthService {
	return &authService{secret: []byte(secret), now: time.Now}
}

func (s *authService) Verify(tokenString string) (*Principal, error) {
	if len(s.secret) == 0 {
		return nil, ErrAuthUnavailable
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithLeeway(30*time.Second))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	return &Principal{Subject: sub, Email: email, Role: roleFromClaims(claims)}, nil
}

// roleFromClaims prefers app_metadata.role; a top-level role is only honored
// when it names one of our roles (providers put "authenticated" there).
func roleFromClaims(claims jwt.MapClaims) string {
	if meta, ok := claims["app_metadata"].(map[string]interface{}); ok {
		if role, ok := meta["role"].(string); ok {
			if _, known := roleRank[role]; known {
				return role
			}
		}
	}
	if role, ok := claims["role"].(string); ok {
		if _, known := roleRank[role]; known {
			return role
		}
	}
	return RoleReader
}
