package service_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"touchline/backend/internal/service"
)

const testSecret = "test-jwt-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthService_VerifyRoles(t *testing.T) {
	auth := service.NewAuthService(testSecret)
	exp := time.Now().Add(time.Hour).Unix()

	editor := signToken(t, testSecret, jwt.MapClaims{
		"sub":          "user-1",
		"email":        "desk@example.com",
		"role":         "authenticated",
		"app_metadata": map[string]any{"role": "editor"},
		"exp":          exp,
	})
	p, err := auth.Verify(editor)
	require.NoError(t, err)
	require.Equal(t, "user-1", p.Subject)
	require.Equal(t, service.RoleEditor, p.Role)
	require.True(t, p.HasRole(service.RoleEditor))
	require.False(t, p.HasRole(service.RoleAdmin))

	admin := signToken(t, testSecret, jwt.MapClaims{"sub": "user-2", "role": "admin", "exp": exp})
	p, err = auth.Verify(admin)
	require.NoError(t, err)
	require.True(t, p.HasRole(service.RoleEditor))

	reader := signToken(t, testSecret, jwt.MapClaims{"sub": "user-3", "role": "authenticated", "exp": exp})
	p, err = auth.Verify(reader)
	require.NoError(t, err)
	require.Equal(t, service.RoleReader, p.Role)
}

func TestAuthService_RejectsBadTokens(t *testing.T) {
	auth := service.NewAuthService(testSecret)

	_, err := auth.Verify(signToken(t, "other-secret", jwt.MapClaims{"sub": "u", "exp": time.Now().Add(time.Hour).Unix()}))
	require.ErrorIs(t, err, service.ErrInvalidToken)

	_, err = auth.Verify(signToken(t, testSecret, jwt.MapClaims{"sub": "u", "exp": time.Now().Add(-time.Hour).Unix()}))
	require.ErrorIs(t, err, service.ErrInvalidToken)

	_, err = auth.Verify(signToken(t, testSecret, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}))
	require.ErrorIs(t, err, service.ErrInvalidToken)

	_, err = auth.Verify("not-a-jwt")
	require.ErrorIs(t, err, service.ErrInvalidToken)

	_, err = service.NewAuthService("").Verify("anything")
	require.ErrorIs(t, err, service.ErrAuthUnavailable)

	var nobody *service.Principal
	require.False(t, nobody.HasRole(service.RoleReader))
}
