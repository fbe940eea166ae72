package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kliniksentosa/klinik-api/internal/config"
	"github.com/kliniksentosa/klinik-api/internal/domain"
	"github.com/kliniksentosa/klinik-api/pkg/auth"
)

const testPassword = "sangat-rahasia-123"

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	repos := newTestRegistry(t)
	jwtManager := auth.NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-at-least-32-characters!!",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "klinik-test",
	})
	return NewAuthService(repos, jwtManager, newTestActivityService(t, repos), zap.NewNop())
}

func registerTestUser(t *testing.T, svc *AuthService, email string, role domain.Role) *domain.User {
	t.Helper()
	u, err := svc.RegisterUser(context.Background(), adminActor(), email, testPassword, "Test User", role, nil, nil)
	require.NoError(t, err)
	return u
}

func TestAuthRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	registerTestUser(t, svc, "dokter@klinik.test", domain.RoleDoctor)

	pair, err := svc.Login(context.Background(), "dokter@klinik.test", testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)

	refreshed, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// A refresh token is not an access token.
	_, err = svc.RefreshToken(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthRegister_RequiresAdmin(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.RegisterUser(context.Background(), pharmacistActor(), "x@klinik.test", testPassword, "X", domain.RolePatient, nil, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.RegisterUser(context.Background(), adminActor(), "x@klinik.test", "short", "X", domain.RolePatient, nil, nil)
	var validErr *ValidationError
	assert.ErrorAs(t, err, &validErr)
}

func TestAuthLogin_WrongPassword(t *testing.T) {
	svc := newAuthService(t)
	registerTestUser(t, svc, "staff@klinik.test", domain.RoleReceptionist)

	_, err := svc.Login(context.Background(), "staff@klinik.test", "wrong-password-here")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown email gets the same error as a wrong password.
	_, err = svc.Login(context.Background(), "nobody@klinik.test", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthLogin_LockoutAfterRepeatedFailures(t *testing.T) {
	svc := newAuthService(t)
	registerTestUser(t, svc, "target@klinik.test", domain.RoleReceptionist)

	for i := 0; i < 5; i++ {
		_, err := svc.Login(context.Background(), "target@klinik.test", "wrong-password-here")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// Even the right password is rejected while locked.
	_, err := svc.Login(context.Background(), "target@klinik.test", testPassword)
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestAuthChangePassword(t *testing.T) {
	svc := newAuthService(t)
	u := registerTestUser(t, svc, "change@klinik.test", domain.RoleDoctor)

	err := svc.ChangePassword(context.Background(), u.ID, "wrong-current-pass", "new-password-123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(context.Background(), u.ID, testPassword, "new-password-123456"))

	_, err = svc.Login(context.Background(), "change@klinik.test", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "change@klinik.test", "new-password-123456")
	assert.NoError(t, err)
}
