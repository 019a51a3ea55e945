package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"threatdash/internal/domain/apperr"
	"threatdash/internal/domain/models"
	"threatdash/pkg/logger"
)

type memRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func (m *memRevoker) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = ttl
	return nil
}

func (m *memRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok, nil
}

func newAuth(t *testing.T, revoker TokenRevoker) *AuthService {
	st := newStores(t)
	svc := NewAuthService(st.users, AuthConfig{Secret: "test-secret", Issuer: "threatdash", Expiration: 7 * 24 * time.Hour}, revoker, logger.Nop())
	svc.cost = bcrypt.MinCost
	svc.now = func() time.Time { return time.Now().UTC().Truncate(time.Second) }
	return svc
}

func TestRegisterLoginVerify(t *testing.T) {
	ctx := context.Background()
	svc := newAuth(t, nil)

	reg, err := svc.Register(ctx, models.RegisterRequest{Username: "analyst", Email: "Analyst@Example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "analyst@example.com", reg.User.Email)
	assert.NotEqual(t, "hunter22", reg.User.PasswordHash)
	assert.NotEmpty(t, reg.Token)

	login, err := svc.Login(ctx, models.LoginRequest{Email: "analyst@example.com", Password: "hunter22"})
	require.NoError(t, err)

	claims, err := svc.Verify(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, "analyst", claims.Username)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Minute)

	me, err := svc.Me(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, me.ID)
	assert.NotNil(t, me.LastLogin)
}

func TestRegisterDuplicates(t *testing.T) {
	ctx := context.Background()
	svc := newAuth(t, nil)

	_, err := svc.Register(ctx, models.RegisterRequest{Username: "ana", Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, models.RegisterRequest{Username: "other", Email: "ANA@example.com", Password: "secret1"})
	e := apperr.As(err, "")
	assert.Equal(t, apperr.KindValidation, e.Kind)
	assert.Equal(t, "Email already registered", e.Message)

	_, err = svc.Register(ctx, models.RegisterRequest{Username: "Ana", Email: "new@example.com", Password: "secret1"})
	assert.Equal(t, "Username already taken", apperr.As(err, "").Message)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newAuth(t, nil)
	_, err := svc.Register(ctx, models.RegisterRequest{Username: "ana", Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "ana@example.com", Password: "wrong"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = svc.Login(ctx, models.LoginRequest{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestVerifyRejectsForeignAndExpiredTokens(t *testing.T) {
	ctx := context.Background()
	svc := newAuth(t, nil)

	_, err := svc.Verify(ctx, "not-a-token")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    "threatdash",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = svc.Verify(ctx, forged)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    "threatdash",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.Verify(ctx, expired)
	assert.Equal(t, "Token expired", apperr.As(err, "").Message)
}

func TestLogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	rev := &memRevoker{revoked: map[string]time.Duration{}}
	svc := newAuth(t, rev)

	res, err := svc.Register(ctx, models.RegisterRequest{Username: "ana", Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)
	claims, err := svc.Verify(ctx, res.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))
	assert.Contains(t, rev.revoked, claims.ID)

	_, err = svc.Verify(ctx, res.Token)
	assert.Equal(t, "Token revoked", apperr.As(err, "").Message)
}
