package services

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"merchant-chat-api/pkg/models"
)

type memoryMerchants map[string]*models.Merchant

func (m memoryMerchants) GetByID(_ context.Context, id string) (*models.Merchant, error) {
	if merchant, ok := m[id]; ok {
		return merchant, nil
	}
	return nil, models.ErrNotFound
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestAuth(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	merchants := memoryMerchants{
		"M1": {MerchantID: "M1", MerchantName: "Open Kitchen"},
		"M2": {MerchantID: "M2", MerchantName: "Locked Kitchen", PasswordHash: sql.NullString{String: string(hash), Valid: true}},
	}
	return NewAuthService(merchants, "test-secret", 30*time.Minute, testLogger())
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	auth := newTestAuth(t)

	token, err := auth.Login(context.Background(), "M1", "")
	require.NoError(t, err)
	assert.Equal(t, "bearer", token.TokenType)

	merchantID, err := auth.ParseToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "M1", merchantID)

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(token.AccessToken, claims, func(*jwt.Token) (interface{}, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)

	merchant, err := auth.Authenticate(context.Background(), token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "Open Kitchen", merchant.MerchantName)
}

func TestLoginUnknownMerchant(t *testing.T) {
	auth := newTestAuth(t)
	_, err := auth.Login(context.Background(), "nobody", "")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Contains(t, err.Error(), "Merchant not found")
}

func TestLoginPasswordCheck(t *testing.T) {
	auth := newTestAuth(t)

	_, err := auth.Login(context.Background(), "M2", "wrong")
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	token, err := auth.Login(context.Background(), "M2", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
}

func TestParseTokenRejects(t *testing.T) {
	auth := newTestAuth(t)

	_, err := auth.ParseToken("not-a-token")
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	other := NewAuthService(memoryMerchants{}, "another-secret", time.Minute, testLogger())
	forged, err := other.GenerateToken("M1")
	require.NoError(t, err)
	_, err = auth.ParseToken(forged)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	auth.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := auth.GenerateToken("M1")
	require.NoError(t, err)
	auth.now = time.Now
	_, err = auth.ParseToken(expired)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "M1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = auth.ParseToken(unsigned)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthenticateDeletedMerchant(t *testing.T) {
	auth := newTestAuth(t)
	token, err := auth.GenerateToken("gone")
	require.NoError(t, err)

	_, err = auth.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
