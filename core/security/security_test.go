package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.NoError(t, CheckPassword(hash, "s3cret"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrInvalidPassword)

	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestNewTokenManager(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"Default algorithm", Config{SecretKey: "k"}, false},
		{"HS512", Config{SecretKey: "k", Algorithm: "hs512"}, false},
		{"Missing secret", Config{Algorithm: "HS256"}, true},
		{"Unsupported algorithm", Config{SecretKey: "k", Algorithm: "RS256"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewTokenManager(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			_, expiresIn, err := m.Issue("1", "admin")
			require.NoError(t, err)
			assert.Equal(t, 3600, expiresIn)
		})
	}
}

func TestTokenManager_IssueVerify(t *testing.T) {
	m, err := NewTokenManager(Config{SecretKey: "secret", AccessTokenExpireMinutes: 30})
	require.NoError(t, err)

	token, expiresIn, err := m.Issue("7", "maria")
	require.NoError(t, err)
	assert.Equal(t, 1800, expiresIn)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, "maria", claims.Username)
}

func TestTokenManager_VerifyRejects(t *testing.T) {
	m, err := NewTokenManager(Config{SecretKey: "secret", AccessTokenExpireMinutes: 1})
	require.NoError(t, err)

	t.Run("Garbage", func(t *testing.T) {
		_, err := m.Verify("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Other secret", func(t *testing.T) {
		other, _ := NewTokenManager(Config{SecretKey: "other"})
		token, _, err := other.Issue("1", "x")
		require.NoError(t, err)
		_, err = m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, _, err := m.Issue("1", "x")
		require.NoError(t, err)
		m.now = time.Now
		_, err = m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Other algorithm", func(t *testing.T) {
		claims := Claims{Username: "x", RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
