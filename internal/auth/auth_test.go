package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogerio-castellano/product-management/internal/models"
)

func testUser() models.User {
	return models.User{ID: uuid.New(), Username: "alice", Roles: []string{models.RoleUser, models.RoleAdmin}}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	user := testUser()

	token, err := issuer.Generate(user)
	require.NoError(t, err)

	claims, err := issuer.Parse("Bearer " + token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, []string{"USER", "ADMIN"}, claims.Roles)
}

func TestParse_Rejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	user := testUser()

	expired := NewTokenIssuer("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expiredToken, err := expired.Generate(user)
	require.NoError(t, err)

	otherKey, err := NewTokenIssuer("other", time.Minute).Generate(user)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID.String()},
	})
	noneToken, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expiredToken,
		"wrong secret": otherKey,
		"alg none":     noneToken,
		"garbage":      "not-a-token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Parse(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestMemoryRefreshStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRefreshStore()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	userID := uuid.New()
	require.NoError(t, store.Save(ctx, "live", userID, time.Hour))
	require.NoError(t, store.Save(ctx, "short", userID, time.Minute))

	got, err := store.Lookup(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	now = now.Add(2 * time.Minute)
	_, err = store.Lookup(ctx, "short")
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)

	require.NoError(t, store.Revoke(ctx, "live"))
	_, err = store.Lookup(ctx, "live")
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
}

func TestMemoryRefreshStore_Sweep(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRefreshStore()
	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, "a", uuid.New(), time.Second))
	require.NoError(t, store.Save(ctx, "b", uuid.New(), time.Hour))

	now = now.Add(time.Minute)
	assert.Equal(t, 1, store.Sweep())
	_, err := store.Lookup(ctx, "b")
	assert.NoError(t, err)
}
