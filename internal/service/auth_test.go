package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/apperror"
)

const testSecret = "test-secret"

func TestAuthService_HostToken(t *testing.T) {
	t.Run("Token verifies for its room", func(t *testing.T) {
		// Given: an auth service
		auth, err := NewAuthService(testSecret, time.Hour)
		require.NoError(t, err)

		// When: a token is issued and verified for R1
		token, err := auth.GenerateHostToken("R1", 0)
		require.NoError(t, err)
		err = auth.VerifyHostToken(token, "R1", 0)

		// Then: it is accepted
		require.NoError(t, err)
	})

	t.Run("Token for another room is rejected", func(t *testing.T) {
		// Given: a token issued for R1
		auth, err := NewAuthService(testSecret, time.Hour)
		require.NoError(t, err)
		token, err := auth.GenerateHostToken("R1", 0)
		require.NoError(t, err)

		// When: it is presented for R2
		err = auth.VerifyHostToken(token, "R2", 0)

		// Then: it is unauthorized
		require.ErrorIs(t, err, apperror.ErrInvalidToken)
		require.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("Token of a previous host is rejected", func(t *testing.T) {
		// Given: a token issued before the host role moved on
		auth, err := NewAuthService(testSecret, time.Hour)
		require.NoError(t, err)
		token, err := auth.GenerateHostToken("R1", 0)
		require.NoError(t, err)

		// When: it is verified against the next host epoch
		err = auth.VerifyHostToken(token, "R1", 1)

		// Then: it is rejected
		require.ErrorIs(t, err, apperror.ErrInvalidToken)
	})

	t.Run("Token signed with another key is rejected", func(t *testing.T) {
		// Given: two services with different keys
		issuer, err := NewAuthService("other-secret", time.Hour)
		require.NoError(t, err)
		verifier, err := NewAuthService(testSecret, time.Hour)
		require.NoError(t, err)
		token, err := issuer.GenerateHostToken("R1", 0)
		require.NoError(t, err)

		// When: the token is verified with the wrong key
		err = verifier.VerifyHostToken(token, "R1", 0)

		// Then: it is rejected
		require.ErrorIs(t, err, apperror.ErrInvalidToken)
	})

	t.Run("Expired token is rejected", func(t *testing.T) {
		// Given: a service whose clock moved past the token lifetime
		auth, err := NewAuthService(testSecret, time.Minute)
		require.NoError(t, err)
		impl, ok := auth.(*authServiceImpl)
		require.True(t, ok)

		issuedAt := time.Now()
		impl.now = func() time.Time { return issuedAt }
		token, err := auth.GenerateHostToken("R1", 0)
		require.NoError(t, err)

		impl.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }

		// When: the token is verified
		err = auth.VerifyHostToken(token, "R1", 0)

		// Then: it is rejected
		require.ErrorIs(t, err, apperror.ErrInvalidToken)
	})

	t.Run("Garbage is rejected", func(t *testing.T) {
		auth, err := NewAuthService(testSecret, time.Hour)
		require.NoError(t, err)

		err = auth.VerifyHostToken("not-a-token", "R1", 0)

		assert.ErrorIs(t, err, apperror.ErrInvalidToken)
	})

	t.Run("Empty secret is refused", func(t *testing.T) {
		_, err := NewAuthService("", time.Hour)

		assert.ErrorIs(t, err, ErrEmptySecret)
	})
}
