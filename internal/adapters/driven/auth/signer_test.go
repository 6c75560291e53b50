package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/briefcast/internal/core/domain"
)

func newTestSigner(t *testing.T, now time.Time) *Signer {
	t.Helper()
	s, err := NewSigner("test-secret", "")
	require.NoError(t, err)
	s.now = func() time.Time { return now }
	return s
}

// TestNewSigner tests that an empty secret is rejected
func TestNewSigner(t *testing.T) {
	_, err := NewSigner("", "x")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

// TestSigner_Session tests issuing and verifying bearer sessions
func TestSigner_Session(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s := newTestSigner(t, now)

	token, err := s.IssueSession("u1", time.Hour)
	require.NoError(t, err)

	user, err := s.VerifySession(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", user)

	s.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = s.VerifySession(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.IssueSession("", time.Hour)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// TestSigner_SessionWrongSecret tests that tokens from another secret fail
func TestSigner_SessionWrongSecret(t *testing.T) {
	now := time.Now()
	other, err := NewSigner("other-secret", "")
	require.NoError(t, err)
	token, err := other.IssueSession("u1", time.Hour)
	require.NoError(t, err)

	_, err = newTestSigner(t, now).VerifySession(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// TestSigner_State tests the OAuth state round trip
func TestSigner_State(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s := newTestSigner(t, now)

	state, err := s.Encode("u1", domain.ProviderNotion)
	require.NoError(t, err)

	user, provider, err := s.Decode(state)
	require.NoError(t, err)
	assert.Equal(t, "u1", user)
	assert.Equal(t, domain.ProviderNotion, provider)

	// A state is not a session.
	_, err = s.VerifySession(state)
	assert.ErrorIs(t, err, ErrInvalidToken)

	s.now = func() time.Time { return now.Add(DefaultStateTTL + time.Minute) }
	_, _, err = s.Decode(state)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// TestSigner_StateTampered tests rejection of garbage input
func TestSigner_StateTampered(t *testing.T) {
	_, _, err := newTestSigner(t, time.Now()).Decode("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
