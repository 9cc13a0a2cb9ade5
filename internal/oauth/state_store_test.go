package oauth

import (
	"testing"
	"time"

	"avaportal/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStore_PutAndConsume(t *testing.T) {
	ss := NewStateStore(0)
	sess := session.New("session-123")

	state, err := ss.Put(sess, "verifier-abc")
	require.NoError(t, err)
	assert.NotEmpty(t, state)
	require.NotNil(t, sess.PendingAuth)

	p, err := ss.Consume(sess, state)
	require.NoError(t, err)
	assert.Equal(t, "session-123", p.SessionID)
	assert.Equal(t, "verifier-abc", p.CodeVerifier)
	assert.Equal(t, state, p.State)
	assert.Nil(t, sess.PendingAuth)
}

func TestStateStore_SingleUse(t *testing.T) {
	ss := NewStateStore(0)
	sess := session.New("s")

	state, err := ss.Put(sess, "v")
	require.NoError(t, err)

	_, err = ss.Consume(sess, state)
	require.NoError(t, err)

	_, err = ss.Consume(sess, state)
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestStateStore_Unknown(t *testing.T) {
	ss := NewStateStore(0)
	sess := session.New("s")

	_, err := ss.Consume(sess, "never-issued")
	assert.ErrorIs(t, err, ErrUnknownState)

	_, err = ss.Put(sess, "v")
	require.NoError(t, err)
	_, err = ss.Consume(sess, "")
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestStateStore_WrongStateBurnsPending(t *testing.T) {
	ss := NewStateStore(0)
	sess := session.New("s")

	state, err := ss.Put(sess, "v")
	require.NoError(t, err)

	_, err = ss.Consume(sess, "forged")
	assert.ErrorIs(t, err, ErrUnknownState)

	_, err = ss.Consume(sess, state)
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestStateStore_NewLoginReplacesPending(t *testing.T) {
	ss := NewStateStore(0)
	sess := session.New("s")

	first, err := ss.Put(sess, "v1")
	require.NoError(t, err)
	second, err := ss.Put(sess, "v2")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	p, err := ss.Consume(sess, second)
	require.NoError(t, err)
	assert.Equal(t, "v2", p.CodeVerifier)
}

func TestStateStore_OtherSession(t *testing.T) {
	ss := NewStateStore(0)
	victim := session.New("victim")

	state, err := ss.Put(victim, "v")
	require.NoError(t, err)

	// a pending record copied into another session is rejected
	attacker := session.New("attacker")
	attacker.PendingAuth = victim.PendingAuth
	_, err = ss.Consume(attacker, state)
	assert.ErrorIs(t, err, ErrStateMismatch)

	// a session without its own pending login knows no state at all
	_, err = ss.Consume(session.New("other"), state)
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestStateStore_Expired(t *testing.T) {
	ss := NewStateStore(time.Minute)
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ss.now = func() time.Time { return issued }

	sess := session.New("s")
	state, err := ss.Put(sess, "v")
	require.NoError(t, err)

	ss.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = ss.Consume(sess, state)
	assert.ErrorIs(t, err, ErrStateExpired)
	assert.Nil(t, sess.PendingAuth)
}

func TestStateStore_SurvivesSessionPersistence(t *testing.T) {
	ss := NewStateStore(0)
	sess := session.New("s")

	state, err := ss.Put(sess, "verifier")
	require.NoError(t, err)

	// a fresh store instance on a persisted copy completes the login
	restored := sess.Clone()
	p, err := NewStateStore(0).Consume(restored, state)
	require.NoError(t, err)
	assert.Equal(t, "verifier", p.CodeVerifier)
}
