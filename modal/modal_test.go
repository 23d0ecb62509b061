package modal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialog_OpenReusesActiveSession(t *testing.T) {
	d := NewDialog("add-member")
	assert.False(t, d.IsOpen())
	assert.Nil(t, d.Session())

	s1 := d.Open()
	s2 := d.Open()
	assert.Same(t, s1, s2)
	assert.True(t, d.IsOpen())
	assert.Equal(t, "add-member", s1.Name())
}

func TestDialog_CloseIsIdempotent(t *testing.T) {
	d := NewDialog("confirm-delete")
	assert.False(t, d.Close(), "closing a never opened dialog does nothing")

	s := d.Open()
	assert.True(t, d.Close())
	assert.False(t, d.Close())
	assert.False(t, s.Close())
	assert.False(t, s.Active())

	select {
	case <-s.Done():
	default:
		t.Fatal("expected Done to be closed")
	}

	next := d.Open()
	assert.NotSame(t, s, next)
	assert.True(t, next.Active())
}

func TestWith_ReleasesOnEveryPath(t *testing.T) {
	d := NewDialog("confirm-delete")

	s := d.Open()
	require.NoError(t, With(s, func(*Session) error { return nil }))
	assert.False(t, d.IsOpen())

	s = d.Open()
	boom := errors.New("boom")
	assert.ErrorIs(t, With(s, func(*Session) error { return boom }), boom)
	assert.False(t, d.IsOpen())

	s = d.Open()
	assert.Panics(t, func() {
		_ = With(s, func(*Session) error { panic("boom") })
	})
	assert.False(t, d.IsOpen())
}

func TestSession_NilIsInactive(t *testing.T) {
	var s *Session
	assert.False(t, s.Active())
}
