package evaluation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_OneSessionPerEvaluator(t *testing.T) {
	s := NewStore(time.Hour)
	first := s.Create("ana")
	other := s.Create("luis")
	second := s.Create("ana")

	assert.NotEqual(t, first.ID, second.ID)
	_, err := s.Get(first.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.Get(other.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestStore_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	s := NewStore(time.Hour)
	s.now = func() time.Time { return now }

	sess := s.Create("ana")
	now = now.Add(59 * time.Minute)
	_, err := s.Get(sess.ID)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = s.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_UpdateIsAtomic(t *testing.T) {
	s := NewStore(time.Hour)
	sess := s.Create("ana")
	boom := errors.New("boom")

	_, err := s.Update(sess.ID, func(x *Session) error {
		x.Evaluator = "changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)
	got, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana", got.Evaluator)

	_, err = s.Update(sess.ID, func(x *Session) error {
		x.Suggested = map[string]int{"objetivos": 2}
		return nil
	})
	require.NoError(t, err)
	got, _ = s.Get(sess.ID)
	assert.Equal(t, 2, got.Suggested["objetivos"])
}
