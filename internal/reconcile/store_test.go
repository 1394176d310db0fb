package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bills-tracker/internal/common"
)

func TestSessionStore_Ownership(t *testing.T) {
	st := NewSessionStore(time.Minute, discardLogger())
	s := st.Create("user-1")

	got, err := st.Get(s.ID, "user-1")
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = st.Get(s.ID, "user-2")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, st.Delete(s.ID, "user-2"), common.ErrNotFound)

	require.NoError(t, st.Delete(s.ID, "user-1"))
	_, err = st.Get(s.ID, "user-1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSessionStore_Expiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	st := NewSessionStore(10*time.Minute, discardLogger())
	st.now = func() time.Time { return now }

	stale := st.Create("user-1")
	fresh := st.Create("user-1")

	now = now.Add(6 * time.Minute)
	_, err := st.Get(fresh.ID, "user-1")
	require.NoError(t, err)

	now = now.Add(6 * time.Minute)
	_, err = st.Get(stale.ID, "user-1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = st.Get(fresh.ID, "user-1")
	assert.NoError(t, err)
	assert.Equal(t, 1, st.Len())
}

func TestSessionStore_KeepsCommittingSessions(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	st := NewSessionStore(time.Minute, discardLogger())
	st.now = func() time.Time { return now }

	s := st.Create("user-1")
	_, err := s.Present(sampleBills())
	require.NoError(t, err)
	_, err = s.beginCommit()
	require.NoError(t, err)

	assert.ErrorIs(t, st.Delete(s.ID, "user-1"), ErrCommitInProgress)

	now = now.Add(time.Hour)
	assert.Equal(t, 1, st.Len())
}
