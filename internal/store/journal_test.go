package store

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func journalEntries(n int, base time.Time) []*Entry {
	entries := make([]*Entry, n)
	for i := range entries {
		entries[i] = &Entry{
			ID:         fmt.Sprintf("e-%02d", i),
			Kind:       KindSwipe,
			Gesture:    "OPEN_PALM",
			Slide:      i % 3,
			Detail:     json.RawMessage(`{"direction":"right"}`),
			OccurredAt: base.Add(time.Duration(i) * time.Second),
		}
	}
	return entries
}

func TestJournal_AppendAndRecent(t *testing.T) {
	j := newTestStore(t).Journal()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, j.Append(journalEntries(5, base)...))

	n, err := j.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	recent, err := j.Recent(3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "e-04", recent[0].ID)
	assert.Equal(t, "e-02", recent[2].ID)
	assert.Equal(t, KindSwipe, recent[0].Kind)
	assert.Equal(t, 1, recent[0].Slide)
	assert.JSONEq(t, `{"direction":"right"}`, string(recent[0].Detail))
	assert.True(t, recent[0].OccurredAt.Equal(base.Add(4*time.Second)))
}

func TestJournal_AppendDefaults(t *testing.T) {
	j := newTestStore(t).Journal()

	require.NoError(t, j.Append(&Entry{ID: "p", Kind: KindPerformance, OccurredAt: time.Now()}))

	recent, err := j.Recent(1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "NONE", recent[0].Gesture)
	assert.Equal(t, "{}", string(recent[0].Detail))
}

func TestJournal_AppendRejectsUnknownKind(t *testing.T) {
	j := newTestStore(t).Journal()

	err := j.Append(
		&Entry{ID: "ok", Kind: KindClick, OccurredAt: time.Now()},
		&Entry{ID: "bad", Kind: Kind("wave"), OccurredAt: time.Now()},
	)
	require.Error(t, err)

	// the whole batch rolls back
	n, err := j.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestJournal_AppendEmpty(t *testing.T) {
	j := newTestStore(t).Journal()
	assert.NoError(t, j.Append())
}

func TestJournal_Prune(t *testing.T) {
	j := newTestStore(t).Journal()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, j.Append(journalEntries(10, base)...))

	removed, err := j.Prune(4)
	require.NoError(t, err)
	assert.EqualValues(t, 6, removed)

	recent, err := j.Recent(100)
	require.NoError(t, err)
	require.Len(t, recent, 4)
	assert.Equal(t, "e-09", recent[0].ID)
	assert.Equal(t, "e-06", recent[3].ID)
}
