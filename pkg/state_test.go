package pkg

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomState_AppendChat(t *testing.T) {
	state := NewRoomState(100)

	first := state.AppendChat("a", "hello")
	second := state.AppendChat("b", "world")

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
	assert.Equal(t, "a", first.SenderID)
	assert.Equal(t, "world", second.Text)
}

func TestRoomState_ChatHistoryLimit(t *testing.T) {
	state := NewRoomState(2)

	state.AppendChat("a", "one")
	state.AppendChat("a", "two")
	state.AppendChat("a", "three")

	chat, _, _, _ := state.Snapshot()
	require.Len(t, chat, 2)
	assert.Equal(t, "two", chat[0].Text)
	assert.Equal(t, "three", chat[1].Text)

	// Sequence numbering keeps counting past the retention cap.
	msg := state.AppendChat("a", "four")
	assert.Equal(t, int64(4), msg.Seq)
}

func TestRoomState_IncrementCounter(t *testing.T) {
	state := NewRoomState(100)

	for i := int64(1); i <= 3; i++ {
		value, version := state.IncrementCounter()
		assert.Equal(t, i, value)
		assert.Equal(t, i, version)
	}
}

func TestRoomState_IncrementCounter_Concurrent(t *testing.T) {
	state := NewRoomState(100)

	var mu sync.Mutex
	var versions []int64

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, version := state.IncrementCounter()
			mu.Lock()
			versions = append(versions, version)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, versions, 10)
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	for i, version := range versions {
		assert.Equal(t, int64(i+1), version)
	}

	_, value, _, _ := state.Snapshot()
	assert.Equal(t, int64(10), value)
}

func TestRoomState_StrokeLifecycle(t *testing.T) {
	state := NewRoomState(100)

	seq, err := state.AppendStrokePoint("a", "s1", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	seq, err = state.AppendStrokePoint("a", "s1", 3, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)

	require.NoError(t, state.EndStroke("a", "s1"))

	_, err = state.AppendStrokePoint("a", "s1", 5, 6)
	assert.ErrorIs(t, err, ErrStaleStroke)

	err = state.EndStroke("a", "s1")
	assert.ErrorIs(t, err, ErrStaleStroke)
}

func TestRoomState_StrokeOwnership(t *testing.T) {
	state := NewRoomState(100)

	_, err := state.AppendStrokePoint("a", "s1", 1, 2)
	require.NoError(t, err)

	_, err = state.AppendStrokePoint("b", "s1", 3, 4)
	assert.ErrorIs(t, err, ErrStaleStroke)

	err = state.EndStroke("b", "s1")
	assert.ErrorIs(t, err, ErrStaleStroke)
}

func TestRoomState_EndStroke_Unknown(t *testing.T) {
	state := NewRoomState(100)

	err := state.EndStroke("a", "never-opened")
	assert.ErrorIs(t, err, ErrStaleStroke)
}

func TestRoomState_CloseStrokesOwnedBy(t *testing.T) {
	state := NewRoomState(100)

	_, err := state.AppendStrokePoint("a", "s1", 1, 1)
	require.NoError(t, err)
	_, err = state.AppendStrokePoint("a", "s2", 2, 2)
	require.NoError(t, err)
	_, err = state.AppendStrokePoint("b", "s3", 3, 3)
	require.NoError(t, err)

	closed := state.CloseStrokesOwnedBy("a")
	assert.ElementsMatch(t, []string{"s1", "s2"}, closed)

	// Closed strokes are stale from here on.
	_, err = state.AppendStrokePoint("a", "s1", 4, 4)
	assert.ErrorIs(t, err, ErrStaleStroke)

	// The other client's stroke is untouched.
	_, _, _, strokes := state.Snapshot()
	require.Len(t, strokes, 1)
	assert.Equal(t, "s3", strokes[0].ID)

	// No strokes left for the client; a second pass is a no-op.
	assert.Empty(t, state.CloseStrokesOwnedBy("a"))
}

func TestRoomState_SnapshotIsolation(t *testing.T) {
	state := NewRoomState(100)

	state.AppendChat("a", "before")
	_, err := state.AppendStrokePoint("a", "s1", 1, 1)
	require.NoError(t, err)

	chat, value, version, strokes := state.Snapshot()

	state.AppendChat("b", "after")
	state.IncrementCounter()
	_, err = state.AppendStrokePoint("a", "s1", 2, 2)
	require.NoError(t, err)

	require.Len(t, chat, 1)
	assert.Equal(t, "before", chat[0].Text)
	assert.Equal(t, int64(0), value)
	assert.Equal(t, int64(0), version)
	require.Len(t, strokes, 1)
	assert.Len(t, strokes[0].Points, 1)
}
