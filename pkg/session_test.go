package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_BroadcastAfterReadExit(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t, 4)

	leaving := NewSession("leaving", nil, dispatcher, testConfig())
	require.NoError(t, dispatcher.Join(leaving))
	observer := joinConn(t, dispatcher, "observer")

	// The read pump signals teardown on exit; the session stays in the
	// registry until the handler's deferred Leave runs.
	close(leaving.done)

	// A frame dispatched in that window must not take down the process;
	// the departing session just misses the delta.
	dispatcher.HandleFrame(observer, []byte(`{"type":"chat","text":"still here"}`))

	assert.ErrorIs(t, leaving.Send([]byte("frame")), ErrSessionClosed)

	received := observer.getReceived()
	require.Len(t, received, 2)
	assert.Equal(t, FrameTypeChat, decodeFrameType(t, received[1]))
}

func TestSession_SendBufferFull(t *testing.T) {
	config := testConfig()
	config.SendBufferSize = 1

	session := NewSession("slow", nil, nil, config)

	require.NoError(t, session.Send([]byte("one")))
	assert.ErrorIs(t, session.Send([]byte("two")), ErrSendBufferFull)
}
