package pkg

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Dispatcher runs each inbound frame through decode, validate, apply and
// broadcast. The dispatch lock serializes apply-plus-broadcast so deltas
// for the same field are always fanned out in the order they were applied;
// fan-out itself only enqueues to per-session buffers, so no connection
// I/O happens under the lock.
type Dispatcher struct {
	mu       sync.Mutex
	state    *RoomState
	registry *Registry
	codec    *Codec
}

func NewDispatcher(state *RoomState, registry *Registry, codec *Codec) *Dispatcher {
	return &Dispatcher{
		state:    state,
		registry: registry,
		codec:    codec,
	}
}

// Join registers the connection and sends it the initial state snapshot.
// Holding the dispatch lock across both steps guarantees the joiner never
// misses a delta between snapshot and registration, and never sees one
// twice.
func (d *Dispatcher) Join(conn Connection) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.registry.Register(conn); err != nil {
		return err
	}

	chat, value, version, strokes := d.state.Snapshot()
	frame, err := d.codec.EncodeSnapshot(chat, value, version, strokes)
	if err != nil {
		d.registry.Unregister(conn.ID())
		return err
	}
	if err := conn.Send(frame); err != nil {
		d.registry.Unregister(conn.ID())
		return err
	}

	return nil
}

// Leave unregisters the connection and force-closes any stroke it still
// owns, broadcasting the resulting stroke completions. Already-applied
// state is never rolled back.
func (d *Dispatcher) Leave(conn Connection) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.registry.Unregister(conn.ID())

	for _, strokeID := range d.state.CloseStrokesOwnedBy(conn.ID()) {
		frame, err := d.codec.EncodeStrokeEnd(strokeID)
		if err != nil {
			log.Error("Failed to encode stroke end: ", err)
			continue
		}
		d.registry.Broadcast(frame, "")

		log.WithFields(log.Fields{
			"client": conn.ID(),
			"stroke": strokeID,
		}).Info("Force-closed stroke on disconnect")
	}
}

// HandleFrame processes one inbound frame from conn. Rejected frames are
// dropped without mutating state; the sender gets a best-effort error
// acknowledgment.
func (d *Dispatcher) HandleFrame(conn Connection, data []byte) {
	event, err := d.codec.Decode(data)
	if err != nil {
		d.reject(conn, "unknown", err)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch ev := event.(type) {
	case ChatSend:
		msg := d.state.AppendChat(conn.ID(), ev.Text)
		frame, err := d.codec.EncodeChatDelta(msg)
		d.broadcastDelta(ev.FrameType(), frame, err)
	case CounterIncrement:
		value, version := d.state.IncrementCounter()
		frame, err := d.codec.EncodeCounterDelta(value, version)
		d.broadcastDelta(ev.FrameType(), frame, err)
	case StrokePoint:
		seq, err := d.state.AppendStrokePoint(conn.ID(), ev.StrokeID, ev.X, ev.Y)
		if err != nil {
			d.reject(conn, ev.FrameType(), err)
			return
		}
		frame, err := d.codec.EncodeStrokeDelta(ev.StrokeID, ev.X, ev.Y, seq)
		d.broadcastDelta(ev.FrameType(), frame, err)
	case StrokeEnd:
		if err := d.state.EndStroke(conn.ID(), ev.StrokeID); err != nil {
			d.reject(conn, ev.FrameType(), err)
			return
		}
		frame, err := d.codec.EncodeStrokeEnd(ev.StrokeID)
		d.broadcastDelta(ev.FrameType(), frame, err)
	}
}

// broadcastDelta fans an encoded delta out to every connection, sender
// included, so all clients render from the same authoritative echo. A
// frame only counts as applied once its delta actually went out.
func (d *Dispatcher) broadcastDelta(frameType string, frame []byte, err error) {
	if err != nil {
		log.Error("Failed to encode delta: ", err)
		CollabFramesCounter.WithLabelValues(frameType, "encode_error").Inc()
		return
	}
	d.registry.Broadcast(frame, "")
	CollabFramesCounter.WithLabelValues(frameType, "applied").Inc()
}

func (d *Dispatcher) reject(conn Connection, frameType string, cause error) {
	CollabFramesCounter.WithLabelValues(frameType, "rejected").Inc()

	log.WithFields(log.Fields{
		"client": conn.ID(),
	}).Debug("Rejected frame: ", cause)

	ack, err := d.codec.EncodeError(cause)
	if err != nil {
		return
	}
	// Best-effort; the sender may already be gone.
	_ = conn.Send(ack)
}
