package pkg

import (
	"fmt"
	"sync"
)

type ChatMessage struct {
	SenderID string
	Text     string
	Seq      int64
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Stroke struct {
	ID      string
	OwnerID string
	Points  []Point
}

// RoomState holds the authoritative shared state for the single room: the
// chat transcript, the counter, and the set of open strokes. Every mutation
// runs under the room lock; critical sections are O(1) and do no I/O.
type RoomState struct {
	mu sync.Mutex

	chat      []ChatMessage
	chatSeq   int64
	chatLimit int

	counterValue   int64
	counterVersion int64

	strokes map[string]*Stroke
	ended   map[string]struct{}
}

// NewRoomState creates an empty room. chatLimit caps the retained
// transcript; sequence numbers keep counting past the cap.
func NewRoomState(chatLimit int) *RoomState {
	return &RoomState{
		chatLimit: chatLimit,
		strokes:   make(map[string]*Stroke),
		ended:     make(map[string]struct{}),
	}
}

func (r *RoomState) AppendChat(clientID, text string) ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.chatSeq++
	msg := ChatMessage{SenderID: clientID, Text: text, Seq: r.chatSeq}
	r.chat = append(r.chat, msg)

	if r.chatLimit > 0 && len(r.chat) > r.chatLimit {
		r.chat = r.chat[len(r.chat)-r.chatLimit:]
	}

	return msg
}

func (r *RoomState) IncrementCounter() (value, version int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counterValue++
	r.counterVersion++
	return r.counterValue, r.counterVersion
}

// AppendStrokePoint adds a point to the stroke, opening it if this is the
// first point. Points for an ended stroke, or for a stroke owned by another
// client, are stale.
func (r *RoomState) AppendStrokePoint(clientID, strokeID string, x, y float64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, done := r.ended[strokeID]; done {
		return 0, fmt.Errorf("%w: stroke %s already ended", ErrStaleStroke, strokeID)
	}

	stroke, ok := r.strokes[strokeID]
	if !ok {
		stroke = &Stroke{ID: strokeID, OwnerID: clientID}
		r.strokes[strokeID] = stroke
	} else if stroke.OwnerID != clientID {
		return 0, fmt.Errorf("%w: stroke %s owned by another client", ErrStaleStroke, strokeID)
	}

	stroke.Points = append(stroke.Points, Point{X: x, Y: y})
	return int64(len(stroke.Points)), nil
}

func (r *RoomState) EndStroke(clientID, strokeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stroke, ok := r.strokes[strokeID]
	if !ok {
		return fmt.Errorf("%w: stroke %s not open", ErrStaleStroke, strokeID)
	}
	if stroke.OwnerID != clientID {
		return fmt.Errorf("%w: stroke %s owned by another client", ErrStaleStroke, strokeID)
	}

	delete(r.strokes, strokeID)
	r.ended[strokeID] = struct{}{}
	return nil
}

// CloseStrokesOwnedBy force-closes every open stroke owned by the client
// and returns the closed stroke ids. Used when a client disconnects
// mid-stroke.
func (r *RoomState) CloseStrokesOwnedBy(clientID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var closed []string
	for id, stroke := range r.strokes {
		if stroke.OwnerID == clientID {
			delete(r.strokes, id)
			r.ended[id] = struct{}{}
			closed = append(closed, id)
		}
	}
	return closed
}

// Snapshot returns a point-in-time consistent copy of the room state.
func (r *RoomState) Snapshot() (chat []ChatMessage, counterValue, counterVersion int64, strokes []Stroke) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chat = make([]ChatMessage, len(r.chat))
	copy(chat, r.chat)

	strokes = make([]Stroke, 0, len(r.strokes))
	for _, stroke := range r.strokes {
		points := make([]Point, len(stroke.Points))
		copy(points, stroke.Points)
		strokes = append(strokes, Stroke{
			ID:      stroke.ID,
			OwnerID: stroke.OwnerID,
			Points:  points,
		})
	}

	return chat, r.counterValue, r.counterVersion, strokes
}

// Totals reports per-channel counts for the stats endpoint.
func (r *RoomState) Totals() (chatLen int, counterValue int64, openStrokes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chat), r.counterValue, len(r.strokes)
}
