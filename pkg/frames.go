package pkg

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

const (
	FrameTypeChat       = "chat"
	FrameTypeCounterInc = "counter_inc"
	FrameTypeCounter    = "counter"
	FrameTypeDrawPoint  = "draw_point"
	FrameTypeDrawEnd    = "draw_end"
	FrameTypeSnapshot   = "snapshot"
	FrameTypeError      = "error"
)

// Event is a decoded, validated inbound frame.
type Event interface {
	// FrameType returns the wire type tag the event was decoded from.
	FrameType() string
}

type ChatSend struct {
	Text string
}

type CounterIncrement struct{}

type StrokePoint struct {
	StrokeID string
	X        float64
	Y        float64
}

type StrokeEnd struct {
	StrokeID string
}

func (ChatSend) FrameType() string         { return FrameTypeChat }
func (CounterIncrement) FrameType() string { return FrameTypeCounterInc }
func (StrokePoint) FrameType() string      { return FrameTypeDrawPoint }
func (StrokeEnd) FrameType() string        { return FrameTypeDrawEnd }

// Inbound payload shapes. Pointer fields distinguish a missing key from a
// zero value: x=0 is a valid coordinate, an absent x is a malformed frame.
type chatSendFrame struct {
	Text *string `json:"text" validate:"required"`
}

type strokePointFrame struct {
	StrokeID string   `json:"strokeId" validate:"required"`
	X        *float64 `json:"x" validate:"required"`
	Y        *float64 `json:"y" validate:"required"`
}

type strokeEndFrame struct {
	StrokeID string `json:"strokeId" validate:"required"`
}

// Outbound frames.
type ChatDelta struct {
	Type     string `json:"type"`
	SenderID string `json:"senderId"`
	Text     string `json:"text"`
	Seq      int64  `json:"seq"`
}

type CounterDelta struct {
	Type    string `json:"type"`
	Value   int64  `json:"value"`
	Version int64  `json:"version"`
}

type StrokeDelta struct {
	Type     string  `json:"type"`
	StrokeID string  `json:"strokeId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Seq      int64   `json:"seq"`
}

type StrokeEndDelta struct {
	Type     string `json:"type"`
	StrokeID string `json:"strokeId"`
}

type ChatEntry struct {
	SenderID string `json:"senderId"`
	Text     string `json:"text"`
	Seq      int64  `json:"seq"`
}

type StrokeState struct {
	StrokeID string  `json:"strokeId"`
	OwnerID  string  `json:"ownerId"`
	Points   []Point `json:"points"`
}

type SnapshotFrame struct {
	Type           string        `json:"type"`
	ChatHistory    []ChatEntry   `json:"chatHistory"`
	CounterValue   int64         `json:"counterValue"`
	CounterVersion int64         `json:"counterVersion"`
	ActiveStrokes  []StrokeState `json:"activeStrokes"`
}

type ErrorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Codec translates wire frames to typed events and state deltas back to
// wire frames.
type Codec struct {
	validate *validator.Validate
}

func NewCodec() *Codec {
	return &Codec{validate: validator.New()}
}

func (c *Codec) Decode(data []byte) (Event, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch envelope.Type {
	case FrameTypeChat:
		var frame chatSendFrame
		if err := c.decodePayload(data, &frame); err != nil {
			return nil, err
		}
		return ChatSend{Text: *frame.Text}, nil
	case FrameTypeCounterInc:
		return CounterIncrement{}, nil
	case FrameTypeDrawPoint:
		var frame strokePointFrame
		if err := c.decodePayload(data, &frame); err != nil {
			return nil, err
		}
		return StrokePoint{StrokeID: frame.StrokeID, X: *frame.X, Y: *frame.Y}, nil
	case FrameTypeDrawEnd:
		var frame strokeEndFrame
		if err := c.decodePayload(data, &frame); err != nil {
			return nil, err
		}
		return StrokeEnd{StrokeID: frame.StrokeID}, nil
	default:
		return nil, fmt.Errorf("%w: unknown frame type %q", ErrMalformedFrame, envelope.Type)
	}
}

func (c *Codec) decodePayload(data []byte, frame interface{}) error {
	if err := json.Unmarshal(data, frame); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if err := c.validate.Struct(frame); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return nil
}

func (c *Codec) EncodeChatDelta(msg ChatMessage) ([]byte, error) {
	return json.Marshal(ChatDelta{
		Type:     FrameTypeChat,
		SenderID: msg.SenderID,
		Text:     msg.Text,
		Seq:      msg.Seq,
	})
}

func (c *Codec) EncodeCounterDelta(value, version int64) ([]byte, error) {
	return json.Marshal(CounterDelta{
		Type:    FrameTypeCounter,
		Value:   value,
		Version: version,
	})
}

func (c *Codec) EncodeStrokeDelta(strokeID string, x, y float64, seq int64) ([]byte, error) {
	return json.Marshal(StrokeDelta{
		Type:     FrameTypeDrawPoint,
		StrokeID: strokeID,
		X:        x,
		Y:        y,
		Seq:      seq,
	})
}

func (c *Codec) EncodeStrokeEnd(strokeID string) ([]byte, error) {
	return json.Marshal(StrokeEndDelta{
		Type:     FrameTypeDrawEnd,
		StrokeID: strokeID,
	})
}

func (c *Codec) EncodeSnapshot(chat []ChatMessage, counterValue, counterVersion int64, strokes []Stroke) ([]byte, error) {
	history := lo.Map(chat, func(msg ChatMessage, _ int) ChatEntry {
		return ChatEntry{SenderID: msg.SenderID, Text: msg.Text, Seq: msg.Seq}
	})

	active := lo.Map(strokes, func(s Stroke, _ int) StrokeState {
		return StrokeState{StrokeID: s.ID, OwnerID: s.OwnerID, Points: s.Points}
	})
	sort.Slice(active, func(i, j int) bool {
		return active[i].StrokeID < active[j].StrokeID
	})

	return json.Marshal(SnapshotFrame{
		Type:           FrameTypeSnapshot,
		ChatHistory:    history,
		CounterValue:   counterValue,
		CounterVersion: counterVersion,
		ActiveStrokes:  active,
	})
}

func (c *Codec) EncodeError(err error) ([]byte, error) {
	return json.Marshal(ErrorFrame{
		Type:  FrameTypeError,
		Error: err.Error(),
	})
}
