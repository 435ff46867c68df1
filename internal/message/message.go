package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Message is the complete wire frame: a type tag plus a loosely typed data
// object. There is no further envelope.
type Message struct {
	Type Type           `json:"messageType"`
	Data map[string]any `json:"data"`
}

// New builds a message, copying no data; callers hand over ownership of the
// map.
func New(t Type, data map[string]any) Message {
	if data == nil {
		data = map[string]any{}
	}
	return Message{Type: t, Data: data}
}

// ErrMissingType marks a frame that parsed as JSON but carried no usable
// messageType field. Such frames are still dispatched so the router can log
// them in context.
var ErrMissingType = errors.New("message: frame has no messageType")

// Parse decodes one frame. A frame whose messageType is absent or not an
// integer yields a Message with TypeUnknown and ErrMissingType; the caller
// decides whether to drop it.
func Parse(raw []byte) (Message, error) {
	var frame struct {
		Type any            `json:"messageType"`
		Data map[string]any `json:"data"`
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&frame); err != nil {
		return Message{}, fmt.Errorf("decode frame: %w", err)
	}
	msg := Message{Type: TypeUnknown, Data: frame.Data}
	if msg.Data == nil {
		msg.Data = map[string]any{}
	}
	num, ok := frame.Type.(json.Number)
	if !ok {
		return msg, ErrMissingType
	}
	n, err := num.Int64()
	if err != nil {
		return msg, ErrMissingType
	}
	msg.Type = Type(n)
	return msg, nil
}

// Marshal serializes the frame for the wire.
func (m Message) Marshal() ([]byte, error) {
	data := m.Data
	if data == nil {
		data = map[string]any{}
	}
	return json.Marshal(Message{Type: m.Type, Data: data})
}

// FromPayload builds a message from a typed payload struct, the inverse of
// DecodeData.
func FromPayload(t Type, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", t, err)
	}
	data := map[string]any{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return New(t, data), nil
}

// DecodeData maps the loosely typed data object onto a payload struct.
func (m Message) DecodeData(v any) error {
	raw, err := json.Marshal(m.Data)
	if err != nil {
		return fmt.Errorf("encode %s data: %w", m.Type, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s data: %w", m.Type, err)
	}
	return nil
}
