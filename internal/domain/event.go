package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultEventName is used when a broker message names neither event nor type.
const DefaultEventName = "message"

var ErrMalformedEvent = errors.New("malformed event")

// InboundEvent is one message consumed from the exchange. It lives only for
// the duration of its dispatch.
type InboundEvent struct {
	Name  string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Rooms []string        `json:"rooms,omitempty"`
	// MessageID is the broker message id, if the publisher set one.
	MessageID string `json:"messageId,omitempty"`
}

// IsGlobal reports whether the event goes to every connected client.
func (e InboundEvent) IsGlobal() bool {
	return len(e.Rooms) == 0
}

// ParseInboundEvent decodes a broker message body of the shape
// {event?, type?, data?, rooms?}. event falls back to type and then to
// DefaultEventName; a missing or null data falls back to the whole body.
func ParseInboundEvent(body []byte) (InboundEvent, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return InboundEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if fields == nil {
		return InboundEvent{}, fmt.Errorf("%w: body is not a JSON object", ErrMalformedEvent)
	}

	event := InboundEvent{
		Name: firstString(fields, "event", "type"),
	}
	if event.Name == "" {
		event.Name = DefaultEventName
	}

	if data, ok := fields["data"]; ok && !isNull(data) {
		event.Data = data
	} else {
		event.Data = json.RawMessage(bytes.TrimSpace(body))
	}

	if raw, ok := fields["rooms"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &event.Rooms); err != nil {
			return InboundEvent{}, fmt.Errorf("%w: rooms must be a list of strings: %v", ErrMalformedEvent, err)
		}
	}

	return event, nil
}

func firstString(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
