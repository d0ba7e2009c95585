package ws

import (
	"bytes"
	"encoding/json"
)

// Client -> server events.
const (
	JoinEvent  = "join"
	LeaveEvent = "leave"
)

// Server -> client acknowledgements.
const (
	JoinedEvent = "joined"
	LeftEvent   = "left"
)

// Frame is the JSON text frame exchanged in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encodeFrame(event string, data json.RawMessage) ([]byte, error) {
	return json.Marshal(Frame{Event: event, Data: data})
}

func encodeAck(event, room string) []byte {
	data, _ := json.Marshal(room)
	frame, _ := encodeFrame(event, data)
	return frame
}

// Command is a decoded client request.
type Command interface {
	RoomName() string
}

type JoinCommand struct {
	Room string
}

func (c JoinCommand) RoomName() string { return c.Room }

type LeaveCommand struct {
	Room string
}

func (c LeaveCommand) RoomName() string { return c.Room }

// DecodeCommand parses a client frame. Frames that are not JSON, name an
// unknown event, or carry a non-string room are reported as not ok.
func DecodeCommand(raw []byte) (Command, bool) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, false
	}

	data := bytes.TrimSpace(frame.Data)
	if len(data) == 0 || data[0] != '"' {
		return nil, false
	}

	var room string
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, false
	}

	switch frame.Event {
	case JoinEvent:
		return JoinCommand{Room: room}, true
	case LeaveEvent:
		return LeaveCommand{Room: room}, true
	default:
		return nil, false
	}
}
