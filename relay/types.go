package relay

import (
	"encoding/json"

	"github.com/StephenDK/Secure-Line/internal/errors"
)

// Admission errors, terminal for the connection.
const (
	ErrRoomFull      errors.Code = "room_full"
	ErrMissingRoomID errors.Code = "missing_room_id"
)

// Peer is one live room occupant. Send delivers the original envelope
// bytes verbatim; SendJSON is for server-originated envelopes only.
type Peer interface {
	Send(raw []byte) error
	SendJSON(v any) error
	Close() error
}

// Binding ties a connection to its room slot. A connection holds at
// most one binding for its lifetime.
type Binding struct {
	RoomID string
	Slot   int
}

// Envelope is the decoded head of a relayed message. Only the fields
// routing needs are decoded; the payload stays in the original bytes.
type Envelope struct {
	Type   string          `json:"type"`
	ClipID string          `json:"clipId,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// ErrorMessage is sent before the server closes a rejected connection.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// PeerDisconnected notifies the remaining occupant that the other left.
type PeerDisconnected struct {
	Type string `json:"type"`
}
