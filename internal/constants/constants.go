package constants

type ClipState string

const (
	// Clip lifecycle
	ClipStateStored   ClipState = "stored"
	ClipStateAccepted ClipState = "accepted"
	ClipStateFetched  ClipState = "fetched"
	ClipStateExpired  ClipState = "expired"
)

// Envelope type tags exchanged over the relay connection.
// Payload fields are opaque to the server; only the tag is inspected.
const (
	MsgTypePubkey        = "pubkey"
	MsgTypeMessage       = "message"
	MsgTypeImage         = "image"
	MsgTypeClipAvailable = "clip_available"
	MsgTypeClipAccept    = "clip_accept"
)

// Server-originated envelope tags (never accepted from clients).
const (
	MsgTypeError            = "error"
	MsgTypePeerDisconnected = "peer_disconnected"
)

const (
	// SlotsPerRoom is a product decision: a secure line is strictly two-party.
	SlotsPerRoom = 2
)
