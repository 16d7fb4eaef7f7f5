package clips

import (
	"time"

	"github.com/StephenDK/Secure-Line/internal/errors"
)

const (
	// DefaultTTL bounds how long an unfetched clip may occupy memory.
	DefaultTTL = 2 * time.Minute

	// MaxPayloadBytes is enforced at ingestion, before buffering.
	MaxPayloadBytes = 50 << 20
)

// Failure codes for Store/Fetch, checked with errors.Is.
const (
	ErrClipExists     errors.Code = "clip_exists"
	ErrNotFound       errors.Code = "not_found"
	ErrRoomMismatch   errors.Code = "room_mismatch"
	ErrNotAccepted    errors.Code = "not_accepted"
	ErrAlreadyFetched errors.Code = "already_fetched"
	ErrExpired        errors.Code = "expired"
)

// ClipStore owns encrypted clip payloads from ingestion until they are
// handed out exactly once on a successful Fetch or discarded on expiry.
// Payload bytes are opaque; the store performs no interpretation beyond
// the size bound enforced by the caller at ingestion.
type ClipStore interface {
	// Store inserts a new clip bound to roomID and schedules its expiry.
	// Duplicate clip IDs are a caller error (ErrClipExists).
	Store(clipID, roomID string, payload []byte) error

	// Accept authorizes a later Fetch. It is intentionally permissive
	// (no room check) and idempotent; it reports false once the clip is
	// gone or past its deadline.
	Accept(clipID string) bool

	// Fetch hands out the payload exactly once. Checks run in a fixed
	// order so the reported reason is deterministic:
	// ErrNotFound, ErrRoomMismatch, ErrNotAccepted, ErrAlreadyFetched,
	// ErrExpired.
	Fetch(clipID, roomID string) ([]byte, error)
}
