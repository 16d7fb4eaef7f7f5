package relay

import (
	"context"
	"encoding/json"

	"github.com/StephenDK/Secure-Line/clips"
	"github.com/StephenDK/Secure-Line/internal/constants"
	"github.com/StephenDK/Secure-Line/internal/log"
)

// Router classifies inbound envelopes by their type tag and forwards
// them to the other room occupant without touching the payload bytes.
// clip_accept is the one tag consumed by the server itself.
type Router struct {
	registry *Registry
	store    clips.ClipStore
	logger   *log.Logger
}

func NewRouter(registry *Registry, store clips.ClipStore, logger *log.Logger) *Router {
	return &Router{
		registry: registry,
		store:    store,
		logger:   logger,
	}
}

// Dispatch routes one inbound message from the connection bound to b.
// Dispatch is called in per-connection receive order, which preserves
// per-direction ordering end to end. Malformed or unrecognized input
// is dropped with no state mutation.
func (r *Router) Dispatch(b Binding, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.drop(b, "malformed", log.Error(err))
		return
	}

	switch env.Type {
	case constants.MsgTypePubkey:
		if len(env.Data) == 0 {
			r.drop(b, "pubkey without data")
			return
		}
		r.registry.RememberKey(b.RoomID, b.Slot, raw)
		r.forward(b, env.Type, raw)

	case constants.MsgTypeMessage, constants.MsgTypeImage, constants.MsgTypeClipAvailable:
		r.forward(b, env.Type, raw)

	case constants.MsgTypeClipAccept:
		if env.ClipID == "" {
			r.drop(b, "clip_accept without clipId")
			return
		}
		if !r.store.Accept(env.ClipID) {
			r.logger.Warn("Clip accept rejected",
				log.String("roomId", b.RoomID),
				log.String("clipId", env.ClipID))
		}

	default:
		r.drop(b, "unrecognized type", log.String("type", env.Type))
	}
}

func (r *Router) forward(b Binding, msgType string, raw []byte) {
	peer := r.registry.PeerOf(b.RoomID, b.Slot)
	if peer == nil {
		r.drop(b, "no peer", log.String("type", msgType))
		return
	}

	if err := peer.Send(raw); err != nil {
		forwardsFailed.Add(context.Background(), 1)
		r.logger.Warn("Failed to forward to peer",
			log.String("roomId", b.RoomID),
			log.String("type", msgType),
			log.Error(err))
		return
	}

	messagesForwarded.Add(context.Background(), 1)
	r.logger.Debug("Forwarded message",
		log.String("roomId", b.RoomID),
		log.String("type", msgType),
		log.Int("size", len(raw)))
}

func (r *Router) drop(b Binding, reason string, fields ...log.Field) {
	messagesDropped.Add(context.Background(), 1)
	fields = append(fields,
		log.String("roomId", b.RoomID),
		log.String("reason", reason))
	r.logger.Debug("Dropped message", fields...)
}
