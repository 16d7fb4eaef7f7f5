package relay

import (
	"context"
	"sync"

	"github.com/StephenDK/Secure-Line/internal/constants"
	"github.com/StephenDK/Secure-Line/internal/errors"
	"github.com/StephenDK/Secure-Line/internal/log"
)

type slot struct {
	peer Peer
	// last pubkey envelope advertised by this slot, replayed verbatim
	// to a later joiner of the other slot
	key []byte
}

type room struct {
	slots [constants.SlotsPerRoom]slot
}

func (r *room) empty() bool {
	for i := range r.slots {
		if r.slots[i].peer != nil {
			return false
		}
	}
	return true
}

func otherSlot(i int) int {
	return (i + 1) % constants.SlotsPerRoom
}

// Registry owns the room map. Every lookup-then-mutate on a room's
// slot pair happens under the registry lock, so no partial state of a
// pair is ever observable.
type Registry struct {
	rooms  map[string]*room
	rwLock sync.RWMutex
	logger *log.Logger
}

func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		panic("logger is required")
	}
	return &Registry{
		rooms:  make(map[string]*room),
		logger: logger,
	}
}

// Join assigns p to the lowest free slot of roomID, creating the room
// on first join. It returns the assigned slot index and the cached
// pubkey envelope of the other occupant (nil if none) for immediate
// replay to the joiner. A full room rejects with ErrRoomFull and no
// mutation.
func (r *Registry) Join(roomID string, p Peer) (int, []byte, error) {
	r.rwLock.Lock()
	defer r.rwLock.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		rm = &room{}
		r.rooms[roomID] = rm
		roomsActive.Add(context.Background(), 1)
		r.logger.Info("Room created", log.String("roomId", roomID))
	}

	idx := -1
	for i := range rm.slots {
		if rm.slots[i].peer == nil {
			idx = i
			break
		}
	}
	if idx < 0 {
		joinsRejected.Add(context.Background(), 1)
		r.logger.Warn("Join rejected, room full", log.String("roomId", roomID))
		return 0, nil, errors.Newf(ErrRoomFull, "room %s is full", roomID)
	}

	rm.slots[idx].peer = p

	joinsTotal.Add(context.Background(), 1)
	peersActive.Add(context.Background(), 1)
	r.logger.Info("Peer joined",
		log.String("roomId", roomID),
		log.Int("slot", idx))

	return idx, rm.slots[otherSlot(idx)].key, nil
}

// Leave clears the slot's occupant and cached key material, deletes
// the room the moment both slots are empty, and returns the remaining
// occupant (nil if none) so the caller can notify it exactly once.
func (r *Registry) Leave(roomID string, slotIdx int) Peer {
	r.rwLock.Lock()
	defer r.rwLock.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	if rm.slots[slotIdx].peer == nil {
		return nil
	}

	rm.slots[slotIdx] = slot{}
	peersActive.Add(context.Background(), -1)
	r.logger.Info("Peer left",
		log.String("roomId", roomID),
		log.Int("slot", slotIdx))

	if rm.empty() {
		delete(r.rooms, roomID)
		roomsActive.Add(context.Background(), -1)
		r.logger.Info("Room deleted", log.String("roomId", roomID))
		return nil
	}

	return rm.slots[otherSlot(slotIdx)].peer
}

// PeerOf returns the live occupant of the other slot, or nil.
func (r *Registry) PeerOf(roomID string, slotIdx int) Peer {
	r.rwLock.RLock()
	defer r.rwLock.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	return rm.slots[otherSlot(slotIdx)].peer
}

// RememberKey caches a slot's pubkey envelope verbatim for replay to
// a future joiner of the other slot.
func (r *Registry) RememberKey(roomID string, slotIdx int, raw []byte) {
	r.rwLock.Lock()
	defer r.rwLock.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok || rm.slots[slotIdx].peer == nil {
		return
	}
	rm.slots[slotIdx].key = raw
}

// HasRoom reports whether roomID currently exists, i.e. has at least
// one occupant.
func (r *Registry) HasRoom(roomID string) bool {
	r.rwLock.RLock()
	defer r.rwLock.RUnlock()

	_, ok := r.rooms[roomID]
	return ok
}
