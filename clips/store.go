package clips

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/StephenDK/Secure-Line/internal/constants"
	"github.com/StephenDK/Secure-Line/internal/errors"
	"github.com/StephenDK/Secure-Line/internal/log"
	intsync "github.com/StephenDK/Secure-Line/internal/sync"
)

type clip struct {
	roomID    string
	payload   []byte
	state     constants.ClipState
	expiresAt time.Time
}

// Store is the in-memory ClipStore. A clip lives in the map from Store
// until exactly one of: a successful Fetch removes it, or the expiry
// reaper removes it at its deadline. Both removals go through the same
// locked map, so the two outcomes are mutually exclusive.
type Store struct {
	clips  *intsync.Map[string, *clip]
	ttl    time.Duration
	clock  clockwork.Clock
	sched  *deadlineScheduler
	logger *log.Logger
	wg     sync.WaitGroup
}

func NewStore(ttl time.Duration, logger *log.Logger) *Store {
	return newStoreWithClock(ttl, clockwork.NewRealClock(), logger)
}

func newStoreWithClock(ttl time.Duration, clock clockwork.Clock, logger *log.Logger) *Store {
	if logger == nil {
		panic("logger is required")
	}

	s := &Store{
		clips:  intsync.NewMap[string, *clip](),
		ttl:    ttl,
		clock:  clock,
		sched:  newDeadlineScheduler(clock),
		logger: logger,
	}

	s.wg.Add(1)
	go s.reapLoop()
	return s
}

// Close stops the expiry scheduler and waits for the reaper to drain.
// Pending clips are abandoned with the process; nothing survives restart.
func (s *Store) Close() error {
	s.sched.Shutdown()
	s.wg.Wait()
	return nil
}

func (s *Store) Store(clipID, roomID string, payload []byte) error {
	expiresAt := s.clock.Now().Add(s.ttl)

	var err error
	s.clips.WithLock(func(view intsync.View[string, *clip]) {
		if _, ok := view.Get(clipID); ok {
			err = errors.Newf(ErrClipExists, "clip %s already stored", clipID)
			return
		}
		view.Set(clipID, &clip{
			roomID:    roomID,
			payload:   payload,
			state:     constants.ClipStateStored,
			expiresAt: expiresAt,
		})
	})
	if err != nil {
		s.logger.Warn("Rejected duplicate clip",
			log.String("clipId", clipID),
			log.String("roomId", roomID))
		return err
	}

	// Scheduling outside the lock is safe: the reaper tolerates fired
	// keys whose record is already gone.
	s.sched.Schedule(clipID, expiresAt)

	clipsStored.Add(context.Background(), 1)
	clipPayloadBytes.Record(context.Background(), int64(len(payload)))
	s.logger.Info("Stored clip",
		log.String("clipId", clipID),
		log.String("roomId", roomID),
		log.Int("size", len(payload)),
		log.Duration("ttl", s.ttl))
	return nil
}

func (s *Store) Accept(clipID string) bool {
	now := s.clock.Now()

	accepted := false
	reason := "not_found"
	roomID := ""
	s.clips.WithLock(func(view intsync.View[string, *clip]) {
		c, ok := view.Get(clipID)
		if !ok {
			return
		}
		if now.After(c.expiresAt) {
			reason = "expired"
			return
		}
		if c.state == constants.ClipStateStored {
			c.state = constants.ClipStateAccepted
		}
		accepted = c.state == constants.ClipStateAccepted
		roomID = c.roomID
	})

	if !accepted {
		s.logger.Warn("Clip accept failed",
			log.String("clipId", clipID),
			log.String("reason", reason))
		return false
	}

	s.logger.Info("Accepted clip",
		log.String("clipId", clipID),
		log.String("roomId", roomID))
	return true
}

func (s *Store) Fetch(clipID, roomID string) ([]byte, error) {
	now := s.clock.Now()

	var payload []byte
	var err error
	s.clips.WithLock(func(view intsync.View[string, *clip]) {
		c, ok := view.Get(clipID)
		switch {
		case !ok:
			err = errors.Newf(ErrNotFound, "clip %s not found", clipID)
		case c.roomID != roomID:
			err = errors.Newf(ErrRoomMismatch, "clip %s belongs to another room", clipID)
		case c.state == constants.ClipStateStored:
			err = errors.Newf(ErrNotAccepted, "clip %s was never accepted", clipID)
		case c.state == constants.ClipStateFetched:
			// unreachable while fetch deletes the record, kept so a
			// future state would still report deterministically
			err = errors.Newf(ErrAlreadyFetched, "clip %s already fetched", clipID)
		case now.After(c.expiresAt):
			// deadline passed but the reaper has not removed it yet
			err = errors.Newf(ErrExpired, "clip %s expired", clipID)
		default:
			c.state = constants.ClipStateFetched
			view.Delete(clipID)
			payload = c.payload
		}
	})
	if err != nil {
		clipFetchesFailed.Add(context.Background(), 1)
		s.logger.Warn("Clip fetch failed",
			log.String("clipId", clipID),
			log.String("roomId", roomID),
			log.Error(err))
		return nil, err
	}

	s.sched.Cancel(clipID)

	clipsFetched.Add(context.Background(), 1)
	s.logger.Info("Fetched clip",
		log.String("clipId", clipID),
		log.String("roomId", roomID),
		log.Int("size", len(payload)))
	return payload, nil
}

// Len reports the number of live clip records.
func (s *Store) Len() int {
	n := 0
	s.clips.WithLock(func(view intsync.View[string, *clip]) {
		n = view.Len()
	})
	return n
}

func (s *Store) reapLoop() {
	defer s.wg.Done()

	for clipID := range s.sched.Chan() {
		s.reap(clipID)
	}
}

func (s *Store) reap(clipID string) {
	reaped := false
	roomID := ""
	s.clips.WithLock(func(view intsync.View[string, *clip]) {
		c, ok := view.Get(clipID)
		if !ok {
			// fetched (and canceled too late) or never existed
			return
		}
		c.state = constants.ClipStateExpired
		view.Delete(clipID)
		reaped = true
		roomID = c.roomID
	})
	if !reaped {
		return
	}

	clipsExpired.Add(context.Background(), 1)
	s.logger.Info("Expired clip",
		log.String("clipId", clipID),
		log.String("roomId", roomID),
		log.String("reason", "ttl_elapsed"))
}
