package clips

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zapcore"

	"github.com/StephenDK/Secure-Line/internal/constants"
	"github.com/StephenDK/Secure-Line/internal/errors"
	"github.com/StephenDK/Secure-Line/internal/log"
)

type StoreTestSuite struct {
	suite.Suite
	clock *clockwork.FakeClock
	store *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) SetupTest() {
	s.clock = clockwork.NewFakeClock()
	s.store = newStoreWithClock(DefaultTTL, s.clock, log.NewTest(s.T()))
}

func (s *StoreTestSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func (s *StoreTestSuite) TestStoreAcceptFetch() {
	payload := []byte("encrypted-bytes")
	s.Require().NoError(s.store.Store("clip1", "room1", payload))

	s.Assert().True(s.store.Accept("clip1"))

	got, err := s.store.Fetch("clip1", "room1")
	s.Require().NoError(err)
	s.Assert().Equal(payload, got)
	s.Assert().Equal(0, s.store.Len())

	// gone after the single fetch
	_, err = s.store.Fetch("clip1", "room1")
	s.Assert().True(errors.Is(err, ErrNotFound))
}

func (s *StoreTestSuite) TestDuplicateClipID() {
	s.Require().NoError(s.store.Store("clip1", "room1", []byte("a")))

	err := s.store.Store("clip1", "room2", []byte("b"))
	s.Assert().True(errors.Is(err, ErrClipExists))

	// the original record is untouched
	s.Assert().True(s.store.Accept("clip1"))
	got, err := s.store.Fetch("clip1", "room1")
	s.Require().NoError(err)
	s.Assert().Equal([]byte("a"), got)
}

func (s *StoreTestSuite) TestFetchWithoutAccept() {
	s.Require().NoError(s.store.Store("clip1", "room1", []byte("a")))

	_, err := s.store.Fetch("clip1", "room1")
	s.Assert().True(errors.Is(err, ErrNotAccepted))

	// rejection does not consume the clip
	s.Assert().True(s.store.Accept("clip1"))
	_, err = s.store.Fetch("clip1", "room1")
	s.Assert().NoError(err)
}

func (s *StoreTestSuite) TestRoomMismatch() {
	s.Require().NoError(s.store.Store("clip1", "room1", []byte("a")))
	s.Assert().True(s.store.Accept("clip1"))

	_, err := s.store.Fetch("clip1", "other-room")
	s.Assert().True(errors.Is(err, ErrRoomMismatch))

	// rejection does not consume the clip
	got, err := s.store.Fetch("clip1", "room1")
	s.Require().NoError(err)
	s.Assert().Equal([]byte("a"), got)
}

func (s *StoreTestSuite) TestAcceptIdempotent() {
	s.Require().NoError(s.store.Store("clip1", "room1", []byte("a")))

	s.Assert().True(s.store.Accept("clip1"))
	s.Assert().True(s.store.Accept("clip1"))
}

func (s *StoreTestSuite) TestAcceptUnknown() {
	s.Assert().False(s.store.Accept("no-such-clip"))
}

func (s *StoreTestSuite) TestExpiry() {
	s.Require().NoError(s.store.Store("clip1", "room1", []byte("a")))
	s.Assert().Equal(1, s.store.Len())

	s.clock.Advance(DefaultTTL + time.Second)

	// the reaper runs on its own goroutine
	s.Require().Eventually(func() bool {
		return s.store.Len() == 0
	}, time.Second, 10*time.Millisecond)

	s.Assert().False(s.store.Accept("clip1"))
	_, err := s.store.Fetch("clip1", "room1")
	s.Assert().True(errors.Is(err, ErrNotFound))
}

func (s *StoreTestSuite) TestExpiredBeforeReap() {
	// a record whose deadline has passed but which the reaper has not
	// removed yet, inserted directly to avoid racing the scheduler
	s.store.clips.Store("clip1", &clip{
		roomID:    "room1",
		payload:   []byte("a"),
		state:     constants.ClipStateAccepted,
		expiresAt: s.clock.Now().Add(-time.Second),
	})

	s.Assert().False(s.store.Accept("clip1"))

	_, err := s.store.Fetch("clip1", "room1")
	s.Assert().True(errors.Is(err, ErrExpired))
}

func (s *StoreTestSuite) TestAcceptFailureReasons() {
	logger, logs := log.NewObserved(zapcore.WarnLevel)
	store := newStoreWithClock(DefaultTTL, s.clock, logger)
	defer func() { s.Require().NoError(store.Close()) }()

	store.clips.Store("clip1", &clip{
		roomID:    "room1",
		payload:   []byte("a"),
		state:     constants.ClipStateStored,
		expiresAt: s.clock.Now().Add(-time.Second),
	})

	s.Assert().False(store.Accept("clip1"))
	s.Assert().False(store.Accept("no-such-clip"))

	entries := logs.FilterMessage("Clip accept failed").All()
	s.Require().Len(entries, 2)
	s.Assert().Equal("expired", entries[0].ContextMap()["reason"])
	s.Assert().Equal("not_found", entries[1].ContextMap()["reason"])
}

func (s *StoreTestSuite) TestFetchCancelsExpiry() {
	s.Require().NoError(s.store.Store("clip1", "room1", []byte("a")))
	s.Assert().True(s.store.Accept("clip1"))

	_, err := s.store.Fetch("clip1", "room1")
	s.Require().NoError(err)

	// advancing past the deadline must not resurrect anything
	s.clock.Advance(DefaultTTL + time.Second)
	_, err = s.store.Fetch("clip1", "room1")
	s.Assert().True(errors.Is(err, ErrNotFound))
}

func (s *StoreTestSuite) TestIndependentClips() {
	s.Require().NoError(s.store.Store("clip1", "room1", []byte("a")))
	s.Require().NoError(s.store.Store("clip2", "room1", []byte("b")))
	s.Require().NoError(s.store.Store("clip3", "room2", []byte("c")))
	s.Assert().Equal(3, s.store.Len())

	s.Assert().True(s.store.Accept("clip2"))
	got, err := s.store.Fetch("clip2", "room1")
	s.Require().NoError(err)
	s.Assert().Equal([]byte("b"), got)

	s.Assert().Equal(2, s.store.Len())
	_, err = s.store.Fetch("clip1", "room1")
	s.Assert().True(errors.Is(err, ErrNotAccepted))
}
