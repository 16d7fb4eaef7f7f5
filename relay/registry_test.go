package relay

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/StephenDK/Secure-Line/internal/errors"
	"github.com/StephenDK/Secure-Line/internal/log"
)

type fakePeer struct {
	mu      sync.Mutex
	sent    [][]byte
	jsons   []any
	sendErr error
	closed  bool
}

func (p *fakePeer) Send(raw []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return p.sendErr
	}
	p.sent = append(p.sent, raw)
	return nil
}

func (p *fakePeer) SendJSON(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return p.sendErr
	}
	p.jsons = append(p.jsons, v)
	return nil
}

func (p *fakePeer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePeer) sentFrames() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.sent...)
}

type RegistryTestSuite struct {
	suite.Suite
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (s *RegistryTestSuite) SetupTest() {
	s.registry = NewRegistry(log.NewTest(s.T()))
}

func (s *RegistryTestSuite) TestSlotsAssignedLowestFirst() {
	x, y := &fakePeer{}, &fakePeer{}

	slotX, keyX, err := s.registry.Join("abc123", x)
	s.Require().NoError(err)
	s.Assert().Equal(0, slotX)
	s.Assert().Nil(keyX)

	slotY, keyY, err := s.registry.Join("abc123", y)
	s.Require().NoError(err)
	s.Assert().Equal(1, slotY)
	s.Assert().Nil(keyY)
}

func (s *RegistryTestSuite) TestRoomFull() {
	x, y, z := &fakePeer{}, &fakePeer{}, &fakePeer{}

	_, _, err := s.registry.Join("full", x)
	s.Require().NoError(err)
	_, _, err = s.registry.Join("full", y)
	s.Require().NoError(err)

	_, _, err = s.registry.Join("full", z)
	s.Assert().True(errors.Is(err, ErrRoomFull))

	// the existing slot pair is untouched
	s.Assert().Same(y, s.registry.PeerOf("full", 0))
	s.Assert().Same(x, s.registry.PeerOf("full", 1))
}

func (s *RegistryTestSuite) TestKeyReplayToLateJoiner() {
	x, y := &fakePeer{}, &fakePeer{}
	raw := []byte(`{"type":"pubkey","data":"base64-key-material"}`)

	slotX, _, err := s.registry.Join("abc123", x)
	s.Require().NoError(err)
	s.registry.RememberKey("abc123", slotX, raw)

	_, keyY, err := s.registry.Join("abc123", y)
	s.Require().NoError(err)
	s.Assert().Equal(raw, keyY)
}

func (s *RegistryTestSuite) TestLeaveReturnsSurvivor() {
	x, y := &fakePeer{}, &fakePeer{}

	slotX, _, _ := s.registry.Join("abc123", x)
	slotY, _, _ := s.registry.Join("abc123", y)

	survivor := s.registry.Leave("abc123", slotX)
	s.Assert().Same(y, survivor)
	s.Assert().True(s.registry.HasRoom("abc123"))

	survivor = s.registry.Leave("abc123", slotY)
	s.Assert().Nil(survivor)
	s.Assert().False(s.registry.HasRoom("abc123"))
}

func (s *RegistryTestSuite) TestRoomExistsIffOccupied() {
	s.Assert().False(s.registry.HasRoom("abc123"))

	x := &fakePeer{}
	slotX, _, _ := s.registry.Join("abc123", x)
	s.Assert().True(s.registry.HasRoom("abc123"))

	s.registry.Leave("abc123", slotX)
	s.Assert().False(s.registry.HasRoom("abc123"))
}

func (s *RegistryTestSuite) TestRejoinStartsFreshRoom() {
	x := &fakePeer{}
	raw := []byte(`{"type":"pubkey","data":"old-key"}`)

	slotX, _, _ := s.registry.Join("abc123", x)
	s.registry.RememberKey("abc123", slotX, raw)
	s.registry.Leave("abc123", slotX)

	// no memory of prior key material
	y := &fakePeer{}
	slotY, keyY, err := s.registry.Join("abc123", y)
	s.Require().NoError(err)
	s.Assert().Equal(0, slotY)
	s.Assert().Nil(keyY)
}

func (s *RegistryTestSuite) TestSlotReuseAfterLeave() {
	x, y, z := &fakePeer{}, &fakePeer{}, &fakePeer{}
	raw := []byte(`{"type":"pubkey","data":"y-key"}`)

	slotX, _, _ := s.registry.Join("abc123", x)
	slotY, _, _ := s.registry.Join("abc123", y)
	s.registry.RememberKey("abc123", slotY, raw)

	s.registry.Leave("abc123", slotX)

	slotZ, keyZ, err := s.registry.Join("abc123", z)
	s.Require().NoError(err)
	s.Assert().Equal(0, slotZ)
	s.Assert().Equal(raw, keyZ)
}

func (s *RegistryTestSuite) TestPeerOf() {
	s.Assert().Nil(s.registry.PeerOf("nope", 0))

	x := &fakePeer{}
	slotX, _, _ := s.registry.Join("abc123", x)

	// alone in the room
	s.Assert().Nil(s.registry.PeerOf("abc123", slotX))

	y := &fakePeer{}
	slotY, _, _ := s.registry.Join("abc123", y)
	s.Assert().Same(y, s.registry.PeerOf("abc123", slotX))
	s.Assert().Same(x, s.registry.PeerOf("abc123", slotY))
}

func (s *RegistryTestSuite) TestLeaveUnknown() {
	s.Assert().Nil(s.registry.Leave("nope", 0))

	x := &fakePeer{}
	_, _, _ = s.registry.Join("abc123", x)
	s.Assert().Nil(s.registry.Leave("abc123", 1))
	s.Assert().True(s.registry.HasRoom("abc123"))
}

func (s *RegistryTestSuite) TestRememberKeyUnknownRoom() {
	// must not create a room as a side effect
	s.registry.RememberKey("nope", 0, []byte("key"))
	s.Assert().False(s.registry.HasRoom("nope"))
}
