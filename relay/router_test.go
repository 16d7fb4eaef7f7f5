package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/StephenDK/Secure-Line/clips/mocks"
	"github.com/StephenDK/Secure-Line/internal/log"
)

func setupRouter(t *testing.T) (*Router, *Registry, *mocks.MockClipStore) {
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockClipStore(ctrl)
	registry := NewRegistry(log.NewTest(t))
	router := NewRouter(registry, mockStore, log.NewTest(t))
	return router, registry, mockStore
}

func joinPair(t *testing.T, registry *Registry, roomID string) (Binding, *fakePeer, Binding, *fakePeer) {
	x, y := &fakePeer{}, &fakePeer{}

	slotX, _, err := registry.Join(roomID, x)
	require.NoError(t, err)
	slotY, _, err := registry.Join(roomID, y)
	require.NoError(t, err)

	return Binding{RoomID: roomID, Slot: slotX}, x,
		Binding{RoomID: roomID, Slot: slotY}, y
}

func TestForwardVerbatim(t *testing.T) {
	for _, msgType := range []string{"message", "image", "clip_available"} {
		t.Run(msgType, func(t *testing.T) {
			router, registry, _ := setupRouter(t)
			bx, _, _, y := joinPair(t, registry, "abc123")

			raw := []byte(`{"type":"` + msgType + `","data":"b64-ciphertext","iv":"b64-iv"}`)
			router.Dispatch(bx, raw)

			sent := y.sentFrames()
			require.Len(t, sent, 1)
			assert.Equal(t, raw, sent[0])
		})
	}
}

func TestForwardOrderPreserved(t *testing.T) {
	router, registry, _ := setupRouter(t)
	bx, _, _, y := joinPair(t, registry, "abc123")

	first := []byte(`{"type":"message","data":"one"}`)
	second := []byte(`{"type":"message","data":"two"}`)
	router.Dispatch(bx, first)
	router.Dispatch(bx, second)

	sent := y.sentFrames()
	require.Len(t, sent, 2)
	assert.Equal(t, first, sent[0])
	assert.Equal(t, second, sent[1])
}

func TestPubkeyCachedAndForwarded(t *testing.T) {
	router, registry, _ := setupRouter(t)
	bx, _, _, y := joinPair(t, registry, "abc123")

	raw := []byte(`{"type":"pubkey","data":"b64-key"}`)
	router.Dispatch(bx, raw)

	sent := y.sentFrames()
	require.Len(t, sent, 1)
	assert.Equal(t, raw, sent[0])
}

func TestPubkeyCachedWithoutPeer(t *testing.T) {
	router, registry, _ := setupRouter(t)

	x := &fakePeer{}
	slotX, _, err := registry.Join("abc123", x)
	require.NoError(t, err)

	// no peer yet, the forward is dropped but the key must be cached
	raw := []byte(`{"type":"pubkey","data":"b64-key"}`)
	router.Dispatch(Binding{RoomID: "abc123", Slot: slotX}, raw)

	y := &fakePeer{}
	_, keyY, err := registry.Join("abc123", y)
	require.NoError(t, err)
	assert.Equal(t, raw, keyY)
}

func TestPubkeyWithoutDataDropped(t *testing.T) {
	router, registry, _ := setupRouter(t)
	bx, _, _, y := joinPair(t, registry, "abc123")

	router.Dispatch(bx, []byte(`{"type":"pubkey"}`))
	assert.Empty(t, y.sentFrames())

	// nothing was cached either
	registry.Leave("abc123", bx.Slot)
	z := &fakePeer{}
	_, keyZ, err := registry.Join("abc123", z)
	require.NoError(t, err)
	assert.Nil(t, keyZ)
}

func TestClipAccept(t *testing.T) {
	router, registry, mockStore := setupRouter(t)
	bx, _, _, y := joinPair(t, registry, "abc123")

	mockStore.EXPECT().Accept("clip-1").Return(true)

	router.Dispatch(bx, []byte(`{"type":"clip_accept","clipId":"clip-1"}`))

	// never forwarded to the peer
	assert.Empty(t, y.sentFrames())
}

func TestClipAcceptRejected(t *testing.T) {
	router, registry, mockStore := setupRouter(t)
	bx, _, _, _ := joinPair(t, registry, "abc123")

	mockStore.EXPECT().Accept("clip-gone").Return(false)

	// rejection is logged, the connection stays open
	router.Dispatch(bx, []byte(`{"type":"clip_accept","clipId":"clip-gone"}`))
}

func TestClipAcceptWithoutClipID(t *testing.T) {
	router, registry, _ := setupRouter(t)
	bx, _, _, y := joinPair(t, registry, "abc123")

	// no store call expected
	router.Dispatch(bx, []byte(`{"type":"clip_accept"}`))
	assert.Empty(t, y.sentFrames())
}

func TestMalformedDropped(t *testing.T) {
	router, registry, _ := setupRouter(t)
	bx, _, _, y := joinPair(t, registry, "abc123")

	router.Dispatch(bx, []byte(`not json at all`))
	assert.Empty(t, y.sentFrames())
}

func TestUnrecognizedTypeDropped(t *testing.T) {
	router, registry, _ := setupRouter(t)
	bx, _, _, y := joinPair(t, registry, "abc123")

	router.Dispatch(bx, []byte(`{"type":"video_chunk","data":"b64"}`))
	assert.Empty(t, y.sentFrames())
}

func TestDropWithoutPeer(t *testing.T) {
	router, registry, _ := setupRouter(t)

	x := &fakePeer{}
	slotX, _, err := registry.Join("abc123", x)
	require.NoError(t, err)

	// no peer, no queueing, no error
	router.Dispatch(Binding{RoomID: "abc123", Slot: slotX},
		[]byte(`{"type":"message","data":"early"}`))
	assert.Empty(t, x.sentFrames())
}
