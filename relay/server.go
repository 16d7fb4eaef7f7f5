package relay

import (
	"context"
	"net"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/StephenDK/Secure-Line/internal/constants"
	"github.com/StephenDK/Secure-Line/internal/log"
	intsync "github.com/StephenDK/Secure-Line/internal/sync"
	"github.com/StephenDK/Secure-Line/internal/workflow"
)

// Server accepts WebSocket connections, admits them into rooms and
// runs the per-connection read loop. One Server instance is mounted
// on the HTTP router at /ws.
type Server struct {
	registry       *Registry
	router         *Router
	conns          *intsync.Map[string, *conn]
	allowedOrigins []string
	logger         *log.Logger

	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

func NewServer(
	registry *Registry,
	router *Router,
	allowedOrigins []string,
	logger *log.Logger,
) *Server {
	if logger == nil {
		panic("logger is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		registry:       registry,
		router:         router,
		conns:          intsync.NewMap[string, *conn](),
		allowedOrigins: allowedOrigins,
		logger:         logger,
		shutdownCtx:    ctx,
		shutdownCancel: cancel,
	}
}

// Close stops accepting relay traffic and closes every live connection.
func (s *Server) Close() error {
	s.logger.Info("Closing relay server")
	s.shutdownCancel()

	s.conns.Range(func(_ string, c *conn) bool {
		_ = c.Close()
		return true
	})
	return nil
}

// HandleWebSocket upgrades the request and binds the connection to a
// room slot for its lifetime. Admission failures are reported to the
// client over the freshly opened socket, then the socket is closed.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.allowedOrigins,
	})
	if err != nil {
		s.logger.Error("WebSocket open failed",
			log.String("remoteAddr", r.RemoteAddr),
			log.Error(err))
		return
	}

	c := newConn(wsConn, s.logger)

	// request ctx ends with the handler, shutdown ctx with the server
	ctx, cancel := workflow.WithEitherDone(r.Context(), s.shutdownCtx)
	defer cancel()
	c.Open(ctx)

	roomID := r.URL.Query().Get("roomId")
	if roomID == "" {
		connectionsRejected.Add(context.Background(), 1)
		s.logger.Warn("Connection without roomId",
			log.String("remoteAddr", r.RemoteAddr))
		s.reject(c, "Missing roomId")
		return
	}

	slotIdx, peerKey, err := s.registry.Join(roomID, c)
	if err != nil {
		connectionsRejected.Add(context.Background(), 1)
		s.reject(c, "Room full")
		return
	}
	binding := Binding{RoomID: roomID, Slot: slotIdx}

	connID := uuid.NewString()
	connectionsTotal.Add(context.Background(), 1)
	connectionsActive.Add(context.Background(), 1)
	defer connectionsActive.Add(context.Background(), -1)

	s.logger.Info("Connection established",
		log.String("connId", connID),
		log.String("roomId", roomID),
		log.Int("slot", slotIdx),
		log.String("remoteAddr", r.RemoteAddr))

	s.conns.Store(connID, c)
	defer s.conns.Delete(connID)

	// catch-up for the late joiner: replay the existing occupant's key
	if len(peerKey) > 0 {
		if err := c.Send(peerKey); err != nil {
			s.logger.Warn("Failed to replay cached peer key",
				log.String("connId", connID),
				log.Error(err))
		}
	}

	s.readLoop(ctx, c, binding)

	if survivor := s.registry.Leave(roomID, slotIdx); survivor != nil {
		if err := survivor.SendJSON(PeerDisconnected{Type: constants.MsgTypePeerDisconnected}); err != nil {
			s.logger.Warn("Failed to notify remaining peer",
				log.String("roomId", roomID),
				log.Error(err))
		}
	}

	s.logger.Info("Connection closed",
		log.String("connId", connID),
		log.String("roomId", roomID),
		log.Int("slot", slotIdx))
}

func (s *Server) readLoop(ctx context.Context, c *conn, b Binding) {
	for {
		raw, err := c.Read(ctx)
		if err != nil {
			return
		}
		messagesReceived.Add(context.Background(), 1)
		s.router.Dispatch(b, raw)
	}
}

// reject sends a terminal error envelope and closes the socket. The
// close rides the write pump behind the envelope, so the client sees
// the error before the close frame.
func (s *Server) reject(c *conn, msg string) {
	if err := c.SendJSON(ErrorMessage{
		Type:    constants.MsgTypeError,
		Message: msg,
	}); err != nil {
		s.logger.Warn("Failed to send rejection", log.Error(err))
	}

	_ = c.enqueue(func() error {
		c.close(nil)
		return net.ErrClosed
	})
	c.wait()
}
