package relay

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/StephenDK/Secure-Line/internal/errors"
	"github.com/StephenDK/Secure-Line/internal/log"
)

const ErrBufferFull errors.Code = "buffer_full"

const (
	pingInterval = 10 * time.Second
	pingTimeout  = 3 * time.Second
	writeTimeout = 3 * time.Second
	bufMessages  = 16

	// image envelopes carry base64 ciphertext far past the library's
	// 32 KiB default read limit
	maxMessageBytes = 100 << 20
)

// conn wraps a WebSocket connection behind a single write pump, so
// relayed frames and server-originated envelopes never interleave
// mid-write. Relayed frames go out verbatim as text; SendJSON is for
// server-originated envelopes.
type conn struct {
	ws    *websocket.Conn
	chBuf chan func() error

	connCtx   context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	logger    *log.Logger
}

func newConn(ws *websocket.Conn, logger *log.Logger) *conn {
	ws.SetReadLimit(maxMessageBytes)
	return &conn{
		ws:     ws,
		chBuf:  make(chan func() error, bufMessages),
		logger: logger,
	}
}

func (c *conn) Open(ctx context.Context) {
	c.connCtx, c.cancel = context.WithCancel(ctx)

	go func() {
		err := c.writePump(c.connCtx)
		c.close(err)
	}()
}

// Send queues the original envelope bytes for delivery as one text
// frame. A full buffer means the peer is not draining; the connection
// is closed rather than blocking the relay.
func (c *conn) Send(raw []byte) error {
	return c.enqueue(func() error {
		ctx, cancel := context.WithTimeout(c.connCtx, writeTimeout)
		defer cancel()
		return c.ws.Write(ctx, websocket.MessageText, raw)
	})
}

func (c *conn) SendJSON(v any) error {
	return c.enqueue(func() error {
		ctx, cancel := context.WithTimeout(c.connCtx, writeTimeout)
		defer cancel()
		return wsjson.Write(ctx, c.ws, v)
	})
}

func (c *conn) enqueue(action func() error) error {
	select {
	case <-c.connCtx.Done():
		return net.ErrClosed
	default:
	}

	select {
	case c.chBuf <- action:
		return nil
	default:
		c.close(ErrBufferFull)
		return ErrBufferFull
	}
}

// Read returns the next inbound frame. Read failure closes the
// connection; the caller's read loop exits on the returned error.
func (c *conn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.ws.Read(ctx)
	if err != nil {
		c.close(err)
		return nil, err
	}
	return data, nil
}

func (c *conn) Close() error {
	c.close(nil)
	return nil
}

func (c *conn) wait() {
	<-c.connCtx.Done()
}

func (c *conn) close(err error) {
	c.closeOnce.Do(func() {
		closed := false
		code := websocket.StatusNormalClosure

		switch {
		case err == nil:
			c.logger.Debug("Connection closed normally")
		case func() bool { closeErr, ok := errors.As[*websocket.CloseError](err); return ok && closeErr != nil }():
			closeErr, _ := errors.As[websocket.CloseError](err)
			c.logger.Debug("Connection closed by peer", log.Any("code", closeErr.Code))
			closed = true
		case errors.Is(err, net.ErrClosed):
			c.logger.Debug("Connection already closed")
			closed = true
		case errors.Is(err, ErrBufferFull):
			c.logger.Warn("Connection closed, write buffer full")
			code = websocket.StatusPolicyViolation
		default:
			c.logger.Warn("Connection closed on error", log.Error(err))
			code = websocket.StatusInternalError
		}

		if closed {
			_ = c.ws.CloseNow()
		} else {
			c.ws.Close(code, "bye")
		}
		c.cancel()
	})
}

func (c *conn) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.ping(ctx); err != nil {
				return err
			}
		case action, ok := <-c.chBuf:
			if !ok {
				return net.ErrClosed
			}
			if err := action(); err != nil {
				return err
			}
		}
	}
}

func (c *conn) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	return c.ws.Ping(ctx)
}
