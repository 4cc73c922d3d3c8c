package realtime

import (
	"sync"
	"time"

	"github.com/eskrenkovic/wager-rooms/internal/modules/broadcast"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBufferSize = 64
)

// Conn is a websocket connection subscribed to a room. Messages are queued
// by Send and written by a single writer goroutine.
type Conn struct {
	id     string
	ws     *websocket.Conn
	logger *zap.Logger
	send   chan broadcast.Message

	mu     sync.Mutex
	closed bool
	stop   chan struct{}
	done   chan struct{}
}

var _ broadcast.Sink = (*Conn)(nil)

func NewConn(ws *websocket.Conn, logger *zap.Logger) *Conn {
	c := newConn(ws, logger, sendBufferSize)
	go c.writeLoop()
	return c
}

func newConn(ws *websocket.Conn, logger *zap.Logger, bufferSize int) *Conn {
	c := &Conn{
		id:     uuid.NewString(),
		ws:     ws,
		logger: logger,
		send:   make(chan broadcast.Message, bufferSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	ws.SetReadLimit(maxMessageSize)
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	return c
}

func (c *Conn) ID() string {
	return c.id
}

// Send queues msg without blocking. A reader that lets the buffer fill gets
// ErrSinkFull, is pruned by the hub and has its socket closed with a policy
// violation, which ends the read loop serving it.
func (c *Conn) Send(msg broadcast.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return broadcast.ErrSinkClosed
	}

	select {
	case c.send <- msg:
		return nil
	default:
		c.closed = true
		close(c.stop)
		c.logger.Info("disconnecting slow websocket client", zap.String("conn_id", c.id))
		return broadcast.ErrSinkFull
	}
}

// Read blocks for the next client frame.
func (c *Conn) Read() ([]byte, error) {
	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return nil, err
	}

	_, data, err := c.ws.ReadMessage()
	return data, err
}

// Close stops the writer once the queued messages are flushed.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	<-c.done
}

func (c *Conn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
		close(c.done)
	}()

	for {
		select {
		case <-c.stop:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "client too slow"))
			return

		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.ws.WriteJSON(msg); err != nil {
				c.logger.Debug("websocket write failed", zap.String("conn_id", c.id), zap.Error(err))
				c.drop()
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.drop()
				return
			}
		}
	}
}

// drop marks the connection closed after a failed write so later sends fail
// fast instead of filling the buffer.
func (c *Conn) drop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.stop)
	}
}
