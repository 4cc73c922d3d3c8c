package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eskrenkovic/wager-rooms/internal/modules/broadcast"
	"github.com/eskrenkovic/wager-rooms/internal/modules/events"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// socketPair returns a server side Conn with the given buffer, its writer not
// yet started, together with the dialed client socket and a channel receiving
// the server read loop's terminal error.
func socketPair(t *testing.T, bufferSize int) (*Conn, *websocket.Conn, <-chan error) {
	t.Helper()

	conns := make(chan *Conn, 1)
	readErrs := make(chan error, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		c := newConn(ws, zap.NewNop(), bufferSize)
		conns <- c

		for {
			if _, err := c.Read(); err != nil {
				readErrs <- err
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	select {
	case c := <-conns:
		return c, client, readErrs
	case <-time.After(2 * time.Second):
		t.Fatal("server connection was not established")
		return nil, nil, nil
	}
}

func Test_Conn_Pruned_For_Full_Buffer_Is_Disconnected(t *testing.T) {
	// Arrange
	conn, client, readErrs := socketPair(t, 1)
	hub := broadcast.NewHub(zap.NewNop())
	hub.Subscribe("room-1", conn)

	// Act
	hub.Publish("room-1", events.Error{Message: "first"})
	hub.Publish("room-1", events.Error{Message: "overflow"})
	go conn.writeLoop()

	// Assert
	require.Equal(t, 0, hub.Subscribers("room-1"))
	require.ErrorIs(t, conn.Send(events.Error{Message: "late"}), broadcast.ErrSinkClosed)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	var closeErr error
	for closeErr == nil {
		_, _, closeErr = client.ReadMessage()
	}
	require.True(t, websocket.IsCloseError(closeErr, websocket.ClosePolicyViolation), closeErr.Error())

	select {
	case err := <-readErrs:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server read loop did not end")
	}

	closed := make(chan struct{})
	go func() {
		conn.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on a disconnected connection")
	}
}

func Test_Conn_Close_Flushes_Queued_Messages(t *testing.T) {
	// Arrange
	conn, client, _ := socketPair(t, 4)
	go conn.writeLoop()

	// Act
	require.NoError(t, conn.Send(events.Error{Message: "bye"}))
	conn.Close()

	// Assert
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := client.ReadMessage()
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"error","message":"bye"}`, string(data))

	_, _, err = client.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}
