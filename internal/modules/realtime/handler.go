package realtime

import (
	"errors"
	"net/http"

	"github.com/eskrenkovic/wager-rooms/internal/modules/broadcast"
	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	"github.com/eskrenkovic/wager-rooms/internal/modules/events"
	"github.com/eskrenkovic/wager-rooms/internal/modules/player"
	roomcommands "github.com/eskrenkovic/wager-rooms/internal/modules/room/commands"
	roomdomain "github.com/eskrenkovic/wager-rooms/internal/modules/room/domain"
	roomqueries "github.com/eskrenkovic/wager-rooms/internal/modules/room/queries"

	"github.com/eskrenkovic/mediator-go"
	"github.com/go-chi/chi"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Handler struct {
	logger   *zap.Logger
	hub      *broadcast.Hub
	upgrader websocket.Upgrader
}

func NewHandler(logger *zap.Logger, hub *broadcast.Hub) *Handler {
	return &Handler{
		logger: logger,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			Subprotocols:    []string{player.WebSocketProtocol},
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// HandleRoomSocket joins the authenticated player to the room, subscribes the
// connection to the room's events and serves intents until the connection
// closes. Closing only unsubscribes; the player stays in the room until a
// leave_room intent.
func (h *Handler) HandleRoomSocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := chi.URLParam(r, "id")
	session := core.Session(ctx)

	_, err := mediator.Send[roomcommands.JoinRoomCommand, roomdomain.View](ctx, roomcommands.JoinRoomCommand{
		RoomID:   roomID,
		PlayerID: session.PlayerID,
	})
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.String("room_id", roomID), zap.Error(err))
		return
	}

	conn := NewConn(ws, h.logger)
	h.hub.Subscribe(roomID, conn)
	defer func() {
		h.hub.Unsubscribe(roomID, conn)
		conn.Close()
	}()

	logger := h.logger.With(
		zap.String("room_id", roomID),
		zap.String("player_id", session.PlayerID),
		zap.String("conn_id", conn.ID()),
	)
	logger.Info("connection opened")

	view, err := mediator.Send[roomqueries.GetRoomQuery, roomdomain.View](ctx, roomqueries.GetRoomQuery{RoomID: roomID})
	if err != nil {
		h.hub.Send(conn, events.Error{Message: core.PublicMessage(err)})
		return
	}
	h.hub.Send(conn, events.RoomUpdate{Room: view, Message: "Connected to room"})

	for {
		data, err := conn.Read()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) &&
				!errors.Is(err, websocket.ErrCloseSent) {
				logger.Debug("connection read failed", zap.Error(err))
			}
			logger.Info("connection closed")
			return
		}

		intent, err := DecodeIntent(data)
		if err != nil {
			h.hub.Send(conn, events.Error{Message: core.PublicMessage(err)})
			continue
		}

		reply, err := Dispatch(ctx, roomID, session.PlayerID, intent)
		if err != nil {
			h.hub.Send(conn, events.Error{Message: core.PublicMessage(err)})
			continue
		}

		if reply != nil {
			h.hub.Send(conn, reply)
		}
	}
}
