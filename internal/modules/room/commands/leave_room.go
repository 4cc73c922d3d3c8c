package commands

import (
	"context"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	"github.com/eskrenkovic/wager-rooms/internal/modules/room"
	"github.com/eskrenkovic/wager-rooms/internal/modules/room/domain"
)

type LeaveRoomCommand struct {
	RoomID   string
	PlayerID string
}

func (c LeaveRoomCommand) Validate() error {
	return core.Collect(
		required("RoomID", c.RoomID),
		required("PlayerID", c.PlayerID),
	)
}

type LeaveRoomCommandHandler struct {
	engine *room.Engine
}

func NewLeaveRoomCommandHandler(engine *room.Engine) *LeaveRoomCommandHandler {
	return &LeaveRoomCommandHandler{engine: engine}
}

func (h *LeaveRoomCommandHandler) Handle(ctx context.Context, request LeaveRoomCommand) (domain.View, error) {
	return h.engine.Leave(ctx, request.RoomID, request.PlayerID)
}
