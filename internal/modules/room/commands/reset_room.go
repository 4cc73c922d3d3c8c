package commands

import (
	"context"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	"github.com/eskrenkovic/wager-rooms/internal/modules/room"
	"github.com/eskrenkovic/wager-rooms/internal/modules/room/domain"
)

type ResetRoomCommand struct {
	RoomID      string
	RequesterID string
}

func (c ResetRoomCommand) Validate() error {
	return core.Collect(
		required("RoomID", c.RoomID),
		required("RequesterID", c.RequesterID),
	)
}

type ResetRoomCommandHandler struct {
	engine *room.Engine
}

func NewResetRoomCommandHandler(engine *room.Engine) *ResetRoomCommandHandler {
	return &ResetRoomCommandHandler{engine: engine}
}

func (h *ResetRoomCommandHandler) Handle(ctx context.Context, request ResetRoomCommand) (domain.View, error) {
	return h.engine.Reset(ctx, request.RoomID, request.RequesterID)
}
