package commands

import (
	"context"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	"github.com/eskrenkovic/wager-rooms/internal/modules/room"
	"github.com/eskrenkovic/wager-rooms/internal/modules/room/domain"
)

type StartGameCommand struct {
	RoomID      string
	RequesterID string
}

func (c StartGameCommand) Validate() error {
	return core.Collect(
		required("RoomID", c.RoomID),
		required("RequesterID", c.RequesterID),
	)
}

type StartGameCommandHandler struct {
	engine *room.Engine
}

func NewStartGameCommandHandler(engine *room.Engine) *StartGameCommandHandler {
	return &StartGameCommandHandler{engine: engine}
}

func (h *StartGameCommandHandler) Handle(ctx context.Context, request StartGameCommand) (core.Unit, error) {
	return core.Unit{}, h.engine.RequestStart(ctx, request.RoomID, request.RequesterID)
}

type CancelStartCommand struct {
	RoomID      string
	RequesterID string
}

func (c CancelStartCommand) Validate() error {
	return core.Collect(
		required("RoomID", c.RoomID),
		required("RequesterID", c.RequesterID),
	)
}

type CancelStartCommandHandler struct {
	engine *room.Engine
}

func NewCancelStartCommandHandler(engine *room.Engine) *CancelStartCommandHandler {
	return &CancelStartCommandHandler{engine: engine}
}

func (h *CancelStartCommandHandler) Handle(ctx context.Context, request CancelStartCommand) (domain.View, error) {
	return h.engine.CancelStart(ctx, request.RoomID, request.RequesterID)
}
