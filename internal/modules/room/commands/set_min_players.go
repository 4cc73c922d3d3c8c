package commands

import (
	"context"
	"fmt"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	"github.com/eskrenkovic/wager-rooms/internal/modules/room"
	"github.com/eskrenkovic/wager-rooms/internal/modules/room/domain"
)

type SetMinPlayersCommand struct {
	RoomID      string
	RequesterID string
	MinPlayers  int
}

func (c SetMinPlayersCommand) Validate() error {
	var minPlayersErr error
	if c.MinPlayers < domain.MinPlayersFloor {
		minPlayersErr = fmt.Errorf("invalid MinPlayers - %d, must be at least %d", c.MinPlayers, domain.MinPlayersFloor)
	}

	return core.Collect(
		required("RoomID", c.RoomID),
		required("RequesterID", c.RequesterID),
		minPlayersErr,
	)
}

type SetMinPlayersCommandHandler struct {
	engine *room.Engine
}

func NewSetMinPlayersCommandHandler(engine *room.Engine) *SetMinPlayersCommandHandler {
	return &SetMinPlayersCommandHandler{engine: engine}
}

func (h *SetMinPlayersCommandHandler) Handle(ctx context.Context, request SetMinPlayersCommand) (domain.View, error) {
	return h.engine.SetMinPlayers(ctx, request.RoomID, request.RequesterID, request.MinPlayers)
}
