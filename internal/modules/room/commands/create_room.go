package commands

import (
	"context"
	"fmt"
	"net/http"
	"path"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	gamesession "github.com/eskrenkovic/wager-rooms/internal/modules/game-session/domain"
	"github.com/eskrenkovic/wager-rooms/internal/modules/room"
	"github.com/eskrenkovic/wager-rooms/internal/modules/room/domain"

	"github.com/eskrenkovic/mediator-go"
)

type CreateRoomCommand struct {
	HostID     string               `json:"-"`
	MinPlayers int                  `json:"minPlayers"`
	GameType   gamesession.GameType `json:"gameType"`
	Title      string               `json:"title"`
}

func (c CreateRoomCommand) Validate() error {
	var errs []error

	if c.HostID == "" {
		errs = append(errs, fmt.Errorf("invalid HostID - '%s'", c.HostID))
	}

	if c.MinPlayers < domain.MinPlayersFloor {
		errs = append(errs, fmt.Errorf("invalid MinPlayers - %d, must be at least %d", c.MinPlayers, domain.MinPlayersFloor))
	}

	if !c.GameType.Valid() {
		errs = append(errs, fmt.Errorf("invalid GameType - '%s'", c.GameType))
	}

	return core.Collect(errs...)
}

func HandleCreateRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	command, err := core.RequestBody[CreateRoomCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	command.HostID = core.Session(ctx).PlayerID

	response, err := mediator.Send[CreateRoomCommand, domain.View](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteCreated(w, r, path.Join("/rooms", response.ID), response)
}

type CreateRoomCommandHandler struct {
	engine *room.Engine
}

func NewCreateRoomCommandHandler(engine *room.Engine) *CreateRoomCommandHandler {
	return &CreateRoomCommandHandler{engine: engine}
}

func (h *CreateRoomCommandHandler) Handle(ctx context.Context, request CreateRoomCommand) (domain.View, error) {
	return h.engine.Create(ctx, request.HostID, request.MinPlayers, request.GameType, request.Title)
}
