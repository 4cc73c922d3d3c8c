package commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	"github.com/eskrenkovic/wager-rooms/internal/modules/room"
	"github.com/eskrenkovic/wager-rooms/internal/modules/room/domain"

	"github.com/eskrenkovic/mediator-go"
)

type JoinRoomCommand struct {
	RoomID   string
	PlayerID string
}

func (c JoinRoomCommand) Validate() error {
	return core.Collect(
		required("RoomID", c.RoomID),
		required("PlayerID", c.PlayerID),
	)
}

type JoinRoomCommandHandler struct {
	engine *room.Engine
}

func NewJoinRoomCommandHandler(engine *room.Engine) *JoinRoomCommandHandler {
	return &JoinRoomCommandHandler{engine: engine}
}

func (h *JoinRoomCommandHandler) Handle(ctx context.Context, request JoinRoomCommand) (domain.View, error) {
	return h.engine.Join(ctx, request.RoomID, request.PlayerID)
}

type JoinRoomByCodeCommand struct {
	Code     string `json:"code"`
	PlayerID string `json:"-"`
}

func (c JoinRoomByCodeCommand) Validate() error {
	return core.Collect(
		required("Code", c.Code),
		required("PlayerID", c.PlayerID),
	)
}

func HandleJoinRoomByCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	command, err := core.RequestBody[JoinRoomByCodeCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	// you join someone else's room as the authenticated player
	command.PlayerID = core.Session(ctx).PlayerID

	response, err := mediator.Send[JoinRoomByCodeCommand, domain.View](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type JoinRoomByCodeCommandHandler struct {
	engine *room.Engine
}

func NewJoinRoomByCodeCommandHandler(engine *room.Engine) *JoinRoomByCodeCommandHandler {
	return &JoinRoomByCodeCommandHandler{engine: engine}
}

func (h *JoinRoomByCodeCommandHandler) Handle(ctx context.Context, request JoinRoomByCodeCommand) (domain.View, error) {
	return h.engine.JoinByCode(ctx, request.Code, request.PlayerID)
}

func required(name, value string) error {
	if value == "" {
		return fmt.Errorf("invalid %s - '%s'", name, value)
	}
	return nil
}
