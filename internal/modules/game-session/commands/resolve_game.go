package commands

import (
	"context"
	"net/http"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	gamesession "github.com/eskrenkovic/wager-rooms/internal/modules/game-session"
	"github.com/eskrenkovic/wager-rooms/internal/modules/game-session/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/go-chi/chi"
)

type ResolveGameCommand struct {
	SessionID      string `json:"-"`
	RequesterID    string `json:"-"`
	CorrectAnswers []int  `json:"correctAnswers"`
}

func (c ResolveGameCommand) Validate() error {
	return core.Collect(
		required("SessionID", c.SessionID),
		required("RequesterID", c.RequesterID),
	)
}

func HandleResolveGame(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var command ResolveGameCommand
	if r.ContentLength != 0 {
		body, err := core.RequestBody[ResolveGameCommand](r)
		if err != nil {
			core.WriteBadRequest(w, r, err)
			return
		}
		command = body
	}
	command.SessionID = chi.URLParam(r, "id")
	command.RequesterID = core.Session(ctx).PlayerID

	response, err := mediator.Send[ResolveGameCommand, gamesession.Result](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type ResolveGameCommandHandler struct {
	engine *gamesession.Engine
}

func NewResolveGameCommandHandler(engine *gamesession.Engine) *ResolveGameCommandHandler {
	return &ResolveGameCommandHandler{engine: engine}
}

func (h *ResolveGameCommandHandler) Handle(ctx context.Context, request ResolveGameCommand) (gamesession.Result, error) {
	return h.engine.Resolve(
		ctx,
		request.SessionID,
		request.RequesterID,
		domain.ResolutionInput{CorrectAnswers: request.CorrectAnswers},
	)
}
