package commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	gamesession "github.com/eskrenkovic/wager-rooms/internal/modules/game-session"
	"github.com/eskrenkovic/wager-rooms/internal/modules/game-session/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/go-chi/chi"
)

type PlaceBetCommand struct {
	SessionID  string            `json:"-"`
	PlayerID   string            `json:"-"`
	Amount     int64             `json:"amount"`
	Prediction domain.Prediction `json:"prediction"`
}

func (c PlaceBetCommand) Validate() error {
	var amountErr error
	if c.Amount <= 0 {
		amountErr = fmt.Errorf("invalid Amount - %d, must be positive", c.Amount)
	}

	return core.Collect(
		required("SessionID", c.SessionID),
		required("PlayerID", c.PlayerID),
		amountErr,
	)
}

func HandlePlaceBet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	command, err := core.RequestBody[PlaceBetCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	command.SessionID = chi.URLParam(r, "id")
	command.PlayerID = core.Session(ctx).PlayerID

	response, err := mediator.Send[PlaceBetCommand, domain.Bet](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteResponse(w, r, http.StatusCreated, response)
}

type PlaceBetCommandHandler struct {
	engine *gamesession.Engine
}

func NewPlaceBetCommandHandler(engine *gamesession.Engine) *PlaceBetCommandHandler {
	return &PlaceBetCommandHandler{engine: engine}
}

func (h *PlaceBetCommandHandler) Handle(ctx context.Context, request PlaceBetCommand) (domain.Bet, error) {
	return h.engine.PlaceBet(ctx, request.SessionID, request.PlayerID, request.Amount, request.Prediction)
}

func required(name, value string) error {
	if value == "" {
		return fmt.Errorf("invalid %s - '%s'", name, value)
	}
	return nil
}
