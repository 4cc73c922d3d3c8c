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

// ConfigureSessionCommand sets the match-fixing questions or the vote options.
type ConfigureSessionCommand struct {
	SessionID   string            `json:"-"`
	RequesterID string            `json:"-"`
	Questions   []domain.Question `json:"questions"`
	Options     []string          `json:"options"`
}

func (c ConfigureSessionCommand) Validate() error {
	return core.Collect(
		required("SessionID", c.SessionID),
		required("RequesterID", c.RequesterID),
	)
}

func HandleConfigureSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	command, err := core.RequestBody[ConfigureSessionCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	command.SessionID = chi.URLParam(r, "id")
	command.RequesterID = core.Session(ctx).PlayerID

	response, err := mediator.Send[ConfigureSessionCommand, domain.Summary](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type ConfigureSessionCommandHandler struct {
	engine *gamesession.Engine
}

func NewConfigureSessionCommandHandler(engine *gamesession.Engine) *ConfigureSessionCommandHandler {
	return &ConfigureSessionCommandHandler{engine: engine}
}

func (h *ConfigureSessionCommandHandler) Handle(ctx context.Context, request ConfigureSessionCommand) (domain.Summary, error) {
	return h.engine.Configure(ctx, request.SessionID, request.RequesterID, request.Questions, request.Options)
}
