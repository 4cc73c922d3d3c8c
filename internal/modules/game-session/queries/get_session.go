package queries

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

type GetSessionQuery struct {
	SessionID string
}

func (q GetSessionQuery) Validate() error {
	if q.SessionID == "" {
		return fmt.Errorf("invalid SessionID - '%s'", q.SessionID)
	}

	return nil
}

func HandleGetSession(w http.ResponseWriter, r *http.Request) {
	response, err := mediator.Send[GetSessionQuery, domain.Summary](
		r.Context(),
		GetSessionQuery{SessionID: chi.URLParam(r, "id")},
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type GetSessionQueryHandler struct {
	engine *gamesession.Engine
}

func NewGetSessionQueryHandler(engine *gamesession.Engine) *GetSessionQueryHandler {
	return &GetSessionQueryHandler{engine: engine}
}

func (h *GetSessionQueryHandler) Handle(ctx context.Context, request GetSessionQuery) (domain.Summary, error) {
	return h.engine.Get(ctx, request.SessionID)
}

// GetCurrentSessionQuery looks up the room's unresolved session.
type GetCurrentSessionQuery struct {
	RoomID string
}

func (q GetCurrentSessionQuery) Validate() error {
	if q.RoomID == "" {
		return fmt.Errorf("invalid RoomID - '%s'", q.RoomID)
	}

	return nil
}

func HandleGetCurrentSession(w http.ResponseWriter, r *http.Request) {
	response, err := mediator.Send[GetCurrentSessionQuery, domain.Summary](
		r.Context(),
		GetCurrentSessionQuery{RoomID: chi.URLParam(r, "id")},
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type GetCurrentSessionQueryHandler struct {
	engine *gamesession.Engine
}

func NewGetCurrentSessionQueryHandler(engine *gamesession.Engine) *GetCurrentSessionQueryHandler {
	return &GetCurrentSessionQueryHandler{engine: engine}
}

func (h *GetCurrentSessionQueryHandler) Handle(ctx context.Context, request GetCurrentSessionQuery) (domain.Summary, error) {
	return h.engine.Current(ctx, request.RoomID)
}
