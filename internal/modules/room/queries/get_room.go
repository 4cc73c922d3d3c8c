package queries

import (
	"context"
	"fmt"
	"net/http"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	"github.com/eskrenkovic/wager-rooms/internal/modules/room"
	"github.com/eskrenkovic/wager-rooms/internal/modules/room/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/go-chi/chi"
)

type GetRoomQuery struct {
	RoomID string
}

func (q GetRoomQuery) Validate() error {
	if q.RoomID == "" {
		return fmt.Errorf("invalid RoomID - '%s'", q.RoomID)
	}

	return nil
}

func HandleGetRoom(w http.ResponseWriter, r *http.Request) {
	response, err := mediator.Send[GetRoomQuery, domain.View](
		r.Context(),
		GetRoomQuery{RoomID: chi.URLParam(r, "id")},
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type GetRoomQueryHandler struct {
	engine *room.Engine
}

func NewGetRoomQueryHandler(engine *room.Engine) *GetRoomQueryHandler {
	return &GetRoomQueryHandler{engine: engine}
}

func (h *GetRoomQueryHandler) Handle(ctx context.Context, request GetRoomQuery) (domain.View, error) {
	return h.engine.Get(ctx, request.RoomID)
}
