package queries

import (
	"context"
	"fmt"
	"net/http"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	"github.com/eskrenkovic/wager-rooms/internal/modules/wallet"

	"github.com/eskrenkovic/mediator-go"
)

type GetBalanceQuery struct {
	PlayerID string
}

func (q GetBalanceQuery) Validate() error {
	if q.PlayerID == "" {
		return fmt.Errorf("invalid PlayerID - '%s'", q.PlayerID)
	}

	return nil
}

type GetBalanceResponse struct {
	PlayerID string `json:"playerId"`
	Balance  int64  `json:"balance"`
}

func HandleGetBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response, err := mediator.Send[GetBalanceQuery, GetBalanceResponse](
		ctx,
		GetBalanceQuery{PlayerID: core.Session(ctx).PlayerID},
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type GetBalanceQueryHandler struct {
	ledger wallet.Ledger
}

func NewGetBalanceQueryHandler(ledger wallet.Ledger) *GetBalanceQueryHandler {
	return &GetBalanceQueryHandler{ledger: ledger}
}

func (h *GetBalanceQueryHandler) Handle(
	ctx context.Context,
	request GetBalanceQuery,
) (GetBalanceResponse, error) {
	balance, err := h.ledger.Balance(ctx, request.PlayerID)
	if err != nil {
		return GetBalanceResponse{}, err
	}

	return GetBalanceResponse{PlayerID: request.PlayerID, Balance: balance}, nil
}
