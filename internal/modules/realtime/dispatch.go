package realtime

import (
	"context"
	"fmt"

	"github.com/eskrenkovic/wager-rooms/internal/modules/broadcast"
	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	gamesession "github.com/eskrenkovic/wager-rooms/internal/modules/game-session"
	sessioncommands "github.com/eskrenkovic/wager-rooms/internal/modules/game-session/commands"
	"github.com/eskrenkovic/wager-rooms/internal/modules/game-session/domain"
	sessionqueries "github.com/eskrenkovic/wager-rooms/internal/modules/game-session/queries"
	"github.com/eskrenkovic/wager-rooms/internal/modules/events"
	roomcommands "github.com/eskrenkovic/wager-rooms/internal/modules/room/commands"
	roomdomain "github.com/eskrenkovic/wager-rooms/internal/modules/room/domain"

	"github.com/eskrenkovic/mediator-go"
)

// Dispatch runs intent for playerID in roomID. State changes reach the
// player through the room's broadcast; the returned message, when not nil,
// is meant for the sender alone.
func Dispatch(ctx context.Context, roomID, playerID string, intent Intent) (broadcast.Message, error) {
	switch i := intent.(type) {
	case SetMinPlayers:
		_, err := mediator.Send[roomcommands.SetMinPlayersCommand, roomdomain.View](ctx, roomcommands.SetMinPlayersCommand{
			RoomID:      roomID,
			RequesterID: playerID,
			MinPlayers:  i.MinPlayers,
		})
		return nil, err

	case StartGame:
		_, err := mediator.Send[roomcommands.StartGameCommand, core.Unit](ctx, roomcommands.StartGameCommand{
			RoomID:      roomID,
			RequesterID: playerID,
		})
		return nil, err

	case CancelStart:
		_, err := mediator.Send[roomcommands.CancelStartCommand, roomdomain.View](ctx, roomcommands.CancelStartCommand{
			RoomID:      roomID,
			RequesterID: playerID,
		})
		return nil, err

	case LeaveRoom:
		_, err := mediator.Send[roomcommands.LeaveRoomCommand, roomdomain.View](ctx, roomcommands.LeaveRoomCommand{
			RoomID:   roomID,
			PlayerID: playerID,
		})
		return nil, err

	case ResetRoom:
		_, err := mediator.Send[roomcommands.ResetRoomCommand, roomdomain.View](ctx, roomcommands.ResetRoomCommand{
			RoomID:      roomID,
			RequesterID: playerID,
		})
		return nil, err

	case ConfigureSession:
		session, err := currentSession(ctx, roomID)
		if err != nil {
			return nil, err
		}
		_, err = mediator.Send[sessioncommands.ConfigureSessionCommand, domain.Summary](ctx, sessioncommands.ConfigureSessionCommand{
			SessionID:   session.ID,
			RequesterID: playerID,
			Questions:   i.Questions,
			Options:     i.Options,
		})
		return nil, err

	case PlaceBet:
		session, err := currentSession(ctx, roomID)
		if err != nil {
			return nil, err
		}
		_, err = mediator.Send[sessioncommands.PlaceBetCommand, domain.Bet](ctx, sessioncommands.PlaceBetCommand{
			SessionID:  session.ID,
			PlayerID:   playerID,
			Amount:     i.Amount,
			Prediction: i.Prediction,
		})
		return nil, err

	case ResolveGame:
		session, err := currentSession(ctx, roomID)
		if err != nil {
			return nil, err
		}
		_, err = mediator.Send[sessioncommands.ResolveGameCommand, gamesession.Result](ctx, sessioncommands.ResolveGameCommand{
			SessionID:      session.ID,
			RequesterID:    playerID,
			CorrectAnswers: i.CorrectAnswers,
		})
		return nil, err

	case GetSession:
		session, err := currentSession(ctx, roomID)
		if err != nil {
			return nil, err
		}
		return events.SessionUpdate{Session: session}, nil
	}

	return nil, core.Internal(fmt.Errorf("unhandled intent %T", intent))
}

func currentSession(ctx context.Context, roomID string) (domain.Summary, error) {
	session, err := mediator.Send[sessionqueries.GetCurrentSessionQuery, domain.Summary](
		ctx,
		sessionqueries.GetCurrentSessionQuery{RoomID: roomID},
	)
	if core.KindOf(err) == core.KindNotFound {
		return domain.Summary{}, core.InvalidState("no game in progress")
	}

	return session, err
}
