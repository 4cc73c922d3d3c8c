package gamesession

import (
	"context"
	"time"

	"github.com/eskrenkovic/wager-rooms/internal/modules/broadcast"
	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	"github.com/eskrenkovic/wager-rooms/internal/modules/events"
	"github.com/eskrenkovic/wager-rooms/internal/modules/game-session/domain"
	"github.com/eskrenkovic/wager-rooms/internal/modules/wallet"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Rooms is what a session needs from its room.
type Rooms interface {
	Membership(ctx context.Context, roomID string) (domain.Membership, error)
	Finish(ctx context.Context, roomID string) error
}

type Result struct {
	Session domain.Summary `json:"session"`
	Outcome domain.Outcome `json:"outcome"`
}

// Engine runs betting and resolution. Operations on a session are serialized
// under the session's room id, the same key the room engine uses.
type Engine struct {
	logger     *zap.Logger
	store      Store
	ledger     wallet.Ledger
	rooms      Rooms
	hub        *broadcast.Hub
	serializer *core.Serializer
	rng        domain.Randomizer
	now        func() time.Time
}

type EngineOption func(*Engine)

func WithRandomizer(rng domain.Randomizer) EngineOption {
	return func(e *Engine) {
		e.rng = rng
	}
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(
	logger *zap.Logger,
	store Store,
	ledger wallet.Ledger,
	rooms Rooms,
	hub *broadcast.Hub,
	serializer *core.Serializer,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		logger:     logger,
		store:      store,
		ledger:     ledger,
		rooms:      rooms,
		hub:        hub,
		serializer: serializer,
		rng:        domain.CryptoRandomizer{},
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *Engine) CreateSession(ctx context.Context, roomID string, gameType domain.GameType) (domain.Session, error) {
	var session domain.Session

	err := e.serializer.Do(ctx, roomID, func(ctx context.Context) error {
		_, err := e.store.Active(ctx, roomID)
		switch {
		case err == nil:
			return errActiveExists
		case core.KindOf(err) != core.KindNotFound:
			return err
		}

		session, err = domain.NewSession(uuid.NewString(), roomID, gameType, e.now())
		if err != nil {
			return err
		}

		if err := e.store.Put(ctx, session); err != nil {
			return err
		}

		e.logger.Info(
			"session created",
			zap.String("room_id", roomID),
			zap.String("session_id", session.ID),
			zap.String("game_type", string(gameType)),
		)

		return nil
	})

	return session, err
}

// inRoom loads the session and runs fn with a fresh copy of it under the
// session's room.
func (e *Engine) inRoom(
	ctx context.Context,
	sessionID string,
	fn func(ctx context.Context, session domain.Session) error,
) error {
	session, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	return e.serializer.Do(ctx, session.RoomID, func(ctx context.Context) error {
		session, err := e.store.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		return fn(ctx, session)
	})
}

// Configure sets match-fixing questions or vote options before anyone bets.
func (e *Engine) Configure(
	ctx context.Context,
	sessionID, requesterID string,
	questions []domain.Question,
	options []string,
) (domain.Summary, error) {
	var summary domain.Summary

	err := e.inRoom(ctx, sessionID, func(ctx context.Context, session domain.Session) error {
		membership, err := e.rooms.Membership(ctx, session.RoomID)
		if err != nil {
			return err
		}

		if membership.HostID != requesterID {
			return core.Forbidden("only the host can configure the game")
		}

		if err := session.Configure(questions, options); err != nil {
			return err
		}

		if err := e.store.Update(ctx, session); err != nil {
			return err
		}

		summary = session.Summary()
		e.hub.Publish(session.RoomID, events.SessionUpdate{Session: summary})

		return nil
	})

	return summary, err
}

// PlaceBet debits the stake and records the bet. If recording fails the
// stake is refunded before the error is returned.
func (e *Engine) PlaceBet(
	ctx context.Context,
	sessionID, playerID string,
	amount int64,
	prediction domain.Prediction,
) (domain.Bet, error) {
	var bet domain.Bet

	err := e.inRoom(ctx, sessionID, func(ctx context.Context, session domain.Session) error {
		if session.Status != domain.StatusBetting {
			return core.InvalidState("betting closed")
		}

		membership, err := e.rooms.Membership(ctx, session.RoomID)
		if err != nil {
			return err
		}

		if !membership.Has(playerID) {
			return core.Forbidden("only room members can bet")
		}

		if err := session.CheckBet(playerID, amount, prediction); err != nil {
			return err
		}

		if _, err := e.ledger.Debit(ctx, playerID, amount); err != nil {
			return err
		}

		bet, err = session.AddBet(playerID, amount, prediction, e.now())
		if err != nil {
			e.refund(ctx, session, playerID, amount)
			return err
		}

		closed := session.ClosePlaying(membership.Members)

		if err := e.store.Update(ctx, session); err != nil {
			e.refund(ctx, session, playerID, amount)
			return err
		}

		e.logger.Info(
			"bet placed",
			zap.String("session_id", session.ID),
			zap.String("player_id", playerID),
			zap.Int64("amount", amount),
			zap.Int64("pool", session.TotalPrizePool),
		)

		e.hub.Publish(session.RoomID, events.BetPlaced{Session: session.Summary()})
		if closed {
			e.hub.Publish(session.RoomID, events.AllBetsPlaced{SessionID: session.ID})
		}

		return nil
	})

	return bet, err
}

func (e *Engine) refund(ctx context.Context, session domain.Session, playerID string, amount int64) {
	if _, err := e.ledger.Credit(ctx, playerID, amount); err != nil {
		e.logger.Error(
			"failed to refund stake",
			zap.String("session_id", session.ID),
			zap.String("player_id", playerID),
			zap.Int64("amount", amount),
			zap.Error(err),
		)
	}
}

// Resolve settles a playing session once: the outcome is persisted before any
// winner is credited. Credits the ledger rejects are recorded on the outcome.
func (e *Engine) Resolve(
	ctx context.Context,
	sessionID, requesterID string,
	input domain.ResolutionInput,
) (Result, error) {
	var result Result

	err := e.inRoom(ctx, sessionID, func(ctx context.Context, session domain.Session) error {
		membership, err := e.rooms.Membership(ctx, session.RoomID)
		if err != nil {
			return err
		}

		if membership.HostID != requesterID {
			return core.Forbidden("only the host can resolve the game")
		}

		outcome, err := session.Resolve(input, e.rng, e.now())
		if err != nil {
			return err
		}

		if err := e.store.Update(ctx, session); err != nil {
			return err
		}

		failed := make(map[string]int64)
		for _, winner := range outcome.Winners {
			if _, err := e.ledger.Credit(ctx, winner, outcome.Payouts[winner]); err != nil {
				e.logger.Error(
					"failed to credit winner",
					zap.String("session_id", session.ID),
					zap.String("player_id", winner),
					zap.Int64("payout", outcome.Payouts[winner]),
					zap.Error(err),
				)
				failed[winner] = outcome.Payouts[winner]
			}
		}

		if len(failed) > 0 {
			session.RecordFailedCredits(failed)
			outcome = *session.Summary().Outcome
			if err := e.store.Update(ctx, session); err != nil {
				e.logger.Error(
					"failed to record unpaid winners",
					zap.String("session_id", session.ID),
					zap.Any("failed_credits", failed),
					zap.Error(err),
				)
			}
		}

		e.logger.Info(
			"session resolved",
			zap.String("session_id", session.ID),
			zap.Strings("winners", outcome.Winners),
			zap.Int64("pool", session.TotalPrizePool),
			zap.Int64("unclaimed", outcome.Unclaimed),
		)

		e.hub.Publish(session.RoomID, events.GameFinished{
			SessionID:          session.ID,
			Winners:            outcome.Winners,
			WinAmountPerWinner: outcome.Payouts,
			Outcome:            outcome,
		})

		if err := e.rooms.Finish(ctx, session.RoomID); err != nil {
			e.logger.Error("failed to finish room", zap.String("room_id", session.RoomID), zap.Error(err))
		}

		result = Result{Session: session.Summary(), Outcome: outcome}
		return nil
	})

	return result, err
}

// MembershipChanged closes betting when the remaining members have all bet.
func (e *Engine) MembershipChanged(ctx context.Context, roomID string, members []string) error {
	return e.serializer.Do(ctx, roomID, func(ctx context.Context) error {
		session, err := e.store.Active(ctx, roomID)
		if core.KindOf(err) == core.KindNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		if !session.ClosePlaying(members) {
			return nil
		}

		if err := e.store.Update(ctx, session); err != nil {
			return err
		}

		e.hub.Publish(roomID, events.AllBetsPlaced{SessionID: session.ID})
		return nil
	})
}

func (e *Engine) Get(ctx context.Context, sessionID string) (domain.Summary, error) {
	session, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return domain.Summary{}, err
	}
	return session.Summary(), nil
}

// Current returns the room's unresolved session.
func (e *Engine) Current(ctx context.Context, roomID string) (domain.Summary, error) {
	session, err := e.store.Active(ctx, roomID)
	if err != nil {
		return domain.Summary{}, err
	}
	return session.Summary(), nil
}
