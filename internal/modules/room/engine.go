package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/eskrenkovic/wager-rooms/internal/modules/broadcast"
	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	"github.com/eskrenkovic/wager-rooms/internal/modules/countdown"
	"github.com/eskrenkovic/wager-rooms/internal/modules/events"
	gamesession "github.com/eskrenkovic/wager-rooms/internal/modules/game-session/domain"
	"github.com/eskrenkovic/wager-rooms/internal/modules/player"
	"github.com/eskrenkovic/wager-rooms/internal/modules/room/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxCodeAttempts = 5

// Directory resolves display names for room views.
type Directory interface {
	Players(ctx context.Context, ids []string) ([]player.Identity, error)
}

// Sessions is the game session side of a room: it opens a session when the
// countdown elapses and re-checks betting when members leave.
type Sessions interface {
	CreateSession(ctx context.Context, roomID string, gameType gamesession.GameType) (gamesession.Session, error)
	MembershipChanged(ctx context.Context, roomID string, members []string) error
}

type runtime struct {
	countdown countdown.Slot
	snapshot  *domain.View
}

// Engine is the room state machine. Every mutation of a room runs through the
// serializer under the room id, so a room's countdown, its membership changes
// and its session operations never interleave.
type Engine struct {
	logger     *zap.Logger
	store      Store
	directory  Directory
	hub        *broadcast.Hub
	serializer *core.Serializer
	scheduler  *countdown.Scheduler
	now        func() time.Time

	sessionsMu sync.RWMutex
	sessions   Sessions

	mu       sync.Mutex
	runtimes map[string]*runtime
}

type EngineOption func(*Engine)

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(
	logger *zap.Logger,
	store Store,
	directory Directory,
	hub *broadcast.Hub,
	serializer *core.Serializer,
	scheduler *countdown.Scheduler,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		logger:     logger,
		store:      store,
		directory:  directory,
		hub:        hub,
		serializer: serializer,
		scheduler:  scheduler,
		now:        time.Now,
		runtimes:   make(map[string]*runtime),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// SetSessions binds the session engine. The session engine reads rooms
// through this engine, so it is bound after both are built.
func (e *Engine) SetSessions(sessions Sessions) {
	e.sessionsMu.Lock()
	defer e.sessionsMu.Unlock()
	e.sessions = sessions
}

func (e *Engine) sessionEngine() Sessions {
	e.sessionsMu.RLock()
	defer e.sessionsMu.RUnlock()
	return e.sessions
}

func (e *Engine) Create(
	ctx context.Context,
	hostID string,
	minPlayers int,
	gameType gamesession.GameType,
	title string,
) (domain.View, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := domain.GenerateCode()
		if err != nil {
			return domain.View{}, core.Internal(err)
		}

		room, err := domain.NewRoom(uuid.NewString(), code, strings.TrimSpace(title), hostID, minPlayers, gameType, e.now())
		if err != nil {
			return domain.View{}, err
		}

		err = e.store.Put(ctx, room)
		if core.KindOf(err) == core.KindConflict {
			continue
		}
		if err != nil {
			return domain.View{}, err
		}

		e.logger.Info(
			"room created",
			zap.String("room_id", room.ID),
			zap.String("code", room.Code),
			zap.String("host_id", hostID),
			zap.String("game_type", string(gameType)),
		)

		return e.view(ctx, room), nil
	}

	return domain.View{}, core.Internal(errors.New("failed to allocate a unique room code"))
}

// Join adds playerID to the room. Joining twice returns the room unchanged.
func (e *Engine) Join(ctx context.Context, roomID, playerID string) (domain.View, error) {
	var view domain.View

	err := e.serializer.Do(ctx, roomID, func(ctx context.Context) error {
		room, err := e.store.Get(ctx, roomID)
		if err != nil {
			return err
		}

		if !room.Join(playerID) {
			e.runtime(roomID)
			view = e.view(ctx, room)
			return nil
		}

		if err := e.store.Update(ctx, room); err != nil {
			return err
		}

		e.runtime(roomID)
		view = e.view(ctx, room)
		e.publish(roomID, events.RoomUpdate{
			Room:    view,
			Message: fmt.Sprintf("%s joined the room", displayName(view, playerID)),
		})

		return nil
	})

	return view, err
}

func (e *Engine) JoinByCode(ctx context.Context, code, playerID string) (domain.View, error) {
	code = domain.NormalizeCode(code)
	if !domain.ValidCode(code) {
		return domain.View{}, core.InvalidArgument("invalid room code")
	}

	room, err := e.store.GetByCode(ctx, code)
	if err != nil {
		return domain.View{}, err
	}

	return e.Join(ctx, room.ID, playerID)
}

// Leave removes playerID from the room. The host role passes to the earliest
// remaining member and a countdown that no longer has enough players is
// cancelled.
func (e *Engine) Leave(ctx context.Context, roomID, playerID string) (domain.View, error) {
	var view domain.View

	err := e.serializer.Do(ctx, roomID, func(ctx context.Context) error {
		room, err := e.store.Get(ctx, roomID)
		if err != nil {
			return err
		}

		leaver := e.name(ctx, playerID)

		removed, newHost := room.Leave(playerID)
		if !removed {
			view = e.view(ctx, room)
			return nil
		}

		notices := []string{fmt.Sprintf("%s left the room", leaver)}

		aborted := false
		if room.Empty() || !room.Enough() {
			aborted = room.AbortCountdown()
		}

		if err := e.store.Update(ctx, room); err != nil {
			return err
		}

		if aborted {
			e.cancelCountdown(roomID)
			if !room.Empty() {
				notices = append(notices, "Countdown cancelled, not enough players")
			}
		}

		if room.Empty() {
			e.release(roomID)
			e.logger.Info("room is empty", zap.String("room_id", roomID))
			view = domain.NewView(room, nil)
			e.publish(roomID, events.RoomUpdate{Room: view, Message: notices[0]})
			return nil
		}

		view = e.view(ctx, room)
		if newHost != "" {
			notices = append(notices, fmt.Sprintf("%s is now the host", displayName(view, newHost)))
		}

		e.publish(roomID, events.RoomUpdate{Room: view, Message: strings.Join(notices, ". ")})

		if room.Status == domain.StatusPlaying {
			if sessions := e.sessionEngine(); sessions != nil {
				if err := sessions.MembershipChanged(ctx, roomID, room.Players); err != nil {
					e.logger.Error("failed to re-check bets after leave", zap.String("room_id", roomID), zap.Error(err))
				}
			}
		}

		return nil
	})

	return view, err
}

func (e *Engine) SetMinPlayers(ctx context.Context, roomID, requesterID string, minPlayers int) (domain.View, error) {
	var view domain.View

	err := e.serializer.Do(ctx, roomID, func(ctx context.Context) error {
		room, err := e.store.Get(ctx, roomID)
		if err != nil {
			return err
		}

		if err := room.SetMinPlayers(requesterID, minPlayers); err != nil {
			return err
		}

		aborted := false
		if !room.Enough() {
			aborted = room.AbortCountdown()
		}

		if err := e.store.Update(ctx, room); err != nil {
			return err
		}

		notice := fmt.Sprintf("Minimum players set to %d", minPlayers)
		if aborted {
			e.cancelCountdown(roomID)
			notice += ". Countdown cancelled, not enough players"
		}

		view = e.view(ctx, room)
		e.publish(roomID, events.RoomUpdate{Room: view, Message: notice})

		return nil
	})

	return view, err
}

// RequestStart starts the room's countdown, replacing a running one.
func (e *Engine) RequestStart(ctx context.Context, roomID, requesterID string) error {
	return e.serializer.Do(ctx, roomID, func(ctx context.Context) error {
		room, err := e.store.Get(ctx, roomID)
		if err != nil {
			return err
		}

		if err := room.BeginCountdown(requesterID); err != nil {
			return err
		}

		if err := e.store.Update(ctx, room); err != nil {
			return err
		}

		rt := e.runtime(roomID)
		rt.countdown.Restart(e.scheduler, e.onTick(roomID))

		e.logger.Info(
			"countdown started",
			zap.String("room_id", roomID),
			zap.Int("seconds", e.scheduler.StartValue()),
		)

		view := e.view(ctx, room)
		e.publish(roomID, events.RoomUpdate{Room: view, Message: "Countdown started"})

		return nil
	})
}

func (e *Engine) CancelStart(ctx context.Context, roomID, requesterID string) (domain.View, error) {
	var view domain.View

	err := e.serializer.Do(ctx, roomID, func(ctx context.Context) error {
		room, err := e.store.Get(ctx, roomID)
		if err != nil {
			return err
		}

		if err := room.CancelCountdown(requesterID); err != nil {
			return err
		}

		if err := e.store.Update(ctx, room); err != nil {
			return err
		}

		e.cancelCountdown(roomID)

		view = e.view(ctx, room)
		e.publish(roomID, events.RoomUpdate{Room: view, Message: "Countdown cancelled"})

		return nil
	})

	return view, err
}

// Reset opens a new game cycle for a finished room.
func (e *Engine) Reset(ctx context.Context, roomID, requesterID string) (domain.View, error) {
	var view domain.View

	err := e.serializer.Do(ctx, roomID, func(ctx context.Context) error {
		room, err := e.store.Get(ctx, roomID)
		if err != nil {
			return err
		}

		if err := room.Reset(requesterID); err != nil {
			return err
		}

		if err := e.store.Update(ctx, room); err != nil {
			return err
		}

		view = e.view(ctx, room)
		e.publish(roomID, events.RoomUpdate{Room: view, Message: "Room is ready for a new game"})

		return nil
	})

	return view, err
}

// Finish marks a playing room as finished once its session is resolved.
func (e *Engine) Finish(ctx context.Context, roomID string) error {
	return e.serializer.Do(ctx, roomID, func(ctx context.Context) error {
		room, err := e.store.Get(ctx, roomID)
		if err != nil {
			return err
		}

		if err := room.Finish(); err != nil {
			return err
		}

		if err := e.store.Update(ctx, room); err != nil {
			return err
		}

		view := e.view(ctx, room)
		e.publish(roomID, events.RoomUpdate{Room: view, Message: "Game finished"})

		return nil
	})
}

// Get returns the latest snapshot of the room.
func (e *Engine) Get(ctx context.Context, roomID string) (domain.View, error) {
	if view, found := e.snapshot(roomID); found {
		return view, nil
	}

	room, err := e.store.Get(ctx, roomID)
	if err != nil {
		return domain.View{}, err
	}

	return e.view(ctx, room), nil
}

func (e *Engine) Membership(ctx context.Context, roomID string) (gamesession.Membership, error) {
	room, err := e.store.Get(ctx, roomID)
	if err != nil {
		return gamesession.Membership{}, err
	}

	return gamesession.Membership{
		HostID:  room.HostID,
		Members: append([]string(nil), room.Players...),
	}, nil
}

// CountdownActive reports whether the room has a live countdown.
func (e *Engine) CountdownActive(roomID string) bool {
	rt := e.existingRuntime(roomID)
	return rt != nil && rt.countdown.Active()
}

func (e *Engine) onTick(roomID string) countdown.TickFunc {
	return func(t *countdown.Timer, tick countdown.Tick) {
		err := e.serializer.Do(context.Background(), roomID, func(ctx context.Context) error {
			rt := e.existingRuntime(roomID)
			if rt == nil || !rt.countdown.Holds(t) {
				return nil
			}

			if !tick.Elapsed {
				e.publish(roomID, events.Countdown{
					RemainingSeconds: tick.Remaining,
					Message:          fmt.Sprintf("Game starting in %d seconds", tick.Remaining),
				})
				return nil
			}

			rt.countdown.Clear(t)
			return e.startGame(ctx, roomID)
		})
		if err != nil {
			e.logger.Error("countdown tick failed", zap.String("room_id", roomID), zap.Error(err))
		}
	}
}

func (e *Engine) startGame(ctx context.Context, roomID string) error {
	room, err := e.store.Get(ctx, roomID)
	if err != nil {
		e.failStart(ctx, roomID, err)
		return err
	}

	if err := room.StartPlaying(); err != nil {
		return err
	}

	if err := e.store.Update(ctx, room); err != nil {
		e.failStart(ctx, roomID, err)
		return err
	}

	sessions := e.sessionEngine()
	if sessions == nil {
		err := core.Internal(errors.New("no session engine bound"))
		e.failStart(ctx, roomID, err)
		return err
	}

	session, err := sessions.CreateSession(ctx, roomID, room.GameType)
	if err != nil {
		e.failStart(ctx, roomID, err)
		return err
	}

	e.logger.Info(
		"game started",
		zap.String("room_id", roomID),
		zap.String("session_id", session.ID),
		zap.String("game_type", string(room.GameType)),
	)

	view := e.view(ctx, room)
	e.publish(roomID, events.GameStart{Room: view, SessionID: session.ID, Message: "Game started!"})

	return nil
}

// failStart reports a failed start to the room and returns it to waiting. The
// start is not retried.
func (e *Engine) failStart(ctx context.Context, roomID string, cause error) {
	e.logger.Error("failed to start game", zap.String("room_id", roomID), zap.Error(cause))
	e.publish(roomID, events.Error{Message: "Failed to start game"})

	room, err := e.store.Get(ctx, roomID)
	if err != nil {
		e.logger.Error("failed to load room after failed start", zap.String("room_id", roomID), zap.Error(err))
		return
	}

	if room.Status != domain.StatusPlaying && room.Status != domain.StatusCountingDown {
		return
	}

	room.Status = domain.StatusWaiting
	if err := e.store.Update(ctx, room); err != nil {
		e.logger.Error("failed to revert room after failed start", zap.String("room_id", roomID), zap.Error(err))
		return
	}

	e.publish(roomID, events.RoomUpdate{Room: e.view(ctx, room), Message: "Game could not be started"})
}

func (e *Engine) publish(roomID string, msg broadcast.Message) {
	e.hub.Publish(roomID, msg)
}

func (e *Engine) view(ctx context.Context, room domain.Room) domain.View {
	identities, err := e.directory.Players(ctx, room.Players)
	if err != nil {
		e.logger.Warn("failed to resolve player names", zap.String("room_id", room.ID), zap.Error(err))
	}

	view := domain.NewView(room, player.Names(identities))
	e.remember(view)

	return view
}

func (e *Engine) name(ctx context.Context, playerID string) string {
	identities, err := e.directory.Players(ctx, []string{playerID})
	if err != nil || len(identities) == 0 {
		return playerID
	}
	return identities[0].Name
}

func displayName(view domain.View, playerID string) string {
	for _, p := range view.Players {
		if p.ID == playerID {
			return p.Name
		}
	}
	return playerID
}

func (e *Engine) runtime(roomID string) *runtime {
	e.mu.Lock()
	defer e.mu.Unlock()

	rt, found := e.runtimes[roomID]
	if !found {
		rt = &runtime{}
		e.runtimes[roomID] = rt
	}
	return rt
}

func (e *Engine) existingRuntime(roomID string) *runtime {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runtimes[roomID]
}

func (e *Engine) cancelCountdown(roomID string) {
	if rt := e.existingRuntime(roomID); rt != nil && rt.countdown.Cancel() {
		e.logger.Info("countdown cancelled", zap.String("room_id", roomID))
	}
}

// release drops the runtime state of an empty room.
func (e *Engine) release(roomID string) {
	e.mu.Lock()
	rt, found := e.runtimes[roomID]
	delete(e.runtimes, roomID)
	e.mu.Unlock()

	if found {
		rt.countdown.Cancel()
	}
}

// remember caches view on the room's runtime. Only rooms that were joined or
// started own a runtime; reads of other rooms never allocate one.
func (e *Engine) remember(view domain.View) {
	if len(view.Players) == 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if rt, found := e.runtimes[view.ID]; found {
		rt.snapshot = &view
	}
}

func (e *Engine) snapshot(roomID string) (domain.View, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rt, found := e.runtimes[roomID]
	if !found || rt.snapshot == nil {
		return domain.View{}, false
	}
	return *rt.snapshot, true
}
