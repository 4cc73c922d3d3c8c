package domain

import (
	"fmt"
	"time"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	gamesession "github.com/eskrenkovic/wager-rooms/internal/modules/game-session/domain"
)

type Status string

const (
	StatusWaiting      Status = "waiting"
	StatusCountingDown Status = "countingDown"
	StatusPlaying      Status = "playing"
	StatusFinished     Status = "finished"
)

const MinPlayersFloor = 2

type Room struct {
	ID         string
	Code       string
	Title      string
	HostID     string
	MinPlayers int
	GameType   gamesession.GameType
	Players    []string
	Status     Status
	CreatedAt  time.Time
}

func NewRoom(
	id, code, title, hostID string,
	minPlayers int,
	gameType gamesession.GameType,
	now time.Time,
) (Room, error) {
	if hostID == "" {
		return Room{}, core.InvalidArgument("host is required")
	}

	if err := validateMinPlayers(minPlayers); err != nil {
		return Room{}, err
	}

	if !gameType.Valid() {
		return Room{}, core.InvalidArgument(fmt.Sprintf("unknown game type %q", gameType))
	}

	return Room{
		ID:         id,
		Code:       code,
		Title:      title,
		HostID:     hostID,
		MinPlayers: minPlayers,
		GameType:   gameType,
		Players:    []string{hostID},
		Status:     StatusWaiting,
		CreatedAt:  now.UTC(),
	}, nil
}

func validateMinPlayers(minPlayers int) error {
	if minPlayers < MinPlayersFloor {
		return core.InvalidArgument(fmt.Sprintf("minPlayers must be at least %d", MinPlayersFloor))
	}
	return nil
}

func (r Room) HasPlayer(playerID string) bool {
	for _, p := range r.Players {
		if p == playerID {
			return true
		}
	}
	return false
}

func (r Room) IsHost(playerID string) bool {
	return playerID != "" && r.HostID == playerID
}

func (r Room) Empty() bool {
	return len(r.Players) == 0
}

func (r Room) Enough() bool {
	return len(r.Players) >= r.MinPlayers
}

// Join appends playerID unless it already is a member. It reports whether the
// room changed.
func (r *Room) Join(playerID string) bool {
	if r.HasPlayer(playerID) {
		return false
	}
	r.Players = append(r.Players, playerID)
	if r.HostID == "" {
		r.HostID = playerID
	}
	return true
}

// Leave removes playerID. When the host leaves, the earliest joined remaining
// member becomes host and is returned as newHost.
func (r *Room) Leave(playerID string) (removed bool, newHost string) {
	idx := -1
	for i, p := range r.Players {
		if p == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, ""
	}

	r.Players = append(r.Players[:idx:idx], r.Players[idx+1:]...)

	if r.HostID != playerID {
		return true, ""
	}

	if len(r.Players) == 0 {
		r.HostID = ""
		return true, ""
	}

	r.HostID = r.Players[0]
	return true, r.HostID
}

func (r *Room) SetMinPlayers(requesterID string, minPlayers int) error {
	if !r.IsHost(requesterID) {
		return core.Forbidden("only the host can change settings")
	}

	if err := validateMinPlayers(minPlayers); err != nil {
		return err
	}

	r.MinPlayers = minPlayers
	return nil
}

// CanStart checks whether requesterID may start or restart the countdown.
func (r Room) CanStart(requesterID string) error {
	if !r.IsHost(requesterID) {
		return core.Forbidden("only the host can start the game")
	}

	if r.Status != StatusWaiting && r.Status != StatusCountingDown {
		return core.InvalidState(fmt.Sprintf("game cannot start while room is %s", r.Status))
	}

	if !r.Enough() {
		return core.InvalidState(fmt.Sprintf("need at least %d players to start", r.MinPlayers))
	}

	return nil
}

func (r *Room) BeginCountdown(requesterID string) error {
	if err := r.CanStart(requesterID); err != nil {
		return err
	}
	r.Status = StatusCountingDown
	return nil
}

func (r *Room) CancelCountdown(requesterID string) error {
	if !r.IsHost(requesterID) {
		return core.Forbidden("only the host can cancel the countdown")
	}

	if r.Status != StatusCountingDown {
		return core.InvalidState("no countdown is running")
	}

	r.Status = StatusWaiting
	return nil
}

// AbortCountdown returns a counting down room to waiting without a requester.
func (r *Room) AbortCountdown() bool {
	if r.Status != StatusCountingDown {
		return false
	}
	r.Status = StatusWaiting
	return true
}

func (r *Room) StartPlaying() error {
	if r.Status != StatusCountingDown {
		return core.InvalidState(fmt.Sprintf("cannot start playing from %s", r.Status))
	}
	r.Status = StatusPlaying
	return nil
}

func (r *Room) Finish() error {
	if r.Status != StatusPlaying {
		return core.InvalidState(fmt.Sprintf("cannot finish a room that is %s", r.Status))
	}
	r.Status = StatusFinished
	return nil
}

// Reset opens a new game cycle for a finished room.
func (r *Room) Reset(requesterID string) error {
	if !r.IsHost(requesterID) {
		return core.Forbidden("only the host can reset the room")
	}

	if r.Status != StatusFinished {
		return core.InvalidState("only a finished room can be reset")
	}

	r.Status = StatusWaiting
	return nil
}

func (r Room) Clone() Room {
	c := r
	c.Players = append([]string(nil), r.Players...)
	return c
}
