// Package events holds the messages published to room subscribers. Every
// event marshals to a flat JSON object with a "type" field.
package events

import (
	"encoding/json"

	gamesession "github.com/eskrenkovic/wager-rooms/internal/modules/game-session/domain"
	room "github.com/eskrenkovic/wager-rooms/internal/modules/room/domain"
)

const (
	TypeRoomUpdate    = "room_update"
	TypeCountdown     = "countdown"
	TypeGameStart     = "game_start"
	TypeBetPlaced     = "bet_placed"
	TypeAllBetsPlaced = "all_bets_placed"
	TypeSessionUpdate = "session_update"
	TypeGameFinished  = "game_finished"
	TypeError         = "error"
)

type RoomUpdate struct {
	Room    room.View `json:"room"`
	Message string    `json:"message"`
}

func (RoomUpdate) EventType() string { return TypeRoomUpdate }

func (e RoomUpdate) MarshalJSON() ([]byte, error) {
	type alias RoomUpdate
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: e.EventType(), alias: alias(e)})
}

type Countdown struct {
	RemainingSeconds int    `json:"remainingSeconds"`
	Message          string `json:"message"`
}

func (Countdown) EventType() string { return TypeCountdown }

func (e Countdown) MarshalJSON() ([]byte, error) {
	type alias Countdown
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: e.EventType(), alias: alias(e)})
}

type GameStart struct {
	Room      room.View `json:"room"`
	SessionID string    `json:"sessionId"`
	Message   string    `json:"message"`
}

func (GameStart) EventType() string { return TypeGameStart }

func (e GameStart) MarshalJSON() ([]byte, error) {
	type alias GameStart
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: e.EventType(), alias: alias(e)})
}

type BetPlaced struct {
	Session gamesession.Summary `json:"session"`
}

func (BetPlaced) EventType() string { return TypeBetPlaced }

func (e BetPlaced) MarshalJSON() ([]byte, error) {
	type alias BetPlaced
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: e.EventType(), alias: alias(e)})
}

type AllBetsPlaced struct {
	SessionID string `json:"sessionId"`
}

func (AllBetsPlaced) EventType() string { return TypeAllBetsPlaced }

func (e AllBetsPlaced) MarshalJSON() ([]byte, error) {
	type alias AllBetsPlaced
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: e.EventType(), alias: alias(e)})
}

// SessionUpdate is published when the host changes a session's questions or
// options.
type SessionUpdate struct {
	Session gamesession.Summary `json:"session"`
}

func (SessionUpdate) EventType() string { return TypeSessionUpdate }

func (e SessionUpdate) MarshalJSON() ([]byte, error) {
	type alias SessionUpdate
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: e.EventType(), alias: alias(e)})
}

type GameFinished struct {
	SessionID          string              `json:"sessionId"`
	Winners            []string            `json:"winners"`
	WinAmountPerWinner map[string]int64    `json:"winAmountPerWinner"`
	Outcome            gamesession.Outcome `json:"outcome"`
}

func (GameFinished) EventType() string { return TypeGameFinished }

func (e GameFinished) MarshalJSON() ([]byte, error) {
	type alias GameFinished
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: e.EventType(), alias: alias(e)})
}

type Error struct {
	Message string `json:"message"`
}

func (Error) EventType() string { return TypeError }

func (e Error) MarshalJSON() ([]byte, error) {
	type alias Error
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: e.EventType(), alias: alias(e)})
}
