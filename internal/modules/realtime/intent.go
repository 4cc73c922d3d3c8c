// Package realtime carries room traffic over websockets: client frames are
// decoded into intents and dispatched through the mediator, room events are
// written back to the connection.
package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	"github.com/eskrenkovic/wager-rooms/internal/modules/game-session/domain"
)

const (
	IntentSetMinPlayers    = "set_min_players"
	IntentStartGame        = "start_game"
	IntentCancelStart      = "cancel_start"
	IntentLeaveRoom        = "leave_room"
	IntentResetRoom        = "reset_room"
	IntentConfigureSession = "configure_session"
	IntentPlaceBet         = "place_bet"
	IntentResolveGame      = "resolve_game"
	IntentGetSession       = "get_session"
)

// Intent is a decoded client frame. The set of intents is closed.
type Intent interface {
	IntentType() string
	sealed()
}

type SetMinPlayers struct {
	MinPlayers int `json:"minPlayers"`
}

type StartGame struct{}

type CancelStart struct{}

type LeaveRoom struct{}

type ResetRoom struct{}

type ConfigureSession struct {
	Questions []domain.Question `json:"questions"`
	Options   []string          `json:"options"`
}

type PlaceBet struct {
	Amount     int64             `json:"amount"`
	Prediction domain.Prediction `json:"prediction"`
}

type ResolveGame struct {
	CorrectAnswers []int `json:"correctAnswers"`
}

type GetSession struct{}

func (SetMinPlayers) IntentType() string    { return IntentSetMinPlayers }
func (StartGame) IntentType() string        { return IntentStartGame }
func (CancelStart) IntentType() string      { return IntentCancelStart }
func (LeaveRoom) IntentType() string        { return IntentLeaveRoom }
func (ResetRoom) IntentType() string        { return IntentResetRoom }
func (ConfigureSession) IntentType() string { return IntentConfigureSession }
func (PlaceBet) IntentType() string         { return IntentPlaceBet }
func (ResolveGame) IntentType() string      { return IntentResolveGame }
func (GetSession) IntentType() string       { return IntentGetSession }

func (SetMinPlayers) sealed()    {}
func (StartGame) sealed()        {}
func (CancelStart) sealed()      {}
func (LeaveRoom) sealed()        {}
func (ResetRoom) sealed()        {}
func (ConfigureSession) sealed() {}
func (PlaceBet) sealed()         {}
func (ResolveGame) sealed()      {}
func (GetSession) sealed()       {}

// frame is the wire shape of a client message. MinPlayer and Start are the
// older untyped frames that some clients still send.
type frame struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	MinPlayer *int            `json:"minPlayer"`
	Start     *bool           `json:"start"`
}

// DecodeIntent parses a client frame. Malformed and unknown frames fail with
// InvalidArgument.
func DecodeIntent(data []byte) (Intent, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, core.InvalidArgument("malformed message")
	}

	if f.Type == "" {
		switch {
		case f.MinPlayer != nil:
			return SetMinPlayers{MinPlayers: *f.MinPlayer}, nil
		case f.Start != nil && *f.Start:
			return StartGame{}, nil
		}
		return nil, core.InvalidArgument("unknown message")
	}

	switch f.Type {
	case IntentSetMinPlayers:
		return decodePayload[SetMinPlayers](f)
	case IntentStartGame:
		return StartGame{}, nil
	case IntentCancelStart:
		return CancelStart{}, nil
	case IntentLeaveRoom:
		return LeaveRoom{}, nil
	case IntentResetRoom:
		return ResetRoom{}, nil
	case IntentConfigureSession:
		return decodePayload[ConfigureSession](f)
	case IntentPlaceBet:
		return decodePayload[PlaceBet](f)
	case IntentResolveGame:
		return decodePayload[ResolveGame](f)
	case IntentGetSession:
		return GetSession{}, nil
	}

	return nil, core.InvalidArgument(fmt.Sprintf("unknown message type %q", f.Type))
}

func decodePayload[T Intent](f frame) (Intent, error) {
	var intent T
	if len(f.Payload) == 0 || string(f.Payload) == "null" {
		return intent, nil
	}

	if err := json.Unmarshal(f.Payload, &intent); err != nil {
		return nil, core.InvalidArgument(fmt.Sprintf("malformed %s payload", f.Type))
	}

	return intent, nil
}
