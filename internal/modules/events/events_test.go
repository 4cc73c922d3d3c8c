package events

import (
	"encoding/json"
	"testing"

	gamesession "github.com/eskrenkovic/wager-rooms/internal/modules/game-session/domain"
	room "github.com/eskrenkovic/wager-rooms/internal/modules/room/domain"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, v interface{}) map[string]interface{} {
	t.Helper()

	payload, err := json.Marshal(v)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &out))
	return out
}

func Test_Events_Marshal_Flat_With_Type(t *testing.T) {
	out := decode(t, Countdown{RemainingSeconds: 3, Message: "Game starting in 3 seconds"})

	require.Equal(t, map[string]interface{}{
		"type":             TypeCountdown,
		"remainingSeconds": float64(3),
		"message":          "Game starting in 3 seconds",
	}, out)
}

func Test_RoomUpdate_Carries_Room_Snapshot(t *testing.T) {
	view := room.View{ID: "room-1", HostID: "host", Status: room.StatusWaiting, Players: []room.PlayerView{{ID: "host", Name: "Host", IsHost: true}}}

	out := decode(t, RoomUpdate{Room: view, Message: "Host joined the room"})

	require.Equal(t, TypeRoomUpdate, out["type"])
	require.Equal(t, "Host joined the room", out["message"])
	require.Equal(t, "room-1", out["room"].(map[string]interface{})["id"])
}

func Test_GameFinished_Reports_Payouts(t *testing.T) {
	out := decode(t, GameFinished{
		SessionID:          "s",
		Winners:            []string{"a"},
		WinAmountPerWinner: map[string]int64{"a": 30},
		Outcome:            gamesession.Outcome{Winners: []string{"a"}, Payouts: map[string]int64{"a": 30}},
	})

	require.Equal(t, TypeGameFinished, out["type"])
	require.Equal(t, []interface{}{"a"}, out["winners"])
	require.Equal(t, map[string]interface{}{"a": float64(30)}, out["winAmountPerWinner"])
}

func Test_Every_Event_Names_Its_Type(t *testing.T) {
	all := map[string]interface{ EventType() string }{
		TypeRoomUpdate:    RoomUpdate{},
		TypeCountdown:     Countdown{},
		TypeGameStart:     GameStart{},
		TypeBetPlaced:     BetPlaced{},
		TypeAllBetsPlaced: AllBetsPlaced{},
		TypeSessionUpdate: SessionUpdate{},
		TypeGameFinished:  GameFinished{},
		TypeError:         Error{},
	}

	for eventType, event := range all {
		require.Equal(t, eventType, event.EventType())
		require.Equal(t, eventType, decode(t, event)["type"])
	}
}
