package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/eskrenkovic/wager-rooms/internal/config"
	"github.com/eskrenkovic/wager-rooms/internal/modules/player"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	aliceToken = "alice-token"
	bobToken   = "bob-token"
)

var testServer *httptest.Server

func TestMain(m *testing.M) {
	srv, err := NewHTTPServer(config.Config{
		Logger: zap.NewNop(),
		Port:   0,
		Countdown: config.CountdownConfiguration{
			Seconds: 2,
			Tick:    20 * time.Millisecond,
		},
		SeedPlayers: []player.Seed{
			{Token: aliceToken, Name: "alice", Balance: 100},
			{Token: bobToken, Name: "bob", Balance: 100},
		},
	})
	if err != nil {
		panic(err)
	}

	testServer = httptest.NewServer(srv.Handler())
	code := m.Run()
	testServer.Close()

	os.Exit(code)
}

func request(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, testServer.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)

	return resp, decoded
}

func balance(t *testing.T, token string) float64 {
	t.Helper()

	resp, body := request(t, http.MethodGet, "/wallet/balance", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	return body["balance"].(float64)
}

func dial(t *testing.T, roomID, token string) *websocket.Conn {
	t.Helper()

	dialer := websocket.Dialer{
		Subprotocols:     []string{player.WebSocketProtocol, token},
		HandshakeTimeout: 5 * time.Second,
	}

	url := "ws" + strings.TrimPrefix(testServer.URL, "http") + "/rooms/" + roomID + "/ws"
	conn, resp, err := dialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, player.WebSocketProtocol, resp.Header.Get("Sec-WebSocket-Protocol"))

	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

// readUntil skips events until one of eventType arrives.
func readUntil(t *testing.T, conn *websocket.Conn, eventType string) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	for {
		var event map[string]any
		require.NoError(t, conn.ReadJSON(&event))

		if event["type"] == eventType {
			return event
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func createRoom(t *testing.T, gameType string) map[string]any {
	t.Helper()

	resp, room := request(t, http.MethodPost, "/rooms", aliceToken, map[string]any{
		"minPlayers": 2,
		"gameType":   gameType,
		"title":      "friday night",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "/rooms/"+room["id"].(string), resp.Header.Get("Location"))

	resp, _ = request(t, http.MethodPost, "/rooms/join", bobToken, map[string]any{"code": room["code"]})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	return room
}

func Test_Requests_Without_Token_Are_Unauthorized(t *testing.T) {
	resp, body := request(t, http.MethodGet, "/wallet/balance", "", nil)

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "auth_error", body["error"])
}

func Test_Create_Room_Rejects_Invalid_Body(t *testing.T) {
	resp, body := request(t, http.MethodPost, "/rooms", aliceToken, map[string]any{
		"minPlayers": 1,
		"gameType":   "poker",
	})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid_argument", body["error"])
}

func Test_Get_Unknown_Room_Is_Not_Found(t *testing.T) {
	resp, _ := request(t, http.MethodGet, "/rooms/does-not-exist", aliceToken, nil)

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func Test_Join_By_Code_Adds_Player_To_Room(t *testing.T) {
	// Arrange
	room := createRoom(t, "vote")

	// Act
	resp, view := request(t, http.MethodGet, "/rooms/"+room["id"].(string), bobToken, nil)

	// Assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, view["players"], 2)
	require.Equal(t, "waiting", view["status"])
}

func Test_Socket_Rejects_Unknown_Frames(t *testing.T) {
	// Arrange
	room := createRoom(t, "vote")
	conn := dial(t, room["id"].(string), aliceToken)
	readUntil(t, conn, "room_update")

	// Act
	send(t, conn, `{"type":"fold"}`)

	// Assert
	event := readUntil(t, conn, "error")
	require.Equal(t, `unknown message type "fold"`, event["message"])
}

func Test_Spin_Wheel_Round_Over_Websocket_Conserves_Balances(t *testing.T) {
	// Arrange
	before := balance(t, aliceToken) + balance(t, bobToken)

	room := createRoom(t, "spin-wheel")
	roomID := room["id"].(string)

	alice := dial(t, roomID, aliceToken)
	connected := readUntil(t, alice, "room_update")
	require.Equal(t, "Connected to room", connected["message"])

	bob := dial(t, roomID, bobToken)
	readUntil(t, bob, "room_update")

	// Act
	send(t, alice, `{"start":true}`)

	start := readUntil(t, alice, "game_start")
	readUntil(t, bob, "game_start")
	sessionID := start["sessionId"].(string)
	require.NotEmpty(t, sessionID)

	send(t, alice, `{"type":"place_bet","payload":{"amount":10}}`)
	send(t, bob, `{"type":"place_bet","payload":{"amount":30}}`)

	allPlaced := readUntil(t, alice, "all_bets_placed")
	require.Equal(t, sessionID, allPlaced["sessionId"])

	send(t, alice, `{"type":"resolve_game"}`)
	finished := readUntil(t, bob, "game_finished")

	// Assert
	require.Len(t, finished["winners"], 1)

	payouts := finished["winAmountPerWinner"].(map[string]any)
	total := 0.0
	for _, payout := range payouts {
		total += payout.(float64)
	}
	require.Equal(t, 40.0, total)

	require.Equal(t, before, balance(t, aliceToken)+balance(t, bobToken))

	resp, session := request(t, http.MethodGet, "/sessions/"+sessionID, bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "resolved", session["status"])
	require.Equal(t, 40.0, session["totalPrizePool"])

	roomUpdate := readUntil(t, bob, "room_update")
	require.Equal(t, "Game finished", roomUpdate["message"])
	require.Equal(t, "finished", roomUpdate["room"].(map[string]any)["status"])
}

func Test_Bet_Over_Http_Above_Balance_Is_Payment_Required(t *testing.T) {
	// Arrange
	room := createRoom(t, "roll-dice")
	roomID := room["id"].(string)

	alice := dial(t, roomID, aliceToken)
	readUntil(t, alice, "room_update")

	send(t, alice, `{"type":"start_game"}`)
	start := readUntil(t, alice, "game_start")
	sessionID := start["sessionId"].(string)

	// Act
	resp, body := request(t, http.MethodPost, "/sessions/"+sessionID+"/bets", bobToken, map[string]any{
		"amount":     1000000,
		"prediction": map[string]any{"value": 3},
	})

	// Assert
	require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	require.Equal(t, "insufficient_funds", body["error"])

	resp, session := request(t, http.MethodGet, "/rooms/"+roomID+"/session", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, session["bets"])
}
