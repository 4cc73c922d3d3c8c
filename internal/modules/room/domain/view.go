package domain

import (
	"time"

	gamesession "github.com/eskrenkovic/wager-rooms/internal/modules/game-session/domain"
)

type PlayerView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
}

// View is the snapshot of a room sent to clients.
type View struct {
	ID         string               `json:"id"`
	Code       string               `json:"code"`
	Title      string               `json:"title,omitempty"`
	HostID     string               `json:"hostId"`
	MinPlayers int                  `json:"minPlayers"`
	GameType   gamesession.GameType `json:"gameType"`
	Status     Status               `json:"status"`
	Players    []PlayerView         `json:"players"`
	CreatedAt  time.Time            `json:"createdAt"`
}

// NewView builds the snapshot of r. Players missing from names are shown by id.
func NewView(r Room, names map[string]string) View {
	players := make([]PlayerView, 0, len(r.Players))
	for _, id := range r.Players {
		name, found := names[id]
		if !found || name == "" {
			name = id
		}
		players = append(players, PlayerView{ID: id, Name: name, IsHost: id == r.HostID})
	}

	return View{
		ID:         r.ID,
		Code:       r.Code,
		Title:      r.Title,
		HostID:     r.HostID,
		MinPlayers: r.MinPlayers,
		GameType:   r.GameType,
		Status:     r.Status,
		Players:    players,
		CreatedAt:  r.CreatedAt,
	}
}

func (v View) PlayerIDs() []string {
	ids := make([]string, len(v.Players))
	for i, p := range v.Players {
		ids[i] = p.ID
	}
	return ids
}
