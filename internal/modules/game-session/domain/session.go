package domain

import (
	"fmt"
	"time"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
)

type GameType string

const (
	GameTypeRollDice    GameType = "roll-dice"
	GameTypeSpinWheel   GameType = "spin-wheel"
	GameTypeMatchFixing GameType = "match-fixing"
	GameTypeVote        GameType = "vote"
)

func (g GameType) Valid() bool {
	switch g {
	case GameTypeRollDice, GameTypeSpinWheel, GameTypeMatchFixing, GameTypeVote:
		return true
	}
	return false
}

type Status string

const (
	StatusBetting  Status = "betting"
	StatusPlaying  Status = "playing"
	StatusResolved Status = "resolved"
)

type BetStatus string

const (
	BetPending BetStatus = "pending"
	BetWon     BetStatus = "won"
	BetLost    BetStatus = "lost"
)

const (
	DiceFaces  = 6
	MinOptions = 2
)

// DefaultVoteOptions are used until the host configures the vote.
var DefaultVoteOptions = []string{"yes", "no"}

// Prediction is the game specific part of a bet. Value holds the dice face
// (roll-dice) or the option index (vote); Answers holds one option index per
// question (match-fixing). Spin-wheel bets carry no prediction.
type Prediction struct {
	Value   *int  `json:"value,omitempty"`
	Answers []int `json:"answers,omitempty"`
}

func PredictValue(v int) Prediction {
	return Prediction{Value: &v}
}

func PredictAnswers(answers ...int) Prediction {
	return Prediction{Answers: answers}
}

type Question struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

type Bet struct {
	PlayerID   string     `json:"playerId"`
	Amount     int64      `json:"amount"`
	Prediction Prediction `json:"prediction"`
	Status     BetStatus  `json:"status"`
	Payout     int64      `json:"payout"`
	PlacedAt   time.Time  `json:"placedAt"`
}

type Session struct {
	ID             string     `json:"id"`
	RoomID         string     `json:"roomId"`
	GameType       GameType   `json:"gameType"`
	Status         Status     `json:"status"`
	Bets           []Bet      `json:"bets"`
	TotalPrizePool int64      `json:"totalPrizePool"`
	Questions      []Question `json:"questions,omitempty"`
	Options        []string   `json:"options,omitempty"`
	Outcome        *Outcome   `json:"outcome,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
}

func NewSession(id, roomID string, gameType GameType, now time.Time) (Session, error) {
	if !gameType.Valid() {
		return Session{}, core.InvalidArgument(fmt.Sprintf("unknown game type %q", gameType))
	}

	session := Session{
		ID:        id,
		RoomID:    roomID,
		GameType:  gameType,
		Status:    StatusBetting,
		Bets:      make([]Bet, 0),
		CreatedAt: now.UTC(),
	}

	if gameType == GameTypeVote {
		session.Options = append([]string(nil), DefaultVoteOptions...)
	}

	return session, nil
}

func (s Session) Active() bool {
	return s.Status != StatusResolved
}

func (s Session) BetOf(playerID string) (Bet, bool) {
	for _, b := range s.Bets {
		if b.PlayerID == playerID {
			return b, true
		}
	}
	return Bet{}, false
}

// Configure replaces the match-fixing questions or the vote options. Only
// allowed while betting and before anyone has bet.
func (s *Session) Configure(questions []Question, options []string) error {
	if s.Status != StatusBetting {
		return core.InvalidState("betting closed")
	}

	if len(s.Bets) > 0 {
		return core.InvalidState("bets already placed")
	}

	switch s.GameType {
	case GameTypeMatchFixing:
		if len(questions) == 0 {
			return core.InvalidArgument("at least one question is required")
		}
		for i, q := range questions {
			if len(q.Options) < MinOptions {
				return core.InvalidArgument(fmt.Sprintf("question %d needs at least %d options", i, MinOptions))
			}
		}
		s.Questions = cloneQuestions(questions)
	case GameTypeVote:
		if len(options) < MinOptions {
			return core.InvalidArgument(fmt.Sprintf("a vote needs at least %d options", MinOptions))
		}
		s.Options = append([]string(nil), options...)
	default:
		return core.InvalidArgument(fmt.Sprintf("%s cannot be configured", s.GameType))
	}

	return nil
}

// ValidatePrediction checks p against the game type and its configuration.
func (s Session) ValidatePrediction(p Prediction) error {
	switch s.GameType {
	case GameTypeRollDice:
		if p.Value == nil || *p.Value < 1 || *p.Value > DiceFaces {
			return core.InvalidArgument("prediction must be a dice face between 1 and 6")
		}
	case GameTypeSpinWheel:
		if p.Value != nil || len(p.Answers) > 0 {
			return core.InvalidArgument("spin-wheel bets take no prediction")
		}
	case GameTypeVote:
		if p.Value == nil || *p.Value < 0 || *p.Value >= len(s.Options) {
			return core.InvalidArgument(fmt.Sprintf("prediction must be an option between 0 and %d", len(s.Options)-1))
		}
	case GameTypeMatchFixing:
		if len(s.Questions) == 0 {
			return core.InvalidArgument("questions have not been set up yet")
		}
		if len(p.Answers) != len(s.Questions) {
			return core.InvalidArgument(fmt.Sprintf("expected %d answers", len(s.Questions)))
		}
		for i, a := range p.Answers {
			if a < 0 || a >= len(s.Questions[i].Options) {
				return core.InvalidArgument(fmt.Sprintf("answer %d is out of range", i))
			}
		}
	default:
		return core.InvalidArgument(fmt.Sprintf("unknown game type %q", s.GameType))
	}

	return nil
}

// CheckBet validates a bet without changing the session.
func (s Session) CheckBet(playerID string, amount int64, p Prediction) error {
	if s.Status != StatusBetting {
		return core.InvalidState("betting closed")
	}

	if _, found := s.BetOf(playerID); found {
		return core.Conflict("already bet")
	}

	if amount <= 0 {
		return core.InvalidArgument("amount must be positive")
	}

	return s.ValidatePrediction(p)
}

// AddBet records a bet and recomputes the prize pool.
func (s *Session) AddBet(playerID string, amount int64, p Prediction, now time.Time) (Bet, error) {
	if err := s.CheckBet(playerID, amount, p); err != nil {
		return Bet{}, err
	}

	bet := Bet{
		PlayerID:   playerID,
		Amount:     amount,
		Prediction: p,
		Status:     BetPending,
		PlacedAt:   now.UTC(),
	}

	s.Bets = append(s.Bets, bet)
	s.TotalPrizePool = s.pool()

	return bet, nil
}

func (s Session) pool() int64 {
	var total int64
	for _, b := range s.Bets {
		total += b.Amount
	}
	return total
}

// Covers reports whether every member has exactly one bet.
func (s Session) Covers(members []string) bool {
	if len(members) == 0 {
		return false
	}

	for _, m := range members {
		if _, found := s.BetOf(m); !found {
			return false
		}
	}
	return true
}

// ClosePlaying moves betting to playing when every member has bet.
func (s *Session) ClosePlaying(members []string) bool {
	if s.Status != StatusBetting || !s.Covers(members) {
		return false
	}
	s.Status = StatusPlaying
	return true
}

func (s Session) Clone() Session {
	c := s
	c.Bets = make([]Bet, len(s.Bets))
	for i, b := range s.Bets {
		c.Bets[i] = b
		c.Bets[i].Prediction = b.Prediction.clone()
	}
	c.Questions = cloneQuestions(s.Questions)
	c.Options = append([]string(nil), s.Options...)
	if s.Outcome != nil {
		o := s.Outcome.clone()
		c.Outcome = &o
	}
	if s.ResolvedAt != nil {
		t := *s.ResolvedAt
		c.ResolvedAt = &t
	}
	return c
}

func (p Prediction) clone() Prediction {
	c := Prediction{}
	if p.Value != nil {
		v := *p.Value
		c.Value = &v
	}
	if p.Answers != nil {
		c.Answers = append([]int(nil), p.Answers...)
	}
	return c
}

func cloneQuestions(questions []Question) []Question {
	if questions == nil {
		return nil
	}
	c := make([]Question, len(questions))
	for i, q := range questions {
		c[i] = Question{Prompt: q.Prompt, Options: append([]string(nil), q.Options...)}
	}
	return c
}

type BetSummary struct {
	PlayerID string    `json:"playerId"`
	Amount   int64     `json:"amount"`
	Status   BetStatus `json:"status"`
	Payout   int64     `json:"payout,omitempty"`
}

// Summary is the public view of a session. Predictions stay hidden.
type Summary struct {
	ID             string       `json:"id"`
	RoomID         string       `json:"roomId"`
	GameType       GameType     `json:"gameType"`
	Status         Status       `json:"status"`
	TotalPrizePool int64        `json:"totalPrizePool"`
	Bets           []BetSummary `json:"bets"`
	Questions      []Question   `json:"questions,omitempty"`
	Options        []string     `json:"options,omitempty"`
	Outcome        *Outcome     `json:"outcome,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}

func (s Session) Summary() Summary {
	bets := core.Map(s.Bets, func(b Bet) BetSummary {
		return BetSummary{PlayerID: b.PlayerID, Amount: b.Amount, Status: b.Status, Payout: b.Payout}
	})

	c := s.Clone()

	return Summary{
		ID:             s.ID,
		RoomID:         s.RoomID,
		GameType:       s.GameType,
		Status:         s.Status,
		TotalPrizePool: s.TotalPrizePool,
		Bets:           bets,
		Questions:      c.Questions,
		Options:        c.Options,
		Outcome:        c.Outcome,
		CreatedAt:      s.CreatedAt,
	}
}

// Membership is the part of a room a session needs: who may bet and who may
// resolve.
type Membership struct {
	HostID  string
	Members []string
}

func (m Membership) Has(playerID string) bool {
	for _, id := range m.Members {
		if id == playerID {
			return true
		}
	}
	return false
}
