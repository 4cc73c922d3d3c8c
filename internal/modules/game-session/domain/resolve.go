package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
)

// Randomizer draws uniformly from [0, n).
type Randomizer interface {
	Intn(n int) (int, error)
}

// CryptoRandomizer draws from crypto/rand so no client can predict or replay
// a draw.
type CryptoRandomizer struct{}

func (CryptoRandomizer) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid draw range %d", n)
	}

	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}

	return int(v.Int64()), nil
}

// ResolutionInput carries what the host supplies at resolution time.
type ResolutionInput struct {
	CorrectAnswers []int `json:"correctAnswers,omitempty"`
}

type Outcome struct {
	Dice           *int             `json:"dice,omitempty"`
	WheelWinner    string           `json:"wheelWinner,omitempty"`
	CorrectAnswers []int            `json:"correctAnswers,omitempty"`
	VoteCounts     []int            `json:"voteCounts,omitempty"`
	WinningOption  *int             `json:"winningOption,omitempty"`
	Winners        []string         `json:"winners"`
	Payouts        map[string]int64 `json:"payouts"`
	Unclaimed      int64            `json:"unclaimed"`
	// FailedCredits holds payouts the ledger rejected, left for reconciliation.
	FailedCredits map[string]int64 `json:"failedCredits,omitempty"`
}

func (o Outcome) clone() Outcome {
	c := o
	if o.Dice != nil {
		d := *o.Dice
		c.Dice = &d
	}
	if o.WinningOption != nil {
		w := *o.WinningOption
		c.WinningOption = &w
	}
	c.CorrectAnswers = append([]int(nil), o.CorrectAnswers...)
	c.VoteCounts = append([]int(nil), o.VoteCounts...)
	c.Winners = append([]string(nil), o.Winners...)
	c.Payouts = make(map[string]int64, len(o.Payouts))
	for k, v := range o.Payouts {
		c.Payouts[k] = v
	}
	if o.FailedCredits != nil {
		c.FailedCredits = make(map[string]int64, len(o.FailedCredits))
		for k, v := range o.FailedCredits {
			c.FailedCredits[k] = v
		}
	}
	return c
}

// RecordFailedCredits stores the payouts that could not be credited on the
// resolved outcome.
func (s *Session) RecordFailedCredits(failed map[string]int64) {
	if s.Outcome == nil || len(failed) == 0 {
		return
	}

	s.Outcome.FailedCredits = make(map[string]int64, len(failed))
	for k, v := range failed {
		s.Outcome.FailedCredits[k] = v
	}
}

// Resolve computes the outcome, marks every bet won or lost with its payout
// and moves the session to resolved. It can succeed only once.
func (s *Session) Resolve(input ResolutionInput, rng Randomizer, now time.Time) (Outcome, error) {
	switch s.Status {
	case StatusResolved:
		return Outcome{}, core.Conflict("game already resolved")
	case StatusBetting:
		return Outcome{}, core.InvalidState("betting is still open")
	}

	var (
		outcome Outcome
		winners []int
		err     error
	)

	switch s.GameType {
	case GameTypeRollDice:
		outcome, winners, err = s.resolveDice(rng)
	case GameTypeSpinWheel:
		outcome, winners, err = s.resolveWheel(rng)
	case GameTypeMatchFixing:
		outcome, winners, err = s.resolveMatchFixing(input)
	case GameTypeVote:
		outcome, winners = s.resolveVote()
	default:
		err = core.InvalidArgument(fmt.Sprintf("unknown game type %q", s.GameType))
	}
	if err != nil {
		return Outcome{}, err
	}

	shares := Split(s.TotalPrizePool, len(winners))

	outcome.Winners = make([]string, 0, len(winners))
	outcome.Payouts = make(map[string]int64, len(winners))

	won := make(map[int]int64, len(winners))
	for i, idx := range winners {
		won[idx] = shares[i]
	}

	for i := range s.Bets {
		payout, isWinner := won[i]
		if !isWinner {
			s.Bets[i].Status = BetLost
			s.Bets[i].Payout = 0
			continue
		}

		s.Bets[i].Status = BetWon
		s.Bets[i].Payout = payout
		outcome.Winners = append(outcome.Winners, s.Bets[i].PlayerID)
		outcome.Payouts[s.Bets[i].PlayerID] = payout
	}

	if len(winners) == 0 {
		outcome.Unclaimed = s.TotalPrizePool
	}

	resolvedAt := now.UTC()
	s.Status = StatusResolved
	s.ResolvedAt = &resolvedAt
	stored := outcome.clone()
	s.Outcome = &stored

	return outcome, nil
}

func (s Session) resolveDice(rng Randomizer) (Outcome, []int, error) {
	draw, err := rng.Intn(DiceFaces)
	if err != nil {
		return Outcome{}, nil, core.Internal(err)
	}
	face := draw + 1

	var winners []int
	for i, b := range s.Bets {
		if b.Prediction.Value != nil && *b.Prediction.Value == face {
			winners = append(winners, i)
		}
	}

	return Outcome{Dice: &face}, winners, nil
}

func (s Session) resolveWheel(rng Randomizer) (Outcome, []int, error) {
	if len(s.Bets) == 0 {
		return Outcome{}, nil, nil
	}

	idx, err := rng.Intn(len(s.Bets))
	if err != nil {
		return Outcome{}, nil, core.Internal(err)
	}

	return Outcome{WheelWinner: s.Bets[idx].PlayerID}, []int{idx}, nil
}

func (s Session) resolveMatchFixing(input ResolutionInput) (Outcome, []int, error) {
	if len(input.CorrectAnswers) != len(s.Questions) {
		return Outcome{}, nil, core.InvalidArgument(fmt.Sprintf("expected %d correct answers", len(s.Questions)))
	}

	for i, a := range input.CorrectAnswers {
		if a < 0 || a >= len(s.Questions[i].Options) {
			return Outcome{}, nil, core.InvalidArgument(fmt.Sprintf("correct answer %d is out of range", i))
		}
	}

	var winners []int
	for i, b := range s.Bets {
		if answersMatch(b.Prediction.Answers, input.CorrectAnswers) {
			winners = append(winners, i)
		}
	}

	return Outcome{CorrectAnswers: append([]int(nil), input.CorrectAnswers...)}, winners, nil
}

func answersMatch(given, correct []int) bool {
	if len(given) != len(correct) {
		return false
	}
	for i := range correct {
		if given[i] != correct[i] {
			return false
		}
	}
	return true
}

// resolveVote picks the option with the most votes. Ties go to the lowest
// option index.
func (s Session) resolveVote() (Outcome, []int) {
	counts := make([]int, len(s.Options))
	for _, b := range s.Bets {
		if b.Prediction.Value != nil && *b.Prediction.Value >= 0 && *b.Prediction.Value < len(counts) {
			counts[*b.Prediction.Value]++
		}
	}

	winning := -1
	for option, count := range counts {
		if count == 0 {
			continue
		}
		if winning == -1 || count > counts[winning] {
			winning = option
		}
	}

	outcome := Outcome{VoteCounts: counts}
	if winning == -1 {
		return outcome, nil
	}
	outcome.WinningOption = &winning

	var winners []int
	for i, b := range s.Bets {
		if b.Prediction.Value != nil && *b.Prediction.Value == winning {
			winners = append(winners, i)
		}
	}

	return outcome, winners
}

// Split divides pool into n shares that sum to pool. The remainder goes one
// unit at a time to the first shares.
func Split(pool int64, n int) []int64 {
	if n <= 0 {
		return nil
	}

	shares := make([]int64, n)
	base := pool / int64(n)
	remainder := pool % int64(n)

	for i := range shares {
		shares[i] = base
		if int64(i) < remainder {
			shares[i]++
		}
	}

	return shares
}
