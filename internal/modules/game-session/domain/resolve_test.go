package domain

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"

	"github.com/stretchr/testify/require"
)

type fixedRandomizer struct {
	draws []int
	calls int
}

func (r *fixedRandomizer) Intn(n int) (int, error) {
	if r.calls >= len(r.draws) {
		return 0, fmt.Errorf("no draws left")
	}
	v := r.draws[r.calls]
	r.calls++
	if v >= n {
		return 0, fmt.Errorf("draw %d out of range %d", v, n)
	}
	return v, nil
}

func playing(t *testing.T, gameType GameType, configure func(*Session), bets ...Bet) Session {
	t.Helper()

	s := newSession(t, gameType)
	if configure != nil {
		configure(&s)
	}

	members := make([]string, 0, len(bets))
	for _, b := range bets {
		_, err := s.AddBet(b.PlayerID, b.Amount, b.Prediction, now)
		require.NoError(t, err)
		members = append(members, b.PlayerID)
	}
	require.True(t, s.ClosePlaying(members))

	return s
}

func sum(payouts map[string]int64) int64 {
	var total int64
	for _, p := range payouts {
		total += p
	}
	return total
}

func Test_Resolve_RollDice_Pays_Sole_Matching_Bettor_Whole_Pool(t *testing.T) {
	// Arrange
	s := playing(t, GameTypeRollDice, nil,
		Bet{PlayerID: "a", Amount: 10, Prediction: PredictValue(4)},
		Bet{PlayerID: "b", Amount: 20, Prediction: PredictValue(2)},
	)

	// Act
	outcome, err := s.Resolve(ResolutionInput{}, &fixedRandomizer{draws: []int{3}}, now)

	// Assert
	require.NoError(t, err)
	require.Equal(t, 4, *outcome.Dice)
	require.Equal(t, []string{"a"}, outcome.Winners)
	require.Equal(t, map[string]int64{"a": 30}, outcome.Payouts)
	require.Equal(t, BetWon, s.Bets[0].Status)
	require.Equal(t, BetLost, s.Bets[1].Status)
	require.Equal(t, StatusResolved, s.Status)
	require.NotNil(t, s.ResolvedAt)
}

func Test_Resolve_RollDice_Without_Winner_Leaves_Pool_Unclaimed(t *testing.T) {
	// Arrange
	s := playing(t, GameTypeRollDice, nil,
		Bet{PlayerID: "a", Amount: 10, Prediction: PredictValue(1)},
		Bet{PlayerID: "b", Amount: 20, Prediction: PredictValue(2)},
	)

	// Act
	outcome, err := s.Resolve(ResolutionInput{}, &fixedRandomizer{draws: []int{5}}, now)

	// Assert
	require.NoError(t, err)
	require.Empty(t, outcome.Winners)
	require.Equal(t, int64(30), outcome.Unclaimed)
	require.Equal(t, BetLost, s.Bets[0].Status)
	require.Equal(t, BetLost, s.Bets[1].Status)
}

func Test_Resolve_SpinWheel_Gives_Whole_Pool_To_Drawn_Bettor(t *testing.T) {
	// Arrange
	s := playing(t, GameTypeSpinWheel, nil,
		Bet{PlayerID: "a", Amount: 5},
		Bet{PlayerID: "b", Amount: 5},
		Bet{PlayerID: "c", Amount: 10},
	)

	// Act
	outcome, err := s.Resolve(ResolutionInput{}, &fixedRandomizer{draws: []int{1}}, now)

	// Assert
	require.NoError(t, err)
	require.Equal(t, "b", outcome.WheelWinner)
	require.Equal(t, map[string]int64{"b": 20}, outcome.Payouts)
}

func Test_Resolve_Vote_Breaks_Tie_With_Lowest_Option(t *testing.T) {
	// Arrange
	s := playing(t, GameTypeVote, nil,
		Bet{PlayerID: "a", Amount: 10, Prediction: PredictValue(0)},
		Bet{PlayerID: "b", Amount: 10, Prediction: PredictValue(0)},
		Bet{PlayerID: "c", Amount: 10, Prediction: PredictValue(1)},
		Bet{PlayerID: "d", Amount: 10, Prediction: PredictValue(1)},
	)

	// Act
	outcome, err := s.Resolve(ResolutionInput{}, nil, now)

	// Assert
	require.NoError(t, err)
	require.Equal(t, 0, *outcome.WinningOption)
	require.Equal(t, []int{2, 2}, outcome.VoteCounts)
	require.Equal(t, []string{"a", "b"}, outcome.Winners)
	require.Equal(t, map[string]int64{"a": 20, "b": 20}, outcome.Payouts)
}

func Test_Resolve_MatchFixing_Requires_All_Answers_Correct(t *testing.T) {
	// Arrange
	configure := func(s *Session) {
		require.NoError(t, s.Configure([]Question{
			{Prompt: "q1", Options: []string{"x", "y"}},
			{Prompt: "q2", Options: []string{"x", "y", "z"}},
		}, nil))
	}
	s := playing(t, GameTypeMatchFixing, configure,
		Bet{PlayerID: "a", Amount: 10, Prediction: PredictAnswers(1, 2)},
		Bet{PlayerID: "b", Amount: 15, Prediction: PredictAnswers(1, 0)},
		Bet{PlayerID: "c", Amount: 6, Prediction: PredictAnswers(1, 2)},
	)

	// Act
	outcome, err := s.Resolve(ResolutionInput{CorrectAnswers: []int{1, 2}}, nil, now)

	// Assert
	require.NoError(t, err)
	require.Equal(t, []string{"a", "c"}, outcome.Winners)
	require.Equal(t, map[string]int64{"a": 16, "c": 15}, outcome.Payouts)
	require.Equal(t, []int{1, 2}, outcome.CorrectAnswers)
}

func Test_Resolve_MatchFixing_Rejects_Wrong_Number_Of_Answers(t *testing.T) {
	configure := func(s *Session) {
		require.NoError(t, s.Configure([]Question{{Prompt: "q1", Options: []string{"x", "y"}}}, nil))
	}
	s := playing(t, GameTypeMatchFixing, configure,
		Bet{PlayerID: "a", Amount: 10, Prediction: PredictAnswers(1)},
	)

	_, err := s.Resolve(ResolutionInput{CorrectAnswers: []int{1, 0}}, nil, now)

	require.Equal(t, core.KindInvalidArgument, core.KindOf(err))
	require.Equal(t, StatusPlaying, s.Status)
}

func Test_Resolve_Succeeds_Only_Once(t *testing.T) {
	// Arrange
	s := playing(t, GameTypeSpinWheel, nil,
		Bet{PlayerID: "a", Amount: 5},
		Bet{PlayerID: "b", Amount: 5},
	)
	_, err := s.Resolve(ResolutionInput{}, &fixedRandomizer{draws: []int{0}}, now)
	require.NoError(t, err)

	// Act
	_, err = s.Resolve(ResolutionInput{}, &fixedRandomizer{draws: []int{1}}, now)

	// Assert
	require.Equal(t, core.KindConflict, core.KindOf(err))
	require.Equal(t, "a", s.Outcome.WheelWinner)
}

func Test_Resolve_Is_Rejected_While_Betting(t *testing.T) {
	s := newSession(t, GameTypeSpinWheel)

	_, err := s.Resolve(ResolutionInput{}, &fixedRandomizer{draws: []int{0}}, now)

	require.Equal(t, core.KindInvalidState, core.KindOf(err))
}

func Test_Resolve_Conserves_Pool_For_Every_Game_Type(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		for _, gameType := range []GameType{GameTypeRollDice, GameTypeSpinWheel, GameTypeMatchFixing, GameTypeVote} {
			configure := func(s *Session) {
				if gameType == GameTypeMatchFixing {
					require.NoError(t, s.Configure([]Question{
						{Prompt: "q1", Options: []string{"x", "y"}},
						{Prompt: "q2", Options: []string{"x", "y"}},
					}, nil))
				}
			}

			players := 2 + rng.Intn(6)
			bets := make([]Bet, 0, players)
			for p := 0; p < players; p++ {
				bet := Bet{PlayerID: fmt.Sprintf("p%d", p), Amount: 1 + rng.Int63n(97)}
				switch gameType {
				case GameTypeRollDice:
					bet.Prediction = PredictValue(1 + rng.Intn(6))
				case GameTypeVote:
					bet.Prediction = PredictValue(rng.Intn(2))
				case GameTypeMatchFixing:
					bet.Prediction = PredictAnswers(rng.Intn(2), rng.Intn(2))
				}
				bets = append(bets, bet)
			}

			s := playing(t, gameType, configure, bets...)
			outcome, err := s.Resolve(
				ResolutionInput{CorrectAnswers: []int{rng.Intn(2), rng.Intn(2)}},
				CryptoRandomizer{},
				now,
			)
			require.NoError(t, err)

			if len(outcome.Winners) == 0 {
				require.Equal(t, s.TotalPrizePool, outcome.Unclaimed)
				continue
			}
			require.Equal(t, s.TotalPrizePool, sum(outcome.Payouts), "%s round %d", gameType, round)
			require.Zero(t, outcome.Unclaimed)
		}
	}
}

func Test_Split_Hands_Remainder_To_First_Shares(t *testing.T) {
	require.Equal(t, []int64{4, 3, 3}, Split(10, 3))
	require.Equal(t, []int64{15, 15}, Split(30, 2))
	require.Nil(t, Split(10, 0))
}

func Test_CryptoRandomizer_Stays_In_Range(t *testing.T) {
	seen := make(map[int]bool)
	for i := 0; i < 600; i++ {
		v, err := CryptoRandomizer{}.Intn(DiceFaces)
		require.NoError(t, err)
		require.GreaterOrEqual(t, v, 0)
		require.Less(t, v, DiceFaces)
		seen[v] = true
	}
	require.Len(t, seen, DiceFaces)
}
