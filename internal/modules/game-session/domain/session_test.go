package domain

import (
	"testing"
	"time"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"

	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func newSession(t *testing.T, gameType GameType) Session {
	t.Helper()
	s, err := NewSession("session-1", "room-1", gameType, now)
	require.NoError(t, err)
	return s
}

func Test_NewSession_Rejects_Unknown_Game_Type(t *testing.T) {
	_, err := NewSession("s", "r", GameType("poker"), now)

	require.Equal(t, core.KindInvalidArgument, core.KindOf(err))
}

func Test_NewSession_Starts_Betting_With_Empty_Pool(t *testing.T) {
	s := newSession(t, GameTypeVote)

	require.Equal(t, StatusBetting, s.Status)
	require.Empty(t, s.Bets)
	require.Zero(t, s.TotalPrizePool)
	require.Equal(t, DefaultVoteOptions, s.Options)
}

func Test_AddBet_Rejects_Second_Bet_From_Same_Player_Without_Changing_Pool(t *testing.T) {
	// Arrange
	s := newSession(t, GameTypeRollDice)
	_, err := s.AddBet("a", 10, PredictValue(4), now)
	require.NoError(t, err)

	// Act
	_, err = s.AddBet("a", 50, PredictValue(2), now)

	// Assert
	require.Equal(t, core.KindConflict, core.KindOf(err))
	require.Equal(t, int64(10), s.TotalPrizePool)
	require.Len(t, s.Bets, 1)
}

func Test_AddBet_Rejects_Bet_After_Betting_Closed(t *testing.T) {
	// Arrange
	s := newSession(t, GameTypeSpinWheel)
	_, err := s.AddBet("a", 10, Prediction{}, now)
	require.NoError(t, err)
	require.True(t, s.ClosePlaying([]string{"a"}))

	// Act
	_, err = s.AddBet("b", 10, Prediction{}, now)

	// Assert
	require.Equal(t, core.KindInvalidState, core.KindOf(err))
	require.Equal(t, "betting closed", core.PublicMessage(err))
}

func Test_AddBet_Keeps_Pool_Equal_To_Sum_Of_Bets(t *testing.T) {
	s := newSession(t, GameTypeSpinWheel)

	for i, amount := range []int64{5, 5, 10, 7} {
		_, err := s.AddBet(string(rune('a'+i)), amount, Prediction{}, now)
		require.NoError(t, err)
	}

	require.Equal(t, int64(27), s.TotalPrizePool)
}

func Test_ValidatePrediction_Checks_Game_Type_Rules(t *testing.T) {
	dice := newSession(t, GameTypeRollDice)
	require.NoError(t, dice.ValidatePrediction(PredictValue(6)))
	require.Error(t, dice.ValidatePrediction(PredictValue(0)))
	require.Error(t, dice.ValidatePrediction(PredictValue(7)))
	require.Error(t, dice.ValidatePrediction(Prediction{}))

	wheel := newSession(t, GameTypeSpinWheel)
	require.NoError(t, wheel.ValidatePrediction(Prediction{}))
	require.Error(t, wheel.ValidatePrediction(PredictValue(1)))

	vote := newSession(t, GameTypeVote)
	require.NoError(t, vote.ValidatePrediction(PredictValue(1)))
	require.Error(t, vote.ValidatePrediction(PredictValue(2)))

	match := newSession(t, GameTypeMatchFixing)
	require.Error(t, match.ValidatePrediction(PredictAnswers(0)), "questions not configured")
	require.NoError(t, match.Configure([]Question{
		{Prompt: "first goal", Options: []string{"home", "away"}},
		{Prompt: "red card", Options: []string{"yes", "no", "two"}},
	}, nil))
	require.NoError(t, match.ValidatePrediction(PredictAnswers(1, 2)))
	require.Error(t, match.ValidatePrediction(PredictAnswers(1)))
	require.Error(t, match.ValidatePrediction(PredictAnswers(2, 0)))
}

func Test_Configure_Is_Rejected_Once_Bets_Exist(t *testing.T) {
	// Arrange
	s := newSession(t, GameTypeVote)
	_, err := s.AddBet("a", 10, PredictValue(0), now)
	require.NoError(t, err)

	// Act
	err = s.Configure(nil, []string{"red", "green", "blue"})

	// Assert
	require.Equal(t, core.KindInvalidState, core.KindOf(err))
	require.Equal(t, DefaultVoteOptions, s.Options)
}

func Test_ClosePlaying_Requires_Every_Member_To_Have_Bet(t *testing.T) {
	// Arrange
	s := newSession(t, GameTypeSpinWheel)
	_, err := s.AddBet("a", 10, Prediction{}, now)
	require.NoError(t, err)

	// Act & Assert
	require.False(t, s.ClosePlaying([]string{"a", "b"}))
	require.Equal(t, StatusBetting, s.Status)

	_, err = s.AddBet("b", 10, Prediction{}, now)
	require.NoError(t, err)

	require.True(t, s.ClosePlaying([]string{"a", "b"}))
	require.Equal(t, StatusPlaying, s.Status)
	require.False(t, s.ClosePlaying([]string{"a", "b"}), "never transitions twice")
}

func Test_Summary_Hides_Predictions(t *testing.T) {
	// Arrange
	s := newSession(t, GameTypeRollDice)
	_, err := s.AddBet("a", 10, PredictValue(3), now)
	require.NoError(t, err)

	// Act
	summary := s.Summary()

	// Assert
	require.Equal(t, []BetSummary{{PlayerID: "a", Amount: 10, Status: BetPending}}, summary.Bets)
	require.Equal(t, int64(10), summary.TotalPrizePool)
}

func Test_Clone_Does_Not_Share_Bets(t *testing.T) {
	s := newSession(t, GameTypeRollDice)
	_, err := s.AddBet("a", 10, PredictValue(3), now)
	require.NoError(t, err)

	c := s.Clone()
	*c.Bets[0].Prediction.Value = 5
	c.Bets[0].Status = BetWon

	require.Equal(t, 3, *s.Bets[0].Prediction.Value)
	require.Equal(t, BetPending, s.Bets[0].Status)
}
