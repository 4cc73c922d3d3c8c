package tests

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	gamesession "github.com/eskrenkovic/wager-rooms/internal/modules/game-session"
	sessiondomain "github.com/eskrenkovic/wager-rooms/internal/modules/game-session/domain"
	"github.com/eskrenkovic/wager-rooms/internal/modules/player"
	"github.com/eskrenkovic/wager-rooms/internal/modules/room"
	roomdomain "github.com/eskrenkovic/wager-rooms/internal/modules/room/domain"
	"github.com/eskrenkovic/wager-rooms/internal/modules/wallet"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var fixture *PostgresFixture

func TestMain(m *testing.M) {
	flag.Parse()

	if testing.Short() || SkipInfrastructure() {
		os.Exit(m.Run())
	}

	ctx := context.Background()

	f, err := StartPostgres(ctx, "../../../db/migrations")
	if err != nil {
		log.Fatal(err)
	}
	fixture = f

	code := m.Run()

	if err := fixture.Stop(ctx); err != nil {
		log.Println(err)
	}

	os.Exit(code)
}

func requireInfrastructure(t *testing.T) {
	t.Helper()
	if fixture == nil {
		t.Skip("postgres is not available")
	}
}

func seedPlayer(t *testing.T, balance int64) (player.Seed, *player.PostgresDirectory) {
	t.Helper()

	directory := player.NewPostgresDirectory(fixture.DB, player.NewSHA256TokenHasher())
	seed := player.Seed{Token: uuid.NewString(), Name: "player-" + uuid.NewString()[:8], Balance: balance}

	_, err := directory.Register(context.Background(), seed)
	require.NoError(t, err)

	return seed, directory
}

func newRoom(t *testing.T, hostID string) roomdomain.Room {
	t.Helper()

	code, err := roomdomain.GenerateCode()
	require.NoError(t, err)

	r, err := roomdomain.NewRoom(uuid.NewString(), code, "integration", hostID, 2, sessiondomain.GameTypeRollDice, time.Now())
	require.NoError(t, err)

	return r
}

func Test_PostgresDirectory_Resolves_Registered_Token(t *testing.T) {
	requireInfrastructure(t)

	// Arrange
	seed, directory := seedPlayer(t, 75)

	// Act
	identity, err := directory.Resolve(context.Background(), seed.Token)

	// Assert
	require.NoError(t, err)
	require.Equal(t, seed.ID(), identity.ID)
	require.Equal(t, seed.Name, identity.Name)
	require.Equal(t, int64(75), identity.Balance)

	_, err = directory.Resolve(context.Background(), "unknown")
	require.Equal(t, core.KindAuth, core.KindOf(err))
}

func Test_PostgresDirectory_Register_Keeps_Existing_Balance(t *testing.T) {
	requireInfrastructure(t)

	// Arrange
	ctx := context.Background()
	seed, directory := seedPlayer(t, 40)

	ledger := wallet.NewPostgresLedger(fixture.DB)
	_, err := ledger.Debit(ctx, seed.ID(), 15)
	require.NoError(t, err)

	// Act
	_, err = directory.Register(ctx, seed)
	require.NoError(t, err)

	// Assert
	players, err := directory.Players(ctx, []string{seed.ID(), "missing"})
	require.NoError(t, err)
	require.Len(t, players, 1)
	require.Equal(t, int64(25), players[0].Balance)
}

func Test_PostgresLedger_Never_Overdraws(t *testing.T) {
	requireInfrastructure(t)

	// Arrange
	ctx := context.Background()
	seed, _ := seedPlayer(t, 30)
	ledger := wallet.NewPostgresLedger(fixture.DB)

	// Act
	_, err := ledger.Debit(ctx, seed.ID(), 50)

	// Assert
	require.Equal(t, core.KindInsufficientFunds, core.KindOf(err))

	balance, err := ledger.Balance(ctx, seed.ID())
	require.NoError(t, err)
	require.Equal(t, int64(30), balance)
}

func Test_PostgresLedger_Debit_And_Credit(t *testing.T) {
	requireInfrastructure(t)

	ctx := context.Background()
	seed, _ := seedPlayer(t, 100)
	ledger := wallet.NewPostgresLedger(fixture.DB)

	balance, err := ledger.Debit(ctx, seed.ID(), 40)
	require.NoError(t, err)
	require.Equal(t, int64(60), balance)

	balance, err = ledger.Credit(ctx, seed.ID(), 15)
	require.NoError(t, err)
	require.Equal(t, int64(75), balance)

	_, err = ledger.Credit(ctx, "missing", 15)
	require.Equal(t, core.KindNotFound, core.KindOf(err))
}

func Test_PostgresRoomStore_Round_Trips_And_Rejects_Duplicate_Code(t *testing.T) {
	requireInfrastructure(t)

	// Arrange
	ctx := context.Background()
	store := room.NewPostgresStore(fixture.DB)
	r := newRoom(t, "host")

	// Act
	require.NoError(t, store.Put(ctx, r))

	r.Join("guest")
	require.NoError(t, store.Update(ctx, r))

	// Assert
	byID, err := store.Get(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"host", "guest"}, byID.Players)
	require.Equal(t, r.Code, byID.Code)
	require.Equal(t, roomdomain.StatusWaiting, byID.Status)

	byCode, err := store.GetByCode(ctx, r.Code)
	require.NoError(t, err)
	require.Equal(t, r.ID, byCode.ID)

	duplicate := newRoom(t, "other")
	duplicate.Code = r.Code
	require.Equal(t, core.KindConflict, core.KindOf(store.Put(ctx, duplicate)))

	_, err = store.Get(ctx, uuid.NewString())
	require.Equal(t, core.KindNotFound, core.KindOf(err))
}

func Test_PostgresSessionStore_Allows_One_Active_Session_Per_Room(t *testing.T) {
	requireInfrastructure(t)

	// Arrange
	ctx := context.Background()
	rooms := room.NewPostgresStore(fixture.DB)
	sessions := gamesession.NewPostgresStore(fixture.DB)

	r := newRoom(t, "host")
	require.NoError(t, rooms.Put(ctx, r))

	first, err := sessiondomain.NewSession(uuid.NewString(), r.ID, sessiondomain.GameTypeRollDice, time.Now())
	require.NoError(t, err)
	second, err := sessiondomain.NewSession(uuid.NewString(), r.ID, sessiondomain.GameTypeRollDice, time.Now())
	require.NoError(t, err)

	// Act
	require.NoError(t, sessions.Put(ctx, first))
	conflict := sessions.Put(ctx, second)

	// Assert
	require.Equal(t, core.KindConflict, core.KindOf(conflict))

	active, err := sessions.Active(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, active.ID)

	_, err = first.AddBet("host", 10, sessiondomain.PredictValue(2), time.Now())
	require.NoError(t, err)
	first.Status = sessiondomain.StatusResolved
	require.NoError(t, sessions.Update(ctx, first))

	stored, err := sessions.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, int64(10), stored.TotalPrizePool)
	require.Len(t, stored.Bets, 1)

	_, err = sessions.Active(ctx, r.ID)
	require.Equal(t, core.KindNotFound, core.KindOf(err))

	require.NoError(t, sessions.Put(ctx, second), fmt.Sprintf("room %s should accept a new session", r.ID))
}
