package wallet

import (
	"context"
	"sync"
	"testing"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"

	"github.com/stretchr/testify/require"
)

func Test_Debit_Fails_With_InsufficientFunds_And_Keeps_Balance(t *testing.T) {
	// Arrange
	ctx := context.Background()
	ledger := NewMemoryLedger()
	ledger.Open("a", 30)

	// Act
	_, err := ledger.Debit(ctx, "a", 50)

	// Assert
	require.Equal(t, core.KindInsufficientFunds, core.KindOf(err))

	balance, err := ledger.Balance(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, int64(30), balance)
}

func Test_Debit_And_Credit_Move_Balance(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	ledger.Open("a", 30)

	balance, err := ledger.Debit(ctx, "a", 10)
	require.NoError(t, err)
	require.Equal(t, int64(20), balance)

	balance, err = ledger.Credit(ctx, "a", 25)
	require.NoError(t, err)
	require.Equal(t, int64(45), balance)
}

func Test_Ledger_Rejects_Non_Positive_Amounts_And_Unknown_Wallets(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	ledger.Open("a", 30)

	_, err := ledger.Debit(ctx, "a", 0)
	require.Equal(t, core.KindInvalidArgument, core.KindOf(err))

	_, err = ledger.Credit(ctx, "a", -1)
	require.Equal(t, core.KindInvalidArgument, core.KindOf(err))

	_, err = ledger.Debit(ctx, "missing", 1)
	require.Equal(t, core.KindNotFound, core.KindOf(err))
}

func Test_Open_Keeps_Existing_Balance(t *testing.T) {
	ledger := NewMemoryLedger()
	ledger.Open("a", 30)
	ledger.Open("a", 500)

	balance, err := ledger.Balance(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, int64(30), balance)
}

func Test_Concurrent_Debits_Never_Overdraw(t *testing.T) {
	// Arrange
	ctx := context.Background()
	ledger := NewMemoryLedger()
	ledger.Open("a", 100)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	// Act
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.Debit(ctx, "a", 7); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Assert
	balance, err := ledger.Balance(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, 14, succeeded)
	require.Equal(t, int64(100-14*7), balance)
}
