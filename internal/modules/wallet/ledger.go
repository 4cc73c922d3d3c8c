// Package wallet holds spendable player balances.
package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
)

// Ledger mutates balances atomically per player. Debit never takes a balance
// below zero.
type Ledger interface {
	Debit(ctx context.Context, playerID string, amount int64) (int64, error)
	Credit(ctx context.Context, playerID string, amount int64) (int64, error)
	Balance(ctx context.Context, playerID string) (int64, error)
}

func validateAmount(amount int64) error {
	if amount <= 0 {
		return core.InvalidArgument(fmt.Sprintf("amount must be positive, got %d", amount))
	}
	return nil
}

type MemoryLedger struct {
	mu       sync.Mutex
	balances map[string]int64
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[string]int64)}
}

// Open creates a wallet with balance unless playerID already has one.
func (l *MemoryLedger) Open(playerID string, balance int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, found := l.balances[playerID]; !found {
		l.balances[playerID] = balance
	}
}

func (l *MemoryLedger) Debit(_ context.Context, playerID string, amount int64) (int64, error) {
	if err := validateAmount(amount); err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, found := l.balances[playerID]
	if !found {
		return 0, core.NotFound("wallet not found")
	}

	if balance < amount {
		return balance, core.InsufficientFunds(fmt.Sprintf("balance %d is lower than %d", balance, amount))
	}

	l.balances[playerID] = balance - amount
	return l.balances[playerID], nil
}

func (l *MemoryLedger) Credit(_ context.Context, playerID string, amount int64) (int64, error) {
	if err := validateAmount(amount); err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, found := l.balances[playerID]
	if !found {
		return 0, core.NotFound("wallet not found")
	}

	l.balances[playerID] = balance + amount
	return l.balances[playerID], nil
}

func (l *MemoryLedger) Balance(_ context.Context, playerID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance, found := l.balances[playerID]
	if !found {
		return 0, core.NotFound("wallet not found")
	}
	return balance, nil
}
