package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"

	"github.com/eskrenkovic/tql"
)

type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) Debit(ctx context.Context, playerID string, amount int64) (int64, error) {
	if err := validateAmount(amount); err != nil {
		return 0, err
	}

	const stmt = `
		UPDATE
			wallet
		SET
			balance = balance - $2
		WHERE
			player_id = $1 AND balance >= $2
		RETURNING
			balance;`

	balance, err := tql.QueryFirst[int64](ctx, l.db, stmt, playerID, amount)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		current, balanceErr := l.Balance(ctx, playerID)
		if balanceErr != nil {
			return 0, balanceErr
		}
		return current, core.InsufficientFunds(fmt.Sprintf("balance %d is lower than %d", current, amount))
	case err != nil:
		return 0, core.Internal(err)
	}

	return balance, nil
}

func (l *PostgresLedger) Credit(ctx context.Context, playerID string, amount int64) (int64, error) {
	if err := validateAmount(amount); err != nil {
		return 0, err
	}

	const stmt = `
		UPDATE
			wallet
		SET
			balance = balance + $2
		WHERE
			player_id = $1
		RETURNING
			balance;`

	balance, err := tql.QueryFirst[int64](ctx, l.db, stmt, playerID, amount)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return 0, core.NotFound("wallet not found")
	case err != nil:
		return 0, core.Internal(err)
	}

	return balance, nil
}

func (l *PostgresLedger) Balance(ctx context.Context, playerID string) (int64, error) {
	const query = `
		SELECT
			balance
		FROM
			wallet
		WHERE
			player_id = $1;`

	balance, err := tql.QueryFirst[int64](ctx, l.db, query, playerID)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return 0, core.NotFound("wallet not found")
	case err != nil:
		return 0, core.Internal(err)
	}

	return balance, nil
}
