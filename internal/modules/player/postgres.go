package player

import (
	"context"
	"database/sql"
	"errors"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"

	"github.com/eskrenkovic/tql"
	"github.com/lib/pq"
)

type PostgresDirectory struct {
	db     *sql.DB
	hasher *TokenHasher
}

func NewPostgresDirectory(db *sql.DB, hasher *TokenHasher) *PostgresDirectory {
	return &PostgresDirectory{db: db, hasher: hasher}
}

type seedRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	TokenDigest string `db:"token_digest"`
	Balance     int64  `db:"balance"`
}

// Register creates the player and its wallet unless the token is already
// known. The existing wallet balance is left untouched.
func (d *PostgresDirectory) Register(ctx context.Context, seed Seed) (string, error) {
	row := seedRow{
		ID:          seed.ID(),
		Name:        seed.Name,
		TokenDigest: d.hasher.Digest(seed.Token),
		Balance:     seed.Balance,
	}

	err := core.Tx(ctx, d.db, func(ctx context.Context, tx *sql.Tx) error {
		const insertPlayer = `
			INSERT INTO
				player (id, name, token_digest)
			VALUES
				(:id, :name, :token_digest)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name;`
		if _, err := tql.Exec(ctx, tx, insertPlayer, row); err != nil {
			return err
		}

		const insertWallet = `
			INSERT INTO
				wallet (player_id, balance)
			VALUES
				(:id, :balance)
			ON CONFLICT (player_id) DO NOTHING;`
		_, err := tql.Exec(ctx, tx, insertWallet, map[string]any{"id": row.ID, "balance": row.Balance})
		return err
	})
	if err != nil {
		return "", core.Internal(err)
	}

	return row.ID, nil
}

func (d *PostgresDirectory) Resolve(ctx context.Context, credential string) (Identity, error) {
	if credential == "" {
		return Identity{}, core.Unauthorized("missing credential")
	}

	const query = `
		SELECT
			p.id, p.name, COALESCE(w.balance, 0) AS balance
		FROM
			player p
		LEFT JOIN
			wallet w ON w.player_id = p.id
		WHERE
			p.token_digest = $1;`

	identity, err := tql.QueryFirst[Identity](ctx, d.db, query, d.hasher.Digest(credential))
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return Identity{}, core.Unauthorized("invalid credential")
	case err != nil:
		return Identity{}, core.Internal(err)
	}

	return identity, nil
}

func (d *PostgresDirectory) Players(ctx context.Context, ids []string) ([]Identity, error) {
	if len(ids) == 0 {
		return []Identity{}, nil
	}

	const query = `
		SELECT
			p.id, p.name, COALESCE(w.balance, 0) AS balance
		FROM
			player p
		LEFT JOIN
			wallet w ON w.player_id = p.id
		WHERE
			p.id = ANY($1);`

	identities, err := tql.Query[Identity](ctx, d.db, query, pq.Array(ids))
	if err != nil {
		return nil, core.Internal(err)
	}

	return identities, nil
}
