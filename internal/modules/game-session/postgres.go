package gamesession

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	"github.com/eskrenkovic/wager-rooms/internal/modules/game-session/domain"

	"github.com/eskrenkovic/tql"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// PostgresStore keeps the session document as jsonb next to the columns the
// queries filter on.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type sessionRow struct {
	ID        string    `db:"id"`
	RoomID    string    `db:"room_id"`
	Status    string    `db:"status"`
	Payload   string    `db:"payload"`
	CreatedAt time.Time `db:"created_at"`
}

func toSessionRow(s domain.Session) (sessionRow, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return sessionRow{}, err
	}

	return sessionRow{
		ID:        s.ID,
		RoomID:    s.RoomID,
		Status:    string(s.Status),
		Payload:   string(payload),
		CreatedAt: s.CreatedAt,
	}, nil
}

func (row sessionRow) session() (domain.Session, error) {
	var s domain.Session
	if err := json.Unmarshal([]byte(row.Payload), &s); err != nil {
		return domain.Session{}, err
	}
	return s, nil
}

const selectSession = `
	SELECT
		id, room_id, status, payload, created_at
	FROM
		game_session`

func (s *PostgresStore) Get(ctx context.Context, id string) (domain.Session, error) {
	return s.first(ctx, "session not found", selectSession+` WHERE id = $1;`, id)
}

func (s *PostgresStore) Active(ctx context.Context, roomID string) (domain.Session, error) {
	return s.first(
		ctx,
		"room has no active session",
		selectSession+` WHERE room_id = $1 AND status <> 'resolved';`,
		roomID,
	)
}

func (s *PostgresStore) first(ctx context.Context, notFound string, query string, params ...any) (domain.Session, error) {
	row, err := tql.QueryFirst[sessionRow](ctx, s.db, query, params...)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return domain.Session{}, core.NotFound(notFound)
	case err != nil:
		return domain.Session{}, core.Internal(err)
	}

	session, err := row.session()
	if err != nil {
		return domain.Session{}, core.Internal(err)
	}
	return session, nil
}

func (s *PostgresStore) Put(ctx context.Context, session domain.Session) error {
	row, err := toSessionRow(session)
	if err != nil {
		return core.Internal(err)
	}

	const stmt = `
		INSERT INTO
			game_session (id, room_id, status, payload, created_at)
		VALUES
			(:id, :room_id, :status, :payload, :created_at);`

	if _, err := tql.Exec(ctx, s.db, stmt, row); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return errActiveExists
		}
		return core.Internal(err)
	}

	return nil
}

func (s *PostgresStore) Update(ctx context.Context, session domain.Session) error {
	row, err := toSessionRow(session)
	if err != nil {
		return core.Internal(err)
	}

	const stmt = `
		UPDATE
			game_session
		SET
			status = :status,
			payload = :payload
		WHERE
			id = :id;`

	result, err := tql.Exec(ctx, s.db, stmt, row)
	if err != nil {
		return core.Internal(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return core.Internal(err)
	}
	if affected == 0 {
		return core.NotFound("session not found")
	}

	return nil
}
