package room

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
	gamesession "github.com/eskrenkovic/wager-rooms/internal/modules/game-session/domain"
	"github.com/eskrenkovic/wager-rooms/internal/modules/room/domain"

	"github.com/eskrenkovic/tql"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type roomRow struct {
	ID         string         `db:"id"`
	Code       string         `db:"code"`
	Title      string         `db:"title"`
	HostID     string         `db:"host_id"`
	MinPlayers int            `db:"min_players"`
	GameType   string         `db:"game_type"`
	Players    pq.StringArray `db:"players"`
	Status     string         `db:"status"`
	CreatedAt  time.Time      `db:"created_at"`
}

func toRoomRow(r domain.Room) roomRow {
	return roomRow{
		ID:         r.ID,
		Code:       r.Code,
		Title:      r.Title,
		HostID:     r.HostID,
		MinPlayers: r.MinPlayers,
		GameType:   string(r.GameType),
		Players:    pq.StringArray(append([]string{}, r.Players...)),
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
	}
}

func (row roomRow) room() domain.Room {
	return domain.Room{
		ID:         row.ID,
		Code:       row.Code,
		Title:      row.Title,
		HostID:     row.HostID,
		MinPlayers: row.MinPlayers,
		GameType:   gamesession.GameType(row.GameType),
		Players:    append([]string{}, row.Players...),
		Status:     domain.Status(row.Status),
		CreatedAt:  row.CreatedAt.UTC(),
	}
}

const selectRoom = `
	SELECT
		id, code, title, host_id, min_players, game_type, players, status, created_at
	FROM
		room`

func (s *PostgresStore) Get(ctx context.Context, id string) (domain.Room, error) {
	return s.first(ctx, selectRoom+` WHERE id = $1;`, id)
}

func (s *PostgresStore) GetByCode(ctx context.Context, code string) (domain.Room, error) {
	return s.first(ctx, selectRoom+` WHERE code = $1;`, code)
}

func (s *PostgresStore) first(ctx context.Context, query string, params ...any) (domain.Room, error) {
	row, err := tql.QueryFirst[roomRow](ctx, s.db, query, params...)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return domain.Room{}, core.NotFound("room not found")
	case err != nil:
		return domain.Room{}, core.Internal(err)
	}

	return row.room(), nil
}

func (s *PostgresStore) Put(ctx context.Context, room domain.Room) error {
	const stmt = `
		INSERT INTO
			room (id, code, title, host_id, min_players, game_type, players, status, created_at)
		VALUES
			(:id, :code, :title, :host_id, :min_players, :game_type, :players, :status, :created_at);`

	if _, err := tql.Exec(ctx, s.db, stmt, toRoomRow(room)); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return core.Conflict("room code already in use")
		}
		return core.Internal(err)
	}

	return nil
}

func (s *PostgresStore) Update(ctx context.Context, room domain.Room) error {
	const stmt = `
		UPDATE
			room
		SET
			title = :title,
			host_id = :host_id,
			min_players = :min_players,
			game_type = :game_type,
			players = :players,
			status = :status
		WHERE
			id = :id;`

	result, err := tql.Exec(ctx, s.db, stmt, toRoomRow(room))
	if err != nil {
		return core.Internal(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return core.Internal(err)
	}
	if affected == 0 {
		return core.NotFound("room not found")
	}

	return nil
}
