package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/entity"
)

const defaultResultsLimit = 20

type ResultRepository interface {
	Save(ctx context.Context, result *entity.Result) error
	List(ctx context.Context, limit int) ([]*entity.Result, error)
}

type resultRepository struct {
	conn *sql.DB
}

func NewResultRepository(conn *sql.DB) ResultRepository {
	return &resultRepository{
		conn: conn,
	}
}

func (that *resultRepository) Save(ctx context.Context, result *entity.Result) error {
	query := `INSERT INTO results (room_id, winner, score_x, score_o, rounds_total, player_x, player_o, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := that.conn.ExecContext(ctx, query,
		result.RoomID,
		result.Winner,
		result.ScoreX,
		result.ScoreO,
		result.RoundsTotal,
		result.PlayerX,
		result.PlayerO,
		result.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("can't save result: %w", err)
	}

	if result.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("can't get result id: %w", err)
	}

	return nil
}

// List returns the most recent results first.
func (that *resultRepository) List(ctx context.Context, limit int) ([]*entity.Result, error) {
	if limit <= 0 {
		limit = defaultResultsLimit
	}

	query := `SELECT id, room_id, winner, score_x, score_o, rounds_total, player_x, player_o, finished_at
		FROM results ORDER BY id DESC LIMIT ?`

	rows, err := that.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("can't list results: %w", err)
	}
	defer rows.Close()

	results := make([]*entity.Result, 0, limit)
	for rows.Next() {
		var (
			result     entity.Result
			finishedAt string
		)

		err = rows.Scan(
			&result.ID,
			&result.RoomID,
			&result.Winner,
			&result.ScoreX,
			&result.ScoreO,
			&result.RoundsTotal,
			&result.PlayerX,
			&result.PlayerO,
			&finishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("can't scan result: %w", err)
		}

		if result.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
			return nil, fmt.Errorf("can't parse finished_at: %w", err)
		}

		results = append(results, &result)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't iterate results: %w", err)
	}

	return results, nil
}
