package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"tipprunde/models"
)

var (
	ErrPlacementPayoutNotFound  = errors.New("placement payout rule not found")
	ErrPlacementRankConflict    = errors.New("placement rank already configured for this game")
	ErrPlacementGameInvalid     = errors.New("placement payout game conflict or invalid")
)

type PlacementPayoutRepository interface {
	Create(ctx context.Context, exec SQLExecutor, rule *models.PlacementPayout) error
	ListByGameID(ctx context.Context, exec SQLExecutor, gameID int) ([]models.PlacementPayout, error)
	DeleteByGameAndRank(ctx context.Context, exec SQLExecutor, gameID, rank int) error
	DeleteByGameID(ctx context.Context, exec SQLExecutor, gameID int) error
}

type postgresPlacementPayoutRepository struct {
	db *sql.DB
}

func NewPostgresPlacementPayoutRepository(db *sql.DB) PlacementPayoutRepository {
	return &postgresPlacementPayoutRepository{db: db}
}

func (r *postgresPlacementPayoutRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPlacementPayoutRepository) Create(ctx context.Context, exec SQLExecutor, rule *models.PlacementPayout) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO placement_payouts (game_id, rank, percent)
		VALUES ($1, $2, $3)
		RETURNING id`
	err := executor.QueryRowContext(ctx, query, rule.GameID, rule.Rank, rule.Percent).Scan(&rule.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "uq_game_rank" {
					return ErrPlacementRankConflict
				}
			case "23503":
				return ErrPlacementGameInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresPlacementPayoutRepository) ListByGameID(ctx context.Context, exec SQLExecutor, gameID int) ([]models.PlacementPayout, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, `
		SELECT id, game_id, rank, percent
		FROM placement_payouts
		WHERE game_id = $1
		ORDER BY rank ASC`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]models.PlacementPayout, 0)
	for rows.Next() {
		var rule models.PlacementPayout
		if err := rows.Scan(&rule.ID, &rule.GameID, &rule.Rank, &rule.Percent); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *postgresPlacementPayoutRepository) DeleteByGameAndRank(ctx context.Context, exec SQLExecutor, gameID, rank int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`DELETE FROM placement_payouts WHERE game_id = $1 AND rank = $2`, gameID, rank)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlacementPayoutNotFound)
}

func (r *postgresPlacementPayoutRepository) DeleteByGameID(ctx context.Context, exec SQLExecutor, gameID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM placement_payouts WHERE game_id = $1`, gameID)
	return err
}
