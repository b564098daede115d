package repositories

import (
	"context"
	"database/sql"
	"errors"

	"tipprunde/models"
)

var ErrGameConfigNotFound = errors.New("game config not found")

type GameConfigRepository interface {
	Create(ctx context.Context, exec SQLExecutor, cfg *models.GameConfig) error
	GetByGameID(ctx context.Context, exec SQLExecutor, gameID int) (*models.GameConfig, error)
	Update(ctx context.Context, exec SQLExecutor, cfg *models.GameConfig) error
	DeleteByGameID(ctx context.Context, exec SQLExecutor, gameID int) error
}

type postgresGameConfigRepository struct {
	db *sql.DB
}

func NewPostgresGameConfigRepository(db *sql.DB) GameConfigRepository {
	return &postgresGameConfigRepository{db: db}
}

func (r *postgresGameConfigRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresGameConfigRepository) Create(ctx context.Context, exec SQLExecutor, cfg *models.GameConfig) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO game_configs (game_id, victory_share_percent, placement_share_percent, num_matchdays)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	return executor.QueryRowContext(ctx, query,
		cfg.GameID, cfg.VictorySharePercent, cfg.PlacementSharePercent, cfg.NumMatchdays,
	).Scan(&cfg.ID)
}

func (r *postgresGameConfigRepository) GetByGameID(ctx context.Context, exec SQLExecutor, gameID int) (*models.GameConfig, error) {
	executor := r.getExecutor(exec)
	var cfg models.GameConfig
	err := executor.QueryRowContext(ctx, `
		SELECT id, game_id, victory_share_percent, placement_share_percent, num_matchdays
		FROM game_configs
		WHERE game_id = $1`, gameID,
	).Scan(&cfg.ID, &cfg.GameID, &cfg.VictorySharePercent, &cfg.PlacementSharePercent, &cfg.NumMatchdays)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameConfigNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *postgresGameConfigRepository) Update(ctx context.Context, exec SQLExecutor, cfg *models.GameConfig) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE game_configs
		SET victory_share_percent = $1, placement_share_percent = $2, num_matchdays = $3
		WHERE game_id = $4`
	result, err := executor.ExecContext(ctx, query,
		cfg.VictorySharePercent, cfg.PlacementSharePercent, cfg.NumMatchdays, cfg.GameID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameConfigNotFound)
}

func (r *postgresGameConfigRepository) DeleteByGameID(ctx context.Context, exec SQLExecutor, gameID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM game_configs WHERE game_id = $1`, gameID)
	return err
}
