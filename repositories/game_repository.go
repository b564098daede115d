package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tipprunde/models"
)

var ErrGameNotFound = errors.New("game not found")

type GameRepository interface {
	Create(ctx context.Context, exec SQLExecutor, game *models.Game) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error)
	List(ctx context.Context, exec SQLExecutor) ([]*models.Game, error)
	Update(ctx context.Context, exec SQLExecutor, game *models.Game) error
	UpdateLogoKey(ctx context.Context, exec SQLExecutor, id int, logoKey *string) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresGameRepository) Create(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tipping_games (name, stake_per_person, url, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if game.CreatedAt.IsZero() {
		game.CreatedAt = time.Now()
	}
	return executor.QueryRowContext(ctx, query,
		game.Name, game.StakePerPerson, game.URL, game.CreatedAt,
	).Scan(&game.ID)
}

func (r *postgresGameRepository) scanGame(rowScanner interface{ Scan(...interface{}) error }) (*models.Game, error) {
	var g models.Game
	err := rowScanner.Scan(&g.ID, &g.Name, &g.StakePerPerson, &g.URL, &g.LogoKey, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, name, stake_per_person, url, logo_key, created_at
		FROM tipping_games
		WHERE id = $1`
	return r.scanGame(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresGameRepository) List(ctx context.Context, exec SQLExecutor) ([]*models.Game, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, name, stake_per_person, url, logo_key, created_at
		FROM tipping_games
		ORDER BY name ASC`
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := make([]*models.Game, 0)
	for rows.Next() {
		g, errScan := r.scanGame(rows)
		if errScan != nil {
			return nil, errScan
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func (r *postgresGameRepository) Update(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tipping_games
		SET name = $1, stake_per_person = $2, url = $3
		WHERE id = $4`
	result, err := executor.ExecContext(ctx, query, game.Name, game.StakePerPerson, game.URL, game.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) UpdateLogoKey(ctx context.Context, exec SQLExecutor, id int, logoKey *string) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE tipping_games SET logo_key = $1 WHERE id = $2`, logoKey, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM tipping_games WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}
