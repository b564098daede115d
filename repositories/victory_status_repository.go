package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"tipprunde/models"
)

var ErrVictoryStatusNotFound = errors.New("victory status not found")

type VictoryStatusRepository interface {
	Create(ctx context.Context, exec SQLExecutor, status *models.VictoryStatus) error
	GetByMemberAndDate(ctx context.Context, exec SQLExecutor, memberID int, date time.Time) (*models.VictoryStatus, error)
	GetLatestOnOrBefore(ctx context.Context, exec SQLExecutor, memberID int, date time.Time) (*models.VictoryStatus, error)
	LatestByGameID(ctx context.Context, exec SQLExecutor, gameID int) (map[int]*models.VictoryStatus, error)
	UpdateVictories(ctx context.Context, exec SQLExecutor, id int, victories decimal.Decimal) error
	DeleteByMemberID(ctx context.Context, exec SQLExecutor, memberID int) error
	DeleteByGameID(ctx context.Context, exec SQLExecutor, gameID int) error
}

type postgresVictoryStatusRepository struct {
	db *sql.DB
}

func NewPostgresVictoryStatusRepository(db *sql.DB) VictoryStatusRepository {
	return &postgresVictoryStatusRepository{db: db}
}

func (r *postgresVictoryStatusRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresVictoryStatusRepository) Create(ctx context.Context, exec SQLExecutor, status *models.VictoryStatus) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO victory_statuses (member_id, victories, date)
		VALUES ($1, $2, $3)
		RETURNING id`
	return executor.QueryRowContext(ctx, query,
		status.MemberID, status.Victories, status.Date.Format(dateLayout),
	).Scan(&status.ID)
}

func (r *postgresVictoryStatusRepository) scanStatus(rowScanner interface{ Scan(...interface{}) error }) (*models.VictoryStatus, error) {
	var s models.VictoryStatus
	err := rowScanner.Scan(&s.ID, &s.MemberID, &s.Victories, &s.Date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVictoryStatusNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresVictoryStatusRepository) GetByMemberAndDate(ctx context.Context, exec SQLExecutor, memberID int, date time.Time) (*models.VictoryStatus, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, member_id, victories, date
		FROM victory_statuses
		WHERE member_id = $1 AND date = $2`
	return r.scanStatus(executor.QueryRowContext(ctx, query, memberID, date.Format(dateLayout)))
}

func (r *postgresVictoryStatusRepository) GetLatestOnOrBefore(ctx context.Context, exec SQLExecutor, memberID int, date time.Time) (*models.VictoryStatus, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, member_id, victories, date
		FROM victory_statuses
		WHERE member_id = $1 AND date <= $2
		ORDER BY date DESC
		LIMIT 1`
	return r.scanStatus(executor.QueryRowContext(ctx, query, memberID, date.Format(dateLayout)))
}

func (r *postgresVictoryStatusRepository) LatestByGameID(ctx context.Context, exec SQLExecutor, gameID int) (map[int]*models.VictoryStatus, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT DISTINCT ON (vs.member_id) vs.id, vs.member_id, vs.victories, vs.date
		FROM victory_statuses vs
		JOIN members m ON m.id = vs.member_id
		WHERE m.game_id = $1
		ORDER BY vs.member_id, vs.date DESC`
	rows, err := executor.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	latest := make(map[int]*models.VictoryStatus)
	for rows.Next() {
		s, errScan := r.scanStatus(rows)
		if errScan != nil {
			return nil, errScan
		}
		latest[s.MemberID] = s
	}
	return latest, rows.Err()
}

func (r *postgresVictoryStatusRepository) UpdateVictories(ctx context.Context, exec SQLExecutor, id int, victories decimal.Decimal) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE victory_statuses SET victories = $1 WHERE id = $2`, victories, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrVictoryStatusNotFound)
}

func (r *postgresVictoryStatusRepository) DeleteByMemberID(ctx context.Context, exec SQLExecutor, memberID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM victory_statuses WHERE member_id = $1`, memberID)
	return err
}

func (r *postgresVictoryStatusRepository) DeleteByGameID(ctx context.Context, exec SQLExecutor, gameID int) error {
	executor := r.getExecutor(exec)
	query := `
		DELETE FROM victory_statuses
		WHERE member_id IN (SELECT id FROM members WHERE game_id = $1)`
	_, err := executor.ExecContext(ctx, query, gameID)
	return err
}
