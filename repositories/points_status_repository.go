package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tipprunde/models"
)

var ErrPointsStatusNotFound = errors.New("points status not found")

type PointsStatusRepository interface {
	Create(ctx context.Context, exec SQLExecutor, status *models.PointsStatus) error
	GetByMemberAndDate(ctx context.Context, exec SQLExecutor, memberID int, date time.Time) (*models.PointsStatus, error)
	GetLatestOnOrBefore(ctx context.Context, exec SQLExecutor, memberID int, date time.Time) (*models.PointsStatus, error)
	LatestByGameID(ctx context.Context, exec SQLExecutor, gameID int) (map[int]*models.PointsStatus, error)
	UpdatePoints(ctx context.Context, exec SQLExecutor, id int, points int) error
	DeleteByMemberID(ctx context.Context, exec SQLExecutor, memberID int) error
	DeleteByGameID(ctx context.Context, exec SQLExecutor, gameID int) error
}

type postgresPointsStatusRepository struct {
	db *sql.DB
}

func NewPostgresPointsStatusRepository(db *sql.DB) PointsStatusRepository {
	return &postgresPointsStatusRepository{db: db}
}

func (r *postgresPointsStatusRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPointsStatusRepository) Create(ctx context.Context, exec SQLExecutor, status *models.PointsStatus) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO points_statuses (member_id, points, date)
		VALUES ($1, $2, $3)
		RETURNING id`
	return executor.QueryRowContext(ctx, query,
		status.MemberID, status.Points, status.Date.Format(dateLayout),
	).Scan(&status.ID)
}

func (r *postgresPointsStatusRepository) scanStatus(rowScanner interface{ Scan(...interface{}) error }) (*models.PointsStatus, error) {
	var s models.PointsStatus
	err := rowScanner.Scan(&s.ID, &s.MemberID, &s.Points, &s.Date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPointsStatusNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresPointsStatusRepository) GetByMemberAndDate(ctx context.Context, exec SQLExecutor, memberID int, date time.Time) (*models.PointsStatus, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, member_id, points, date
		FROM points_statuses
		WHERE member_id = $1 AND date = $2`
	return r.scanStatus(executor.QueryRowContext(ctx, query, memberID, date.Format(dateLayout)))
}

func (r *postgresPointsStatusRepository) GetLatestOnOrBefore(ctx context.Context, exec SQLExecutor, memberID int, date time.Time) (*models.PointsStatus, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, member_id, points, date
		FROM points_statuses
		WHERE member_id = $1 AND date <= $2
		ORDER BY date DESC
		LIMIT 1`
	return r.scanStatus(executor.QueryRowContext(ctx, query, memberID, date.Format(dateLayout)))
}

// LatestByGameID возвращает свежайший статус каждого участника игры одной
// выборкой (DISTINCT ON), ключ карты — member_id.
func (r *postgresPointsStatusRepository) LatestByGameID(ctx context.Context, exec SQLExecutor, gameID int) (map[int]*models.PointsStatus, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT DISTINCT ON (ps.member_id) ps.id, ps.member_id, ps.points, ps.date
		FROM points_statuses ps
		JOIN members m ON m.id = ps.member_id
		WHERE m.game_id = $1
		ORDER BY ps.member_id, ps.date DESC`
	rows, err := executor.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	latest := make(map[int]*models.PointsStatus)
	for rows.Next() {
		s, errScan := r.scanStatus(rows)
		if errScan != nil {
			return nil, errScan
		}
		latest[s.MemberID] = s
	}
	return latest, rows.Err()
}

func (r *postgresPointsStatusRepository) UpdatePoints(ctx context.Context, exec SQLExecutor, id int, points int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE points_statuses SET points = $1 WHERE id = $2`, points, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPointsStatusNotFound)
}

func (r *postgresPointsStatusRepository) DeleteByMemberID(ctx context.Context, exec SQLExecutor, memberID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM points_statuses WHERE member_id = $1`, memberID)
	return err
}

func (r *postgresPointsStatusRepository) DeleteByGameID(ctx context.Context, exec SQLExecutor, gameID int) error {
	executor := r.getExecutor(exec)
	query := `
		DELETE FROM points_statuses
		WHERE member_id IN (SELECT id FROM members WHERE game_id = $1)`
	_, err := executor.ExecContext(ctx, query, gameID)
	return err
}
