package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"tipprunde/models"
)

var (
	ErrMemberNotFound         = errors.New("member not found")
	ErrMemberGameInvalid      = errors.New("member game conflict or invalid")
	ErrMemberNicknameConflict = errors.New("member nickname already in use within this game")
	ErrPaymentMethodNotFound  = errors.New("payment method not found")
)

type MemberRepository interface {
	Create(ctx context.Context, exec SQLExecutor, member *models.Member) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Member, error)
	GetByGameAndNickname(ctx context.Context, exec SQLExecutor, gameID int, nickname string) (*models.Member, error)
	ListByGameID(ctx context.Context, exec SQLExecutor, gameID int) ([]*models.Member, error)
	CountByGameID(ctx context.Context, exec SQLExecutor, gameID int) (int, error)
	Update(ctx context.Context, exec SQLExecutor, member *models.Member) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	DeleteByGameID(ctx context.Context, exec SQLExecutor, gameID int) error

	UpsertPaymentMethod(ctx context.Context, exec SQLExecutor, pm *models.PaymentMethod) error
	GetPaymentMethod(ctx context.Context, exec SQLExecutor, memberID int) (*models.PaymentMethod, error)
	DeletePaymentMethodByMemberID(ctx context.Context, exec SQLExecutor, memberID int) error
	DeletePaymentMethodsByGameID(ctx context.Context, exec SQLExecutor, gameID int) error
}

type postgresMemberRepository struct {
	db *sql.DB
}

func NewPostgresMemberRepository(db *sql.DB) MemberRepository {
	return &postgresMemberRepository{db: db}
}

func (r *postgresMemberRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func mapMemberError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == "uq_members_game_nickname" {
				return ErrMemberNicknameConflict
			}
		case "23503": // foreign_key_violation
			if pqErr.Constraint == "members_game_id_fkey" {
				return ErrMemberGameInvalid
			}
		}
	}
	return err
}

func (r *postgresMemberRepository) Create(ctx context.Context, exec SQLExecutor, member *models.Member) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO members (game_id, first_name, last_name, email, nickname, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now()
	}
	err := executor.QueryRowContext(ctx, query,
		member.GameID, member.FirstName, member.LastName, member.Email, member.Nickname, member.CreatedAt,
	).Scan(&member.ID)
	if err != nil {
		return mapMemberError(err)
	}
	return nil
}

func (r *postgresMemberRepository) scanMember(rowScanner interface{ Scan(...interface{}) error }) (*models.Member, error) {
	var m models.Member
	err := rowScanner.Scan(&m.ID, &m.GameID, &m.FirstName, &m.LastName, &m.Email, &m.Nickname, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

const memberColumns = `id, game_id, first_name, last_name, email, nickname, created_at`

func (r *postgresMemberRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Member, error) {
	executor := r.getExecutor(exec)
	return r.scanMember(executor.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = $1`, id))
}

func (r *postgresMemberRepository) GetByGameAndNickname(ctx context.Context, exec SQLExecutor, gameID int, nickname string) (*models.Member, error) {
	executor := r.getExecutor(exec)
	return r.scanMember(executor.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE game_id = $1 AND nickname = $2`, gameID, nickname))
}

func (r *postgresMemberRepository) ListByGameID(ctx context.Context, exec SQLExecutor, gameID int) ([]*models.Member, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE game_id = $1 ORDER BY last_name ASC, first_name ASC`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]*models.Member, 0)
	for rows.Next() {
		m, errScan := r.scanMember(rows)
		if errScan != nil {
			return nil, errScan
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *postgresMemberRepository) CountByGameID(ctx context.Context, exec SQLExecutor, gameID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM members WHERE game_id = $1`, gameID).Scan(&count)
	return count, err
}

func (r *postgresMemberRepository) Update(ctx context.Context, exec SQLExecutor, member *models.Member) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE members
		SET first_name = $1, last_name = $2, email = $3, nickname = $4
		WHERE id = $5`
	result, err := executor.ExecContext(ctx, query,
		member.FirstName, member.LastName, member.Email, member.Nickname, member.ID)
	if err != nil {
		return mapMemberError(err)
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}

func (r *postgresMemberRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}

func (r *postgresMemberRepository) DeleteByGameID(ctx context.Context, exec SQLExecutor, gameID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM members WHERE game_id = $1`, gameID)
	return err
}

func (r *postgresMemberRepository) UpsertPaymentMethod(ctx context.Context, exec SQLExecutor, pm *models.PaymentMethod) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO payment_methods (member_id, label, reference)
		VALUES ($1, $2, $3)
		ON CONFLICT (member_id) DO UPDATE SET label = EXCLUDED.label, reference = EXCLUDED.reference
		RETURNING id`
	return executor.QueryRowContext(ctx, query, pm.MemberID, pm.Label, pm.Reference).Scan(&pm.ID)
}

func (r *postgresMemberRepository) GetPaymentMethod(ctx context.Context, exec SQLExecutor, memberID int) (*models.PaymentMethod, error) {
	executor := r.getExecutor(exec)
	var pm models.PaymentMethod
	err := executor.QueryRowContext(ctx,
		`SELECT id, member_id, label, reference FROM payment_methods WHERE member_id = $1`, memberID,
	).Scan(&pm.ID, &pm.MemberID, &pm.Label, &pm.Reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentMethodNotFound
		}
		return nil, err
	}
	return &pm, nil
}

func (r *postgresMemberRepository) DeletePaymentMethodByMemberID(ctx context.Context, exec SQLExecutor, memberID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM payment_methods WHERE member_id = $1`, memberID)
	return err
}

func (r *postgresMemberRepository) DeletePaymentMethodsByGameID(ctx context.Context, exec SQLExecutor, gameID int) error {
	executor := r.getExecutor(exec)
	query := `
		DELETE FROM payment_methods
		WHERE member_id IN (SELECT id FROM members WHERE game_id = $1)`
	_, err := executor.ExecContext(ctx, query, gameID)
	return err
}
