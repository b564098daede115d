package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tipprunde/models"
	"tipprunde/repositories"
)

var (
	ErrMemberFieldsRequired = errors.New("first name, last name, email and payment label are required")
)

type MemberInput struct {
	FirstName        string
	LastName         string
	Email            string
	Nickname         string
	PaymentLabel     string
	PaymentReference string
}

type MemberService interface {
	CreateMember(ctx context.Context, gameID int, input MemberInput) (*models.Member, error)
	GetMemberByID(ctx context.Context, id int) (*models.Member, error)
	ListMembersByGame(ctx context.Context, gameID int) ([]models.Member, error)
	UpdateMember(ctx context.Context, id int, input MemberInput) (*models.Member, error)
	DeleteMember(ctx context.Context, id int) error
}

type memberService struct {
	db          *sql.DB
	gameRepo    repositories.GameRepository
	memberRepo  repositories.MemberRepository
	pointsRepo  repositories.PointsStatusRepository
	victoryRepo repositories.VictoryStatusRepository
}

func NewMemberService(
	db *sql.DB,
	gameRepo repositories.GameRepository,
	memberRepo repositories.MemberRepository,
	pointsRepo repositories.PointsStatusRepository,
	victoryRepo repositories.VictoryStatusRepository,
) MemberService {
	return &memberService{
		db:          db,
		gameRepo:    gameRepo,
		memberRepo:  memberRepo,
		pointsRepo:  pointsRepo,
		victoryRepo: victoryRepo,
	}
}

func validateMemberInput(input *MemberInput) error {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = strings.TrimSpace(input.Email)
	input.Nickname = strings.TrimSpace(input.Nickname)
	input.PaymentLabel = strings.TrimSpace(input.PaymentLabel)
	input.PaymentReference = strings.TrimSpace(input.PaymentReference)

	if input.FirstName == "" || input.LastName == "" || input.Email == "" || input.PaymentLabel == "" {
		return ErrMemberFieldsRequired
	}
	return nil
}

func (s *memberService) CreateMember(ctx context.Context, gameID int, input MemberInput) (*models.Member, error) {
	if _, err := s.gameRepo.GetByID(ctx, nil, gameID); err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game %d: %w", gameID, err)
	}
	if err := validateMemberInput(&input); err != nil {
		return nil, err
	}

	member := &models.Member{
		GameID:    gameID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Nickname:  input.Nickname,
	}

	err := runInTx(ctx, s.db, func(exec repositories.SQLExecutor) error {
		if err := s.memberRepo.Create(ctx, exec, member); err != nil {
			if errors.Is(err, repositories.ErrMemberNicknameConflict) {
				return ErrMemberNicknameConflict
			}
			return fmt.Errorf("failed to create member: %w", err)
		}
		pm := &models.PaymentMethod{
			MemberID:  member.ID,
			Label:     input.PaymentLabel,
			Reference: normalizeURL(input.PaymentReference),
		}
		if err := s.memberRepo.UpsertPaymentMethod(ctx, exec, pm); err != nil {
			return fmt.Errorf("failed to save payment method: %w", err)
		}
		member.PaymentMethod = pm
		return nil
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (s *memberService) GetMemberByID(ctx context.Context, id int) (*models.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member %d: %w", id, err)
	}
	if pm, err := s.memberRepo.GetPaymentMethod(ctx, nil, id); err == nil {
		member.PaymentMethod = pm
	} else if !errors.Is(err, repositories.ErrPaymentMethodNotFound) {
		return nil, fmt.Errorf("failed to load payment method of member %d: %w", id, err)
	}
	return member, nil
}

func (s *memberService) ListMembersByGame(ctx context.Context, gameID int) ([]models.Member, error) {
	memberPtrs, err := s.memberRepo.ListByGameID(ctx, nil, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of game %d: %w", gameID, err)
	}

	latestPoints, err := s.pointsRepo.LatestByGameID(ctx, nil, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest points of game %d: %w", gameID, err)
	}
	latestVictories, err := s.victoryRepo.LatestByGameID(ctx, nil, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest victories of game %d: %w", gameID, err)
	}

	members := make([]models.Member, 0, len(memberPtrs))
	for _, ptr := range memberPtrs {
		m := *ptr
		m.LatestPoints = latestPoints[m.ID]
		m.LatestVictory = latestVictories[m.ID]
		members = append(members, m)
	}
	return members, nil
}

func (s *memberService) UpdateMember(ctx context.Context, id int, input MemberInput) (*models.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member %d: %w", id, err)
	}
	if err := validateMemberInput(&input); err != nil {
		return nil, err
	}

	member.FirstName = input.FirstName
	member.LastName = input.LastName
	member.Email = input.Email
	member.Nickname = input.Nickname

	err = runInTx(ctx, s.db, func(exec repositories.SQLExecutor) error {
		if err := s.memberRepo.Update(ctx, exec, member); err != nil {
			if errors.Is(err, repositories.ErrMemberNicknameConflict) {
				return ErrMemberNicknameConflict
			}
			return fmt.Errorf("failed to update member %d: %w", id, err)
		}
		pm := &models.PaymentMethod{
			MemberID:  member.ID,
			Label:     input.PaymentLabel,
			Reference: normalizeURL(input.PaymentReference),
		}
		if err := s.memberRepo.UpsertPaymentMethod(ctx, exec, pm); err != nil {
			return fmt.Errorf("failed to save payment method: %w", err)
		}
		member.PaymentMethod = pm
		return nil
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// DeleteMember удаляет участника вместе с историей статусов и способом
// оплаты в одной транзакции.
func (s *memberService) DeleteMember(ctx context.Context, id int) error {
	member, err := s.memberRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to get member %d: %w", id, err)
	}

	return runInTx(ctx, s.db, func(exec repositories.SQLExecutor) error {
		if err := s.pointsRepo.DeleteByMemberID(ctx, exec, member.ID); err != nil {
			return fmt.Errorf("failed to delete points history: %w", err)
		}
		if err := s.victoryRepo.DeleteByMemberID(ctx, exec, member.ID); err != nil {
			return fmt.Errorf("failed to delete victory history: %w", err)
		}
		if err := s.memberRepo.DeletePaymentMethodByMemberID(ctx, exec, member.ID); err != nil {
			return fmt.Errorf("failed to delete payment method: %w", err)
		}
		if err := s.memberRepo.Delete(ctx, exec, member.ID); err != nil {
			return fmt.Errorf("failed to delete member: %w", err)
		}
		return nil
	})
}
