package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"tipprunde/models"
	"tipprunde/payout"
	"tipprunde/repositories"
)

type EvaluationService interface {
	Evaluate(ctx context.Context, gameID int) (*models.EvaluationResult, error)
}

type evaluationService struct {
	db          *sql.DB
	gameRepo    repositories.GameRepository
	memberRepo  repositories.MemberRepository
	pointsRepo  repositories.PointsStatusRepository
	victoryRepo repositories.VictoryStatusRepository
	configRepo  repositories.GameConfigRepository
	payoutRepo  repositories.PlacementPayoutRepository
}

func NewEvaluationService(
	db *sql.DB,
	gameRepo repositories.GameRepository,
	memberRepo repositories.MemberRepository,
	pointsRepo repositories.PointsStatusRepository,
	victoryRepo repositories.VictoryStatusRepository,
	configRepo repositories.GameConfigRepository,
	payoutRepo repositories.PlacementPayoutRepository,
) EvaluationService {
	return &evaluationService{
		db:          db,
		gameRepo:    gameRepo,
		memberRepo:  memberRepo,
		pointsRepo:  pointsRepo,
		victoryRepo: victoryRepo,
		configRepo:  configRepo,
		payoutRepo:  payoutRepo,
	}
}

// Evaluate загружает игру с актуальными статусами участников и строит таблицу
// выплат. Отсутствующая конфигурация материализуется значениями по умолчанию
// (50/50, один тур) — движок выплат рассчитывает на этот контракт.
func (s *evaluationService) Evaluate(ctx context.Context, gameID int) (*models.EvaluationResult, error) {
	game, err := s.gameRepo.GetByID(ctx, nil, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to load game %d: %w", gameID, err)
	}

	cfg, err := s.ensureConfig(ctx, gameID)
	if err != nil {
		return nil, err
	}

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

	rules, err := s.payoutRepo.ListByGameID(ctx, nil, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load placement rules of game %d: %w", gameID, err)
	}

	result := payout.Evaluate(game, members, cfg, rules)
	return &result, nil
}

// ensureConfig возвращает конфигурацию игры, создавая умолчание при первом
// обращении.
func (s *evaluationService) ensureConfig(ctx context.Context, gameID int) (*models.GameConfig, error) {
	cfg, err := s.configRepo.GetByGameID(ctx, nil, gameID)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, repositories.ErrGameConfigNotFound) {
		return nil, fmt.Errorf("failed to load config of game %d: %w", gameID, err)
	}

	cfg = DefaultGameConfig(gameID)
	if createErr := s.configRepo.Create(ctx, nil, cfg); createErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrGameConfigMissing, createErr)
	}
	return cfg, nil
}

// DefaultGameConfig — умолчание для новой игры: фонд делится пополам между
// потами, один тур.
func DefaultGameConfig(gameID int) *models.GameConfig {
	return &models.GameConfig{
		GameID:                gameID,
		VictorySharePercent:   decimal.NewFromInt(50),
		PlacementSharePercent: decimal.NewFromInt(50),
		NumMatchdays:          1,
	}
}
