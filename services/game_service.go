package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"tipprunde/models"
	"tipprunde/money"
	"tipprunde/repositories"
	"tipprunde/storage"
)

var hundredPercent = decimal.NewFromInt(100)

type CreateGameInput struct {
	Name  string
	Stake string // денежная строка, немецкая запятая допустима
	URL   string
}

type UpdateGameInput struct {
	Name  string
	Stake string
	URL   string
}

type SaveConfigInput struct {
	VictorySharePercent   string
	PlacementSharePercent string
	NumMatchdays          int
}

type AddPlacementRuleInput struct {
	Rank    int
	Percent string
}

type GameService interface {
	CreateGame(ctx context.Context, input CreateGameInput) (*models.Game, error)
	GetGameByID(ctx context.Context, id int) (*models.Game, error)
	ListGames(ctx context.Context) ([]models.Game, error)
	UpdateGame(ctx context.Context, id int, input UpdateGameInput) (*models.Game, error)
	DeleteGame(ctx context.Context, id int) error

	SaveConfig(ctx context.Context, gameID int, input SaveConfigInput) (*models.GameConfig, error)
	AddPlacementRule(ctx context.Context, gameID int, input AddPlacementRuleInput) (*models.PlacementPayout, error)
	RemovePlacementRule(ctx context.Context, gameID, rank int) error

	UploadLogo(ctx context.Context, gameID int, contentType string, reader io.Reader) (*models.Game, error)
}

type gameService struct {
	db          *sql.DB
	gameRepo    repositories.GameRepository
	memberRepo  repositories.MemberRepository
	pointsRepo  repositories.PointsStatusRepository
	victoryRepo repositories.VictoryStatusRepository
	configRepo  repositories.GameConfigRepository
	payoutRepo  repositories.PlacementPayoutRepository
	uploader    storage.FileUploader
}

func NewGameService(
	db *sql.DB,
	gameRepo repositories.GameRepository,
	memberRepo repositories.MemberRepository,
	pointsRepo repositories.PointsStatusRepository,
	victoryRepo repositories.VictoryStatusRepository,
	configRepo repositories.GameConfigRepository,
	payoutRepo repositories.PlacementPayoutRepository,
	uploader storage.FileUploader,
) GameService {
	return &gameService{
		db:          db,
		gameRepo:    gameRepo,
		memberRepo:  memberRepo,
		pointsRepo:  pointsRepo,
		victoryRepo: victoryRepo,
		configRepo:  configRepo,
		payoutRepo:  payoutRepo,
		uploader:    uploader,
	}
}

func parseStake(raw string) (decimal.Decimal, error) {
	stake, err := money.ParseAmount(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrGameStakeInvalid, err)
	}
	if stake.IsNegative() {
		return decimal.Zero, ErrGameStakeInvalid
	}
	return stake, nil
}

func normalizeURL(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return &raw
}

// CreateGame заводит игру и сразу её конфигурацию по умолчанию, как и
// интерактивное создание в исходной системе.
func (s *gameService) CreateGame(ctx context.Context, input CreateGameInput) (*models.Game, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrGameNameRequired
	}
	stake, err := parseStake(input.Stake)
	if err != nil {
		return nil, err
	}

	game := &models.Game{
		Name:           name,
		StakePerPerson: stake,
		URL:            normalizeURL(input.URL),
	}

	err = runInTx(ctx, s.db, func(exec repositories.SQLExecutor) error {
		if err := s.gameRepo.Create(ctx, exec, game); err != nil {
			return fmt.Errorf("failed to create game: %w", err)
		}
		cfg := DefaultGameConfig(game.ID)
		if err := s.configRepo.Create(ctx, exec, cfg); err != nil {
			return fmt.Errorf("failed to create default config: %w", err)
		}
		game.Config = cfg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return game, nil
}

func (s *gameService) GetGameByID(ctx context.Context, id int) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game %d: %w", id, err)
	}

	if cfg, err := s.configRepo.GetByGameID(ctx, nil, id); err == nil {
		game.Config = cfg
	} else if !errors.Is(err, repositories.ErrGameConfigNotFound) {
		return nil, fmt.Errorf("failed to load config of game %d: %w", id, err)
	}

	rules, err := s.payoutRepo.ListByGameID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load placement rules of game %d: %w", id, err)
	}
	game.PlacementPayouts = rules

	s.populateLogoURL(game)
	return game, nil
}

func (s *gameService) ListGames(ctx context.Context) ([]models.Game, error) {
	games, err := s.gameRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	result := make([]models.Game, 0, len(games))
	for _, g := range games {
		s.populateLogoURL(g)
		result = append(result, *g)
	}
	return result, nil
}

func (s *gameService) UpdateGame(ctx context.Context, id int, input UpdateGameInput) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game %d: %w", id, err)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrGameNameRequired
	}
	stake, err := parseStake(input.Stake)
	if err != nil {
		return nil, err
	}

	game.Name = name
	game.StakePerPerson = stake
	game.URL = normalizeURL(input.URL)

	if err := s.gameRepo.Update(ctx, nil, game); err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to update game %d: %w", id, err)
	}
	s.populateLogoURL(game)
	return game, nil
}

// DeleteGame удаляет игру со всеми зависимыми строками (история статусов,
// способы оплаты, участники, конфигурация, правила мест) одной транзакцией.
func (s *gameService) DeleteGame(ctx context.Context, id int) error {
	game, err := s.gameRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return ErrGameNotFound
		}
		return fmt.Errorf("failed to get game %d: %w", id, err)
	}

	err = runInTx(ctx, s.db, func(exec repositories.SQLExecutor) error {
		if err := s.pointsRepo.DeleteByGameID(ctx, exec, id); err != nil {
			return fmt.Errorf("failed to delete points history: %w", err)
		}
		if err := s.victoryRepo.DeleteByGameID(ctx, exec, id); err != nil {
			return fmt.Errorf("failed to delete victory history: %w", err)
		}
		if err := s.memberRepo.DeletePaymentMethodsByGameID(ctx, exec, id); err != nil {
			return fmt.Errorf("failed to delete payment methods: %w", err)
		}
		if err := s.memberRepo.DeleteByGameID(ctx, exec, id); err != nil {
			return fmt.Errorf("failed to delete members: %w", err)
		}
		if err := s.configRepo.DeleteByGameID(ctx, exec, id); err != nil {
			return fmt.Errorf("failed to delete config: %w", err)
		}
		if err := s.payoutRepo.DeleteByGameID(ctx, exec, id); err != nil {
			return fmt.Errorf("failed to delete placement rules: %w", err)
		}
		if err := s.gameRepo.Delete(ctx, exec, id); err != nil {
			return fmt.Errorf("failed to delete game: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if game.LogoKey != nil {
		// Логотип чистится по принципу best effort, транзакция уже закрыта.
		_ = s.uploader.Delete(ctx, *game.LogoKey)
	}
	return nil
}

// SaveConfig проверяет инварианты конфигурации и сохраняет её атомарно:
// доли потов должны давать ровно 100.00, туров должно быть больше нуля.
// При отказе прежняя конфигурация остаётся нетронутой.
func (s *gameService) SaveConfig(ctx context.Context, gameID int, input SaveConfigInput) (*models.GameConfig, error) {
	if _, err := s.gameRepo.GetByID(ctx, nil, gameID); err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game %d: %w", gameID, err)
	}

	victory, err := money.ParseAmount(input.VictorySharePercent)
	if err != nil {
		return nil, fmt.Errorf("%w: victory share: %w", ErrValidationFailed, err)
	}
	placement, err := money.ParseAmount(input.PlacementSharePercent)
	if err != nil {
		return nil, fmt.Errorf("%w: placement share: %w", ErrValidationFailed, err)
	}

	// Сравнение точное десятичное, без эпсилона.
	if !victory.Add(placement).Equal(hundredPercent) {
		return nil, ErrConfigShareSumInvalid
	}
	if input.NumMatchdays <= 0 {
		return nil, ErrConfigMatchdaysInvalid
	}

	cfg := &models.GameConfig{
		GameID:                gameID,
		VictorySharePercent:   victory,
		PlacementSharePercent: placement,
		NumMatchdays:          input.NumMatchdays,
	}

	err = runInTx(ctx, s.db, func(exec repositories.SQLExecutor) error {
		updateErr := s.configRepo.Update(ctx, exec, cfg)
		if errors.Is(updateErr, repositories.ErrGameConfigNotFound) {
			return s.configRepo.Create(ctx, exec, cfg)
		}
		return updateErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save config of game %d: %w", gameID, err)
	}
	return cfg, nil
}

func (s *gameService) AddPlacementRule(ctx context.Context, gameID int, input AddPlacementRuleInput) (*models.PlacementPayout, error) {
	if _, err := s.gameRepo.GetByID(ctx, nil, gameID); err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game %d: %w", gameID, err)
	}

	percent, err := money.ParseAmount(input.Percent)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlacementInvalid, err)
	}
	if input.Rank <= 0 || percent.IsNegative() {
		return nil, ErrPlacementInvalid
	}

	rule := &models.PlacementPayout{
		GameID:  gameID,
		Rank:    input.Rank,
		Percent: percent,
	}
	if err := s.payoutRepo.Create(ctx, nil, rule); err != nil {
		if errors.Is(err, repositories.ErrPlacementRankConflict) {
			return nil, ErrPlacementRankConflict
		}
		return nil, fmt.Errorf("failed to add placement rule: %w", err)
	}
	return rule, nil
}

func (s *gameService) RemovePlacementRule(ctx context.Context, gameID, rank int) error {
	err := s.payoutRepo.DeleteByGameAndRank(ctx, nil, gameID, rank)
	if err != nil {
		if errors.Is(err, repositories.ErrPlacementPayoutNotFound) {
			return ErrPlacementRuleNotFound
		}
		return fmt.Errorf("failed to remove placement rule: %w", err)
	}
	return nil
}

func (s *gameService) UploadLogo(ctx context.Context, gameID int, contentType string, reader io.Reader) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, nil, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game %d: %w", gameID, err)
	}

	key := fmt.Sprintf("games/%d/logo", gameID)
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload logo for game %d: %w", gameID, err)
	}

	if err := s.gameRepo.UpdateLogoKey(ctx, nil, gameID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to store logo key for game %d: %w", gameID, err)
	}

	game.LogoKey = &result.Key
	s.populateLogoURL(game)
	return game, nil
}

func (s *gameService) populateLogoURL(game *models.Game) {
	if game.LogoKey == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*game.LogoKey); url != "" {
		game.LogoURL = &url
	}
}
