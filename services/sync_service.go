package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"tipprunde/kicktipp"
	"tipprunde/live"
	"tipprunde/models"
	"tipprunde/repositories"
	"tipprunde/utils"
)

// SyncOptions уточняет один прогон синхронизации. Пустой BaseURL означает
// "взять URL игры", нулевая AsOfDate — "сегодня".
type SyncOptions struct {
	BaseURL  string
	AsOfDate time.Time
}

// GameSyncResult — итог по одной игре внутри SyncAllGames.
type GameSyncResult struct {
	GameID   int                 `json:"game_id"`
	GameName string              `json:"game_name"`
	Summary  *models.SyncSummary `json:"summary,omitempty"`
	Error    string              `json:"error,omitempty"`
}

type SyncService interface {
	SyncGame(ctx context.Context, gameID int, opts SyncOptions) (*models.SyncSummary, error)
	SyncAllGames(ctx context.Context) ([]GameSyncResult, error)
}

type syncService struct {
	db          *sql.DB
	gameRepo    repositories.GameRepository
	memberRepo  repositories.MemberRepository
	pointsRepo  repositories.PointsStatusRepository
	victoryRepo repositories.VictoryStatusRepository
	scraper     kicktipp.Scraper
	hub         *live.Hub
	logger      *slog.Logger
}

func NewSyncService(
	db *sql.DB,
	gameRepo repositories.GameRepository,
	memberRepo repositories.MemberRepository,
	pointsRepo repositories.PointsStatusRepository,
	victoryRepo repositories.VictoryStatusRepository,
	scraper kicktipp.Scraper,
	hub *live.Hub,
	logger *slog.Logger,
) SyncService {
	return &syncService{
		db:          db,
		gameRepo:    gameRepo,
		memberRepo:  memberRepo,
		pointsRepo:  pointsRepo,
		victoryRepo: victoryRepo,
		scraper:     scraper,
		hub:         hub,
		logger:      logger,
	}
}

type upsertResult int

const (
	upsertCreated upsertResult = iota
	upsertUpdated
	upsertSkipped
)

// SyncGame загружает таблицу участников из источника и сводит её с историей
// статусов. Скрейп выполняется до открытия транзакции: упавший fetch не
// оставляет частичных записей. Все upsert-ы одного прогона фиксируются
// атомарно.
func (s *syncService) SyncGame(ctx context.Context, gameID int, opts SyncOptions) (*models.SyncSummary, error) {
	game, err := s.gameRepo.GetByID(ctx, nil, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to load game %d: %w", gameID, err)
	}

	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = strings.TrimSpace(derefString(game.URL))
	}
	if baseURL == "" {
		return nil, ErrGameSourceURLMissing
	}

	asOf := opts.AsOfDate
	if asOf.IsZero() {
		asOf = time.Now()
	}
	asOf = time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)

	players, err := s.scraper.FetchPlayers(ctx, baseURL)
	if err != nil {
		return nil, fmt.Errorf("scrape of %s failed: %w", baseURL, err)
	}

	summary := &models.SyncSummary{
		Date:         asOf.Format("2006-01-02"),
		ScrapedCount: len(players),
	}

	err = runInTx(ctx, s.db, func(exec repositories.SQLExecutor) error {
		for _, player := range players {
			member, created, err := s.getOrCreateMember(ctx, exec, game.ID, player.Nickname)
			if err != nil {
				return err
			}
			if created {
				summary.CreatedMembers++
			}

			resP, err := s.upsertPoints(ctx, exec, member.ID, player.Points, asOf)
			if err != nil {
				return err
			}
			countResult(&summary.Points, resP)

			resV, err := s.upsertVictories(ctx, exec, member.ID, player.Victories, asOf)
			if err != nil {
				return err
			}
			countResult(&summary.Victories, resV)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		room := "game_" + strconv.Itoa(game.ID)
		s.hub.BroadcastToRoom(room, live.Message{
			Type:    live.EventSyncCompleted,
			Payload: summary,
		})
		if syncChangedState(summary) {
			s.hub.BroadcastToRoom(room, live.Message{
				Type:    live.EventEvaluationUpdated,
				Payload: jsonGameRef{GameID: game.ID},
			})
		}
	}

	return summary, nil
}

type jsonGameRef struct {
	GameID int `json:"game_id"`
}

// syncChangedState сообщает, поменял ли прогон что-нибудь в истории: только
// тогда есть смысл пересчитывать таблицу выплат на клиенте.
func syncChangedState(summary *models.SyncSummary) bool {
	return summary.CreatedMembers > 0 ||
		summary.Points.Created > 0 || summary.Points.Updated > 0 ||
		summary.Victories.Created > 0 || summary.Victories.Updated > 0
}

func countResult(counts *models.StatusCounts, res upsertResult) {
	switch res {
	case upsertCreated:
		counts.Created++
	case upsertUpdated:
		counts.Updated++
	default:
		counts.Skipped++
	}
}

// getOrCreateMember находит участника по нику или заводит нового с
// плейсхолдерными данными: имя — ник (или "Spieler"), email —
// <slug>@placeholder.local.
func (s *syncService) getOrCreateMember(ctx context.Context, exec repositories.SQLExecutor, gameID int, nickname string) (*models.Member, bool, error) {
	nickname = strings.TrimSpace(nickname)

	member, err := s.memberRepo.GetByGameAndNickname(ctx, exec, gameID, nickname)
	if err == nil {
		return member, false, nil
	}
	if !errors.Is(err, repositories.ErrMemberNotFound) {
		return nil, false, fmt.Errorf("failed to look up member %q: %w", nickname, err)
	}

	slug := "spieler"
	firstName := "Spieler"
	if nickname != "" {
		slug = utils.Slugify(nickname)
		firstName = nickname
	}

	member = &models.Member{
		GameID:    gameID,
		FirstName: firstName,
		LastName:  "",
		Email:     slug + "@placeholder.local",
		Nickname:  nickname,
	}
	if member.Nickname == "" {
		member.Nickname = slug
	}

	if err := s.memberRepo.Create(ctx, exec, member); err != nil {
		return nil, false, fmt.Errorf("failed to create member %q: %w", nickname, err)
	}
	return member, true, nil
}

// upsertPoints реализует семантику create/update/skip:
//   - запись ровно на эту дату есть: обновить при отличии значения, иначе
//     пропустить (правка того же дня);
//   - записи на дату нет: если последний известный статус (<= даты) совпадает
//     со значением, ничего не писать — история не дублирует неизменные
//     состояния; иначе вставить новую запись на эту дату.
func (s *syncService) upsertPoints(ctx context.Context, exec repositories.SQLExecutor, memberID, points int, date time.Time) (upsertResult, error) {
	existing, err := s.pointsRepo.GetByMemberAndDate(ctx, exec, memberID, date)
	if err == nil {
		if existing.Points != points {
			if err := s.pointsRepo.UpdatePoints(ctx, exec, existing.ID, points); err != nil {
				return upsertSkipped, err
			}
			return upsertUpdated, nil
		}
		return upsertSkipped, nil
	}
	if !errors.Is(err, repositories.ErrPointsStatusNotFound) {
		return upsertSkipped, err
	}

	latest, err := s.pointsRepo.GetLatestOnOrBefore(ctx, exec, memberID, date)
	if err == nil && latest.Points == points {
		return upsertSkipped, nil
	}
	if err != nil && !errors.Is(err, repositories.ErrPointsStatusNotFound) {
		return upsertSkipped, err
	}

	status := &models.PointsStatus{MemberID: memberID, Points: points, Date: date}
	if err := s.pointsRepo.Create(ctx, exec, status); err != nil {
		return upsertSkipped, err
	}
	return upsertCreated, nil
}

// upsertVictories — тот же алгоритм для побед, сравнение десятичное точное.
func (s *syncService) upsertVictories(ctx context.Context, exec repositories.SQLExecutor, memberID int, victories decimal.Decimal, date time.Time) (upsertResult, error) {
	existing, err := s.victoryRepo.GetByMemberAndDate(ctx, exec, memberID, date)
	if err == nil {
		if !existing.Victories.Equal(victories) {
			if err := s.victoryRepo.UpdateVictories(ctx, exec, existing.ID, victories); err != nil {
				return upsertSkipped, err
			}
			return upsertUpdated, nil
		}
		return upsertSkipped, nil
	}
	if !errors.Is(err, repositories.ErrVictoryStatusNotFound) {
		return upsertSkipped, err
	}

	latest, err := s.victoryRepo.GetLatestOnOrBefore(ctx, exec, memberID, date)
	if err == nil && latest.Victories.Equal(victories) {
		return upsertSkipped, nil
	}
	if err != nil && !errors.Is(err, repositories.ErrVictoryStatusNotFound) {
		return upsertSkipped, err
	}

	status := &models.VictoryStatus{MemberID: memberID, Victories: victories, Date: date}
	if err := s.victoryRepo.Create(ctx, exec, status); err != nil {
		return upsertSkipped, err
	}
	return upsertCreated, nil
}

const syncAllConcurrency = 4

// SyncAllGames прогоняет синхронизацию по всем играм с настроенным URL.
// Игры независимы, поэтому идут параллельно; ошибка одной игры попадает в её
// результат и не прерывает остальные.
func (s *syncService) SyncAllGames(ctx context.Context) ([]GameSyncResult, error) {
	games, err := s.gameRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	results := make([]GameSyncResult, 0, len(games))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(syncAllConcurrency)

	for _, game := range games {
		if strings.TrimSpace(derefString(game.URL)) == "" {
			continue
		}
		game := game
		g.Go(func() error {
			result := GameSyncResult{GameID: game.ID, GameName: game.Name}
			summary, err := s.SyncGame(gCtx, game.ID, SyncOptions{})
			if err != nil {
				result.Error = err.Error()
				s.logger.Error("game sync failed",
					slog.Int("game_id", game.ID),
					slog.String("game", game.Name),
					slog.Any("error", err))
			} else {
				result.Summary = summary
				s.logger.Info("game sync completed",
					slog.Int("game_id", game.ID),
					slog.String("game", game.Name),
					slog.Int("scraped", summary.ScrapedCount))
			}
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
