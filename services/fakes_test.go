package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tipprunde/kicktipp"
	"tipprunde/models"
	"tipprunde/repositories"
)

// In-memory реализации репозиториев для юнит-тестов сервисов. Параметр exec
// игнорируется: тесты гоняют сервисы без БД (nil-хэндл в runInTx).

type fakeGameRepo struct {
	games  map[int]*models.Game
	nextID int
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{games: make(map[int]*models.Game)}
}

func (r *fakeGameRepo) Create(_ context.Context, _ repositories.SQLExecutor, game *models.Game) error {
	r.nextID++
	game.ID = r.nextID
	copied := *game
	r.games[game.ID] = &copied
	return nil
}

func (r *fakeGameRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Game, error) {
	game, ok := r.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	copied := *game
	return &copied, nil
}

func (r *fakeGameRepo) List(_ context.Context, _ repositories.SQLExecutor) ([]*models.Game, error) {
	ids := make([]int, 0, len(r.games))
	for id := range r.games {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	games := make([]*models.Game, 0, len(ids))
	for _, id := range ids {
		copied := *r.games[id]
		games = append(games, &copied)
	}
	return games, nil
}

func (r *fakeGameRepo) Update(_ context.Context, _ repositories.SQLExecutor, game *models.Game) error {
	if _, ok := r.games[game.ID]; !ok {
		return repositories.ErrGameNotFound
	}
	copied := *game
	r.games[game.ID] = &copied
	return nil
}

func (r *fakeGameRepo) UpdateLogoKey(_ context.Context, _ repositories.SQLExecutor, id int, logoKey *string) error {
	game, ok := r.games[id]
	if !ok {
		return repositories.ErrGameNotFound
	}
	game.LogoKey = logoKey
	return nil
}

func (r *fakeGameRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	if _, ok := r.games[id]; !ok {
		return repositories.ErrGameNotFound
	}
	delete(r.games, id)
	return nil
}

type fakeMemberRepo struct {
	members  map[int]*models.Member
	payments map[int]*models.PaymentMethod // по member_id
	nextID   int
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{
		members:  make(map[int]*models.Member),
		payments: make(map[int]*models.PaymentMethod),
	}
}

func (r *fakeMemberRepo) Create(_ context.Context, _ repositories.SQLExecutor, member *models.Member) error {
	if member.Nickname != "" {
		for _, m := range r.members {
			if m.GameID == member.GameID && m.Nickname == member.Nickname {
				return repositories.ErrMemberNicknameConflict
			}
		}
	}
	r.nextID++
	member.ID = r.nextID
	copied := *member
	r.members[member.ID] = &copied
	return nil
}

func (r *fakeMemberRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Member, error) {
	member, ok := r.members[id]
	if !ok {
		return nil, repositories.ErrMemberNotFound
	}
	copied := *member
	return &copied, nil
}

func (r *fakeMemberRepo) GetByGameAndNickname(_ context.Context, _ repositories.SQLExecutor, gameID int, nickname string) (*models.Member, error) {
	for _, m := range r.members {
		if m.GameID == gameID && m.Nickname == nickname {
			copied := *m
			return &copied, nil
		}
	}
	return nil, repositories.ErrMemberNotFound
}

func (r *fakeMemberRepo) ListByGameID(_ context.Context, _ repositories.SQLExecutor, gameID int) ([]*models.Member, error) {
	members := make([]*models.Member, 0)
	for _, m := range r.members {
		if m.GameID == gameID {
			copied := *m
			members = append(members, &copied)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.ID < b.ID
	})
	return members, nil
}

func (r *fakeMemberRepo) CountByGameID(_ context.Context, _ repositories.SQLExecutor, gameID int) (int, error) {
	count := 0
	for _, m := range r.members {
		if m.GameID == gameID {
			count++
		}
	}
	return count, nil
}

func (r *fakeMemberRepo) Update(_ context.Context, _ repositories.SQLExecutor, member *models.Member) error {
	if _, ok := r.members[member.ID]; !ok {
		return repositories.ErrMemberNotFound
	}
	copied := *member
	r.members[member.ID] = &copied
	return nil
}

func (r *fakeMemberRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	if _, ok := r.members[id]; !ok {
		return repositories.ErrMemberNotFound
	}
	delete(r.members, id)
	return nil
}

func (r *fakeMemberRepo) DeleteByGameID(_ context.Context, _ repositories.SQLExecutor, gameID int) error {
	for id, m := range r.members {
		if m.GameID == gameID {
			delete(r.members, id)
		}
	}
	return nil
}

func (r *fakeMemberRepo) UpsertPaymentMethod(_ context.Context, _ repositories.SQLExecutor, pm *models.PaymentMethod) error {
	if existing, ok := r.payments[pm.MemberID]; ok {
		pm.ID = existing.ID
	} else {
		r.nextID++
		pm.ID = r.nextID
	}
	copied := *pm
	r.payments[pm.MemberID] = &copied
	return nil
}

func (r *fakeMemberRepo) GetPaymentMethod(_ context.Context, _ repositories.SQLExecutor, memberID int) (*models.PaymentMethod, error) {
	pm, ok := r.payments[memberID]
	if !ok {
		return nil, repositories.ErrPaymentMethodNotFound
	}
	copied := *pm
	return &copied, nil
}

func (r *fakeMemberRepo) DeletePaymentMethodByMemberID(_ context.Context, _ repositories.SQLExecutor, memberID int) error {
	delete(r.payments, memberID)
	return nil
}

func (r *fakeMemberRepo) DeletePaymentMethodsByGameID(_ context.Context, _ repositories.SQLExecutor, gameID int) error {
	for id, m := range r.members {
		if m.GameID == gameID {
			delete(r.payments, id)
		}
	}
	return nil
}

func sameDate(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

type fakePointsRepo struct {
	statuses []*models.PointsStatus
	members  *fakeMemberRepo
	nextID   int
}

func newFakePointsRepo(members *fakeMemberRepo) *fakePointsRepo {
	return &fakePointsRepo{members: members}
}

func (r *fakePointsRepo) Create(_ context.Context, _ repositories.SQLExecutor, status *models.PointsStatus) error {
	r.nextID++
	status.ID = r.nextID
	copied := *status
	r.statuses = append(r.statuses, &copied)
	return nil
}

func (r *fakePointsRepo) GetByMemberAndDate(_ context.Context, _ repositories.SQLExecutor, memberID int, date time.Time) (*models.PointsStatus, error) {
	for _, s := range r.statuses {
		if s.MemberID == memberID && sameDate(s.Date, date) {
			copied := *s
			return &copied, nil
		}
	}
	return nil, repositories.ErrPointsStatusNotFound
}

func (r *fakePointsRepo) GetLatestOnOrBefore(_ context.Context, _ repositories.SQLExecutor, memberID int, date time.Time) (*models.PointsStatus, error) {
	var latest *models.PointsStatus
	cutoff := date.Format("2006-01-02")
	for _, s := range r.statuses {
		if s.MemberID != memberID || s.Date.Format("2006-01-02") > cutoff {
			continue
		}
		if latest == nil || s.Date.After(latest.Date) {
			latest = s
		}
	}
	if latest == nil {
		return nil, repositories.ErrPointsStatusNotFound
	}
	copied := *latest
	return &copied, nil
}

func (r *fakePointsRepo) LatestByGameID(_ context.Context, _ repositories.SQLExecutor, gameID int) (map[int]*models.PointsStatus, error) {
	latest := make(map[int]*models.PointsStatus)
	for _, s := range r.statuses {
		member, ok := r.members.members[s.MemberID]
		if !ok || member.GameID != gameID {
			continue
		}
		if current, ok := latest[s.MemberID]; !ok || s.Date.After(current.Date) {
			copied := *s
			latest[s.MemberID] = &copied
		}
	}
	return latest, nil
}

func (r *fakePointsRepo) UpdatePoints(_ context.Context, _ repositories.SQLExecutor, id int, points int) error {
	for _, s := range r.statuses {
		if s.ID == id {
			s.Points = points
			return nil
		}
	}
	return repositories.ErrPointsStatusNotFound
}

func (r *fakePointsRepo) DeleteByMemberID(_ context.Context, _ repositories.SQLExecutor, memberID int) error {
	kept := r.statuses[:0]
	for _, s := range r.statuses {
		if s.MemberID != memberID {
			kept = append(kept, s)
		}
	}
	r.statuses = kept
	return nil
}

func (r *fakePointsRepo) DeleteByGameID(_ context.Context, _ repositories.SQLExecutor, gameID int) error {
	kept := r.statuses[:0]
	for _, s := range r.statuses {
		member, ok := r.members.members[s.MemberID]
		if !ok || member.GameID != gameID {
			kept = append(kept, s)
		}
	}
	r.statuses = kept
	return nil
}

type fakeVictoryRepo struct {
	statuses []*models.VictoryStatus
	members  *fakeMemberRepo
	nextID   int
}

func newFakeVictoryRepo(members *fakeMemberRepo) *fakeVictoryRepo {
	return &fakeVictoryRepo{members: members}
}

func (r *fakeVictoryRepo) Create(_ context.Context, _ repositories.SQLExecutor, status *models.VictoryStatus) error {
	r.nextID++
	status.ID = r.nextID
	copied := *status
	r.statuses = append(r.statuses, &copied)
	return nil
}

func (r *fakeVictoryRepo) GetByMemberAndDate(_ context.Context, _ repositories.SQLExecutor, memberID int, date time.Time) (*models.VictoryStatus, error) {
	for _, s := range r.statuses {
		if s.MemberID == memberID && sameDate(s.Date, date) {
			copied := *s
			return &copied, nil
		}
	}
	return nil, repositories.ErrVictoryStatusNotFound
}

func (r *fakeVictoryRepo) GetLatestOnOrBefore(_ context.Context, _ repositories.SQLExecutor, memberID int, date time.Time) (*models.VictoryStatus, error) {
	var latest *models.VictoryStatus
	cutoff := date.Format("2006-01-02")
	for _, s := range r.statuses {
		if s.MemberID != memberID || s.Date.Format("2006-01-02") > cutoff {
			continue
		}
		if latest == nil || s.Date.After(latest.Date) {
			latest = s
		}
	}
	if latest == nil {
		return nil, repositories.ErrVictoryStatusNotFound
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeVictoryRepo) LatestByGameID(_ context.Context, _ repositories.SQLExecutor, gameID int) (map[int]*models.VictoryStatus, error) {
	latest := make(map[int]*models.VictoryStatus)
	for _, s := range r.statuses {
		member, ok := r.members.members[s.MemberID]
		if !ok || member.GameID != gameID {
			continue
		}
		if current, ok := latest[s.MemberID]; !ok || s.Date.After(current.Date) {
			copied := *s
			latest[s.MemberID] = &copied
		}
	}
	return latest, nil
}

func (r *fakeVictoryRepo) UpdateVictories(_ context.Context, _ repositories.SQLExecutor, id int, victories decimal.Decimal) error {
	for _, s := range r.statuses {
		if s.ID == id {
			s.Victories = victories
			return nil
		}
	}
	return repositories.ErrVictoryStatusNotFound
}

func (r *fakeVictoryRepo) DeleteByMemberID(_ context.Context, _ repositories.SQLExecutor, memberID int) error {
	kept := r.statuses[:0]
	for _, s := range r.statuses {
		if s.MemberID != memberID {
			kept = append(kept, s)
		}
	}
	r.statuses = kept
	return nil
}

func (r *fakeVictoryRepo) DeleteByGameID(_ context.Context, _ repositories.SQLExecutor, gameID int) error {
	kept := r.statuses[:0]
	for _, s := range r.statuses {
		member, ok := r.members.members[s.MemberID]
		if !ok || member.GameID != gameID {
			kept = append(kept, s)
		}
	}
	r.statuses = kept
	return nil
}

type fakeConfigRepo struct {
	configs map[int]*models.GameConfig // по game_id
	nextID  int
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{configs: make(map[int]*models.GameConfig)}
}

func (r *fakeConfigRepo) Create(_ context.Context, _ repositories.SQLExecutor, cfg *models.GameConfig) error {
	r.nextID++
	cfg.ID = r.nextID
	copied := *cfg
	r.configs[cfg.GameID] = &copied
	return nil
}

func (r *fakeConfigRepo) GetByGameID(_ context.Context, _ repositories.SQLExecutor, gameID int) (*models.GameConfig, error) {
	cfg, ok := r.configs[gameID]
	if !ok {
		return nil, repositories.ErrGameConfigNotFound
	}
	copied := *cfg
	return &copied, nil
}

func (r *fakeConfigRepo) Update(_ context.Context, _ repositories.SQLExecutor, cfg *models.GameConfig) error {
	existing, ok := r.configs[cfg.GameID]
	if !ok {
		return repositories.ErrGameConfigNotFound
	}
	cfg.ID = existing.ID
	copied := *cfg
	r.configs[cfg.GameID] = &copied
	return nil
}

func (r *fakeConfigRepo) DeleteByGameID(_ context.Context, _ repositories.SQLExecutor, gameID int) error {
	delete(r.configs, gameID)
	return nil
}

type fakePayoutRepo struct {
	rules  []models.PlacementPayout
	nextID int
}

func newFakePayoutRepo() *fakePayoutRepo {
	return &fakePayoutRepo{}
}

func (r *fakePayoutRepo) Create(_ context.Context, _ repositories.SQLExecutor, rule *models.PlacementPayout) error {
	for _, existing := range r.rules {
		if existing.GameID == rule.GameID && existing.Rank == rule.Rank {
			return repositories.ErrPlacementRankConflict
		}
	}
	r.nextID++
	rule.ID = r.nextID
	r.rules = append(r.rules, *rule)
	return nil
}

func (r *fakePayoutRepo) ListByGameID(_ context.Context, _ repositories.SQLExecutor, gameID int) ([]models.PlacementPayout, error) {
	rules := make([]models.PlacementPayout, 0)
	for _, rule := range r.rules {
		if rule.GameID == gameID {
			rules = append(rules, rule)
		}
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Rank < rules[j].Rank })
	return rules, nil
}

func (r *fakePayoutRepo) DeleteByGameAndRank(_ context.Context, _ repositories.SQLExecutor, gameID, rank int) error {
	for i, rule := range r.rules {
		if rule.GameID == gameID && rule.Rank == rank {
			r.rules = append(r.rules[:i], r.rules[i+1:]...)
			return nil
		}
	}
	return repositories.ErrPlacementPayoutNotFound
}

func (r *fakePayoutRepo) DeleteByGameID(_ context.Context, _ repositories.SQLExecutor, gameID int) error {
	kept := r.rules[:0]
	for _, rule := range r.rules {
		if rule.GameID != gameID {
			kept = append(kept, rule)
		}
	}
	r.rules = kept
	return nil
}

type fakeScraper struct {
	players []kicktipp.Player
	err     error
	calls   int
}

func (s *fakeScraper) FetchPlayers(_ context.Context, baseURL string) ([]kicktipp.Player, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if strings.TrimSpace(baseURL) == "" {
		return nil, kicktipp.ErrFetchFailed
	}
	return s.players, nil
}
