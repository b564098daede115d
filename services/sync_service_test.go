package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tipprunde/kicktipp"
	"tipprunde/models"
)

type syncFixture struct {
	games     *fakeGameRepo
	members   *fakeMemberRepo
	points    *fakePointsRepo
	victories *fakeVictoryRepo
	scraper   *fakeScraper
	service   SyncService
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	games := newFakeGameRepo()
	members := newFakeMemberRepo()
	points := newFakePointsRepo(members)
	victories := newFakeVictoryRepo(members)
	scraper := &fakeScraper{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &syncFixture{
		games:     games,
		members:   members,
		points:    points,
		victories: victories,
		scraper:   scraper,
		service:   NewSyncService(nil, games, members, points, victories, scraper, nil, logger),
	}
}

func (f *syncFixture) addGame(t *testing.T, url string) *models.Game {
	t.Helper()
	game := &models.Game{Name: "Bundesliga 2026", StakePerPerson: decimal.NewFromInt(40)}
	if url != "" {
		game.URL = &url
	}
	if err := f.games.Create(context.Background(), nil, game); err != nil {
		t.Fatalf("create game: %v", err)
	}
	return game
}

func date(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("parse date %q: %v", value, err)
	}
	return parsed
}

func TestSyncGameCreatesMemberAndStatuses(t *testing.T) {
	f := newSyncFixture(t)
	game := f.addGame(t, "https://www.kicktipp.de/myrunde")
	f.scraper.players = []kicktipp.Player{
		{Nickname: "bob", Points: 10, Victories: decimal.NewFromFloat(1)},
	}

	summary, err := f.service.SyncGame(context.Background(), game.ID, SyncOptions{AsOfDate: date(t, "2026-08-01")})
	if err != nil {
		t.Fatalf("SyncGame: %v", err)
	}
	if summary.Date != "2026-08-01" {
		t.Errorf("summary date = %q, want 2026-08-01", summary.Date)
	}
	if summary.ScrapedCount != 1 || summary.CreatedMembers != 1 {
		t.Errorf("scraped=%d created_members=%d, want 1/1", summary.ScrapedCount, summary.CreatedMembers)
	}
	if summary.Points.Created != 1 || summary.Victories.Created != 1 {
		t.Errorf("created counts = %+v / %+v, want 1 each", summary.Points, summary.Victories)
	}

	member, err := f.members.GetByGameAndNickname(context.Background(), nil, game.ID, "bob")
	if err != nil {
		t.Fatalf("member not created: %v", err)
	}
	if member.Email != "bob@placeholder.local" {
		t.Errorf("placeholder email = %q", member.Email)
	}
	if member.FirstName != "bob" {
		t.Errorf("placeholder first name = %q", member.FirstName)
	}
	if len(f.points.statuses) != 1 || f.points.statuses[0].Points != 10 {
		t.Errorf("points statuses = %+v", f.points.statuses)
	}
	if len(f.victories.statuses) != 1 || !f.victories.statuses[0].Victories.Equal(decimal.NewFromFloat(1)) {
		t.Errorf("victory statuses = %+v", f.victories.statuses)
	}
}

func TestSyncGameIdempotent(t *testing.T) {
	f := newSyncFixture(t)
	game := f.addGame(t, "https://www.kicktipp.de/myrunde")
	f.scraper.players = []kicktipp.Player{
		{Nickname: "alice", Points: 12, Victories: decimal.NewFromFloat(0.5)},
		{Nickname: "bob", Points: 10, Victories: decimal.NewFromFloat(1)},
	}
	opts := SyncOptions{AsOfDate: date(t, "2026-08-01")}

	if _, err := f.service.SyncGame(context.Background(), game.ID, opts); err != nil {
		t.Fatalf("first SyncGame: %v", err)
	}
	second, err := f.service.SyncGame(context.Background(), game.ID, opts)
	if err != nil {
		t.Fatalf("second SyncGame: %v", err)
	}

	if second.CreatedMembers != 0 {
		t.Errorf("second run created %d members", second.CreatedMembers)
	}
	if second.Points.Skipped != 2 || second.Points.Created != 0 || second.Points.Updated != 0 {
		t.Errorf("second run points = %+v, want all skipped", second.Points)
	}
	if second.Victories.Skipped != 2 || second.Victories.Created != 0 || second.Victories.Updated != 0 {
		t.Errorf("second run victories = %+v, want all skipped", second.Victories)
	}
	if len(f.points.statuses) != 2 || len(f.victories.statuses) != 2 {
		t.Errorf("status rows grew on repeat: %d points, %d victories", len(f.points.statuses), len(f.victories.statuses))
	}
}

func TestSyncGameSameDayCorrection(t *testing.T) {
	f := newSyncFixture(t)
	game := f.addGame(t, "https://www.kicktipp.de/myrunde")
	opts := SyncOptions{AsOfDate: date(t, "2026-08-01")}

	f.scraper.players = []kicktipp.Player{{Nickname: "bob", Points: 10, Victories: decimal.Zero}}
	if _, err := f.service.SyncGame(context.Background(), game.ID, opts); err != nil {
		t.Fatalf("first SyncGame: %v", err)
	}

	// Kicktipp исправил тур задним числом: та же дата, другое значение.
	f.scraper.players = []kicktipp.Player{{Nickname: "bob", Points: 13, Victories: decimal.Zero}}
	summary, err := f.service.SyncGame(context.Background(), game.ID, opts)
	if err != nil {
		t.Fatalf("second SyncGame: %v", err)
	}

	if summary.Points.Updated != 1 || summary.Points.Created != 0 {
		t.Errorf("points = %+v, want one update", summary.Points)
	}
	if summary.Victories.Skipped != 1 {
		t.Errorf("victories = %+v, want skipped", summary.Victories)
	}
	if len(f.points.statuses) != 1 || f.points.statuses[0].Points != 13 {
		t.Errorf("expected in-place correction, got %+v", f.points.statuses)
	}
}

func TestSyncGameNewDateChange(t *testing.T) {
	f := newSyncFixture(t)
	game := f.addGame(t, "https://www.kicktipp.de/myrunde")

	f.scraper.players = []kicktipp.Player{{Nickname: "bob", Points: 10, Victories: decimal.NewFromFloat(1)}}
	if _, err := f.service.SyncGame(context.Background(), game.ID, SyncOptions{AsOfDate: date(t, "2026-08-01")}); err != nil {
		t.Fatalf("first SyncGame: %v", err)
	}

	// На следующий день очки выросли, победы не изменились: новая строка
	// только для очков.
	f.scraper.players = []kicktipp.Player{{Nickname: "bob", Points: 14, Victories: decimal.NewFromFloat(1)}}
	summary, err := f.service.SyncGame(context.Background(), game.ID, SyncOptions{AsOfDate: date(t, "2026-08-02")})
	if err != nil {
		t.Fatalf("second SyncGame: %v", err)
	}

	if summary.Points.Created != 1 {
		t.Errorf("points = %+v, want one created", summary.Points)
	}
	if summary.Victories.Skipped != 1 {
		t.Errorf("victories = %+v, want skipped", summary.Victories)
	}
	if len(f.points.statuses) != 2 {
		t.Errorf("points history length = %d, want 2", len(f.points.statuses))
	}
	if len(f.victories.statuses) != 1 {
		t.Errorf("victory history length = %d, want 1", len(f.victories.statuses))
	}
}

func TestSyncGameBlankNicknameFallsBackToSlug(t *testing.T) {
	f := newSyncFixture(t)
	game := f.addGame(t, "https://www.kicktipp.de/myrunde")
	f.scraper.players = []kicktipp.Player{{Nickname: "   ", Points: 3, Victories: decimal.Zero}}

	summary, err := f.service.SyncGame(context.Background(), game.ID, SyncOptions{AsOfDate: date(t, "2026-08-01")})
	if err != nil {
		t.Fatalf("SyncGame: %v", err)
	}
	if summary.CreatedMembers != 1 {
		t.Fatalf("created_members = %d", summary.CreatedMembers)
	}
	member, err := f.members.GetByGameAndNickname(context.Background(), nil, game.ID, "spieler")
	if err != nil {
		t.Fatalf("fallback member missing: %v", err)
	}
	if member.Email != "spieler@placeholder.local" {
		t.Errorf("fallback email = %q", member.Email)
	}
}

func TestSyncGameMissingURL(t *testing.T) {
	f := newSyncFixture(t)
	game := f.addGame(t, "")

	_, err := f.service.SyncGame(context.Background(), game.ID, SyncOptions{})
	if !errors.Is(err, ErrGameSourceURLMissing) {
		t.Fatalf("err = %v, want ErrGameSourceURLMissing", err)
	}
	if f.scraper.calls != 0 {
		t.Errorf("scraper was called %d times", f.scraper.calls)
	}
}

func TestSyncGameFetchErrorLeavesNoWrites(t *testing.T) {
	f := newSyncFixture(t)
	game := f.addGame(t, "https://www.kicktipp.de/myrunde")
	f.scraper.err = kicktipp.ErrFetchFailed

	_, err := f.service.SyncGame(context.Background(), game.ID, SyncOptions{AsOfDate: date(t, "2026-08-01")})
	if !errors.Is(err, kicktipp.ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", err)
	}
	if len(f.members.members) != 0 || len(f.points.statuses) != 0 || len(f.victories.statuses) != 0 {
		t.Error("fetch failure must not write anything")
	}
}

func TestSyncGameEmptyRanking(t *testing.T) {
	f := newSyncFixture(t)
	game := f.addGame(t, "https://www.kicktipp.de/myrunde")

	summary, err := f.service.SyncGame(context.Background(), game.ID, SyncOptions{AsOfDate: date(t, "2026-08-01")})
	if err != nil {
		t.Fatalf("SyncGame: %v", err)
	}
	if summary.ScrapedCount != 0 || summary.CreatedMembers != 0 {
		t.Errorf("summary = %+v, want empty", summary)
	}
}

func TestSyncAllGamesSkipsGamesWithoutURL(t *testing.T) {
	f := newSyncFixture(t)
	withURL := f.addGame(t, "https://www.kicktipp.de/myrunde")
	f.addGame(t, "")
	f.scraper.players = []kicktipp.Player{{Nickname: "bob", Points: 10, Victories: decimal.Zero}}

	results, err := f.service.SyncAllGames(context.Background())
	if err != nil {
		t.Fatalf("SyncAllGames: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].GameID != withURL.ID {
		t.Errorf("result game = %d, want %d", results[0].GameID, withURL.ID)
	}
	if results[0].Error != "" {
		t.Errorf("unexpected error: %s", results[0].Error)
	}
	if results[0].Summary == nil || results[0].Summary.CreatedMembers != 1 {
		t.Errorf("summary = %+v", results[0].Summary)
	}
}

func TestSyncAllGamesRecordsPerGameFailure(t *testing.T) {
	f := newSyncFixture(t)
	f.addGame(t, "https://www.kicktipp.de/myrunde")
	f.scraper.err = kicktipp.ErrFetchFailed

	results, err := f.service.SyncAllGames(context.Background())
	if err != nil {
		t.Fatalf("SyncAllGames: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].Error == "" {
		t.Error("expected per-game error to be recorded")
	}
}
