// Package kicktipp загружает и разбирает таблицу участников типпрунды со
// страницы kicktipp (/tippuebersicht). Это единственное место, где система
// ходит во внешний мир; наружу пакет отдаёт только список (nickname, points,
// victories).
package kicktipp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

var (
	ErrFetchFailed         = errors.New("kicktipp fetch failed")
	ErrRankingTableMissing = errors.New("ranking table (#ranking) not found")
)

// Player — одна строка таблицы: то, что видит движок синхронизации.
type Player struct {
	Nickname  string          `json:"nickname"`
	Points    int             `json:"points"`
	Victories decimal.Decimal `json:"victories"`
}

// Scraper — контракт внешнего источника для движка синхронизации.
type Scraper interface {
	FetchPlayers(ctx context.Context, baseURL string) ([]Player, error)
}

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

type Client struct {
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// FetchPlayers запрашивает <baseURL>/tippuebersicht и возвращает участников
// таблицы #ranking. Сетевая ошибка или отсутствие таблицы оборачиваются в
// ErrFetchFailed / ErrRankingTableMissing, чтобы вызывающая сторона могла
// прервать синхронизацию целиком.
func (c *Client) FetchPlayers(ctx context.Context, baseURL string) ([]Player, error) {
	url := strings.TrimRight(baseURL, "/") + "/tippuebersicht"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d for %s", ErrFetchFailed, resp.StatusCode, url)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	return parsePlayers(doc)
}

func parsePlayers(doc *goquery.Document) ([]Player, error) {
	table := doc.Find("table#ranking")
	if table.Length() == 0 {
		return nil, ErrRankingTableMissing
	}

	players := make([]Player, 0)
	table.Find("tbody > tr.teilnehmer").Each(func(_ int, tr *goquery.Selection) {
		players = append(players, Player{
			Nickname:  cleanText(tr.Find(".mg_name").Text()),
			Points:    parseGermanInt(tr.Find("td.gesamtpunkte").Text()),
			Victories: parseGermanDecimal(tr.Find("td.siege").Text()),
		})
	})
	return players, nil
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	intRe        = regexp.MustCompile(`[-+]?\d+`)
)

func cleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// parseGermanInt извлекает целое из строки в немецком формате, точки тысяч
// отбрасываются ("1.234" -> 1234). Пустая или нечисловая строка даёт 0.
func parseGermanInt(s string) int {
	s = strings.ReplaceAll(cleanText(s), ".", "")
	m := intRe.FindString(s)
	if m == "" {
		return 0
	}
	var n int
	if _, err := fmt.Sscanf(m, "%d", &n); err != nil {
		return 0
	}
	return n
}

// parseGermanDecimal конвертирует немецкую десятичную запись ("1,50" -> 1.5).
// Пустая или нечисловая строка даёт 0.
func parseGermanDecimal(s string) decimal.Decimal {
	s = cleanText(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
