package models

// StatusCounts группирует результат upsert-прохода по одному виду статусов.
type StatusCounts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// SyncSummary — наблюдаемый результат одного прогона синхронизации.
type SyncSummary struct {
	Date           string       `json:"date"` // ISO-формат (YYYY-MM-DD)
	ScrapedCount   int          `json:"scraped_count"`
	CreatedMembers int          `json:"created_members"`
	Points         StatusCounts `json:"points"`
	Victories      StatusCounts `json:"victories"`
}
