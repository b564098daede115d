package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Каскадных FK у зависимых таблиц нет: удаление игры выполняется сервисом
// явными шагами в одной транзакции.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS tipping_games (
		id SERIAL PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		stake_per_person NUMERIC(10,2) NOT NULL DEFAULT 0,
		url VARCHAR(500),
		logo_key VARCHAR(255),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS members (
		id SERIAL PRIMARY KEY,
		game_id INTEGER NOT NULL REFERENCES tipping_games(id),
		first_name VARCHAR(120) NOT NULL,
		last_name VARCHAR(120) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL,
		nickname VARCHAR(120) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	// Ник — ключ сопоставления со внешним источником: дубликат внутри игры
	// молча расщепил бы историю участника на две строки.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_members_game_nickname
		ON members (game_id, nickname) WHERE nickname <> ''`,
	`CREATE TABLE IF NOT EXISTS payment_methods (
		id SERIAL PRIMARY KEY,
		member_id INTEGER NOT NULL UNIQUE REFERENCES members(id),
		label VARCHAR(120) NOT NULL,
		reference VARCHAR(255)
	)`,
	`CREATE TABLE IF NOT EXISTS points_statuses (
		id SERIAL PRIMARY KEY,
		member_id INTEGER NOT NULL REFERENCES members(id),
		points INTEGER NOT NULL DEFAULT 0,
		date DATE NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_points_statuses_member_date
		ON points_statuses (member_id, date DESC)`,
	`CREATE TABLE IF NOT EXISTS victory_statuses (
		id SERIAL PRIMARY KEY,
		member_id INTEGER NOT NULL REFERENCES members(id),
		victories NUMERIC(10,2) NOT NULL DEFAULT 0,
		date DATE NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_victory_statuses_member_date
		ON victory_statuses (member_id, date DESC)`,
	`CREATE TABLE IF NOT EXISTS game_configs (
		id SERIAL PRIMARY KEY,
		game_id INTEGER NOT NULL UNIQUE REFERENCES tipping_games(id),
		victory_share_percent NUMERIC(5,2) NOT NULL DEFAULT 50,
		placement_share_percent NUMERIC(5,2) NOT NULL DEFAULT 50,
		num_matchdays INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS placement_payouts (
		id SERIAL PRIMARY KEY,
		game_id INTEGER NOT NULL REFERENCES tipping_games(id),
		rank INTEGER NOT NULL,
		percent NUMERIC(5,2) NOT NULL,
		CONSTRAINT uq_game_rank UNIQUE (game_id, rank)
	)`,
}

// Migrate создаёт схему, если её ещё нет. Запускается при старте приложения.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
