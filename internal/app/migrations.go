package app

import "serotonyl.ru/ethical-karma/internal/db/postgres"

// SQL-миграции встроены в код для упрощения деплоя.
// seq задаёт стабильный порядок выдачи (каталог, журнал, отметки).
// Внешних ключей у karma_journal нет: product_id и user_id журнала не проверяются.
var migrations = []postgres.Migration{
	{Version: 1, Name: "products", SQL: migration001Products},
	{Version: 2, Name: "users", SQL: migration002Users},
	{Version: 3, Name: "karma_journal", SQL: migration003KarmaJournal},
	{Version: 4, Name: "status_checks", SQL: migration004StatusChecks},
	{Version: 5, Name: "widen_columns", SQL: migration005WidenColumns},
}

var migration001Products = `
CREATE TABLE IF NOT EXISTS products (
    seq BIGSERIAL UNIQUE,
    id VARCHAR(64) PRIMARY KEY,
    name TEXT NOT NULL,
    price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
    original_price NUMERIC(12,2) CHECK (original_price >= 0),
    description TEXT NOT NULL DEFAULT '',
    image_url TEXT NOT NULL DEFAULT '',
    category VARCHAR(255) NOT NULL,
    ethical_badges JSONB NOT NULL DEFAULT '[]',
    karma_points INTEGER NOT NULL DEFAULT 0 CHECK (karma_points >= 0),
    sustainability_score INTEGER NOT NULL DEFAULT 0 CHECK (sustainability_score BETWEEN 0 AND 100),
    carbon_footprint VARCHAR(32) NOT NULL,
    alternatives TEXT[] NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category, seq);
`

var migration002Users = `
CREATE TABLE IF NOT EXISTS users (
    seq BIGSERIAL UNIQUE,
    id VARCHAR(64) PRIMARY KEY,
    email VARCHAR(320) UNIQUE NOT NULL,
    name TEXT NOT NULL,
    karma_points BIGINT NOT NULL DEFAULT 0,
    total_impact_score BIGINT NOT NULL DEFAULT 0,
    purchases TEXT[] NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

var migration003KarmaJournal = `
CREATE TABLE IF NOT EXISTS karma_journal (
    seq BIGSERIAL UNIQUE,
    id VARCHAR(64) PRIMARY KEY,
    user_id VARCHAR(64) NOT NULL,
    action_type VARCHAR(32) NOT NULL,
    product_id VARCHAR(64),
    points_earned BIGINT NOT NULL,
    description TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_karma_journal_user ON karma_journal(user_id, seq);
`

var migration004StatusChecks = `
CREATE TABLE IF NOT EXISTS status_checks (
    seq BIGSERIAL UNIQUE,
    id VARCHAR(64) PRIMARY KEY,
    client_name TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Длина категории, email и product_id в журнале не ограничена на уровне API.
var migration005WidenColumns = `
ALTER TABLE products
    ALTER COLUMN category TYPE TEXT,
    ALTER COLUMN karma_points TYPE BIGINT;
ALTER TABLE users ALTER COLUMN email TYPE TEXT;
ALTER TABLE karma_journal ALTER COLUMN product_id TYPE TEXT;
`
