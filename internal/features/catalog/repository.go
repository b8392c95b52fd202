// Package catalog — repository.go выполняет операции с таблицей products.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"serotonyl.ru/ethical-karma/internal/common"
	"serotonyl.ru/ethical-karma/internal/db/postgres"
)

// Store — хранилище каталога. Реализации: Repository (PostgreSQL)
// и memory.Store (в памяти).
type Store interface {
	// SeedIfEmpty вставляет товары, только если каталог пуст.
	// Возвращает число вставленных записей (0, если каталог уже заполнен).
	SeedIfEmpty(ctx context.Context, products []*Product) (int, error)
	Insert(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	// List возвращает все товары в порядке добавления.
	List(ctx context.Context) ([]*Product, error)
	ListByCategory(ctx context.Context, category string) ([]*Product, error)
}

// Ключ advisory-блокировки для заполнения каталога.
const seedLockKey int64 = 0x73656564 // "seed"

const productColumns = `
	id, name, price::text, original_price::text, description, image_url, category,
	ethical_badges::text, karma_points, sustainability_score, carbon_footprint,
	alternatives, created_at`

// Repository работает с таблицей products.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий каталога.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// SeedIfEmpty заполняет пустой каталог в одной транзакции.
// pg_advisory_xact_lock сериализует конкурентных «первых» вызывающих:
// второй дождётся коммита первого и увидит непустую таблицу.
func (r *Repository) SeedIfEmpty(ctx context.Context, products []*Product) (int, error) {
	inserted := 0
	err := postgres.InTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", seedLockKey); err != nil {
			return fmt.Errorf("ошибка блокировки каталога: %w", err)
		}

		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM products)").Scan(&exists); err != nil {
			return fmt.Errorf("ошибка проверки каталога: %w", err)
		}
		if exists {
			return nil
		}

		for _, p := range products {
			if err := insertProduct(ctx, tx, p); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, postgres.MapError(err, nil)
	}
	return inserted, nil
}

// Insert добавляет товар.
func (r *Repository) Insert(ctx context.Context, p *Product) error {
	return postgres.MapError(insertProduct(ctx, r.db, p), nil)
}

// GetByID возвращает товар по id или common.ErrProductNotFound.
func (r *Repository) GetByID(ctx context.Context, id string) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, postgres.MapError(err, common.ErrProductNotFound)
	}
	return p, nil
}

// List возвращает все товары в порядке добавления.
func (r *Repository) List(ctx context.Context) ([]*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY seq`
	return r.queryProducts(ctx, query)
}

// ListByCategory возвращает товары категории, порядок тот же, что у List.
func (r *Repository) ListByCategory(ctx context.Context, category string) ([]*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE category = $1 ORDER BY seq`
	return r.queryProducts(ctx, query, category)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertProduct(ctx context.Context, db execer, p *Product) error {
	badges, err := json.Marshal(p.EthicalBadges)
	if err != nil {
		return fmt.Errorf("ошибка сериализации бейджей: %w", err)
	}

	var originalPrice *string
	if p.OriginalPrice != nil {
		s := p.OriginalPrice.String()
		originalPrice = &s
	}

	query := `
		INSERT INTO products (
			id, name, price, original_price, description, image_url, category,
			ethical_badges, karma_points, sustainability_score, carbon_footprint,
			alternatives, created_at
		) VALUES ($1, $2, $3::numeric, $4::numeric, $5, $6, $7, $8::jsonb, $9, $10, $11, $12, $13)
	`
	_, err = db.Exec(ctx, query,
		p.ID, p.Name, p.Price.String(), originalPrice, p.Description, p.ImageURL, p.Category,
		string(badges), p.KarmaPoints, p.SustainabilityScore, string(p.CarbonFootprint),
		p.Alternatives, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("ошибка вставки товара %s: %w", p.ID, err)
	}
	return nil
}

func (r *Repository) queryProducts(ctx context.Context, query string, args ...any) ([]*Product, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(fmt.Errorf("ошибка запроса товаров: %w", err), nil)
	}
	defer rows.Close()

	out := make([]*Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, postgres.MapError(err, nil)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(fmt.Errorf("ошибка чтения строк: %w", err), nil)
	}
	return out, nil
}

func scanProduct(row pgx.Row) (*Product, error) {
	var (
		p             Product
		price         string
		originalPrice *string
		badges        string
		footprint     string
	)
	err := row.Scan(
		&p.ID, &p.Name, &price, &originalPrice, &p.Description, &p.ImageURL, &p.Category,
		&badges, &p.KarmaPoints, &p.SustainabilityScore, &footprint,
		&p.Alternatives, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("некорректная цена товара %s: %w", p.ID, err)
	}
	if originalPrice != nil {
		op, err := decimal.NewFromString(*originalPrice)
		if err != nil {
			return nil, fmt.Errorf("некорректная старая цена товара %s: %w", p.ID, err)
		}
		p.OriginalPrice = &op
	}
	if err := json.Unmarshal([]byte(badges), &p.EthicalBadges); err != nil {
		return nil, fmt.Errorf("некорректные бейджи товара %s: %w", p.ID, err)
	}
	if p.Alternatives == nil {
		p.Alternatives = []string{}
	}
	p.CarbonFootprint = CarbonFootprint(footprint)
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}
