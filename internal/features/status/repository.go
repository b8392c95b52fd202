// Package status — repository.go работает с таблицей status_checks.
package status

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/ethical-karma/internal/db/postgres"
)

// Store — хранилище отметок.
type Store interface {
	Insert(ctx context.Context, c *Check) error
	List(ctx context.Context, limit int) ([]*Check, error)
	Ping(ctx context.Context) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, c *Check) error {
	query := `INSERT INTO status_checks (id, client_name, created_at) VALUES ($1, $2, $3)`
	if _, err := r.db.Exec(ctx, query, c.ID, c.ClientName, c.Timestamp); err != nil {
		return postgres.MapError(fmt.Errorf("ошибка записи отметки: %w", err), nil)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, limit int) ([]*Check, error) {
	query := `
		SELECT id, client_name, created_at
		FROM status_checks
		ORDER BY seq
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, postgres.MapError(fmt.Errorf("ошибка чтения отметок: %w", err), nil)
	}
	checks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Check, error) {
		var c Check
		if err := row.Scan(&c.ID, &c.ClientName, &c.Timestamp); err != nil {
			return nil, err
		}
		c.Timestamp = c.Timestamp.UTC()
		return &c, nil
	})
	if err != nil {
		return nil, postgres.MapError(fmt.Errorf("ошибка чтения отметок: %w", err), nil)
	}
	return checks, nil
}

// Ping проверяет доступность БД (для /healthz).
func (r *Repository) Ping(ctx context.Context) error {
	return postgres.MapError(r.db.Ping(ctx), nil)
}
