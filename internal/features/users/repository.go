// Package users — repository.go отвечает за операции с таблицей users в БД.
package users

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/ethical-karma/internal/common"
	"serotonyl.ru/ethical-karma/internal/db/postgres"
)

// Store — хранилище пользователей.
type Store interface {
	// Create вставляет пользователя или возвращает common.ErrEmailTaken.
	// Проверка уникальности и вставка атомарны.
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create добавляет пользователя. Уникальность email держит UNIQUE-индекс,
// поэтому гонка «проверил — вставил» невозможна.
func (r *Repository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (id, email, name, karma_points, total_impact_score, purchases, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		u.ID, u.Email, u.Name, u.KarmaPoints, u.TotalImpactScore, u.Purchases, u.CreatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return common.ErrEmailTaken
		}
		return postgres.MapError(fmt.Errorf("ошибка создания пользователя: %w", err), nil)
	}
	return nil
}

// GetByID: если не найден — common.ErrUserNotFound.
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, email, name, karma_points, total_impact_score, purchases, created_at
		FROM users
		WHERE id = $1
	`
	var u User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.Name, &u.KarmaPoints, &u.TotalImpactScore, &u.Purchases, &u.CreatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, common.ErrUserNotFound)
	}
	if u.Purchases == nil {
		u.Purchases = []string{}
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}
