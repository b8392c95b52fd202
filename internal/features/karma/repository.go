// Package karma — repository.go выполняет операции с таблицей karma_journal
// и кэшированными балансами в таблице users.
package karma

import (
	"context"
	"fmt"
	"iter"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/ethical-karma/internal/common"
	"serotonyl.ru/ethical-karma/internal/db/postgres"
)

// Store — журнал кармы вместе с кэшированными балансами.
// Журнал — источник истины; балансы пользователя — производные от него.
type Store interface {
	// Append дописывает запись в журнал, балансы не трогает.
	Append(ctx context.Context, e *Entry) error
	// Grant атомарно дописывает запись и увеличивает оба баланса пользователя.
	// Если пользователя нет — common.ErrUserNotFound, журнал не меняется.
	Grant(ctx context.Context, e *Entry) (Balance, error)
	// Entries — ленивая конечная последовательность записей пользователя
	// в порядке добавления. Каждый range читает журнал заново.
	Entries(ctx context.Context, userID string) iter.Seq2[*Entry, error]
	// Reconcile пересчитывает балансы пользователя по журналу.
	Reconcile(ctx context.Context, userID string) (*ReconcileResult, error)
	// UserIDs возвращает id всех пользователей (для плановой сверки).
	UserIDs(ctx context.Context) ([]string, error)
}

// Repository работает с таблицами karma_journal и users.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий кармы.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Append записывает действие в журнал.
func (r *Repository) Append(ctx context.Context, e *Entry) error {
	return postgres.MapError(appendEntry(ctx, r.db, e), nil)
}

// Grant обновляет балансы и пишет журнал в одной транзакции БД.
// UPDATE берёт блокировку строки пользователя, поэтому конкурентные начисления
// одному пользователю выполняются по очереди и не теряют инкременты.
func (r *Repository) Grant(ctx context.Context, e *Entry) (Balance, error) {
	var b Balance
	err := postgres.InTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE users
			SET karma_points = karma_points + $2,
			    total_impact_score = total_impact_score + $2
			WHERE id = $1
			RETURNING karma_points, total_impact_score
		`, e.UserID, e.PointsEarned).Scan(&b.KarmaPoints, &b.TotalImpactScore)
		if err != nil {
			return err
		}
		return appendEntry(ctx, tx, e)
	})
	if err != nil {
		return Balance{}, postgres.MapError(err, common.ErrUserNotFound)
	}
	return b, nil
}

// Entries читает журнал пользователя по порядку добавления (seq).
func (r *Repository) Entries(ctx context.Context, userID string) iter.Seq2[*Entry, error] {
	return func(yield func(*Entry, error) bool) {
		query := `
			SELECT id, user_id, action_type, product_id, points_earned, description, created_at
			FROM karma_journal
			WHERE user_id = $1
			ORDER BY seq
		`
		rows, err := r.db.Query(ctx, query, userID)
		if err != nil {
			yield(nil, postgres.MapError(fmt.Errorf("ошибка чтения журнала: %w", err), nil))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				e      Entry
				action string
			)
			if err := rows.Scan(
				&e.ID, &e.UserID, &action, &e.ProductID, &e.PointsEarned, &e.Description, &e.Timestamp,
			); err != nil {
				yield(nil, postgres.MapError(fmt.Errorf("ошибка сканирования записи: %w", err), nil))
				return
			}
			e.ActionType = ActionType(action)
			e.Timestamp = e.Timestamp.UTC()
			if !yield(&e, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, postgres.MapError(fmt.Errorf("ошибка чтения строк: %w", err), nil))
		}
	}
}

// Reconcile блокирует строку пользователя, суммирует журнал и, если кэш
// разошёлся с суммой, переписывает оба баланса.
func (r *Repository) Reconcile(ctx context.Context, userID string) (*ReconcileResult, error) {
	res := &ReconcileResult{UserID: userID}
	err := postgres.InTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			SELECT karma_points, total_impact_score FROM users WHERE id = $1 FOR UPDATE
		`, userID).Scan(&res.Before.KarmaPoints, &res.Before.TotalImpactScore)
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(points_earned), 0)::bigint FROM karma_journal WHERE user_id = $1
		`, userID).Scan(&res.JournalSum)
		if err != nil {
			return fmt.Errorf("ошибка суммирования журнала: %w", err)
		}

		res.After = Balance{KarmaPoints: res.JournalSum, TotalImpactScore: res.JournalSum}
		if res.After == res.Before {
			return nil
		}

		_, err = tx.Exec(ctx, `
			UPDATE users SET karma_points = $2, total_impact_score = $2 WHERE id = $1
		`, userID, res.JournalSum)
		if err != nil {
			return fmt.Errorf("ошибка исправления баланса: %w", err)
		}
		res.Repaired = true
		return nil
	})
	if err != nil {
		return nil, postgres.MapError(err, common.ErrUserNotFound)
	}
	return res, nil
}

// UserIDs возвращает id всех пользователей.
func (r *Repository) UserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, postgres.MapError(fmt.Errorf("ошибка чтения пользователей: %w", err), nil)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, postgres.MapError(fmt.Errorf("ошибка чтения пользователей: %w", err), nil)
	}
	return ids, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func appendEntry(ctx context.Context, db execer, e *Entry) error {
	query := `
		INSERT INTO karma_journal (id, user_id, action_type, product_id, points_earned, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := db.Exec(ctx, query,
		e.ID, e.UserID, string(e.ActionType), e.ProductID, e.PointsEarned, e.Description, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("ошибка записи в журнал кармы: %w", err)
	}
	return nil
}
