// Package karma реализует журнал кармы и начисление баллов пользователям.
// models.go описывает записи журнала, балансы и результаты сверки.
package karma

import (
	"time"

	"serotonyl.ru/ethical-karma/internal/common"
)

// ActionType — за что начислены баллы.
type ActionType string

const (
	ActionPurchase ActionType = "purchase"
	ActionReview   ActionType = "review"
	ActionReferral ActionType = "referral"
	ActionManual   ActionType = "manual"
)

// ParseActionType разбирает тип действия. Пустая строка — ручное начисление.
func ParseActionType(s string) (ActionType, error) {
	switch a := ActionType(s); a {
	case "":
		return ActionManual, nil
	case ActionPurchase, ActionReview, ActionReferral, ActionManual:
		return a, nil
	}
	return "", common.Invalid("action_type", "unknown action_type %q", s)
}

// Entry — неизменяемая запись журнала кармы.
type Entry struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	ActionType   ActionType `json:"action_type"`
	ProductID    *string    `json:"product_id"` // Ссылка на товар, существование не проверяется
	PointsEarned int64      `json:"points_earned"`
	Description  string     `json:"description"`
	Timestamp    time.Time  `json:"timestamp"`
}

// Balance — кэшированные балансы пользователя после операции.
type Balance struct {
	KarmaPoints      int64 `json:"karma_points"`
	TotalImpactScore int64 `json:"total_impact_score"`
}

// GrantRequest — параметры начисления.
type GrantRequest struct {
	UserID      string
	Points      int64
	Description string
	ActionType  ActionType
	ProductID   *string
}

// ReconcileResult — итог сверки одного пользователя с журналом.
type ReconcileResult struct {
	UserID     string  `json:"user_id"`
	JournalSum int64   `json:"journal_sum"`
	Before     Balance `json:"before"`
	After      Balance `json:"after"`
	Repaired   bool    `json:"repaired"`
}

// ReconcileSummary — итог сверки всех пользователей.
type ReconcileSummary struct {
	Checked  int `json:"checked"`
	Repaired int `json:"repaired"`
	Failed   int `json:"failed"`
}
