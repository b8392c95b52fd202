// Package users управляет каталогом пользователей: регистрацией и чтением профиля.
// models.go описывает пользователя и его кэшированные балансы.
package users

import "time"

// User — пользователь сервиса.
// KarmaPoints и TotalImpactScore меняются только через karma.Service
// и всегда равны сумме журнала кармы пользователя.
type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"` // Уникален, сравнение с учётом регистра
	Name             string    `json:"name"`
	KarmaPoints      int64     `json:"karma_points"`
	TotalImpactScore int64     `json:"total_impact_score"`
	Purchases        []string  `json:"purchases"` // Пока ничем не заполняется
	CreatedAt        time.Time `json:"created_at"`
}

// CreateRequest — тело POST /users.
type CreateRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}
