// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: генерация идентификаторов, работа со временем и часовыми поясами.
package common

import (
	"time"

	"github.com/google/uuid"
)

// NewID генерирует новый непрозрачный идентификатор записи (UUID v4).
func NewID() string {
	return uuid.NewString()
}

// Now возвращает текущее время в UTC, обрезанное до микросекунд.
// PostgreSQL хранит timestamptz с точностью до микросекунд — обрезаем сразу,
// чтобы значения из памяти и из БД совпадали.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// LoadLocation загружает часовой пояс по имени.
// Если tzdata в контейнере нет — используем UTC, а не падаем.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
