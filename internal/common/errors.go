// Package common — errors.go определяет типизированные ошибки,
// которые используются во всех модулях сервиса.
// Каждая ошибка несёт Kind — по нему HTTP-слой выбирает статус ответа,
// а обработчики различают типы проблем через errors.Is.
package common

import (
	"errors"
	"fmt"
)

// Kind — стабильный тип ошибки, уходит клиенту в поле error.type.
type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindValidation  Kind = "validation_error"
	KindUnavailable Kind = "service_unavailable"
	KindInternal    Kind = "internal_error"
)

// Error — доменная ошибка с типом и человекочитаемым сообщением.
type Error struct {
	Kind    Kind
	Message string
	Field   string // Поле запроса (только для ошибок валидации)
	Err     error  // Исходная ошибка хранилища, наружу не отдаётся
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is сравнивает по Kind, если target — «голая» ошибка вида (без сообщения).
// Так errors.Is(err, ErrNotFound) срабатывает для любой ErrXxxNotFound.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" && t.Field == "" && t.Err == nil {
		return t.Kind == e.Kind
	}
	return t == e
}

// Базовые ошибки по видам
var (
	ErrNotFound    = &Error{Kind: KindNotFound}
	ErrConflict    = &Error{Kind: KindConflict}
	ErrValidation  = &Error{Kind: KindValidation}
	ErrUnavailable = &Error{Kind: KindUnavailable}
)

// Ошибки каталога
var (
	// ErrProductNotFound — товара с таким id нет
	ErrProductNotFound = &Error{Kind: KindNotFound, Message: "Product not found"}
)

// Ошибки пользователей
var (
	// ErrUserNotFound — пользователь не найден
	ErrUserNotFound = &Error{Kind: KindNotFound, Message: "User not found"}
	// ErrEmailTaken — пользователь с таким email уже существует
	ErrEmailTaken = &Error{Kind: KindConflict, Message: "User already exists"}
)

// Invalid создаёт ошибку валидации для конкретного поля.
func Invalid(field, format string, args ...any) error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Unavailable оборачивает ошибку недоступного хранилища.
func Unavailable(err error) error {
	return &Error{Kind: KindUnavailable, Message: "storage unavailable", Err: err}
}

// KindOf возвращает вид ошибки. Всё, что не *Error, считается внутренней ошибкой.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
