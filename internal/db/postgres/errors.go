// Package postgres — errors.go переводит ошибки pgx в доменные ошибки common.
package postgres

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"serotonyl.ru/ethical-karma/internal/common"
)

const (
	uniqueViolation      = "23505"
	stringTooLong        = "22001"
	numericValueOutRange = "22003"
)

// MapError приводит ошибку драйвера к виду, понятному сервисам:
//   - pgx.ErrNoRows → notFound (или common.ErrNotFound)
//   - таймауты, обрывы соединения, перегрузка сервера → common.Unavailable
//   - значение не влезает в колонку (22001, 22003) → common.ErrValidation
//   - остальное возвращается как есть (станет internal_error на границе)
func MapError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if notFound != nil {
			return notFound
		}
		return common.ErrNotFound
	}
	if IsUnavailable(err) {
		return common.Unavailable(err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case stringTooLong:
			return &common.Error{Kind: common.KindValidation, Field: pgErr.ColumnName, Message: "value too long", Err: err}
		case numericValueOutRange:
			return &common.Error{Kind: common.KindValidation, Field: pgErr.ColumnName, Message: "numeric value out of range", Err: err}
		}
	}
	return err
}

// IsUniqueViolation — нарушение уникального индекса.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// IsUnavailable определяет «временные» ошибки хранилища.
func IsUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 08 — connection exception, 53 — insufficient resources, 57P — operator intervention
		return strings.HasPrefix(pgErr.Code, "08") ||
			strings.HasPrefix(pgErr.Code, "53") ||
			strings.HasPrefix(pgErr.Code, "57P")
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
