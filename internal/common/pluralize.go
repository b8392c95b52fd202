// Package common — pluralize.go формирует короткие сообщения о начислении кармы.
package common

import "fmt"

// PluralizePoints возвращает правильную форму слова «point» для числа n.
//
//	PluralizePoints(1)  → "point"
//	PluralizePoints(-1) → "point"
//	PluralizePoints(5)  → "points"
func PluralizePoints(n int64) string {
	if n == 1 || n == -1 {
		return "point"
	}
	return "points"
}

// FormatKarmaDelta создаёт строку вида "+50 karma points" или "-5 karma points".
// Знак «+» добавляется для неотрицательных значений.
//
//	FormatKarmaDelta(50) → "+50 karma points"
//	FormatKarmaDelta(1)  → "+1 karma point"
//	FormatKarmaDelta(-5) → "-5 karma points"
func FormatKarmaDelta(points int64) string {
	if points >= 0 {
		return fmt.Sprintf("+%d karma %s", points, PluralizePoints(points))
	}
	return fmt.Sprintf("%d karma %s", points, PluralizePoints(points))
}
