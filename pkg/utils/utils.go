package utils

import (
	"math"
	"time"
)

// DateLayout формат дат графика платежей
const DateLayout = "2006-01-02"

// IsFinite проверяет, является ли число конечным
func IsFinite(value float64) bool {
	return !math.IsInf(value, 0) && !math.IsNaN(value)
}

// DateOnly отбрасывает время и приводит дату к UTC
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate разбирает дату в формате YYYY-MM-DD; полная метка RFC 3339
// тоже принимается, время отбрасывается
func ParseDate(value string) (time.Time, error) {
	if len(value) > len(DateLayout) {
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}, err
		}
		return DateOnly(t), nil
	}
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

// AddMonths прибавляет календарные месяцы. Если в целевом месяце нет такого дня,
// берется последний день месяца (31 января + 1 месяц = 28/29 февраля).
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
