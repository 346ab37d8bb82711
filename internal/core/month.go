package core

import (
	"strconv"
	"strings"
	"time"
)

// MonthKey returns the YYYY-MM key for a point in time.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// TodayISO returns the current date as YYYY-MM-DD.
func TodayISO() string {
	return time.Now().Format("2006-01-02")
}

// MonthOf derives the YYYY-MM key from an ISO date string.
func MonthOf(dateISO string) string {
	if len(dateISO) >= 7 {
		return dateISO[:7]
	}
	return dateISO
}

// ShiftMonthKey adds delta whole months to a YYYY-MM key. The day is pinned
// to the 1st so end-of-month overflow can never skip a month; year rollover
// comes from time.Date normalization. A malformed key yields the current
// month.
func ShiftMonthKey(key string, delta int) string {
	y, m, ok := splitMonthKey(key)
	if !ok {
		return MonthKey(time.Now())
	}
	return MonthKey(time.Date(y, time.Month(m+delta), 1, 0, 0, 0, 0, time.UTC))
}

func splitMonthKey(key string) (year, month int, ok bool) {
	ys, ms, found := strings.Cut(key, "-")
	if !found {
		return 0, 0, false
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return 0, 0, false
	}
	m, err := strconv.Atoi(ms)
	if err != nil {
		return 0, 0, false
	}
	return y, m, true
}
