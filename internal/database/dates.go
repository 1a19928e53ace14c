package database

import (
	"fmt"
	"time"
)

// Today returns today's date as YYYY-MM-DD.
func Today() string {
	return time.Now().Format("2006-01-02")
}

// NextDay returns the day after a YYYY-MM-DD date.
func NextDay(date string) (string, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", fmt.Errorf("parsing date %q: %w", date, err)
	}
	return d.AddDate(0, 0, 1).Format("2006-01-02"), nil
}
