package finance

import (
	"fmt"
	"time"
)

const (
	// AnchorMonth is the 0-indexed month every projection starts at (March).
	AnchorMonth = 2
	// ProjectionMonths is the length of the projection window.
	ProjectionMonths = 12
)

var nowFunc = time.Now // mockable

// MonthEntry is one month of the projection window. Month is 0-indexed.
type MonthEntry struct {
	Label string `json:"label"`
	Month int    `json:"month"`
	Year  int    `json:"year"`
}

// Period returns the month as "YYYY-MM".
func (m MonthEntry) Period() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month+1)
}

// GenerateMonths returns the 12 months starting at the last March on or before now.
func GenerateMonths(now time.Time) []MonthEntry {
	startYear := now.Year()
	if int(now.Month())-1 < AnchorMonth {
		startYear--
	}

	months := make([]MonthEntry, 0, ProjectionMonths)
	for i := 0; i < ProjectionMonths; i++ {
		month := (AnchorMonth + i) % 12
		year := startYear + (AnchorMonth+i)/12
		name := time.Month(month + 1).String()
		months = append(months, MonthEntry{
			Label: fmt.Sprintf("%s %d", name[:3], year),
			Month: month,
			Year:  year,
		})
	}
	return months
}

// Months generates the projection window for the current date.
func Months() []MonthEntry {
	return GenerateMonths(nowFunc())
}
