package finance

import (
	"testing"
	"time"
)

func TestGenerateMonths(t *testing.T) {
	date := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 12, 0, 0, 0, time.UTC) }

	tests := []struct {
		name      string
		now       time.Time
		wantStart int
		wantFirst string
		wantLast  string
	}{
		{name: "after anchor", now: date(2026, time.October, 19), wantStart: 2026, wantFirst: "Mar 2026", wantLast: "Feb 2027"},
		{name: "anchor month", now: date(2026, time.March, 1), wantStart: 2026, wantFirst: "Mar 2026", wantLast: "Feb 2027"},
		{name: "before anchor", now: date(2026, time.February, 28), wantStart: 2025, wantFirst: "Mar 2025", wantLast: "Feb 2026"},
		{name: "january", now: date(2027, time.January, 1), wantStart: 2026, wantFirst: "Mar 2026", wantLast: "Feb 2027"},
		{name: "december", now: date(2026, time.December, 31), wantStart: 2026, wantFirst: "Mar 2026", wantLast: "Feb 2027"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			months := GenerateMonths(tt.now)
			if len(months) != ProjectionMonths {
				t.Fatalf("GenerateMonths() len = %d; want %d", len(months), ProjectionMonths)
			}
			if months[0].Month != AnchorMonth || months[0].Year != tt.wantStart {
				t.Errorf("first month = %+v; want month %d of %d", months[0], AnchorMonth, tt.wantStart)
			}
			if months[0].Label != tt.wantFirst {
				t.Errorf("first label = %q; want %q", months[0].Label, tt.wantFirst)
			}
			if last := months[len(months)-1]; last.Label != tt.wantLast {
				t.Errorf("last label = %q; want %q", last.Label, tt.wantLast)
			}
			for i := 1; i < len(months); i++ {
				prev, curr := months[i-1], months[i]
				if curr.Year*12+curr.Month != prev.Year*12+prev.Month+1 {
					t.Errorf("months[%d] = %+v does not follow %+v", i, curr, prev)
				}
			}
		})
	}
}

func TestMonthEntry_Period(t *testing.T) {
	months := GenerateMonths(time.Date(2026, time.May, 5, 0, 0, 0, 0, time.UTC))
	if got := months[0].Period(); got != "2026-03" {
		t.Errorf("Period() = %q; want 2026-03", got)
	}
	if got := months[11].Period(); got != "2027-02" {
		t.Errorf("Period() = %q; want 2027-02", got)
	}
}

func TestMonths_usesClock(t *testing.T) {
	nowFunc = func() time.Time { return time.Date(2030, time.January, 15, 0, 0, 0, 0, time.UTC) }
	defer func() { nowFunc = time.Now }()

	if got := Months()[0].Label; got != "Mar 2029" {
		t.Errorf("Months()[0].Label = %q; want Mar 2029", got)
	}
}
