package finance

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders amount with thousands separators and its currency code, e.g. "MZN 144,000.00".
func FormatAmount(c Currency, amount float64) string {
	return printer.Sprintf("%s %.2f", string(c), amount)
}

// ChartPoint is one labelled value of a chart series.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChartData is a series ready for the dashboard charts.
type ChartData struct {
	ChartType string       `json:"chart_type"`
	Title     string       `json:"title"`
	Currency  Currency     `json:"currency"`
	Data      []ChartPoint `json:"data"`
}

// Charts returns the dashboard series of the projection.
func (p Projection) Charts() []ChartData {
	series := func(chartType, title string, value func(MonthProjection) float64) ChartData {
		cd := ChartData{ChartType: chartType, Title: title, Currency: p.Currency, Data: make([]ChartPoint, 0, len(p.Months))}
		for _, m := range p.Months {
			cd.Data = append(cd.Data, ChartPoint{Label: m.Month.Label, Value: value(m)})
		}
		return cd
	}
	return []ChartData{
		series("bar", "Tuition income", func(m MonthProjection) float64 { return m.TuitionIncome }),
		series("bar", "Sponsorship income", func(m MonthProjection) float64 { return m.SponsorshipIncome }),
		series("bar", "Fixed expense", func(m MonthProjection) float64 { return m.Expense }),
		series("line", "Cumulative tuition", func(m MonthProjection) float64 { return m.CumulativeTuition }),
		series("line", "Cumulative sponsorship", func(m MonthProjection) float64 { return m.CumulativeSponsorship }),
		series("line", "Cumulative balance", func(m MonthProjection) float64 { return m.CumulativeBalance }),
	}
}
