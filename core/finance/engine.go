package finance

import "math"

// MonthProjection is one row of the projection. Amounts are in the Projection's currency.
type MonthProjection struct {
	Month                 MonthEntry `json:"month"`
	TuitionIncome         float64    `json:"tuition_income"`
	SponsorshipIncome     float64    `json:"sponsorship_income"`
	CumulativeTuition     float64    `json:"cumulative_tuition"`
	CumulativeSponsorship float64    `json:"cumulative_sponsorship"`
	TotalIncome           float64    `json:"total_income"`
	Expense               float64    `json:"expense"`
	Balance               float64    `json:"balance"`
	CumulativeBalance     float64    `json:"cumulative_balance"`
}

type Projection struct {
	Currency Currency          `json:"currency"`
	Months   []MonthProjection `json:"months"`
}

// Summary holds the end-of-window figures of a projection.
type Summary struct {
	MonthlyIncome  float64 `json:"monthly_income"`
	MonthlyExpense float64 `json:"monthly_expense"`
	MonthlyBalance float64 `json:"monthly_balance"`
	TotalIncome    float64 `json:"total_income"`
	TotalExpense   float64 `json:"total_expense"`
	TotalBalance   float64 `json:"total_balance"`
}

func validRate(rate float64) bool {
	return rate > 0 && !math.IsInf(rate, 0) && !math.IsNaN(rate)
}

// ToUSD converts a local currency amount. Without a usable rate the amount is returned as is.
func ToUSD(amount, rate float64) float64 {
	if !validRate(rate) {
		return amount
	}
	return amount / rate
}

// FromUSD converts a USD amount to local currency. Without a usable rate the amount is returned as is.
func FromUSD(amount, rate float64) float64 {
	if !validRate(rate) {
		return amount
	}
	return amount * rate
}

// Project computes the USD projection of params over months.
// Incomes are constant across the window and the balance is floored at zero:
// a deficit month shows no surplus rather than a negative balance.
func Project(months []MonthEntry, params Parameters, rate float64) Projection {
	tuition := params.Tuition.IncomeUSD(DenominatedInLocal, rate)
	sponsorship := params.Sponsorship.IncomeUSD(DenominatedInUSD, rate)
	total := tuition + sponsorship
	expense := ToUSD(params.FixedExpense.AmountLocal, rate)
	balance := math.Max(0, total-expense)

	proj := Projection{Currency: USD, Months: make([]MonthProjection, 0, len(months))}
	var cumTuition, cumSponsorship, cumBalance float64
	for _, m := range months {
		cumTuition += tuition
		cumSponsorship += sponsorship
		cumBalance += balance
		proj.Months = append(proj.Months, MonthProjection{
			Month:                 m,
			TuitionIncome:         tuition,
			SponsorshipIncome:     sponsorship,
			CumulativeTuition:     cumTuition,
			CumulativeSponsorship: cumSponsorship,
			TotalIncome:           total,
			Expense:               expense,
			Balance:               balance,
			CumulativeBalance:     cumBalance,
		})
	}
	return proj
}

// In returns a copy of the USD projection expressed in currency c.
// The receiver is left untouched. Without a usable rate the copy stays in USD.
func (p Projection) In(c Currency, rate float64) Projection {
	out := Projection{Currency: p.Currency, Months: make([]MonthProjection, len(p.Months))}
	copy(out.Months, p.Months)
	if c == p.Currency || p.Currency != USD || !validRate(rate) {
		return out
	}

	out.Currency = c
	for i := range out.Months {
		m := &out.Months[i]
		m.TuitionIncome = FromUSD(m.TuitionIncome, rate)
		m.SponsorshipIncome = FromUSD(m.SponsorshipIncome, rate)
		m.CumulativeTuition = FromUSD(m.CumulativeTuition, rate)
		m.CumulativeSponsorship = FromUSD(m.CumulativeSponsorship, rate)
		m.TotalIncome = FromUSD(m.TotalIncome, rate)
		m.Expense = FromUSD(m.Expense, rate)
		m.Balance = FromUSD(m.Balance, rate)
		m.CumulativeBalance = FromUSD(m.CumulativeBalance, rate)
	}
	return out
}

func (p Projection) Summary() Summary {
	if len(p.Months) == 0 {
		return Summary{}
	}
	first, last := p.Months[0], p.Months[len(p.Months)-1]
	return Summary{
		MonthlyIncome:  first.TotalIncome,
		MonthlyExpense: first.Expense,
		MonthlyBalance: first.Balance,
		TotalIncome:    last.CumulativeTuition + last.CumulativeSponsorship,
		TotalExpense:   first.Expense * float64(len(p.Months)),
		TotalBalance:   last.CumulativeBalance,
	}
}
