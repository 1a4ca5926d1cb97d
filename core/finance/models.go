package finance

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Currency is an ISO 4217 code. Only USD and the configured local currency are used.
type Currency string

const USD Currency = "USD"

const (
	DefaultLocalCurrency Currency = "MZN"
	DefaultFallbackRate  float64  = 63.6
)

// Defaults of the projection parameters.
const (
	DefaultTuitionFee         = 1800.0 // local currency, per member per month
	DefaultTuitionMembers     = 49
	DefaultSponsorshipFee     = 40.0 // USD, per member per month
	DefaultSponsorshipMembers = 60
	DefaultFixedExpenseLocal  = 144000.0

	dateLayout     = "2006-01-02"
	maxMemberCount = 1_000_000
)

var (
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrInvalidInput    = errors.New("invalid projection parameters")
)

// ParseCurrency normalizes s and checks it is USD or local.
func ParseCurrency(s string, local Currency) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if c == USD || c == local {
		return c, nil
	}
	return "", ErrInvalidCurrency
}

// Denomination is the fixed native currency of an amount.
type Denomination int

const (
	DenominatedInUSD Denomination = iota
	DenominatedInLocal
)

// Cohort is one revenue-generating population.
type Cohort struct {
	FeePerMember float64 `json:"fee_per_member"`
	MemberCount  int     `json:"member_count"`
}

// IncomeUSD is the monthly income of the cohort, its fee normalized to USD first.
func (c Cohort) IncomeUSD(denom Denomination, rate float64) float64 {
	fee := c.FeePerMember
	if denom == DenominatedInLocal {
		fee = ToUSD(fee, rate)
	}
	return float64(c.MemberCount) * fee
}

type FixedExpense struct {
	AmountLocal float64 `json:"amount_local"`
}

// Parameters are the committed inputs of the projection, each in its native currency.
type Parameters struct {
	Tuition      Cohort       `json:"tuition"`     // local currency
	Sponsorship  Cohort       `json:"sponsorship"` // USD
	FixedExpense FixedExpense `json:"fixed_expense"`
}

func DefaultParameters() Parameters {
	return Parameters{
		Tuition:      Cohort{FeePerMember: DefaultTuitionFee, MemberCount: DefaultTuitionMembers},
		Sponsorship:  Cohort{FeePerMember: DefaultSponsorshipFee, MemberCount: DefaultSponsorshipMembers},
		FixedExpense: FixedExpense{AmountLocal: DefaultFixedExpenseLocal},
	}
}

// ExchangeRate is the USD -> local currency rate.
type ExchangeRate struct {
	Value float64 `json:"value"`
	Date  string  `json:"date"`            // UTC, YYYY-MM-DD
	Error string  `json:"error,omitempty"` // advisory only
}

// DraftValue is a raw, unvalidated edit. It accepts JSON strings and numbers.
type DraftValue string

func (v *DraftValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = DraftValue(s)
	default:
		*v = DraftValue(data)
	}
	return nil
}

// Draft holds pending edits of the projection parameters. Blank values keep the committed ones.
type Draft struct {
	TuitionFee         DraftValue `json:"tuition_fee"`
	TuitionMembers     DraftValue `json:"tuition_members"`
	SponsorshipFee     DraftValue `json:"sponsorship_fee"`
	SponsorshipMembers DraftValue `json:"sponsorship_members"`
	FixedExpense       DraftValue `json:"fixed_expense"`
}

func (d Draft) IsEmpty() bool {
	return strings.TrimSpace(string(d.TuitionFee)) == "" &&
		strings.TrimSpace(string(d.TuitionMembers)) == "" &&
		strings.TrimSpace(string(d.SponsorshipFee)) == "" &&
		strings.TrimSpace(string(d.SponsorshipMembers)) == "" &&
		strings.TrimSpace(string(d.FixedExpense)) == ""
}
