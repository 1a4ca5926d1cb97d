package finance

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/trezcool/bolsa/core"
)

// Commit validates the draft and applies it on top of committed, all fields together.
// Blank draft values keep the committed value. When any value is invalid,
// committed is returned unchanged along with a *core.ValidationError.
func Commit(committed Parameters, draft Draft) (Parameters, error) {
	next := committed
	var flds []core.FieldError

	amount := func(field string, raw DraftValue, dst *float64) {
		s := strings.TrimSpace(string(raw))
		if s == "" {
			return
		}
		v, msg := parseAmount(s)
		if msg != "" {
			flds = append(flds, core.FieldError{Field: field, Error: msg})
			return
		}
		*dst = v
	}
	count := func(field string, raw DraftValue, dst *int) {
		s := strings.TrimSpace(string(raw))
		if s == "" {
			return
		}
		v, msg := parseCount(s)
		if msg != "" {
			flds = append(flds, core.FieldError{Field: field, Error: msg})
			return
		}
		*dst = v
	}

	amount("tuition_fee", draft.TuitionFee, &next.Tuition.FeePerMember)
	count("tuition_members", draft.TuitionMembers, &next.Tuition.MemberCount)
	amount("sponsorship_fee", draft.SponsorshipFee, &next.Sponsorship.FeePerMember)
	count("sponsorship_members", draft.SponsorshipMembers, &next.Sponsorship.MemberCount)
	amount("fixed_expense", draft.FixedExpense, &next.FixedExpense.AmountLocal)

	if len(flds) > 0 {
		return committed, core.NewValidationError(ErrInvalidInput, flds...)
	}
	return next, nil
}

var (
	// plain decimal notation only: no hex floats, no digit separators
	decimalRegex   = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
	nonFiniteRegex = regexp.MustCompile(`(?i)^[+-]?(inf|infinity|nan)$`)
)

func parseAmount(s string) (float64, string) {
	if nonFiniteRegex.MatchString(s) {
		return 0, "must be a finite number"
	}
	if !decimalRegex.MatchString(s) {
		return 0, "must be a number"
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
			return 0, "must be a finite number"
		}
		return 0, "must be a number"
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, "must be a finite number"
	}
	if v < 0 {
		return 0, "must not be negative"
	}
	return v, ""
}

func parseCount(s string) (int, string) {
	v, msg := parseAmount(s)
	if msg != "" {
		return 0, msg
	}
	if v != math.Trunc(v) {
		return 0, "must be a whole number"
	}
	if v > maxMemberCount {
		return 0, "must be at most " + strconv.Itoa(maxMemberCount)
	}
	return int(v), ""
}
