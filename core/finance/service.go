package finance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/bolsa/core"
)

const (
	parametersKey = "finance_parameters"
	draftKey      = "finance_parameters_draft"
)

type (
	// RateGetter is satisfied by *RateProvider.
	RateGetter interface {
		Get(ctx context.Context) ExchangeRate
	}

	Service struct {
		store  core.KVStore
		rates  RateGetter
		prefs  *PreferenceStore
		logger core.Logger
		local  Currency
	}

	// Dashboard is everything the finance page renders, amounts in Currency.
	Dashboard struct {
		Currency   Currency          `json:"currency"`
		Rate       ExchangeRate      `json:"rate"`
		Parameters Parameters        `json:"parameters"`
		Projection Projection        `json:"projection"`
		Summary    Summary           `json:"summary"`
		Display    map[string]string `json:"display"`
		Charts     []ChartData       `json:"charts"`
	}
)

func NewService(store core.KVStore, rates RateGetter, prefs *PreferenceStore, logger core.Logger) *Service {
	return &Service{
		store:  store,
		rates:  rates,
		prefs:  prefs,
		logger: logger,
		local:  prefs.local,
	}
}

func (svc *Service) LocalCurrency() Currency { return svc.local }

// Parameters returns the committed parameters, or the defaults when none were committed yet.
func (svc *Service) Parameters(ctx context.Context) (Parameters, error) {
	raw, ok, err := svc.store.Get(ctx, parametersKey)
	if err != nil {
		return Parameters{}, errors.Wrap(err, "reading projection parameters")
	}
	if !ok {
		return DefaultParameters(), nil
	}
	var params Parameters
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		svc.logger.Warn("stored projection parameters are corrupt, using defaults", err)
		return DefaultParameters(), nil
	}
	return params, nil
}

func (svc *Service) Draft(ctx context.Context) (Draft, error) {
	raw, ok, err := svc.store.Get(ctx, draftKey)
	if err != nil {
		return Draft{}, errors.Wrap(err, "reading projection draft")
	}
	var draft Draft
	if !ok {
		return draft, nil
	}
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		svc.logger.Warn("stored projection draft is corrupt, discarding it", err)
		return Draft{}, nil
	}
	return draft, nil
}

// SaveDraft stores pending edits as they are, without validating them.
func (svc *Service) SaveDraft(ctx context.Context, draft Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return errors.Wrap(err, "encoding projection draft")
	}
	if err := svc.store.Set(ctx, draftKey, string(data)); err != nil {
		return errors.Wrap(err, "saving projection draft")
	}
	return nil
}

func (svc *Service) DiscardDraft(ctx context.Context) error {
	if err := svc.store.Delete(ctx, draftKey); err != nil {
		return errors.Wrap(err, "discarding projection draft")
	}
	return nil
}

// Recalculate commits the pending draft. An invalid draft leaves the committed
// parameters untouched and is kept so it can be corrected.
func (svc *Service) Recalculate(ctx context.Context) (Parameters, error) {
	committed, err := svc.Parameters(ctx)
	if err != nil {
		return Parameters{}, err
	}
	draft, err := svc.Draft(ctx)
	if err != nil {
		return committed, err
	}
	if draft.IsEmpty() {
		return committed, nil
	}

	next, err := Commit(committed, draft)
	if err != nil {
		return committed, err
	}

	data, err := json.Marshal(next)
	if err != nil {
		return committed, errors.Wrap(err, "encoding projection parameters")
	}
	if err := svc.store.Set(ctx, parametersKey, string(data)); err != nil {
		return committed, errors.Wrap(err, "saving projection parameters")
	}
	if err := svc.DiscardDraft(ctx); err != nil {
		svc.logger.Warn("committed projection parameters but kept the draft", err)
	}
	return next, nil
}

func (svc *Service) Rate(ctx context.Context) ExchangeRate {
	return svc.rates.Get(ctx)
}

func (svc *Service) Currency(ctx context.Context) Currency {
	return svc.prefs.Get(ctx)
}

func (svc *Service) SetCurrency(ctx context.Context, c Currency) error {
	return svc.prefs.Set(ctx, c)
}

// Months returns the current projection window.
func (svc *Service) Months() []MonthEntry {
	return Months()
}

// Dashboard projects the committed parameters and expresses them in currency c
// (the stored preference when c is empty).
func (svc *Service) Dashboard(ctx context.Context, c Currency) (Dashboard, error) {
	if c == "" {
		c = svc.prefs.Get(ctx)
	} else {
		var err error
		if c, err = ParseCurrency(string(c), svc.local); err != nil {
			return Dashboard{}, err
		}
	}

	params, err := svc.Parameters(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	rate := svc.rates.Get(ctx)

	proj := Project(Months(), params, rate.Value).In(c, rate.Value)
	summary := proj.Summary()
	return Dashboard{
		Currency:   proj.Currency,
		Rate:       rate,
		Parameters: params,
		Projection: proj,
		Summary:    summary,
		Display: map[string]string{
			"monthly_income":  FormatAmount(proj.Currency, summary.MonthlyIncome),
			"monthly_expense": FormatAmount(proj.Currency, summary.MonthlyExpense),
			"monthly_balance": FormatAmount(proj.Currency, summary.MonthlyBalance),
			"total_income":    FormatAmount(proj.Currency, summary.TotalIncome),
			"total_expense":   FormatAmount(proj.Currency, summary.TotalExpense),
			"total_balance":   FormatAmount(proj.Currency, summary.TotalBalance),
			"rate":            fmt.Sprintf("1 %s = %s", USD, FormatAmount(svc.local, rate.Value)),
		},
		Charts: proj.Charts(),
	}, nil
}
