package finance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/trezcool/bolsa/core"
)

// RateSource fetches the current USD -> code rate from an external provider.
// A zero rate with a nil error means the provider answered without a usable rate.
type RateSource interface {
	FetchRate(ctx context.Context, code string) (float64, error)
}

type RateOptions struct {
	LocalCurrency Currency
	FallbackRate  float64
	Timeout       time.Duration
}

// RateProvider serves the USD -> local rate, cached for the current UTC day.
type RateProvider struct {
	source   RateSource
	store    core.KVStore
	logger   core.Logger
	code     Currency
	fallback float64
	timeout  time.Duration
	rateKey  string
	dateKey  string
	group    singleflight.Group
}

func NewRateProvider(source RateSource, store core.KVStore, logger core.Logger, opts RateOptions) *RateProvider {
	if opts.LocalCurrency == "" {
		opts.LocalCurrency = DefaultLocalCurrency
	}
	if !validRate(opts.FallbackRate) {
		opts.FallbackRate = DefaultFallbackRate
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	code := strings.ToLower(string(opts.LocalCurrency))
	return &RateProvider{
		source:   source,
		store:    store,
		logger:   logger,
		code:     opts.LocalCurrency,
		fallback: opts.FallbackRate,
		timeout:  opts.Timeout,
		rateKey:  fmt.Sprintf("finance_usd_%s_rate", code),
		dateKey:  fmt.Sprintf("finance_usd_%s_date", code),
	}
}

func (p *RateProvider) LocalCurrency() Currency { return p.code }

// Get returns today's rate. It never fails: on provider errors it falls back to
// the last cached rate, or to the fixed fallback rate with an advisory Error.
func (p *RateProvider) Get(ctx context.Context) ExchangeRate {
	// the store is read and written even for a cancelled caller: other callers may be
	// waiting on the shared fetch
	ctx = context.WithoutCancel(ctx)

	today := nowFunc().UTC().Format(dateLayout)
	if cached, ok := p.cached(ctx); ok && cached.Date == today {
		return cached
	}

	// concurrent callers share a single fetch
	v, _, _ := p.group.Do(p.rateKey, func() (interface{}, error) {
		return p.refresh(ctx, today), nil
	})
	return v.(ExchangeRate)
}

// refresh expects a ctx that is never cancelled.
func (p *RateProvider) refresh(ctx context.Context, today string) ExchangeRate {
	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	rate, err := p.source.FetchRate(fetchCtx, string(p.code))
	if err != nil {
		if cached, ok := p.cached(ctx); ok {
			p.logger.Warn(fmt.Sprintf("fetching %s rate failed, using cached rate of %s", p.code, cached.Date), err)
			return cached
		}
		p.logger.Warn(fmt.Sprintf("fetching %s rate failed, using fallback rate", p.code), err)
		res := ExchangeRate{Value: p.fallback, Date: today, Error: err.Error()}
		p.save(ctx, res)
		return res
	}

	if !validRate(rate) {
		res := ExchangeRate{
			Value: p.fallback,
			Date:  today,
			Error: fmt.Sprintf("rate provider returned no usable %s rate, using fallback %g", p.code, p.fallback),
		}
		p.logger.Warn(res.Error)
		p.save(ctx, res)
		return res
	}

	res := ExchangeRate{Value: rate, Date: today}
	p.save(ctx, res)
	return res
}

// cached returns the stored rate, whatever its date.
func (p *RateProvider) cached(ctx context.Context) (ExchangeRate, bool) {
	raw, ok, err := p.store.Get(ctx, p.rateKey)
	if err != nil || !ok {
		return ExchangeRate{}, false
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil || !validRate(rate) {
		return ExchangeRate{}, false
	}
	date, _, _ := p.store.Get(ctx, p.dateKey)
	return ExchangeRate{Value: rate, Date: date}, true
}

// save is best-effort: a failing store only costs a refetch.
func (p *RateProvider) save(ctx context.Context, rate ExchangeRate) {
	if err := p.store.Set(ctx, p.rateKey, strconv.FormatFloat(rate.Value, 'f', -1, 64)); err != nil {
		p.logger.Debug("caching exchange rate", err)
		return
	}
	if err := p.store.Set(ctx, p.dateKey, rate.Date); err != nil {
		p.logger.Debug("caching exchange rate date", err)
	}
}
