package finance

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/bolsa/core"
)

const currencyPreferenceKey = "financeCurrency"

// PreferenceStore persists the display currency. USD is the default.
type PreferenceStore struct {
	store core.KVStore
	local Currency
}

func NewPreferenceStore(store core.KVStore, local Currency) *PreferenceStore {
	if local == "" {
		local = DefaultLocalCurrency
	}
	return &PreferenceStore{store: store, local: local}
}

// Get never fails: an absent, unreadable or unknown preference reads as USD.
func (ps *PreferenceStore) Get(ctx context.Context) Currency {
	raw, ok, err := ps.store.Get(ctx, currencyPreferenceKey)
	if err != nil || !ok {
		return USD
	}
	c, err := ParseCurrency(raw, ps.local)
	if err != nil {
		return USD
	}
	return c
}

func (ps *PreferenceStore) Set(ctx context.Context, c Currency) error {
	c, err := ParseCurrency(string(c), ps.local)
	if err != nil {
		return err
	}
	if err := ps.store.Set(ctx, currencyPreferenceKey, string(c)); err != nil {
		return errors.Wrap(err, "saving currency preference")
	}
	return nil
}
