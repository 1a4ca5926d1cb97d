package kvstore

import (
	"context"
	"sync"
	"testing"
)

// deleter is a core.KVStore that can also drop keys.
type deleter interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// testStoreContract checks the behaviour every backend shares.
func testStoreContract(t *testing.T, s deleter) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("Get(missing) = ok %v, err %v; want false, nil", ok, err)
	}
	if err := s.Set(ctx, "financeCurrency", "MZN"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if val, ok, _ := s.Get(ctx, "financeCurrency"); !ok || val != "MZN" {
		t.Errorf("Get() = %q, %v; want MZN, true", val, ok)
	}
	if err := s.Set(ctx, "financeCurrency", "USD"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if val, _, _ := s.Get(ctx, "financeCurrency"); val != "USD" {
		t.Errorf("Get() after overwrite = %q; want USD", val)
	}
	if err := s.Delete(ctx, "financeCurrency"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := s.Get(ctx, "financeCurrency"); ok {
		t.Error("Get() after Delete() found the key")
	}
}

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, NewMemoryStore())
}

func TestMemoryStore_concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Set(ctx, "finance_usd_mzn_rate", "63.6")
			_, _, _ = s.Get(ctx, "finance_usd_mzn_rate")
		}()
	}
	wg.Wait()

	if val, _, _ := s.Get(ctx, "finance_usd_mzn_rate"); val != "63.6" {
		t.Errorf("Get() = %q; want 63.6", val)
	}
}
