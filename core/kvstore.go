package core

import "context"

// KVStore is a small persistent string store, the server side of the browser's local storage.
// A missing key is not an error: Get returns ok=false.
type KVStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
