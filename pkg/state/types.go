package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrKeyRequired = errors.New("state: key is required")

var ErrClosed = errors.New("state: store closed")

// DefaultPrefix is prepended to store IDs when a Ref carries no prefix.
const DefaultPrefix = "filter-store-"

// KV is the persistence medium for filter value blobs.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Ref identifies the persisted blob of one filter store.
type Ref struct {
	Prefix  string
	StoreID string
}

// Identifier returns the deterministic storage key for r.
func (r Ref) Identifier() (string, error) {
	id := strings.TrimSpace(r.StoreID)
	if id == "" {
		return "", fmt.Errorf("%w: store id is empty", ErrKeyRequired)
	}
	prefix := r.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + id, nil
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrKeyRequired
	}
	return nil
}
