package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-filters/pkg/state"
	"github.com/goliatone/go-filters/pkg/state/redis"
	"github.com/goliatone/go-filters/pkg/state/sqlite"
	backend "github.com/redis/go-redis/v9"
)

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// openStorage resolves a --store value: "memory", "sqlite:<path>" or a
// redis:// URL. An empty value means no storage.
func openStorage(uri string) (state.KV, func() error, error) {
	noop := func() error { return nil }
	uri = strings.TrimSpace(uri)
	switch {
	case uri == "":
		return nil, noop, nil
	case uri == "memory":
		return state.NewMemoryStore(), noop, nil
	case strings.HasPrefix(uri, "sqlite:"):
		store, err := sqlite.NewStore(strings.TrimPrefix(uri, "sqlite:"))
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case strings.HasPrefix(uri, "redis://"), strings.HasPrefix(uri, "rediss://"):
		options, err := backend.ParseURL(uri)
		if err != nil {
			return nil, noop, fmt.Errorf("invalid redis url: %w", err)
		}
		store := redis.NewFromClient(backend.NewClient(options))
		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("unsupported --store %q (use memory, sqlite:<path> or redis://)", uri)
	}
}

func formatValue(v any) string {
	if v == nil {
		return "-"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
