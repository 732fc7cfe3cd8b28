package filters

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-filters/pkg/state"
	"github.com/tidwall/gjson"
)

var errNoStorage = errors.New("filters: no storage configured")

// StorageKey returns the key the store's blob is persisted under.
func (s *Store) StorageKey() (string, error) {
	return state.Ref{Prefix: s.cfg.storagePrefix, StoreID: s.id}.Identifier()
}

// Persist writes the current values as one JSON object. Failures are logged
// and leave memory untouched.
func (s *Store) Persist(ctx context.Context) {
	if err := s.persist(ctx); err != nil {
		s.cfg.logger.Error("persist filter values failed", "store", s.id, "err", err)
	}
}

func (s *Store) persist(ctx context.Context) error {
	if s.cfg.storage == nil {
		return errNoStorage
	}
	key, err := s.StorageKey()
	if err != nil {
		return err
	}
	blob, err := s.MarshalValues()
	if err != nil {
		return err
	}
	return s.cfg.storage.Set(ctx, key, string(blob))
}

// Restore bulk-hydrates the values from the persisted blob, walking its keys
// in document order. It reports false when nothing was restored: no storage,
// a missing blob, a read failure or a corrupt payload.
func (s *Store) Restore(ctx context.Context) bool {
	if s.cfg.storage == nil {
		s.cfg.logger.Error("restore filter values failed", "store", s.id, "err", errNoStorage)
		return false
	}
	key, err := s.StorageKey()
	if err != nil {
		s.cfg.logger.Error("restore filter values failed", "store", s.id, "err", err)
		return false
	}
	blob, ok, err := s.cfg.storage.Get(ctx, key)
	if err != nil {
		s.cfg.logger.Error("restore filter values failed", "store", s.id, "key", key, "err", err)
		return false
	}
	if !ok {
		return false
	}
	entries, err := s.decodeBlob(blob)
	if err != nil {
		s.cfg.logger.Warn("ignoring corrupt persisted filter values", "store", s.id, "key", key, "err", err)
		return false
	}
	s.setAll(entries, "storage")
	return true
}

// ClearPersisted deletes the persisted blob. Failures are logged.
func (s *Store) ClearPersisted(ctx context.Context) {
	if s.cfg.storage == nil {
		s.cfg.logger.Error("clear persisted filter values failed", "store", s.id, "err", errNoStorage)
		return
	}
	key, err := s.StorageKey()
	if err == nil {
		err = s.cfg.storage.Delete(ctx, key)
	}
	if err != nil {
		s.cfg.logger.Error("clear persisted filter values failed", "store", s.id, "err", err)
	}
}

// MarshalValues encodes the current values as a JSON object with keys in
// registry order. Values that cannot be encoded are skipped.
func (s *Store) MarshalValues() ([]byte, error) {
	s.mu.RLock()
	type pair struct {
		name  string
		value Value
	}
	pairs := make([]pair, 0, len(s.values))
	for i, def := range s.fields {
		if !s.primaryLocked(i) {
			continue
		}
		if v, ok := s.values[def.Name]; ok {
			pairs = append(pairs, pair{name: def.Name, value: cloneValue(v)})
		}
	}
	s.mu.RUnlock()

	var buf bytes.Buffer
	buf.WriteByte('{')
	written := 0
	for _, p := range pairs {
		data, err := marshalValue(p.value)
		if err != nil {
			s.cfg.logger.Warn("skipping unserialisable filter value", "store", s.id, "field", p.name, "err", err)
			continue
		}
		name, err := marshalJSON(p.name)
		if err != nil {
			return nil, err
		}
		if written > 0 {
			buf.WriteByte(',')
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(data)
		written++
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalValues bulk-hydrates from a blob produced by MarshalValues.
func (s *Store) UnmarshalValues(data []byte) error {
	entries, err := s.decodeBlob(string(data))
	if err != nil {
		return err
	}
	s.setAll(entries, "blob")
	return nil
}

func (s *Store) decodeBlob(blob string) ([]Entry, error) {
	if !gjson.Valid(blob) {
		return nil, fmt.Errorf("filters: persisted values are not valid JSON")
	}
	parsed := gjson.Parse(blob)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("filters: persisted values must be a JSON object, got %s", parsed.Type)
	}

	s.mu.RLock()
	kinds := make(map[string]FieldKind, len(s.fields))
	for i, def := range s.fields {
		if s.primaryLocked(i) {
			kinds[def.Name] = def.Kind
		}
	}
	s.mu.RUnlock()

	var entries []Entry
	parsed.ForEach(func(key, value gjson.Result) bool {
		kind, ok := kinds[key.String()]
		if !ok {
			return true
		}
		if v := CoerceValue(kind, value.Value()); v != nil {
			entries = append(entries, Entry{Name: key.String(), Value: v})
		}
		return true
	})
	return entries, nil
}
