package filters

import (
	"net/url"
	"sort"
)

// ToQueryParams serialises every non-empty applied value. Empty and nil
// values are omitted, as are values Serialize cannot encode.
func ToQueryParams(applied []AppliedFilter) map[string]string {
	params := make(map[string]string, len(applied))
	for _, entry := range applied {
		if IsEmpty(entry.Value) {
			continue
		}
		serialized, ok := Serialize(entry.Value)
		if !ok {
			continue
		}
		params[entry.Name] = serialized
	}
	return params
}

// EncodeQuery renders applied as a URL query string with keys sorted.
func EncodeQuery(applied []AppliedFilter) string {
	params := ToQueryParams(applied)
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	values := url.Values{}
	for _, key := range keys {
		values.Set(key, params[key])
	}
	return values.Encode()
}

// QueryParams serialises the current values, in the same form as
// ToQueryParams(s.Apply()) but without capturing a snapshot.
func (s *Store) QueryParams() map[string]string {
	s.mu.RLock()
	current := make([]AppliedFilter, 0, len(s.fields))
	for i, def := range s.fields {
		if !s.primaryLocked(i) {
			continue
		}
		current = append(current, AppliedFilter{Name: def.Name, Value: s.values[def.Name]})
	}
	s.mu.RUnlock()
	return ToQueryParams(current)
}

// HydrateFromQueryParams replaces the values with params. Only registered
// names are read; each value is deserialised, coerced to the field's kind
// and bulk-hydrated in registry order (see SetAllValues).
func (s *Store) HydrateFromQueryParams(params map[string]string) {
	s.setAll(s.decodeParams(func(name string) (string, bool) {
		raw, ok := params[name]
		return raw, ok
	}), "query")
}

// HydrateFromURLValues is HydrateFromQueryParams for url.Values; the first
// value of each key is used.
func (s *Store) HydrateFromURLValues(values url.Values) {
	s.setAll(s.decodeParams(func(name string) (string, bool) {
		list, ok := values[name]
		if !ok || len(list) == 0 {
			return "", false
		}
		return list[0], true
	}), "query")
}

// HydrateFromQuery parses a raw query string and hydrates from it. Malformed
// escapes are skipped by url.ParseQuery; the keys it could decode are kept.
func (s *Store) HydrateFromQuery(rawQuery string) {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		s.cfg.logger.Warn("malformed filter query", "store", s.id, "err", err)
	}
	s.HydrateFromURLValues(values)
}

func (s *Store) decodeParams(lookup func(name string) (string, bool)) []Entry {
	s.mu.RLock()
	fields := make([]FieldDefinition, 0, len(s.index))
	for i, def := range s.fields {
		if s.primaryLocked(i) {
			fields = append(fields, def)
		}
	}
	s.mu.RUnlock()

	entries := make([]Entry, 0, len(fields))
	for _, def := range fields {
		raw, ok := lookup(def.Name)
		if !ok {
			continue
		}
		value := CoerceValue(def.Kind, Deserialize(raw))
		if value == nil {
			continue
		}
		entries = append(entries, Entry{Name: def.Name, Value: value})
	}
	return entries
}
