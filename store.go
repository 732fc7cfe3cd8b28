package filters

import (
	"sync"

	"github.com/goliatone/go-filters/pkg/activity"
	"github.com/goliatone/go-filters/pkg/state"
)

const (
	// DefaultStoreID names the store used when callers do not pick one.
	DefaultStoreID = "default"
	// DefaultStorageKeyPrefix prefixes the persisted blob key of every store.
	DefaultStorageKeyPrefix = state.DefaultPrefix
)

// Store manages the values of one set of filter fields: one-way depends-on
// gating, exclusion lists and exclusion groups. Mutations are synchronous and
// their effects are visible to the next call. A Store is safe for concurrent
// use; visibility predicates and activity hooks run outside its lock.
type Store struct {
	id      string
	cfg     storeConfig
	emitter *activity.Emitter

	mu          sync.RWMutex
	fields      []FieldDefinition
	index       map[string]int
	values      map[string]Value
	lastApplied []AppliedFilter
	warnings    []ConfigurationWarning
}

// NewStore constructs an empty store. An empty id selects DefaultStoreID.
func NewStore(id string, opts ...Option) *Store {
	if id == "" {
		id = DefaultStoreID
	}
	cfg := applyOptions(opts)
	return &Store{
		id:      id,
		cfg:     cfg,
		emitter: newEmitter(cfg),
		index:   map[string]int{},
		values:  map[string]Value{},
	}
}

// ID returns the store identifier.
func (s *Store) ID() string {
	return s.id
}

// Initialize replaces the field registry and clears every value. The last
// applied snapshot is kept. Misconfigurations (duplicate names, unknown
// parents, dependency cycles, invalid definitions) are logged and returned;
// they never prevent the registry from being installed. Every named
// definition stays in registry order; a duplicated name resolves to its
// first definition and the later ones only appear in Fields and Apply.
func (s *Store) Initialize(fields []FieldDefinition) []ConfigurationWarning {
	installed, index, warnings := analyzeFields(fields)

	s.mu.Lock()
	s.fields = installed
	s.index = index
	s.values = map[string]Value{}
	s.warnings = warnings
	s.mu.Unlock()

	for _, w := range warnings {
		s.cfg.logger.Warn("filter registry misconfigured",
			"store", s.id,
			"kind", string(w.Kind),
			"field", w.Field,
			"path", w.Path,
			"detail", w.Detail,
		)
	}

	s.emit(activity.BuildFiltersInitializedEvent(activity.FilterEventInput{
		StoreID:  s.id,
		Fields:   len(installed),
		Warnings: len(warnings),
	}))
	return append([]ConfigurationWarning(nil), warnings...)
}

// Warnings returns the warnings reported by the last Initialize.
func (s *Store) Warnings() []ConfigurationWarning {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ConfigurationWarning(nil), s.warnings...)
}

// Fields returns a copy of the installed registry in registry order,
// duplicates included.
func (s *Store) Fields() []FieldDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]FieldDefinition, len(s.fields))
	for i, def := range s.fields {
		out[i] = cloneField(def)
	}
	return out
}

// Field returns the definition registered under name.
func (s *Store) Field(name string) (FieldDefinition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.index[name]
	if !ok {
		return FieldDefinition{}, false
	}
	return cloneField(s.fields[idx]), true
}

// Value returns the current value of name; ok is false when absent.
func (s *Store) Value(name string) (Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

// Values returns a copy of the current value map.
func (s *Store) Values() map[string]Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneValues(s.values)
}

// LastApplied returns the snapshot captured by the last Apply, or nil.
func (s *Store) LastApplied() []AppliedFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneApplied(s.lastApplied)
}

// SetValue stores value under name and propagates side effects: a non-empty
// value clears the fields it excludes and the other members of its
// exclusion group; an empty value clears direct dependents that set
// DisableWhenChildEmpty. Propagation is single-level. A nil value behaves
// like ClearValue. Unknown names are ignored.
func (s *Store) SetValue(name string, value Value) {
	if value == nil {
		s.ClearValue(name)
		return
	}

	s.mu.Lock()
	idx, ok := s.index[name]
	if !ok {
		s.mu.Unlock()
		s.cfg.logger.Warn("ignoring value for unknown filter field", "store", s.id, "field", name)
		return
	}
	def := s.fields[idx]
	previous := s.values[name]
	s.values[name] = cloneValue(value)

	var cleared []string
	if IsEmpty(value) {
		cleared = s.clearDependentsLocked(name)
	} else {
		cleared = s.applyExclusionsLocked(s.values, def)
	}
	s.mu.Unlock()

	s.emit(activity.BuildFilterValueSetEvent(activity.FilterEventInput{
		StoreID:  s.id,
		Field:    name,
		OldValue: nativeOf(previous),
		NewValue: value.Native(),
		Cleared:  cleared,
	}))
}

// ClearValue removes the value of name and clears direct dependents that set
// DisableWhenChildEmpty.
func (s *Store) ClearValue(name string) {
	s.mu.Lock()
	if _, ok := s.index[name]; !ok {
		s.mu.Unlock()
		s.cfg.logger.Warn("ignoring clear for unknown filter field", "store", s.id, "field", name)
		return
	}
	previous, had := s.values[name]
	delete(s.values, name)
	cleared := s.clearDependentsLocked(name)
	s.mu.Unlock()

	if !had && len(cleared) == 0 {
		return
	}
	s.emit(activity.BuildFilterValueClearedEvent(activity.FilterEventInput{
		StoreID:  s.id,
		Field:    name,
		OldValue: nativeOf(previous),
		Cleared:  cleared,
	}))
}

// SetAllValues replaces every value at once (bulk hydrate). Entries are
// scanned in order; each non-empty entry drops the fields it excludes and the
// other members of its exclusion group, including entries that come later.
// Dependency clearing is not applied, so a dependent hydrated alongside an
// empty parent is kept. Unknown names and nil values are dropped.
func (s *Store) SetAllValues(entries []Entry) {
	s.setAll(entries, "")
}

// SetAllValuesMap is SetAllValues for a map; entries are scanned in
// registry order.
func (s *Store) SetAllValuesMap(values map[string]Value) {
	s.setAll(s.entriesInRegistryOrder(values), "")
}

func (s *Store) setAll(entries []Entry, source string) {
	s.mu.Lock()
	next := make(map[string]Value, len(entries))
	dropped := map[string]bool{}
	for _, entry := range entries {
		idx, ok := s.index[entry.Name]
		if !ok || entry.Value == nil || dropped[entry.Name] {
			continue
		}
		next[entry.Name] = cloneValue(entry.Value)
		if IsEmpty(entry.Value) {
			continue
		}
		for _, victim := range s.exclusionTargetsLocked(s.fields[idx]) {
			delete(next, victim)
			dropped[victim] = true
		}
	}
	s.values = next
	count := len(next)
	s.mu.Unlock()

	s.emit(activity.BuildFiltersHydratedEvent(activity.FilterEventInput{
		StoreID:  s.id,
		Source:   source,
		Fields:   count,
		Metadata: map[string]any{"entries": len(entries)},
	}))
}

func (s *Store) entriesInRegistryOrder(values map[string]Value) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]Entry, 0, len(values))
	for i, def := range s.fields {
		if !s.primaryLocked(i) {
			continue
		}
		if v, ok := values[def.Name]; ok {
			entries = append(entries, Entry{Name: def.Name, Value: v})
		}
	}
	return entries
}

// Apply captures one entry per registered field, in registry order, with
// nil for absent values. The snapshot is stored as LastApplied; later
// mutations never alter it.
func (s *Store) Apply() []AppliedFilter {
	s.mu.Lock()
	applied := make([]AppliedFilter, len(s.fields))
	for i, def := range s.fields {
		applied[i] = AppliedFilter{Name: def.Name, Value: cloneValue(s.values[def.Name])}
	}
	s.lastApplied = applied
	out := cloneApplied(applied)
	s.mu.Unlock()

	s.emit(activity.BuildFiltersAppliedEvent(activity.FilterEventInput{
		StoreID:  s.id,
		Fields:   len(out),
		Metadata: map[string]any{"params": ToQueryParams(out)},
	}))
	return out
}

// Reset empties the values and forgets the last applied snapshot.
func (s *Store) Reset() {
	s.mu.Lock()
	s.values = map[string]Value{}
	s.lastApplied = nil
	fields := len(s.fields)
	s.mu.Unlock()

	s.emit(activity.BuildFiltersResetEvent(activity.FilterEventInput{
		StoreID: s.id,
		Fields:  fields,
	}))
}

// applyExclusionsLocked deletes from values every field def excludes and
// every other member of def's group, returning the names that held a value.
func (s *Store) applyExclusionsLocked(values map[string]Value, def FieldDefinition) []string {
	var cleared []string
	for _, victim := range s.exclusionTargetsLocked(def) {
		if _, ok := values[victim]; ok {
			cleared = append(cleared, victim)
			delete(values, victim)
		}
	}
	return cleared
}

// exclusionTargetsLocked lists, in registry order, the fields cleared when
// def becomes non-empty: its Excludes first, then its group peers.
func (s *Store) exclusionTargetsLocked(def FieldDefinition) []string {
	var targets []string
	seen := map[string]bool{def.Name: true}
	for _, name := range def.Excludes {
		if seen[name] {
			continue
		}
		if _, known := s.index[name]; !known {
			continue
		}
		seen[name] = true
		targets = append(targets, name)
	}
	if def.ExclusionGroup != "" {
		for i, peer := range s.fields {
			if !s.primaryLocked(i) || seen[peer.Name] || peer.ExclusionGroup != def.ExclusionGroup {
				continue
			}
			seen[peer.Name] = true
			targets = append(targets, peer.Name)
		}
	}
	return targets
}

// clearDependentsLocked deletes direct dependents of parent that disable
// when it is empty. Callers guarantee parent is empty or absent.
func (s *Store) clearDependentsLocked(parent string) []string {
	var cleared []string
	for i, def := range s.fields {
		if !s.primaryLocked(i) || def.Name == parent || !def.DisableWhenChildEmpty || !def.dependsOn(parent) {
			continue
		}
		if _, ok := s.values[def.Name]; ok {
			delete(s.values, def.Name)
			cleared = append(cleared, def.Name)
		}
	}
	return cleared
}

// primaryLocked reports whether the definition at position i is the one its
// name resolves to.
func (s *Store) primaryLocked(i int) bool {
	return s.index[s.fields[i].Name] == i
}

func cloneValues(in map[string]Value) map[string]Value {
	out := make(map[string]Value, len(in))
	for name, v := range in {
		out[name] = cloneValue(v)
	}
	return out
}

func cloneApplied(in []AppliedFilter) []AppliedFilter {
	if in == nil {
		return nil
	}
	out := make([]AppliedFilter, len(in))
	for i, entry := range in {
		out[i] = AppliedFilter{Name: entry.Name, Value: cloneValue(entry.Value)}
	}
	return out
}
