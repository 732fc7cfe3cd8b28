package filters

import "time"

type parentView struct {
	name  string
	known bool
	value Value
}

type fieldView struct {
	def     FieldDefinition
	known   bool
	parents []parentView
}

// view snapshots name and its parents' values under the read lock so
// predicates can run without holding it.
func (s *Store) view(name string) fieldView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.index[name]
	if !ok {
		return fieldView{def: FieldDefinition{Name: name}}
	}
	def := s.fields[idx]
	parents := make([]parentView, 0, len(def.DependsOn))
	for _, parent := range def.DependsOn {
		_, known := s.index[parent]
		parents = append(parents, parentView{
			name:  parent,
			known: known,
			value: cloneValue(s.values[parent]),
		})
	}
	return fieldView{def: def, known: true, parents: parents}
}

// IsVisible reports whether name should be shown. Unknown fields are hidden.
// A field with parents is hidden when a parent is missing from the registry
// or its visibility predicate rejects a parent's current value.
func (s *Store) IsVisible(name string) bool {
	view := s.view(name)
	return view.known && len(s.hiddenBy(view)) == 0
}

// IsDisabled reports whether name should be disabled: a parent is empty and
// the field sets DisableWhenChildEmpty, or its visibility predicate rejects
// a parent's current value.
func (s *Store) IsDisabled(name string) bool {
	return len(s.disabledBy(s.view(name))) > 0
}

// IsExcluded reports whether another non-empty field excludes name, either
// through its Excludes list or by sharing name's exclusion group.
func (s *Store) IsExcluded(name string) bool {
	return len(s.excludedBy(name)) > 0
}

// DependentsOf returns the direct dependents of name in registry order.
func (s *Store) DependentsOf(name string) []FieldDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []FieldDefinition
	for i, def := range s.fields {
		if s.primaryLocked(i) && def.dependsOn(name) {
			out = append(out, cloneField(def))
		}
	}
	return out
}

// VisibleFields returns the visible fields in registry order.
func (s *Store) VisibleFields() []FieldDefinition {
	var out []FieldDefinition
	seen := map[string]bool{}
	for _, def := range s.Fields() {
		if seen[def.Name] {
			continue
		}
		seen[def.Name] = true
		if s.IsVisible(def.Name) {
			out = append(out, def)
		}
	}
	return out
}

func (s *Store) hiddenBy(view fieldView) []string {
	if !view.known {
		return nil
	}
	var reasons []string
	for _, parent := range view.parents {
		if !parent.known {
			reasons = append(reasons, parent.name)
			continue
		}
		if !s.predicateAccepts(view.def, parent) {
			reasons = append(reasons, parent.name)
		}
	}
	return reasons
}

func (s *Store) disabledBy(view fieldView) []string {
	if !view.known {
		return nil
	}
	var reasons []string
	for _, parent := range view.parents {
		if view.def.DisableWhenChildEmpty && IsEmpty(parent.value) {
			reasons = append(reasons, parent.name)
			continue
		}
		if parent.known && !s.predicateAccepts(view.def, parent) {
			reasons = append(reasons, parent.name)
		}
	}
	return reasons
}

func (s *Store) excludedBy(name string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	group := ""
	if idx, ok := s.index[name]; ok {
		group = s.fields[idx].ExclusionGroup
	}
	var reasons []string
	for i, def := range s.fields {
		if !s.primaryLocked(i) || def.Name == name || IsEmpty(s.values[def.Name]) {
			continue
		}
		if def.excludes(name) || (group != "" && def.ExclusionGroup == group) {
			reasons = append(reasons, def.Name)
		}
	}
	return reasons
}

// predicateAccepts runs def's visibility predicate against one parent value.
// Evaluation errors are logged and count as a rejection.
func (s *Store) predicateAccepts(def FieldDefinition, parent parentView) bool {
	if def.Visibility == nil {
		return true
	}
	engine, expression := "func", ""
	if described, ok := def.Visibility.(ExpressionDescriber); ok {
		engine, expression = described.Engine(), described.Expression()
	}

	start := time.Now()
	visible, err := def.Visibility.Visible(parent.value)
	s.cfg.evalLogger.LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expression,
		Field:    def.Name,
		Parent:   parent.name,
		Duration: time.Since(start),
		Visible:  visible && err == nil,
		Err:      err,
	})
	if err != nil {
		return false
	}
	return visible
}
