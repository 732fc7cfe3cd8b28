package filters

import "encoding/json"

// FieldTrace explains the derived state of one field: which parents hide or
// disable it and which fields exclude it.
type FieldTrace struct {
	Field      string   `json:"field"`
	Known      bool     `json:"known"`
	Value      any      `json:"value,omitempty"`
	Visible    bool     `json:"visible"`
	Disabled   bool     `json:"disabled"`
	Excluded   bool     `json:"excluded"`
	HiddenBy   []string `json:"hidden_by,omitempty"`
	DisabledBy []string `json:"disabled_by,omitempty"`
	ExcludedBy []string `json:"excluded_by,omitempty"`
	Dependents []string `json:"dependents,omitempty"`
}

// Explain reports the reasons behind IsVisible, IsDisabled and IsExcluded
// for name.
func (s *Store) Explain(name string) FieldTrace {
	view := s.view(name)
	trace := FieldTrace{Field: name, Known: view.known}
	if value, ok := s.Value(name); ok {
		trace.Value = value.Native()
	}
	if view.known {
		trace.HiddenBy = s.hiddenBy(view)
		trace.DisabledBy = s.disabledBy(view)
		trace.Visible = len(trace.HiddenBy) == 0
		trace.Disabled = len(trace.DisabledBy) > 0
	}
	trace.ExcludedBy = s.excludedBy(name)
	trace.Excluded = len(trace.ExcludedBy) > 0
	for _, def := range s.DependentsOf(name) {
		trace.Dependents = append(trace.Dependents, def.Name)
	}
	return trace
}

// ToJSON serialises the trace for logging or transport.
func (t FieldTrace) ToJSON() ([]byte, error) {
	type alias FieldTrace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a payload produced by ToJSON.
func TraceFromJSON(payload []byte) (FieldTrace, error) {
	type alias FieldTrace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return FieldTrace{}, err
	}
	return FieldTrace(trace), nil
}
