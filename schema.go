package filters

// VisibilityDescriptor names the predicate gating a field. Engine is "func"
// for predicates built in Go.
type VisibilityDescriptor struct {
	Engine string `json:"engine"`
	Expr   string `json:"expr,omitempty"`
}

// FieldDescriptor is the tooling view of a field definition: its static
// metadata plus the relations derived from the rest of the registry.
type FieldDescriptor struct {
	Name                  string                `json:"name"`
	Kind                  FieldKind             `json:"kind"`
	Label                 string                `json:"label,omitempty"`
	Placeholder           string                `json:"placeholder,omitempty"`
	DependsOn             []string              `json:"depends_on,omitempty"`
	Dependents            []string              `json:"dependents,omitempty"`
	DisableWhenChildEmpty bool                  `json:"disable_when_child_empty,omitempty"`
	Excludes              []string              `json:"excludes,omitempty"`
	ExcludedBy            []string              `json:"excluded_by,omitempty"`
	ExclusionGroup        string                `json:"exclusion_group,omitempty"`
	Visibility            *VisibilityDescriptor `json:"visibility,omitempty"`
	CompareType           CompareType           `json:"compare_type,omitempty"`
	Min                   *float64              `json:"min,omitempty"`
	Max                   *float64              `json:"max,omitempty"`
	Step                  *float64              `json:"step,omitempty"`
	Required              bool                  `json:"required,omitempty"`
	ValidationPattern     string                `json:"validation_pattern,omitempty"`
	Options               []StaticOption        `json:"options,omitempty"`
	Dynamic               bool                  `json:"dynamic,omitempty"`
	Default               any                   `json:"default,omitempty"`
}

// Describe returns one descriptor per field, in the given order.
func Describe(fields []FieldDefinition) []FieldDescriptor {
	out := make([]FieldDescriptor, 0, len(fields))
	for _, def := range fields {
		desc := FieldDescriptor{
			Name:                  def.Name,
			Kind:                  def.Kind,
			Label:                 def.Label,
			Placeholder:           def.Placeholder,
			DependsOn:             cloneStrings(def.DependsOn),
			DisableWhenChildEmpty: def.DisableWhenChildEmpty,
			Excludes:              cloneStrings(def.Excludes),
			ExclusionGroup:        def.ExclusionGroup,
			Visibility:            describePredicate(def.Visibility),
			CompareType:           def.CompareType,
			Min:                   cloneFloat(def.MinValue),
			Max:                   cloneFloat(def.MaxValue),
			Step:                  cloneFloat(def.Step),
			Required:              def.Required,
			ValidationPattern:     def.ValidationPattern,
			Dynamic:               def.Dynamic,
			Default:               nativeOf(DefaultValue(def)),
		}
		if def.StaticOptions != nil {
			desc.Options = append([]StaticOption(nil), def.StaticOptions...)
		}
		for _, other := range fields {
			if other.Name == def.Name {
				continue
			}
			if other.dependsOn(def.Name) && !containsName(desc.Dependents, other.Name) {
				desc.Dependents = append(desc.Dependents, other.Name)
			}
			if other.excludes(def.Name) && !containsName(desc.ExcludedBy, other.Name) {
				desc.ExcludedBy = append(desc.ExcludedBy, other.Name)
			}
		}
		out = append(out, desc)
	}
	return out
}

// Describe returns the descriptors of the installed registry.
func (s *Store) Describe() []FieldDescriptor {
	return Describe(s.Fields())
}

func describePredicate(p VisibilityPredicate) *VisibilityDescriptor {
	if p == nil {
		return nil
	}
	if described, ok := p.(ExpressionDescriber); ok {
		return &VisibilityDescriptor{Engine: described.Engine(), Expr: described.Expression()}
	}
	return &VisibilityDescriptor{Engine: "func"}
}
