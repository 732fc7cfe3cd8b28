package filters

import "fmt"

// DetectCycles reports every depends-on cycle reachable in fields, walking
// roots in registry order. Each cycle is returned as a path that starts and
// ends with the same field, e.g. [a b a]. A self-dependency yields [a a].
// Parents missing from fields are skipped.
func DetectCycles(fields []FieldDefinition) [][]string {
	index, _ := indexFields(fields)
	return detectCycles(fields, index)
}

const (
	white = iota
	gray
	black
)

func detectCycles(fields []FieldDefinition, index map[string]int) [][]string {
	color := make(map[string]int, len(index))
	var stack []string
	var cycles [][]string

	var visit func(name string)
	visit = func(name string) {
		color[name] = gray
		stack = append(stack, name)
		for _, parent := range fields[index[name]].DependsOn {
			if _, known := index[parent]; !known {
				continue
			}
			switch color[parent] {
			case white:
				visit(parent)
			case gray:
				cycles = append(cycles, cyclePath(stack, parent))
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
	}

	for i, def := range fields {
		if index[def.Name] != i {
			continue
		}
		if color[def.Name] == white {
			visit(def.Name)
		}
	}
	return cycles
}

func cyclePath(stack []string, start string) []string {
	from := len(stack) - 1
	for i, name := range stack {
		if name == start {
			from = i
			break
		}
	}
	path := make([]string, 0, len(stack)-from+1)
	path = append(path, stack[from:]...)
	return append(path, start)
}

// indexFields maps each name to the position of its first definition and
// reports later duplicates.
func indexFields(fields []FieldDefinition) (map[string]int, []ConfigurationWarning) {
	index := make(map[string]int, len(fields))
	var warnings []ConfigurationWarning
	for i, def := range fields {
		if _, exists := index[def.Name]; exists {
			warnings = append(warnings, ConfigurationWarning{
				Kind:   WarningDuplicateField,
				Field:  def.Name,
				Detail: fmt.Sprintf("definition at position %d shadowed by the first", i),
			})
			continue
		}
		index[def.Name] = i
	}
	return index, warnings
}

// analyzeFields validates a registry and returns the definitions to install,
// the index of each name's first definition, and every configuration warning
// in a stable order: invalid fields, duplicates, dangling references, then
// cycles. Invalid definitions and later duplicates stay installed so Apply
// still reports them; only nameless definitions are dropped.
func analyzeFields(fields []FieldDefinition) ([]FieldDefinition, map[string]int, []ConfigurationWarning) {
	var warnings []ConfigurationWarning

	installed := make([]FieldDefinition, 0, len(fields))
	for _, def := range fields {
		if err := ValidateField(def); err != nil {
			warnings = append(warnings, ConfigurationWarning{
				Kind:   WarningInvalidField,
				Field:  def.Name,
				Detail: err.Error(),
			})
		}
		if def.Name == "" {
			continue
		}
		installed = append(installed, cloneField(def))
	}

	index, duplicates := indexFields(installed)
	warnings = append(warnings, duplicates...)

	for i, def := range installed {
		if index[def.Name] != i {
			continue
		}
		for _, parent := range def.DependsOn {
			if _, ok := index[parent]; !ok {
				warnings = append(warnings, ConfigurationWarning{
					Kind:   WarningUnknownDependency,
					Field:  def.Name,
					Detail: fmt.Sprintf("depends on unknown field %q", parent),
				})
			}
		}
		for _, excluded := range def.Excludes {
			if _, ok := index[excluded]; !ok {
				warnings = append(warnings, ConfigurationWarning{
					Kind:   WarningUnknownExclusion,
					Field:  def.Name,
					Detail: fmt.Sprintf("excludes unknown field %q", excluded),
				})
			}
		}
	}

	for _, cycle := range detectCycles(installed, index) {
		warnings = append(warnings, ConfigurationWarning{
			Kind:  WarningCycle,
			Field: cycle[0],
			Path:  cycle,
		})
	}
	return installed, index, warnings
}

// ValidateField checks the structural requirements of a single definition.
func ValidateField(def FieldDefinition) error {
	if def.Name == "" {
		return ErrFieldNameRequired
	}
	if !def.Kind.Valid() {
		return fmt.Errorf("%w: %q for field %q", ErrInvalidKind, def.Kind, def.Name)
	}
	if def.CompareType != "" && def.CompareType != CompareTypeRange && def.CompareType != CompareTypeSingle {
		return fmt.Errorf("%w: compare type %q for field %q", ErrInvalidKind, def.CompareType, def.Name)
	}
	return nil
}
