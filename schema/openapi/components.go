package openapi

import (
	"fmt"
	"regexp"
)

// componentRegistry collects the schemas published under
// components/schemas. Identical schemas registered under the same hint share
// one entry; different schemas get suffixed names.
type componentRegistry struct {
	entries map[string]map[string]any
	order   []string
}

func newComponentRegistry() *componentRegistry {
	return &componentRegistry{
		entries: map[string]map[string]any{},
	}
}

func (r *componentRegistry) reference(nameHint string, schema map[string]any) map[string]any {
	name := r.register(nameHint, schema)
	return map[string]any{"$ref": fmt.Sprintf("#/components/schemas/%s", name)}
}

func (r *componentRegistry) register(nameHint string, schema map[string]any) string {
	safe := sanitizeComponentName(nameHint)
	if safe == "" {
		safe = "Schema"
	}
	candidate := safe
	for suffix := 1; ; suffix++ {
		existing, ok := r.entries[candidate]
		if !ok {
			r.entries[candidate] = schema
			r.order = append(r.order, candidate)
			return candidate
		}
		if fmt.Sprint(existing) == fmt.Sprint(schema) {
			return candidate
		}
		candidate = fmt.Sprintf("%s%d", safe, suffix)
	}
}

func (r *componentRegistry) componentsMap() map[string]any {
	if len(r.entries) == 0 {
		return nil
	}
	out := make(map[string]any, len(r.entries))
	for name, schema := range r.entries {
		out[name] = schema
	}
	return out
}

var componentNameRegexp = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

func sanitizeComponentName(name string) string {
	name = componentNameRegexp.ReplaceAllString(name, "_")
	name = trimUnderscores(name)
	if name == "" {
		return ""
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

func trimUnderscores(input string) string {
	start := 0
	for start < len(input) && input[start] == '_' {
		start++
	}
	end := len(input)
	for end > start && input[end-1] == '_' {
		end--
	}
	return input[start:end]
}
