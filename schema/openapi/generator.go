// Package openapi describes a filter registry as the query parameters of an
// OpenAPI operation, using the same encoding as filters.ToQueryParams.
package openapi

import (
	"fmt"

	filters "github.com/goliatone/go-filters"
)

const jsonContentType = "application/json"

// Generator renders OpenAPI documents for filter registries. The zero value
// is not usable; call NewGenerator.
type Generator struct {
	config generatorConfig
}

// NewGenerator constructs an OpenAPI document generator.
func NewGenerator(opts ...GeneratorOption) Generator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return Generator{config: cfg}
}

// Generate is NewGenerator(opts...).Generate(fields).
func Generate(fields []filters.FieldDefinition, opts ...GeneratorOption) (map[string]any, error) {
	return NewGenerator(opts...).Generate(fields)
}

// Generate builds a document whose single operation takes one query
// parameter per field, in registry order.
func (g Generator) Generate(fields []filters.FieldDefinition) (map[string]any, error) {
	seen := map[string]bool{}
	for _, def := range fields {
		if err := filters.ValidateField(def); err != nil {
			return nil, fmt.Errorf("openapi: %w", err)
		}
		if seen[def.Name] {
			return nil, fmt.Errorf("openapi: duplicate filter parameter %q", def.Name)
		}
		seen[def.Name] = true
	}

	registry := newComponentRegistry()
	descriptors := filters.Describe(fields)
	parameters := make([]any, 0, len(descriptors))
	for _, desc := range descriptors {
		parameters = append(parameters, g.parameter(registry, desc))
	}
	return g.document(registry, parameters)
}

func (g Generator) parameter(registry *componentRegistry, desc filters.FieldDescriptor) map[string]any {
	param := map[string]any{
		"name":     desc.Name,
		"in":       "query",
		"required": desc.Required,
	}
	if desc.Label != "" {
		param["description"] = desc.Label
	}

	switch desc.Kind {
	case filters.KindText:
		schema := map[string]any{"type": "string"}
		if desc.ValidationPattern != "" {
			schema["pattern"] = desc.ValidationPattern
		}
		param["schema"] = schema
	case filters.KindOptions:
		param["content"] = jsonContent(map[string]any{
			"type":  "array",
			"items": optionItems(desc),
		})
	case filters.KindCompare:
		param["content"] = jsonContent(compareSchema(registry, desc.CompareType))
	}

	if g.config.extensions {
		param["x-filter"] = extension(desc)
	}
	return param
}

func jsonContent(schema map[string]any) map[string]any {
	return map[string]any{
		jsonContentType: map[string]any{"schema": schema},
	}
}

func optionItems(desc filters.FieldDescriptor) map[string]any {
	items := map[string]any{"type": "string"}
	if desc.Dynamic || len(desc.Options) == 0 {
		return items
	}
	values := make([]string, 0, len(desc.Options))
	for _, option := range desc.Options {
		values = append(values, option.Value)
	}
	items["enum"] = values
	return items
}

func compareSchema(registry *componentRegistry, compareType filters.CompareType) map[string]any {
	nullableNumber := func() map[string]any {
		return map[string]any{"type": "number", "nullable": true}
	}
	if compareType == filters.CompareTypeSingle {
		return registry.reference("FilterCompareSingle", map[string]any{
			"type": "object",
			"properties": map[string]any{
				"operator": map[string]any{
					"type": "string",
					"enum": append([]string(nil), filters.Operators...),
				},
				"value": nullableNumber(),
			},
			"required": []string{"operator", "value"},
		})
	}
	return registry.reference("FilterCompareRange", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"min": nullableNumber(),
			"max": nullableNumber(),
		},
		"required": []string{"min", "max"},
	})
}

func extension(desc filters.FieldDescriptor) map[string]any {
	ext := map[string]any{"kind": string(desc.Kind)}
	if len(desc.DependsOn) > 0 {
		ext["depends_on"] = desc.DependsOn
	}
	if desc.DisableWhenChildEmpty {
		ext["disable_when_child_empty"] = true
	}
	if len(desc.Excludes) > 0 {
		ext["excludes"] = desc.Excludes
	}
	if desc.ExclusionGroup != "" {
		ext["exclusion_group"] = desc.ExclusionGroup
	}
	if desc.Visibility != nil {
		visibility := map[string]any{"engine": desc.Visibility.Engine}
		if desc.Visibility.Expr != "" {
			visibility["expr"] = desc.Visibility.Expr
		}
		ext["visibility"] = visibility
	}
	if desc.CompareType != "" {
		ext["compare_type"] = string(desc.CompareType)
	}
	for key, value := range map[string]*float64{"min": desc.Min, "max": desc.Max, "step": desc.Step} {
		if value != nil {
			ext[key] = *value
		}
	}
	if desc.Dynamic {
		ext["dynamic"] = true
	}
	return ext
}
