package filters

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-filters/internal/hydrate"
	"github.com/goliatone/go-filters/internal/layering"
	"gopkg.in/yaml.v3"
)

// FieldSpec is the file representation of a FieldDefinition.
type FieldSpec struct {
	Name                  string         `json:"name"`
	Kind                  string         `json:"kind"`
	Label                 string         `json:"label,omitempty"`
	Placeholder           string         `json:"placeholder,omitempty"`
	DependsOn             []string       `json:"depends_on,omitempty"`
	DisableWhenChildEmpty bool           `json:"disable_when_child_empty,omitempty"`
	Excludes              []string       `json:"excludes,omitempty"`
	ExclusionGroup        string         `json:"exclusion_group,omitempty"`
	Visibility            *PredicateSpec `json:"visibility,omitempty"`
	CompareType           string         `json:"compare_type,omitempty"`
	Min                   *float64       `json:"min,omitempty"`
	Max                   *float64       `json:"max,omitempty"`
	Step                  *float64       `json:"step,omitempty"`
	Required              bool           `json:"required,omitempty"`
	ValidationPattern     string         `json:"validation_pattern,omitempty"`
	Options               []StaticOption `json:"options,omitempty"`
	Dynamic               bool           `json:"dynamic,omitempty"`
}

// PredicateSpec is the file representation of a VisibilityPredicate. Expr
// takes precedence, then OneOf, Equals and NotEmpty. Not inverts the result.
type PredicateSpec struct {
	Engine   string         `json:"engine,omitempty"`
	Expr     string         `json:"expr,omitempty"`
	Args     map[string]any `json:"args,omitempty"`
	Equals   string         `json:"equals,omitempty"`
	OneOf    []string       `json:"one_of,omitempty"`
	NotEmpty bool           `json:"not_empty,omitempty"`
	Not      bool           `json:"not,omitempty"`
}

type fieldsDocument struct {
	Fields []FieldSpec `json:"fields"`
}

// LoadOption configures LoadFieldsYAML and LoadFieldsJSON.
type LoadOption func(*loadConfig)

type loadConfig struct {
	registry *FunctionRegistry
	strict   bool
	source   string
}

// WithLoadFunctions exposes registry to expression predicates declared in
// the document. StandardFunctions is used otherwise.
func WithLoadFunctions(registry *FunctionRegistry) LoadOption {
	return func(cfg *loadConfig) {
		cfg.registry = registry
	}
}

// WithStrictFields rejects keys the field schema does not declare.
func WithStrictFields() LoadOption {
	return func(cfg *loadConfig) {
		cfg.strict = true
	}
}

// WithLoadSource names the document in error messages.
func WithLoadSource(source string) LoadOption {
	return func(cfg *loadConfig) {
		cfg.source = source
	}
}

// LoadFieldsYAML parses a field registry document. The root is either a list
// of fields or a mapping with a `fields` list.
func LoadFieldsYAML(data []byte, opts ...LoadOption) ([]FieldDefinition, error) {
	root, err := parseFieldsYAML(data)
	if err != nil {
		return nil, err
	}
	return loadFields(root, "yaml", opts)
}

// LoadFieldsJSON is LoadFieldsYAML for JSON documents.
func LoadFieldsJSON(data []byte, opts ...LoadOption) ([]FieldDefinition, error) {
	root, err := parseFieldsJSON(data)
	if err != nil {
		return nil, err
	}
	return loadFields(root, "json", opts)
}

// LoadFieldsFile reads path and picks the parser from its extension; .json
// selects JSON, anything else YAML.
func LoadFieldsFile(path string, opts ...LoadOption) ([]FieldDefinition, error) {
	return LoadFieldsFiles([]string{path}, opts...)
}

// LoadFieldsFiles loads a base registry followed by overlays. Fields are
// matched by name: an overlay sets or replaces individual keys of a base
// field (nested visibility settings merge key by key, lists are replaced)
// and fields it introduces are appended in document order.
func LoadFieldsFiles(paths []string, opts ...LoadOption) ([]FieldDefinition, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	layers := make([][]any, 0, len(paths))
	format := "yaml"
	for i := len(paths) - 1; i >= 0; i-- {
		root, layerFormat, err := readFieldsFile(paths[i])
		if err != nil {
			return nil, err
		}
		payload, err := fieldsPayload(root)
		if err != nil {
			return nil, fmt.Errorf("filters: %s: %w", paths[i], err)
		}
		if payload == nil {
			continue
		}
		if _, err := normaliseFieldsPayload(hydrate.Context{}, payload); err != nil {
			return nil, err
		}
		list, _ := payload["fields"].([]any)
		layers = append(layers, list)
		format = layerFormat
	}
	if len(layers) == 0 {
		return nil, nil
	}

	source := strings.Join(paths, "+")
	opts = append([]LoadOption{WithLoadSource(source)}, opts...)
	merged := map[string]any{"fields": layering.MergeByKey("name", layers...)}
	return loadFields(merged, format, opts)
}

func readFieldsFile(path string) (any, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("filters: read fields: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		root, err := parseFieldsJSON(data)
		return root, "json", err
	}
	root, err := parseFieldsYAML(data)
	return root, "yaml", err
}

func parseFieldsYAML(data []byte) (any, error) {
	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("filters: parse yaml fields: %w", err)
	}
	return root, nil
}

func parseFieldsJSON(data []byte) (any, error) {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("filters: parse json fields: %w", err)
	}
	return root, nil
}

// fieldsPayload wraps a list root into a mapping; nil means an empty
// document.
func fieldsPayload(root any) (map[string]any, error) {
	switch typed := root.(type) {
	case nil:
		return nil, nil
	case []any:
		return map[string]any{"fields": typed}, nil
	case map[string]any:
		return typed, nil
	default:
		return nil, fmt.Errorf("fields document must be a list or mapping, got %T", root)
	}
}

func loadFields(root any, format string, opts []LoadOption) ([]FieldDefinition, error) {
	cfg := loadConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	payload, err := fieldsPayload(root)
	if err != nil {
		return nil, fmt.Errorf("filters: %w", err)
	}
	if payload == nil {
		return nil, nil
	}

	decoderOpts := []hydrate.DecoderOption[fieldsDocument]{
		hydrate.WithPreHook[fieldsDocument](normaliseFieldsPayload),
	}
	if cfg.strict {
		decoderOpts = append(decoderOpts, hydrate.WithDisallowUnknownFields[fieldsDocument]())
	}
	doc, err := hydrate.NewDecoder[fieldsDocument](decoderOpts...).Decode(hydrate.Context{Source: cfg.source, Format: format}, payload)
	if err != nil {
		return nil, fmt.Errorf("filters: %w", err)
	}

	fields := make([]FieldDefinition, 0, len(doc.Fields))
	var errs []error
	for i, fs := range doc.Fields {
		def, err := fs.Definition(cfg.registry)
		if err != nil {
			errs = append(errs, fmt.Errorf("field %d: %w", i, err))
			continue
		}
		fields = append(fields, def)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return fields, nil
}

// normaliseFieldsPayload lets documents use scalars where lists are expected
// and shorthands for predicates and options.
func normaliseFieldsPayload(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	hydrate.ListOf(payload, "fields")
	list, _ := payload["fields"].([]any)
	for _, item := range list {
		field, ok := item.(map[string]any)
		if !ok {
			continue
		}
		hydrate.ListOf(field, "depends_on")
		hydrate.ListOf(field, "excludes")
		hydrate.ListOf(field, "options")

		switch visibility := field["visibility"].(type) {
		case string:
			field["visibility"] = map[string]any{"expr": visibility}
		case map[string]any:
			hydrate.ListOf(visibility, "one_of")
		}

		if options, ok := field["options"].([]any); ok {
			for i, option := range options {
				if _, isMap := option.(map[string]any); isMap {
					continue
				}
				token, _ := Serialize(option)
				options[i] = map[string]any{"label": token, "value": token}
			}
		}
	}
	return payload, nil
}

// Definition converts s into a FieldDefinition, compiling any
// expression predicate against registry.
func (s FieldSpec) Definition(registry *FunctionRegistry) (FieldDefinition, error) {
	def := FieldDefinition{
		Name:                  s.Name,
		Kind:                  FieldKind(strings.ToLower(strings.TrimSpace(s.Kind))),
		Label:                 s.Label,
		Placeholder:           s.Placeholder,
		DependsOn:             cloneStrings(s.DependsOn),
		DisableWhenChildEmpty: s.DisableWhenChildEmpty,
		Excludes:              cloneStrings(s.Excludes),
		ExclusionGroup:        s.ExclusionGroup,
		CompareType:           CompareType(s.CompareType),
		MinValue:              cloneFloat(s.Min),
		MaxValue:              cloneFloat(s.Max),
		Step:                  cloneFloat(s.Step),
		Required:              s.Required,
		ValidationPattern:     s.ValidationPattern,
		StaticOptions:         append([]StaticOption(nil), s.Options...),
		Dynamic:               s.Dynamic,
	}
	if def.Kind == KindCompare && def.CompareType == "" {
		def.CompareType = CompareTypeRange
	}
	if err := ValidateField(def); err != nil {
		return FieldDefinition{}, err
	}
	if s.Visibility != nil {
		predicate, err := s.Visibility.Predicate(registry)
		if err != nil {
			return FieldDefinition{}, fmt.Errorf("field %q visibility: %w", s.Name, err)
		}
		def.Visibility = predicate
	}
	return def, nil
}

// Predicate builds the VisibilityPredicate p describes; nil when it
// declares nothing.
func (p PredicateSpec) Predicate(registry *FunctionRegistry) (VisibilityPredicate, error) {
	var predicate VisibilityPredicate
	switch {
	case strings.TrimSpace(p.Expr) != "":
		compiled, err := ExpressionFor(p.Engine, p.Expr, registry, WithExpressionArgs(p.Args))
		if err != nil {
			return nil, err
		}
		predicate = compiled
	case len(p.OneOf) > 0:
		predicate = OneOf(p.OneOf...)
	case p.Equals != "":
		predicate = Equals(p.Equals)
	case p.NotEmpty:
		predicate = NotEmpty()
	}
	if predicate == nil {
		if p.Not {
			return nil, fmt.Errorf("filters: `not` requires a predicate to invert")
		}
		return nil, nil
	}
	if p.Not {
		predicate = Not(predicate)
	}
	return predicate, nil
}
