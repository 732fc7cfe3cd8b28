package openapi

import "strings"

// Defaults applied by NewGenerator.
const (
	DefaultOpenAPIVersion = "3.0.3"
	DefaultTitle          = "Filters"
	DefaultVersion        = "1.0.0"
	DefaultPath           = "/search"
)

type generatorConfig struct {
	openAPIVersion string
	info           openapiInfo
	operation      operationConfig
	responses      map[string]responseConfig
	extensions     bool
}

type openapiInfo struct {
	Title       string
	Version     string
	Description string
}

// operationConfig names the operation carrying the filter parameters. An
// empty OperationID is derived as "<method>:<path>".
type operationConfig struct {
	Path        string
	Method      string
	OperationID string
	Summary     string
}

type responseConfig struct {
	Description string
}

func defaultGeneratorConfig() generatorConfig {
	return generatorConfig{
		openAPIVersion: DefaultOpenAPIVersion,
		info:           openapiInfo{Title: DefaultTitle, Version: DefaultVersion},
		operation:      operationConfig{Path: DefaultPath, Method: "get"},
		responses:      map[string]responseConfig{"200": {Description: "OK"}},
		extensions:     true,
	}
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*generatorConfig)

// WithOpenAPIVersion overrides DefaultOpenAPIVersion.
func WithOpenAPIVersion(version string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if version != "" {
			cfg.openAPIVersion = version
		}
	}
}

// InfoOption sets optional info fields.
type InfoOption func(*openapiInfo)

// WithInfoDescription sets info.description.
func WithInfoDescription(description string) InfoOption {
	return func(info *openapiInfo) { info.Description = description }
}

// WithInfo sets the document title and version; empty strings keep the
// defaults.
func WithInfo(title, version string, opts ...InfoOption) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.info.Title = firstNonEmpty(title, cfg.info.Title)
		cfg.info.Version = firstNonEmpty(version, cfg.info.Version)
		for _, opt := range opts {
			if opt != nil {
				opt(&cfg.info)
			}
		}
	}
}

// OperationOption sets optional operation fields.
type OperationOption func(*operationConfig)

// WithOperationSummary sets the operation summary.
func WithOperationSummary(summary string) OperationOption {
	return func(op *operationConfig) { op.Summary = summary }
}

// WithOperation moves the filter parameters onto method path. Empty
// arguments keep the current values.
func WithOperation(path, method, operationID string, opts ...OperationOption) GeneratorOption {
	return func(cfg *generatorConfig) {
		op := &cfg.operation
		op.Path = firstNonEmpty(path, op.Path)
		if method != "" {
			op.Method = strings.ToLower(method)
		}
		op.OperationID = operationID
		for _, opt := range opts {
			if opt != nil {
				opt(op)
			}
		}
	}
}

// WithResponse adds or replaces the response documented for status.
func WithResponse(status, description string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if status == "" {
			return
		}
		if cfg.responses == nil {
			cfg.responses = map[string]responseConfig{}
		}
		cfg.responses[status] = responseConfig{Description: description}
	}
}

// WithoutExtensions omits the x-filter vendor extension from parameters.
func WithoutExtensions() GeneratorOption {
	return func(cfg *generatorConfig) { cfg.extensions = false }
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
