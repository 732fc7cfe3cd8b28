package openapi

import (
	"fmt"
	"sort"
	"strings"
)

func (g Generator) document(registry *componentRegistry, parameters []any) (map[string]any, error) {
	cfg := g.config
	method := cfg.operation.method()

	operation := map[string]any{
		"operationId": cfg.operation.id(),
		"parameters":  parameters,
		"responses":   cfg.responseObjects(),
	}
	if summary := strings.TrimSpace(cfg.operation.Summary); summary != "" {
		operation["summary"] = summary
	}

	doc := map[string]any{
		"openapi": cfg.openAPIVersion,
		"info":    cfg.info.object(),
		"paths": map[string]any{
			cfg.operation.Path: map[string]any{method: operation},
		},
	}
	if schemas := registry.componentsMap(); schemas != nil {
		doc["components"] = map[string]any{"schemas": schemas}
	}

	if err := validateDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (i openapiInfo) object() map[string]any {
	out := map[string]any{"title": i.Title, "version": i.Version}
	if i.Description != "" {
		out["description"] = i.Description
	}
	return out
}

func (o operationConfig) method() string {
	if o.Method == "" {
		return "get"
	}
	return strings.ToLower(o.Method)
}

func (o operationConfig) id() string {
	if o.OperationID != "" {
		return o.OperationID
	}
	return o.method() + ":" + o.Path
}

func (c generatorConfig) responseObjects() map[string]any {
	statuses := make([]string, 0, len(c.responses))
	for status := range c.responses {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)

	out := make(map[string]any, len(statuses))
	for _, status := range statuses {
		out[status] = map[string]any{"description": c.responses[status].Description}
	}
	return out
}

// validateDocument checks the parts of the document filter clients depend
// on: a titled, versioned info block and operations whose query parameters
// each declare one schema or one content entry.
func validateDocument(doc map[string]any) error {
	if doc == nil {
		return fmt.Errorf("openapi: nil document")
	}
	if v, _ := doc["openapi"].(string); v == "" {
		return fmt.Errorf("openapi: document has no openapi version")
	}
	info, _ := doc["info"].(map[string]any)
	for _, key := range []string{"title", "version"} {
		if s, _ := info[key].(string); s == "" {
			return fmt.Errorf("openapi: info.%s is required", key)
		}
	}

	paths, _ := doc["paths"].(map[string]any)
	if len(paths) == 0 {
		return fmt.Errorf("openapi: document has no paths")
	}
	for path, item := range paths {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("openapi: path %q must start with /", path)
		}
		operations, _ := item.(map[string]any)
		if len(operations) == 0 {
			return fmt.Errorf("openapi: path %q has no operations", path)
		}
		for method, raw := range operations {
			if err := validateOperation(method+" "+path, raw); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateOperation(where string, raw any) error {
	operation, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("openapi: %s is not an operation object", where)
	}
	if _, ok := operation["operationId"].(string); !ok {
		return fmt.Errorf("openapi: %s has no operationId", where)
	}
	if _, ok := operation["responses"].(map[string]any); !ok {
		return fmt.Errorf("openapi: %s has no responses", where)
	}

	params, _ := operation["parameters"].([]any)
	names := make(map[string]bool, len(params))
	for i, rawParam := range params {
		param, _ := rawParam.(map[string]any)
		name, _ := param["name"].(string)
		if name == "" {
			return fmt.Errorf("openapi: %s parameter %d has no name", where, i)
		}
		if names[name] {
			return fmt.Errorf("openapi: %s declares parameter %q twice", where, name)
		}
		names[name] = true

		_, hasSchema := param["schema"]
		_, hasContent := param["content"]
		if hasSchema == hasContent {
			return fmt.Errorf("openapi: %s parameter %q must set exactly one of schema or content", where, name)
		}
	}
	return nil
}
