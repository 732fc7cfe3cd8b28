package filters

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Function is a helper callable from visibility expressions.
type Function func(args ...any) (any, error)

// FunctionRegistry stores expression helpers. Lookups are case-insensitive;
// Names reports the spelling used at registration.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]registeredFunction
}

type registeredFunction struct {
	name string
	fn   Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]registeredFunction),
	}
}

// StandardFunctions returns a registry preloaded with the helpers most
// visibility rules need: hasToken(value, token) and tokens(value).
func StandardFunctions() *FunctionRegistry {
	registry := NewFunctionRegistry()
	_ = registry.Register("hasToken", hasTokenFunction)
	_ = registry.Register("tokens", tokensFunction)
	return registry
}

// Register stores fn under name, rejecting duplicates.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("filters: function %q is nil", name)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("filters: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]registeredFunction)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("filters: function %q already registered", name)
	}
	r.functions[key] = registeredFunction{name: name, fn: fn}
	return nil
}

// Clone returns a shallow copy so evaluators are isolated from later
// registrations.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]registeredFunction, len(r.functions)),
	}
	for key, entry := range r.functions {
		clone.functions[key] = entry
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("filters: function registry is nil")
	}
	r.mu.RLock()
	entry, ok := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("filters: function %q not registered", name)
	}
	return entry.fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for _, entry := range r.functions {
		names = append(names, entry.name)
	}
	sort.Strings(names)
	return names
}

func hasTokenFunction(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("hasToken expects 2 arguments, got %d", len(args))
	}
	token, ok := Serialize(args[1])
	if !ok {
		return false, nil
	}
	for _, candidate := range valueTokens(args[0]) {
		if candidate == token {
			return true, nil
		}
	}
	return false, nil
}

func tokensFunction(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("tokens expects 1 argument, got %d", len(args))
	}
	tokens := valueTokens(args[0])
	out := make([]any, len(tokens))
	for i, token := range tokens {
		out[i] = token
	}
	return out, nil
}

// valueTokens flattens a raw value into the string tokens it carries: a
// scalar yields itself, a list yields its primitive members.
func valueTokens(raw any) []string {
	if v, ok := raw.(Value); ok {
		raw = v.Native()
	}
	switch typed := raw.(type) {
	case nil:
		return nil
	case []string:
		return append([]string(nil), typed...)
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if !isPrimitive(item) {
				continue
			}
			if token, ok := Serialize(item); ok {
				out = append(out, token)
			}
		}
		return out
	default:
		if !isPrimitive(raw) {
			return nil
		}
		token, ok := Serialize(raw)
		if !ok {
			return nil
		}
		return []string{token}
	}
}
