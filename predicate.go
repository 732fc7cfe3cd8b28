package filters

import (
	"fmt"
	"slices"
	"strings"
)

// VisibilityPredicate decides whether a parent's current value lets a
// dependent field be shown and enabled. parent is nil when the parent has no
// value. An error counts as a rejection.
type VisibilityPredicate interface {
	Visible(parent Value) (bool, error)
}

// PredicateFunc adapts a plain function to VisibilityPredicate.
type PredicateFunc func(parent Value) bool

// Visible implements VisibilityPredicate.
func (fn PredicateFunc) Visible(parent Value) (bool, error) {
	if fn == nil {
		return true, nil
	}
	return fn(parent), nil
}

// ExpressionDescriber is implemented by predicates backed by an expression
// engine; it feeds evaluator logs and schema descriptions.
type ExpressionDescriber interface {
	Engine() string
	Expression() string
}

// NotEmpty accepts any populated parent value.
func NotEmpty() VisibilityPredicate {
	return PredicateFunc(func(parent Value) bool {
		return !IsEmpty(parent)
	})
}

// Equals accepts a parent whose value is token: a text equal to it or an
// options selection containing it.
func Equals(token string) VisibilityPredicate {
	return OneOf(token)
}

// OneOf accepts a parent whose value matches any of tokens.
func OneOf(tokens ...string) VisibilityPredicate {
	allowed := append([]string(nil), tokens...)
	return PredicateFunc(func(parent Value) bool {
		for _, candidate := range valueTokens(parent) {
			if slices.Contains(allowed, candidate) {
				return true
			}
		}
		return false
	})
}

// Not inverts p. Errors from p are propagated unchanged.
func Not(p VisibilityPredicate) VisibilityPredicate {
	return notPredicate{inner: p}
}

type notPredicate struct {
	inner VisibilityPredicate
}

func (n notPredicate) Visible(parent Value) (bool, error) {
	if n.inner == nil {
		return false, nil
	}
	ok, err := n.inner.Visible(parent)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// ExpressionOption configures an expression predicate.
type ExpressionOption func(*expressionPredicate)

// WithExpressionArgs exposes args to the expression as `args`.
func WithExpressionArgs(args map[string]any) ExpressionOption {
	return func(p *expressionPredicate) {
		p.args = args
	}
}

// WithExpressionMetadata exposes metadata to the expression as `metadata`.
func WithExpressionMetadata(metadata map[string]any) ExpressionOption {
	return func(p *expressionPredicate) {
		p.metadata = metadata
	}
}

type expressionPredicate struct {
	engine     string
	expression string
	rule       CompiledRule
	args       map[string]any
	metadata   map[string]any
}

// Expression compiles expression with evaluator (expr when nil) into a
// predicate. The expression sees `value` (the parent's raw value), `empty`,
// `now`, `args` and `metadata`, and must produce a boolean.
func Expression(evaluator Evaluator, expression string, opts ...ExpressionOption) (VisibilityPredicate, error) {
	if evaluator == nil {
		evaluator = NewExprEvaluator(ExprWithFunctionRegistry(StandardFunctions()))
	}
	expression = strings.TrimSpace(expression)
	rule, err := evaluator.Compile(expression)
	if err != nil {
		return nil, err
	}
	p := &expressionPredicate{
		engine:     evaluatorEngineName(evaluator),
		expression: expression,
		rule:       rule,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

// MustExpression is like Expression but panics on compile errors.
func MustExpression(evaluator Evaluator, expression string, opts ...ExpressionOption) VisibilityPredicate {
	p, err := Expression(evaluator, expression, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// ExpressionFor builds an expression predicate for a named engine: "expr"
// (default), "cel" or "js".
func ExpressionFor(engine, expression string, registry *FunctionRegistry, opts ...ExpressionOption) (VisibilityPredicate, error) {
	if registry == nil {
		registry = StandardFunctions()
	}
	var evaluator Evaluator
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", "expr":
		evaluator = NewExprEvaluator(ExprWithFunctionRegistry(registry))
	case "cel":
		evaluator = NewCELEvaluator(CELWithFunctionRegistry(registry))
	case "js":
		evaluator = NewJSEvaluator(JSWithFunctionRegistry(registry))
		if evaluator == nil {
			return nil, fmt.Errorf("%w: js (build with -tags js_eval)", ErrNoEvaluator)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrNoEvaluator, engine)
	}
	return Expression(evaluator, expression, opts...)
}

func (p *expressionPredicate) Engine() string     { return p.engine }
func (p *expressionPredicate) Expression() string { return p.expression }

func (p *expressionPredicate) Visible(parent Value) (bool, error) {
	result, err := p.rule.Evaluate(RuleContext{
		Value:    nativeOf(parent),
		Empty:    IsEmpty(parent),
		Args:     p.args,
		Metadata: p.metadata,
	})
	if err != nil {
		return false, err
	}
	visible, ok := result.(bool)
	if !ok {
		return false, wrapPredicateError(p.engine, p.expression, fmt.Errorf("expected boolean result, got %T", result))
	}
	return visible, nil
}
