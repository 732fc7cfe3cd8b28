package filters

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownField indicates an operation referenced a field that is not
	// part of the installed registry.
	ErrUnknownField = errors.New("filters: unknown field")
	// ErrInvalidKind indicates a field definition with an unsupported kind.
	ErrInvalidKind = errors.New("filters: invalid field kind")
	// ErrFieldNameRequired indicates a field definition without a name.
	ErrFieldNameRequired = errors.New("filters: field name must be provided")
	// ErrNoEvaluator indicates an expression predicate was requested for an
	// engine that is not available in this build.
	ErrNoEvaluator = errors.New("filters: evaluator not configured")
)

// WarningKind classifies a ConfigurationWarning.
type WarningKind string

const (
	WarningCycle             WarningKind = "cycle"
	WarningDuplicateField    WarningKind = "duplicate_field"
	WarningUnknownDependency WarningKind = "unknown_dependency"
	WarningUnknownExclusion  WarningKind = "unknown_exclusion"
	WarningInvalidField      WarningKind = "invalid_field"
)

// ConfigurationWarning reports a registry misconfiguration. Warnings never
// prevent a registry from being installed; the offending fields simply get
// degraded derived state.
type ConfigurationWarning struct {
	Kind   WarningKind
	Field  string
	Path   []string
	Detail string
}

func (w ConfigurationWarning) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "filters: %s", w.Kind)
	if w.Field != "" {
		fmt.Fprintf(&b, " field=%q", w.Field)
	}
	if len(w.Path) > 0 {
		fmt.Fprintf(&b, " path=%s", strings.Join(w.Path, " -> "))
	}
	if w.Detail != "" {
		fmt.Fprintf(&b, ": %s", w.Detail)
	}
	return b.String()
}

// PredicateError captures evaluator metadata alongside the originating error.
type PredicateError struct {
	Engine string
	Expr   string
	Err    error
}

func (e *PredicateError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("filters: %s predicate %s: %v", e.Engine, describeExpression(e.Expr), e.Err)
}

func (e *PredicateError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var predErr *PredicateError
	if errors.As(err, &predErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "filters:") {
		return err
	}
	return fmt.Errorf("filters: %s evaluator: %w", engine, err)
}

func wrapPredicateError(engine, expr string, err error) error {
	if err == nil {
		return nil
	}

	var predErr *PredicateError
	if errors.As(err, &predErr) {
		if predErr.Engine == "" {
			predErr.Engine = engine
		}
		if predErr.Expr == "" {
			predErr.Expr = expr
		}
		return predErr
	}

	return &PredicateError{
		Engine: engine,
		Expr:   expr,
		Err:    err,
	}
}
