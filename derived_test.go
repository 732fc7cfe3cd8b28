package filters

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

func vehicleFields() []FieldDefinition {
	return []FieldDefinition{
		{Name: "make", Kind: KindOptions},
		{Name: "model", Kind: KindOptions, DependsOn: []string{"make"}, DisableWhenChildEmpty: true},
		{Name: "trim", Kind: KindText, DependsOn: []string{"model"}, Visibility: Equals("civic")},
		{Name: "orphan", Kind: KindText, DependsOn: []string{"ghost"}},
	}
}

func TestIsVisible(t *testing.T) {
	s := NewStore("vehicles")
	s.Initialize(vehicleFields())

	if !s.IsVisible("make") || !s.IsVisible("model") {
		t.Fatalf("fields without predicates are visible")
	}
	if s.IsVisible("trim") {
		t.Fatalf("trim must be hidden while model is not civic")
	}
	if s.IsVisible("orphan") || s.IsVisible("unknown") {
		t.Fatalf("unknown parents and unknown fields are hidden")
	}

	s.SetValue("make", Options{"honda"})
	s.SetValue("model", Options{"civic"})
	if !s.IsVisible("trim") || s.IsDisabled("trim") {
		t.Fatalf("trim must be visible and enabled for civic")
	}

	visible := s.VisibleFields()
	names := make([]string, len(visible))
	for i, def := range visible {
		names[i] = def.Name
	}
	if !reflect.DeepEqual(names, []string{"make", "model", "trim"}) {
		t.Fatalf("unexpected visible fields %v", names)
	}
}

func TestIsDisabled(t *testing.T) {
	s := NewStore("vehicles")
	s.Initialize(vehicleFields())

	if !s.IsDisabled("model") {
		t.Fatalf("model is disabled while make is empty")
	}
	if !s.IsDisabled("trim") {
		t.Fatalf("trim is disabled while its predicate rejects model")
	}
	if s.IsDisabled("make") || s.IsDisabled("unknown") {
		t.Fatalf("root and unknown fields are never disabled")
	}
	if s.IsDisabled("orphan") {
		t.Fatalf("unknown parents hide but do not disable without DisableWhenChildEmpty")
	}

	s.SetValue("make", Options{"honda"})
	if s.IsDisabled("model") {
		t.Fatalf("model is enabled once make is set")
	}
}

func TestPredicateErrorsReject(t *testing.T) {
	boom := errors.New("boom")
	var mu sync.Mutex
	var events []EvaluatorLogEvent
	logger := EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event)
	})

	failing := predicateFunc(func(Value) (bool, error) { return true, boom })
	s := NewStore("errors", WithEvaluatorLogger(logger))
	s.Initialize([]FieldDefinition{
		{Name: "parent", Kind: KindText},
		{Name: "child", Kind: KindText, DependsOn: []string{"parent"}, Visibility: failing},
	})
	s.SetValue("parent", Text("x"))

	if s.IsVisible("child") || !s.IsDisabled("child") {
		t.Fatalf("failing predicates hide and disable the field")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) == 0 {
		t.Fatalf("expected evaluator log events")
	}
	last := events[len(events)-1]
	if last.Engine != "func" || last.Field != "child" || last.Parent != "parent" || last.Visible || !errors.Is(last.Err, boom) {
		t.Fatalf("unexpected log event %+v", last)
	}
}

func TestDependentsOf(t *testing.T) {
	s := NewStore("vehicles")
	s.Initialize(vehicleFields())
	deps := s.DependentsOf("make")
	if len(deps) != 1 || deps[0].Name != "model" {
		t.Fatalf("unexpected dependents %+v", deps)
	}
	if deps := s.DependentsOf("trim"); len(deps) != 0 {
		t.Fatalf("trim has no dependents, got %+v", deps)
	}
}

func TestExplain(t *testing.T) {
	s := NewStore("vehicles")
	s.Initialize(append(vehicleFields(),
		FieldDefinition{Name: "vin", Kind: KindText, Excludes: []string{"trim"}},
	))
	s.SetValue("vin", Text("1HGCM"))

	trace := s.Explain("trim")
	if !trace.Known || trace.Visible || !trace.Disabled || !trace.Excluded {
		t.Fatalf("unexpected trace flags %+v", trace)
	}
	if !reflect.DeepEqual(trace.HiddenBy, []string{"model"}) || !reflect.DeepEqual(trace.ExcludedBy, []string{"vin"}) {
		t.Fatalf("unexpected reasons %+v", trace)
	}

	makeTrace := s.Explain("make")
	if !reflect.DeepEqual(makeTrace.Dependents, []string{"model"}) || !makeTrace.Visible {
		t.Fatalf("unexpected make trace %+v", makeTrace)
	}

	payload, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	decoded, err := TraceFromJSON(payload)
	if err != nil {
		t.Fatalf("TraceFromJSON: %v", err)
	}
	if !reflect.DeepEqual(decoded, trace) {
		t.Fatalf("trace round trip mismatch:\nwant %+v\n got %+v", trace, decoded)
	}

	unknown := s.Explain("ghost")
	if unknown.Known || unknown.Visible {
		t.Fatalf("unknown field trace %+v", unknown)
	}
}

type predicateFunc func(Value) (bool, error)

func (fn predicateFunc) Visible(v Value) (bool, error) { return fn(v) }

func TestVisibilityRunsOncePerParent(t *testing.T) {
	var seen []Value
	s := NewStore("per-parent")
	s.Initialize([]FieldDefinition{
		{Name: "region", Kind: KindOptions},
		{Name: "brand", Kind: KindOptions},
		{Name: "dealer", Kind: KindOptions, DependsOn: []string{"region", "brand"},
			Visibility: predicateFunc(func(parent Value) (bool, error) {
				seen = append(seen, parent)
				return !IsEmpty(parent), nil
			})},
	})
	s.SetValue("region", Options{"eu"})
	s.SetValue("brand", Options{"acme"})

	if !s.IsVisible("dealer") {
		t.Fatalf("dealer must be visible when both parents are set")
	}
	want := []Value{Options{"eu"}, Options{"acme"}}
	if !reflect.DeepEqual(seen, want) {
		t.Fatalf("expected the child predicate to see each parent value, got %#v", seen)
	}

	s.ClearValue("brand")
	if s.IsVisible("dealer") {
		t.Fatalf("a rejection from any parent hides the child")
	}
}
