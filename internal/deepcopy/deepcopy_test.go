package deepcopy

import (
	"reflect"
	"testing"
)

func TestCloneDetachesNestedPayloads(t *testing.T) {
	original := map[string]any{
		"tags":  []any{"a", "b"},
		"range": map[string]any{"min": 1.0, "max": nil},
	}

	cloned := Clone(original)
	if !reflect.DeepEqual(original, cloned) {
		t.Fatalf("expected clone to equal original, got %#v", cloned)
	}

	cloned["tags"].([]any)[0] = "mutated"
	cloned["range"].(map[string]any)["min"] = 99.0

	if original["tags"].([]any)[0] != "a" {
		t.Fatalf("expected original slice to be untouched, got %v", original["tags"])
	}
	if original["range"].(map[string]any)["min"] != 1.0 {
		t.Fatalf("expected original map to be untouched, got %v", original["range"])
	}
}

func TestCloneNilInterface(t *testing.T) {
	var value any
	if got := Clone(value); got != nil {
		t.Fatalf("expected nil clone, got %#v", got)
	}
}

func TestCloneStructPointers(t *testing.T) {
	type bounds struct {
		Min *float64
		Max *float64
	}
	minValue := 3.0
	original := bounds{Min: &minValue}

	cloned := Clone(original)
	*cloned.Min = 7

	if *original.Min != 3 {
		t.Fatalf("expected original pointer target to stay 3, got %v", *original.Min)
	}
	if cloned.Max != nil {
		t.Fatalf("expected nil max to stay nil")
	}
}
