package filters

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const vehicleYAML = `
fields:
  - name: body
    kind: options
    options: [sedan, coupe]
  - name: doors
    kind: compare
    depends_on: body
    disable_when_child_empty: true
    visibility: 'hasToken(value, "sedan")'
    min: 2
    max: 5
  - name: brand
    kind: TEXT
    excludes: model
    exclusion_group: make
  - name: model
    kind: text
    visibility:
      one_of: x1
      not: true
`

func TestLoadFieldsYAML(t *testing.T) {
	fields, err := LoadFieldsYAML([]byte(vehicleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(fields) != 4 {
		t.Fatalf("expected 4 fields, got %d", len(fields))
	}

	body, doors, brand, model := fields[0], fields[1], fields[2], fields[3]
	wantOptions := []StaticOption{{Label: "sedan", Value: "sedan"}, {Label: "coupe", Value: "coupe"}}
	if !reflect.DeepEqual(body.StaticOptions, wantOptions) {
		t.Fatalf("expected option shorthand to expand, got %v", body.StaticOptions)
	}
	if !reflect.DeepEqual(doors.DependsOn, []string{"body"}) || !doors.DisableWhenChildEmpty {
		t.Fatalf("unexpected doors dependency %+v", doors)
	}
	if doors.CompareType != CompareTypeRange || *doors.MinValue != 2 || *doors.MaxValue != 5 {
		t.Fatalf("unexpected doors compare settings %+v", doors)
	}
	if described, ok := doors.Visibility.(ExpressionDescriber); !ok || described.Engine() != "expr" {
		t.Fatalf("expected expr visibility, got %T", doors.Visibility)
	}
	if brand.Kind != KindText || !reflect.DeepEqual(brand.Excludes, []string{"model"}) || brand.ExclusionGroup != "make" {
		t.Fatalf("unexpected brand %+v", brand)
	}
	if visible, _ := model.Visibility.Visible(Text("x1")); visible {
		t.Fatalf("negated one_of must hide x1")
	}
	if visible, _ := model.Visibility.Visible(Text("x2")); !visible {
		t.Fatalf("negated one_of must show x2")
	}

	s := NewStore("vehicles")
	if warnings := s.Initialize(fields); len(warnings) != 0 {
		t.Fatalf("unexpected warnings %v", warnings)
	}
	s.SetValue("body", Options{"sedan"})
	if !s.IsVisible("doors") {
		t.Fatalf("doors visible for sedans")
	}
}

func TestLoadFieldsJSON(t *testing.T) {
	data := []byte(`[
		{"name": "region", "kind": "options", "options": [{"label": "Europe", "value": "eu"}]},
		{"name": "city", "kind": "text", "depends_on": ["region"],
		 "visibility": {"engine": "cel", "expr": "value.exists(v, v in args.regions)", "args": {"regions": ["eu"]}}}
	]`)
	fields, err := LoadFieldsJSON(data)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	city := fields[1]
	if described, ok := city.Visibility.(ExpressionDescriber); !ok || described.Engine() != "cel" {
		t.Fatalf("expected cel visibility, got %T", city.Visibility)
	}
	if visible, err := city.Visibility.Visible(Options{"eu"}); err != nil || !visible {
		t.Fatalf("expected eu to show city, got %v %v", visible, err)
	}
	if visible, _ := city.Visibility.Visible(Options{"us"}); visible {
		t.Fatalf("expected us to hide city")
	}
}

func TestLoadFieldsErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
		opts []LoadOption
		want string
	}{
		{name: "invalid kind", data: `[{"name": "a", "kind": "slider"}]`, want: "field 0"},
		{name: "missing name", data: `[{"kind": "text"}]`, want: "field name"},
		{name: "bad expression", data: `[{"name": "a", "kind": "text", "visibility": "value =="}]`, want: `field "a" visibility`},
		{name: "unknown engine", data: `[{"name": "a", "kind": "text", "visibility": {"engine": "lua", "expr": "true"}}]`, want: "evaluator not configured"},
		{name: "not without predicate", data: `[{"name": "a", "kind": "text", "visibility": {"not": true}}]`, want: "requires a predicate"},
		{name: "strict unknown key", data: `[{"name": "a", "kind": "text", "colour": "red"}]`, opts: []LoadOption{WithStrictFields(), WithLoadSource("inline.json")}, want: "inline.json"},
		{name: "scalar root", data: `"fields"`, want: "list or mapping"},
		{name: "malformed", data: `[`, want: "parse json fields"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFieldsJSON([]byte(tc.data), tc.opts...)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadFieldsJoinsErrors(t *testing.T) {
	_, err := LoadFieldsJSON([]byte(`[{"name": "a", "kind": "x"}, {"name": "b", "kind": "text"}, {"kind": "text"}]`))
	if !errors.Is(err, ErrInvalidKind) || !errors.Is(err, ErrFieldNameRequired) {
		t.Fatalf("expected both failures, got %v", err)
	}
}

func TestLoadFieldsLenientByDefault(t *testing.T) {
	fields, err := LoadFieldsJSON([]byte(`{"fields": [{"name": "a", "kind": "text", "colour": "red"}]}`))
	if err != nil || len(fields) != 1 {
		t.Fatalf("unknown keys are ignored without strict mode, got %v %v", fields, err)
	}
	if fields, err := LoadFieldsYAML([]byte("")); err != nil || fields != nil {
		t.Fatalf("empty document yields no fields, got %v %v", fields, err)
	}
}

func TestLoadFieldsWithCustomFunctions(t *testing.T) {
	registry := StandardFunctions()
	if err := registry.Register("isPremium", func(args ...any) (any, error) {
		return args[0] == "premium", nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	fields, err := LoadFieldsYAML([]byte(`
- name: tier
  kind: text
- name: perks
  kind: options
  depends_on: [tier]
  visibility: 'call("isPremium", [value])'
`), WithLoadFunctions(registry))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if visible, err := fields[1].Visibility.Visible(Text("premium")); err != nil || !visible {
		t.Fatalf("expected premium to show perks, got %v %v", visible, err)
	}
}

func TestLoadFieldsFile(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "fields.JSON")
	yamlPath := filepath.Join(dir, "fields.yml")
	if err := os.WriteFile(jsonPath, []byte(`[{"name": "a", "kind": "text"}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(yamlPath, []byte("- name: b\n  kind: options\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	for path, name := range map[string]string{jsonPath: "a", yamlPath: "b"} {
		fields, err := LoadFieldsFile(path)
		if err != nil || len(fields) != 1 || fields[0].Name != name {
			t.Fatalf("%s: unexpected result %v %v", path, fields, err)
		}
	}
	if _, err := LoadFieldsFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestLoadFieldsFilesAppliesOverlays(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.yaml")
	overlay := filepath.Join(dir, "tenant.json")
	if err := os.WriteFile(base, []byte(vehicleYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(overlay, []byte(`[
		{"name": "brand", "label": "Make", "excludes": "trim"},
		{"name": "model", "visibility": {"not": false}},
		{"name": "trim", "kind": "options", "depends_on": "model"}
	]`), 0o600); err != nil {
		t.Fatal(err)
	}

	fields, err := LoadFieldsFiles([]string{base, overlay})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	names := make([]string, len(fields))
	for i, def := range fields {
		names[i] = def.Name
	}
	if strings.Join(names, ",") != "body,doors,brand,model,trim" {
		t.Fatalf("unexpected order %v", names)
	}

	brand := fields[2]
	if brand.Label != "Make" || brand.Kind != KindText || !reflect.DeepEqual(brand.Excludes, []string{"trim"}) || brand.ExclusionGroup != "make" {
		t.Fatalf("overlay must merge into brand, got %+v", brand)
	}
	if visible, _ := fields[3].Visibility.Visible(Text("x1")); !visible {
		t.Fatalf("overlay turned off the negation, x1 must be visible")
	}

	if fields, err := LoadFieldsFiles(nil); err != nil || fields != nil {
		t.Fatalf("no paths yields no fields, got %v %v", fields, err)
	}
}
