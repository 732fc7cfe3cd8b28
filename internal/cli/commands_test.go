package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	filters "github.com/goliatone/go-filters"
)

const catalogYAML = `
fields:
  - name: search
    kind: text
  - name: category
    kind: options
    options: [shoes, boots, sandals]
  - name: size
    kind: options
    depends_on: category
    disable_when_child_empty: true
    visibility:
      one_of: [shoes, boots]
  - name: price
    kind: compare
  - name: brand
    kind: text
    excludes: [model]
  - name: model
    kind: text
`

func writeFields(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fields.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fields: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand_Version(t *testing.T) {
	SetVersion("1.2.3")
	defer SetVersion("dev")
	out, _, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if strings.TrimSpace(out) != "1.2.3" {
		t.Fatalf("expected version output, got %q", out)
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()
	for _, name := range []string{"validate", "describe", "openapi", "query", "options"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Fatalf("expected subcommand %q, got %v %v", name, cmd, err)
		}
	}
	if _, _, err := execute(t, "invalid-command"); err == nil {
		t.Fatalf("expected error for invalid command")
	}
}

func TestValidateCommand(t *testing.T) {
	out, _, err := execute(t, "validate", writeFields(t, catalogYAML))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "6 field(s) installed") {
		t.Fatalf("unexpected output %q", out)
	}

	broken := writeFields(t, `
- name: a
  kind: text
  depends_on: [ghost]
- name: a
  kind: options
`)
	out, _, err = execute(t, "validate", "--json", broken)
	if err == nil || !strings.Contains(err.Error(), "2 configuration warning(s)") {
		t.Fatalf("expected warning failure, got %v", err)
	}
	var report validateOutput
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	kinds := []string{}
	for _, w := range report.Warnings {
		kinds = append(kinds, w.Kind)
	}
	if report.Fields != 2 || strings.Join(kinds, ",") != "duplicate_field,unknown_dependency" {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestValidateCommandStrict(t *testing.T) {
	path := writeFields(t, "- name: a\n  kind: text\n  colour: red\n")
	if _, _, err := execute(t, "validate", path); err != nil {
		t.Fatalf("lenient load failed: %v", err)
	}
	if _, _, err := execute(t, "validate", "--strict", path); err == nil {
		t.Fatalf("expected strict failure")
	}
}

func TestDescribeCommand(t *testing.T) {
	path := writeFields(t, catalogYAML)
	out, _, err := execute(t, "describe", "--json", path)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	var descriptors []filters.FieldDescriptor
	if err := json.Unmarshal([]byte(out), &descriptors); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(descriptors) != 6 || strings.Join(descriptors[1].Dependents, ",") != "size" {
		t.Fatalf("unexpected descriptors %+v", descriptors)
	}

	out, _, err = execute(t, "describe", path)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	for _, want := range []string{"size (options)", "depends on: category", "visibility: func", "excludes: model"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestOpenAPICommand(t *testing.T) {
	out, _, err := execute(t, "openapi", writeFields(t, catalogYAML), "--path", "/catalog", "--method", "POST", "--title", "Catalog")
	if err != nil {
		t.Fatalf("openapi: %v", err)
	}
	var document map[string]any
	if err := json.Unmarshal([]byte(out), &document); err != nil {
		t.Fatalf("decode: %v", err)
	}
	paths := document["paths"].(map[string]any)
	operation, ok := paths["/catalog"].(map[string]any)["post"].(map[string]any)
	if !ok {
		t.Fatalf("expected post /catalog operation, got %v", paths)
	}
	if params := operation["parameters"].([]any); len(params) != 6 {
		t.Fatalf("expected 6 parameters, got %d", len(params))
	}
	if title := document["info"].(map[string]any)["title"]; title != "Catalog" {
		t.Fatalf("unexpected title %v", title)
	}
}

func TestQueryCommand(t *testing.T) {
	path := writeFields(t, catalogYAML)
	out, _, err := execute(t, "query", path, "--json",
		"--query", "?category=shoes&size=42",
		"--set", `price={"min":10,"max":50}`,
		"--set", "model=x1",
		"--set", "brand=acme",
	)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	var result queryOutput
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]string{
		"category": `["shoes"]`,
		"size":     `["42"]`,
		"price":    `{"min":10,"max":50}`,
		"brand":    "acme",
	}
	if len(result.Params) != len(want) {
		t.Fatalf("expected %v, got %v", want, result.Params)
	}
	for key, value := range want {
		if result.Params[key] != value {
			t.Fatalf("%s: expected %s, got %s", key, value, result.Params[key])
		}
	}

	states := map[string]fieldStateOutput{}
	for _, field := range result.Fields {
		states[field.Name] = field
	}
	if !states["size"].Visible || states["size"].Disabled {
		t.Fatalf("size enabled for shoes, got %+v", states["size"])
	}
	if !states["model"].Excluded || states["model"].Value != nil {
		t.Fatalf("model cleared and excluded by brand, got %+v", states["model"])
	}
}

func TestQueryCommandText(t *testing.T) {
	out, _, err := execute(t, "query", writeFields(t, catalogYAML), "--set", "category=sandals", "--set", "size=40")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !strings.Contains(out, "query: category=") {
		t.Fatalf("expected encoded query, got %q", out)
	}
	if !strings.Contains(out, "[hidden,disabled]") {
		t.Fatalf("size hidden for sandals, got %q", out)
	}
}

func TestQueryCommandErrors(t *testing.T) {
	path := writeFields(t, catalogYAML)
	cases := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown set", args: []string{"--set", "ghost=1"}, want: `unknown field "ghost"`},
		{name: "unknown clear", args: []string{"--clear", "ghost"}, want: `unknown field "ghost"`},
		{name: "malformed set", args: []string{"--set", "search"}, want: "expected name=value"},
		{name: "persist without store", args: []string{"--persist"}, want: "require --store"},
		{name: "bad store", args: []string{"--store", "ftp://x"}, want: "unsupported --store"},
		{name: "bad log level", args: []string{"--log-level", "loud"}, want: "invalid --log-level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, append([]string{"query", path}, tc.args...)...)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
		})
	}
}

func TestQueryCommandPersistence(t *testing.T) {
	mr := miniredis.RunT(t)
	stores := map[string]string{
		"sqlite": "sqlite:" + filepath.Join(t.TempDir(), "state", "filters.db"),
		"redis":  "redis://" + mr.Addr() + "/0",
	}
	for name, spec := range stores {
		t.Run(name, func(t *testing.T) {
			path := writeFields(t, catalogYAML)
			if _, _, err := execute(t, "query", path, "--store", spec, "--id", "listing", "--set", "search=boots", "--persist"); err != nil {
				t.Fatalf("persist run: %v", err)
			}
			out, _, err := execute(t, "query", path, "--json", "--store", spec, "--id", "listing", "--restore", "--clear", "category")
			if err != nil {
				t.Fatalf("restore run: %v", err)
			}
			var result queryOutput
			if err := json.Unmarshal([]byte(out), &result); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if result.Store != "listing" || result.Params["search"] != "boots" {
				t.Fatalf("expected restored search, got %+v", result)
			}
		})
	}
}

func TestOptionsCommand(t *testing.T) {
	path := writeFields(t, catalogYAML)

	out, _, err := execute(t, "options", path, "category", "--json", "--page-size", "2")
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	var page optionsOutput
	if err := json.Unmarshal([]byte(out), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 2 || page.TotalItems != 3 || !page.HasMore {
		t.Fatalf("unexpected first page %+v", page)
	}

	out, _, err = execute(t, "options", path, "category", "--json", "--page-size", "2", "--pages", "5")
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	page = optionsOutput{}
	if err := json.Unmarshal([]byte(out), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 3 || page.HasMore || page.Page != 2 {
		t.Fatalf("expected every item loaded, got %+v", page)
	}

	out, _, err = execute(t, "options", path, "size", "--demo", "10", "--search", "OPTION 1")
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if !strings.Contains(out, "size-opt-10\tsize option 10") || !strings.Contains(out, "page 1 of 1 (2 items)") {
		t.Fatalf("unexpected demo output %q", out)
	}

	if _, _, err := execute(t, "options", path, "search"); err == nil || !strings.Contains(err.Error(), "not options") {
		t.Fatalf("expected kind error, got %v", err)
	}
	if _, _, err := execute(t, "options", path, "ghost"); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestOverlayFlag(t *testing.T) {
	base := writeFields(t, catalogYAML)
	overlay := writeFields(t, "- name: size\n  visibility:\n    one_of: [sandals]\n")

	out, _, err := execute(t, "query", base, "--overlay", overlay, "--json", "--set", "category=sandals")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	var result queryOutput
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, field := range result.Fields {
		if field.Name == "size" && !field.Visible {
			t.Fatalf("overlay must make size visible for sandals")
		}
	}
}
