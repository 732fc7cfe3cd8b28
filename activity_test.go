package filters

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/goliatone/go-filters/pkg/activity"
)

func TestStoreEmitsActivity(t *testing.T) {
	capture := &activity.CaptureHook{}
	s := NewStore("catalog",
		WithActivityHooks(activity.Hooks{capture, nil}),
		WithActivityConfig(activity.Config{Enabled: true, ActorID: "user-1"}),
	)
	s.Initialize([]FieldDefinition{
		{Name: "brand", Kind: KindText, Excludes: []string{"model"}},
		{Name: "model", Kind: KindText},
	})
	s.SetValue("model", Text("x1"))
	s.SetValue("brand", Text("acme"))
	s.ClearValue("model")
	s.ClearValue("brand")
	s.HydrateFromQuery("brand=acme")
	s.Apply()
	s.Reset()

	want := []string{
		activity.VerbInitialized,
		activity.VerbValueSet,
		activity.VerbValueSet,
		activity.VerbValueCleared,
		activity.VerbHydrated,
		activity.VerbApplied,
		activity.VerbReset,
	}
	if got := capture.Verbs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	brandSet := capture.Events[2]
	if brandSet.ObjectID != "catalog/brand" || brandSet.Field() != "brand" || brandSet.StoreID() != "catalog" {
		t.Fatalf("unexpected field event %+v", brandSet)
	}
	if brandSet.ActorID != "user-1" || brandSet.Channel != activity.DefaultChannel {
		t.Fatalf("expected emitter defaults, got %+v", brandSet)
	}
	if cleared, _ := brandSet.Metadata["cleared"].([]string); !reflect.DeepEqual(cleared, []string{"model"}) {
		t.Fatalf("expected model cleared, got %v", brandSet.Metadata["cleared"])
	}
	if brandSet.Metadata["new_value"] != "acme" {
		t.Fatalf("expected new_value acme, got %v", brandSet.Metadata["new_value"])
	}

	hydrated := capture.Events[4]
	if hydrated.Metadata["source"] != "query" || hydrated.Metadata["fields"] != 1 {
		t.Fatalf("unexpected hydrate metadata %v", hydrated.Metadata)
	}
	applied := capture.Events[5]
	if params, _ := applied.Metadata["params"].(map[string]string); params["brand"] != "acme" {
		t.Fatalf("expected applied params, got %v", applied.Metadata["params"])
	}
}

func TestActivityDisabledWithoutHooks(t *testing.T) {
	s := NewStore("quiet")
	if s.ActivityHooks() != nil {
		t.Fatalf("expected no hooks")
	}
	capture := &activity.CaptureHook{}
	s = NewStore("off", WithActivityHooks(activity.Hooks{capture}), WithActivityConfig(activity.Config{Enabled: false}))
	s.Initialize(catalogFields())
	if len(capture.Events) != 0 {
		t.Fatalf("disabled emitter must not notify, got %v", capture.Verbs())
	}
}

func TestActivityHookFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	capture := &activity.CaptureHook{Err: errors.New("sink offline")}
	s := NewStore("failing", WithActivityHooks(activity.Hooks{capture}), WithLogger(NewLogger(&buf, slog.LevelWarn)))
	s.Initialize(catalogFields())
	s.SetValue("search", Text("shoes"))

	if got, _ := s.Value("search"); !Equal(got, Text("shoes")) {
		t.Fatalf("hook failures must not affect state")
	}
	if !strings.Contains(buf.String(), "filter activity hook failed") || !strings.Contains(buf.String(), "sink offline") {
		t.Fatalf("expected hook failure log, got %q", buf.String())
	}
}
