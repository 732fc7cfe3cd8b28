package activity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNormalizeEventTrimsClonesAndDefaults(t *testing.T) {
	meta := map[string]any{"field": "category"}
	recipients := []string{" a ", "b "}
	evt := Event{
		Verb:           " filters.value.set ",
		ActorID:        " actor ",
		UserID:         " user ",
		TenantID:       " tenant ",
		ObjectType:     " filters.field ",
		ObjectID:       " products/category ",
		Channel:        " filters ",
		DefinitionCode: " def ",
		Recipients:     recipients,
		Metadata:       meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != VerbValueSet || got.ObjectType != ObjectField || got.ObjectID != "products/category" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ActorID != "actor" || got.UserID != "user" || got.TenantID != "tenant" || got.Channel != "filters" || got.DefinitionCode != "def" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	if got.Field() != "category" {
		t.Fatalf("expected field accessor to read metadata, got %q", got.Field())
	}
	got.Metadata["field"] = "changed"
	if evt.Metadata["field"] != "category" {
		t.Fatalf("expected original metadata untouched: %+v", evt.Metadata)
	}
	got.Recipients[0] = "changed"
	if recipients[0] != " a " {
		t.Fatalf("expected original recipients untouched: %+v", recipients)
	}
}

func TestHooksNotifyShortCircuitsMissingRequired(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	if err := hooks.Notify(context.Background(), Event{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events))
	}
}

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	var ctxSeen bool
	boom1 := errors.New("boom1")
	boom2 := errors.New("boom2")
	hooks := Hooks{
		HookFunc(func(ctx context.Context, event Event) error {
			if ctx != nil {
				ctxSeen = true
			}
			return nil
		}),
		capture,
		HookFunc(func(_ context.Context, _ Event) error { return boom1 }),
		nil,
		HookFunc(func(_ context.Context, _ Event) error { return boom2 }),
	}

	err := hooks.Notify(nil, Event{Verb: VerbReset, ObjectType: ObjectStore, ObjectID: "products"})
	if !errors.Is(err, boom1) || !errors.Is(err, boom2) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected event to be captured once, got %d", len(capture.Events))
	}
}

func TestOnlyVerbsFiltersEvents(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{OnlyVerbs(capture, VerbApplied)}
	ctx := context.Background()

	_ = hooks.Notify(ctx, Event{Verb: VerbValueSet, ObjectType: ObjectField, ObjectID: "p/a"})
	_ = hooks.Notify(ctx, Event{Verb: VerbApplied, ObjectType: ObjectStore, ObjectID: "p"})

	verbs := capture.Verbs()
	if len(verbs) != 1 || verbs[0] != VerbApplied {
		t.Fatalf("expected only applied event, got %v", verbs)
	}
}

func TestEmitterDisabledAndEnabled(t *testing.T) {
	capture := &CaptureHook{}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := disabled.Emit(context.Background(), Event{Verb: VerbReset, ObjectType: ObjectStore, ObjectID: "1"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}

	enabled := NewEmitter(Hooks{capture}, Config{Enabled: true, TenantID: "acme"})
	if !enabled.Enabled() {
		t.Fatalf("expected emitter to be enabled")
	}
	if err := enabled.Emit(context.Background(), Event{Verb: VerbReset, ObjectType: ObjectStore, ObjectID: "1"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	last, ok := capture.Last()
	if !ok {
		t.Fatalf("expected one event captured")
	}
	if last.Channel != DefaultChannel {
		t.Fatalf("expected default channel applied, got %q", last.Channel)
	}
	if last.TenantID != "acme" {
		t.Fatalf("expected default tenant applied, got %q", last.TenantID)
	}
}

func TestEmitterPreservesExplicitValues(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "default", ActorID: "system"})
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := emitter.Emit(context.Background(), Event{
		Verb:       VerbApplied,
		ObjectType: ObjectStore,
		ObjectID:   "1",
		Channel:    "custom",
		ActorID:    "user-1",
		OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	got := capture.Events[0]
	if got.Channel != "custom" || got.ActorID != "user-1" {
		t.Fatalf("expected explicit values preserved, got %+v", got)
	}
	if !got.OccurredAt.Equal(at) {
		t.Fatalf("expected occurred_at preserved, got %v", got.OccurredAt)
	}
}

func TestBuildFilterValueSetEventIncludesFieldMetadata(t *testing.T) {
	event := BuildFilterValueSetEvent(FilterEventInput{
		ActorID:  " actor ",
		StoreID:  " products ",
		Field:    "brand",
		NewValue: []any{"acme"},
		Cleared:  []string{"price_range"},
		Metadata: map[string]any{"custom": "value"},
	})

	if event.Verb != VerbValueSet || event.ObjectType != ObjectField {
		t.Fatalf("unexpected verb/object: %+v", event)
	}
	if event.ObjectID != "products/brand" {
		t.Fatalf("expected composite object id, got %q", event.ObjectID)
	}
	if event.ActorID != "actor" {
		t.Fatalf("expected trimmed actor, got %q", event.ActorID)
	}
	if event.Metadata["custom"] != "value" || event.Metadata["store_id"] != "products" || event.Metadata["field"] != "brand" {
		t.Fatalf("unexpected metadata: %+v", event.Metadata)
	}
	cleared, ok := event.Metadata["cleared"].([]string)
	if !ok || len(cleared) != 1 || cleared[0] != "price_range" {
		t.Fatalf("expected cleared metadata, got %v", event.Metadata["cleared"])
	}
	if _, ok := event.Metadata["fields"]; ok {
		t.Fatalf("field events should not carry a field count")
	}
}

func TestBuildStoreEventsUseStoreObject(t *testing.T) {
	builders := map[string]func(FilterEventInput) Event{
		VerbInitialized: BuildFiltersInitializedEvent,
		VerbHydrated:    BuildFiltersHydratedEvent,
		VerbApplied:     BuildFiltersAppliedEvent,
		VerbReset:       BuildFiltersResetEvent,
	}
	for verb, build := range builders {
		t.Run(verb, func(t *testing.T) {
			event := build(FilterEventInput{StoreID: "products", Fields: 3, Warnings: 1, Source: "query"})
			if event.Verb != verb {
				t.Fatalf("expected %s, got %s", verb, event.Verb)
			}
			if event.ObjectType != ObjectStore || event.ObjectID != "products" {
				t.Fatalf("unexpected object: %+v", event)
			}
			if event.Metadata["fields"] != 3 || event.Metadata["warnings"] != 1 {
				t.Fatalf("unexpected counts: %+v", event.Metadata)
			}
			if event.Metadata["source"] != "query" {
				t.Fatalf("expected source metadata, got %v", event.Metadata["source"])
			}
		})
	}
}

func TestBuildFilterEventFallsBackToObjectType(t *testing.T) {
	event := BuildFiltersResetEvent(FilterEventInput{})
	if event.ObjectID != ObjectStore {
		t.Fatalf("expected object type fallback, got %q", event.ObjectID)
	}
	if !strings.HasPrefix(event.Verb, "filters.") {
		t.Fatalf("unexpected verb %q", event.Verb)
	}
}
