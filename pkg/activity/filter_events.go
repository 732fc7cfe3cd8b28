package activity

import (
	"strings"
	"time"
)

// Verbs emitted by filter stores.
const (
	VerbInitialized  = "filters.initialized"
	VerbValueSet     = "filters.value.set"
	VerbValueCleared = "filters.value.cleared"
	VerbHydrated     = "filters.hydrated"
	VerbApplied      = "filters.applied"
	VerbReset        = "filters.reset"
)

// Object types used by filter events.
const (
	ObjectStore = "filters.store"
	ObjectField = "filters.field"
)

// FilterEventInput describes the common fields for filter store events.
type FilterEventInput struct {
	ActorID        string
	UserID         string
	TenantID       string
	StoreID        string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	// Field is set for field-level events.
	Field    string
	OldValue any
	NewValue any
	// Cleared lists fields removed as a side effect (exclusion or
	// dependency clearing).
	Cleared []string
	// Source names where hydrated values came from ("query", "storage").
	Source     string
	Fields     int
	Warnings   int
	OccurredAt time.Time
}

// BuildFiltersInitializedEvent describes a registry (re)installation.
func BuildFiltersInitializedEvent(input FilterEventInput) Event {
	return buildFilterEvent(VerbInitialized, ObjectStore, input)
}

// BuildFilterValueSetEvent describes a single field update.
func BuildFilterValueSetEvent(input FilterEventInput) Event {
	return buildFilterEvent(VerbValueSet, ObjectField, input)
}

// BuildFilterValueClearedEvent describes a single field removal.
func BuildFilterValueClearedEvent(input FilterEventInput) Event {
	return buildFilterEvent(VerbValueCleared, ObjectField, input)
}

// BuildFiltersHydratedEvent describes a bulk hydrate.
func BuildFiltersHydratedEvent(input FilterEventInput) Event {
	return buildFilterEvent(VerbHydrated, ObjectStore, input)
}

// BuildFiltersAppliedEvent describes an applied snapshot.
func BuildFiltersAppliedEvent(input FilterEventInput) Event {
	return buildFilterEvent(VerbApplied, ObjectStore, input)
}

// BuildFiltersResetEvent describes a store reset.
func BuildFiltersResetEvent(input FilterEventInput) Event {
	return buildFilterEvent(VerbReset, ObjectStore, input)
}

func buildFilterEvent(verb, objectType string, input FilterEventInput) Event {
	storeID := strings.TrimSpace(input.StoreID)
	field := strings.TrimSpace(input.Field)

	metadata := cloneMap(input.Metadata)
	if storeID != "" {
		metadata = ensureMetadata(metadata)
		metadata["store_id"] = storeID
	}
	if field != "" {
		metadata = ensureMetadata(metadata)
		metadata["field"] = field
	}
	if input.OldValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["old_value"] = input.OldValue
	}
	if input.NewValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["new_value"] = input.NewValue
	}
	if len(input.Cleared) > 0 {
		metadata = ensureMetadata(metadata)
		metadata["cleared"] = append([]string{}, input.Cleared...)
	}
	if input.Source != "" {
		metadata = ensureMetadata(metadata)
		metadata["source"] = input.Source
	}
	if objectType == ObjectStore {
		metadata = ensureMetadata(metadata)
		metadata["fields"] = input.Fields
		if input.Warnings > 0 {
			metadata["warnings"] = input.Warnings
		}
	}

	recipients := input.Recipients
	if len(recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}

	objectID := storeID
	if objectType == ObjectField && field != "" {
		if objectID == "" {
			objectID = field
		} else {
			objectID = objectID + "/" + field
		}
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:           verb,
		ActorID:        strings.TrimSpace(input.ActorID),
		UserID:         strings.TrimSpace(input.UserID),
		TenantID:       strings.TrimSpace(input.TenantID),
		ObjectType:     objectType,
		ObjectID:       objectID,
		Channel:        strings.TrimSpace(input.Channel),
		DefinitionCode: strings.TrimSpace(input.DefinitionCode),
		Recipients:     recipients,
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
