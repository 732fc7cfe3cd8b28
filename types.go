package filters

import (
	"log/slog"

	"github.com/goliatone/go-filters/pkg/activity"
	"github.com/goliatone/go-filters/pkg/state"
)

// FieldKind identifies the widget family a field belongs to and therefore the
// value shape it stores.
type FieldKind string

const (
	KindText    FieldKind = "text"
	KindOptions FieldKind = "options"
	KindCompare FieldKind = "compare"
)

// Valid reports whether k is one of the supported kinds.
func (k FieldKind) Valid() bool {
	switch k {
	case KindText, KindOptions, KindCompare:
		return true
	default:
		return false
	}
}

// CompareType selects between a min/max range and a single operator/value
// comparison for compare fields.
type CompareType string

const (
	CompareTypeRange  CompareType = "range"
	CompareTypeSingle CompareType = "single"
)

// StaticOption is a label/value pair offered by an options field that does
// not resolve its choices remotely.
type StaticOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FieldDefinition describes one filter field. Definitions are supplied by the
// caller and treated as immutable once installed in a Store.
type FieldDefinition struct {
	Name string
	Kind FieldKind

	// DependsOn lists the parent fields gating this field.
	DependsOn []string
	// DisableWhenChildEmpty disables (and clears) this field whenever one of
	// its parents holds an empty value.
	DisableWhenChildEmpty bool
	// Excludes lists fields cleared when this field becomes non-empty.
	Excludes []string
	// ExclusionGroup allows at most one non-empty member at a time.
	ExclusionGroup string
	// Visibility belongs to this (child) field and is evaluated once per
	// entry of DependsOn with that parent's current value; any rejection
	// hides and disables the field. Configurations that attach the
	// predicate to the parent must move it onto each dependent.
	Visibility VisibilityPredicate

	Label             string
	Placeholder       string
	CompareType       CompareType
	MinValue          *float64
	MaxValue          *float64
	Step              *float64
	Required          bool
	ValidationPattern string
	StaticOptions     []StaticOption
	Dynamic           bool
}

func (d FieldDefinition) dependsOn(parent string) bool {
	return containsName(d.DependsOn, parent)
}

func (d FieldDefinition) excludes(name string) bool {
	return containsName(d.Excludes, name)
}

func cloneField(d FieldDefinition) FieldDefinition {
	out := d
	out.DependsOn = cloneStrings(d.DependsOn)
	out.Excludes = cloneStrings(d.Excludes)
	out.MinValue = cloneFloat(d.MinValue)
	out.MaxValue = cloneFloat(d.MaxValue)
	out.Step = cloneFloat(d.Step)
	if d.StaticOptions != nil {
		out.StaticOptions = append([]StaticOption(nil), d.StaticOptions...)
	}
	return out
}

// AppliedFilter is one entry of an applied snapshot. A nil Value reports a
// field without a current value.
type AppliedFilter struct {
	Name  string
	Value Value
}

// Entry is a name/value pair used for ordered bulk hydration.
type Entry struct {
	Name  string
	Value Value
}

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	logger         *slog.Logger
	evalLogger     EvaluatorLogger
	activityHooks  activity.Hooks
	activityConfig *activity.Config
	storage        state.KV
	storagePrefix  string
}

func applyOptions(opts []Option) storeConfig {
	cfg := storeConfig{
		storagePrefix: DefaultStorageKeyPrefix,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = NewNopLogger()
	}
	if cfg.evalLogger == nil {
		cfg.evalLogger = SlogEvaluatorLogger(cfg.logger)
	}
	return cfg
}

// WithLogger configures the structured logger used for warnings and
// persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *storeConfig) {
		cfg.logger = logger
	}
}

// WithStorage attaches the key/value medium used by Persist, Restore and
// ClearPersisted.
func WithStorage(kv state.KV) Option {
	return func(cfg *storeConfig) {
		cfg.storage = kv
	}
}

// WithStorageKeyPrefix overrides DefaultStorageKeyPrefix.
func WithStorageKeyPrefix(prefix string) Option {
	return func(cfg *storeConfig) {
		if prefix == "" {
			return
		}
		cfg.storagePrefix = prefix
	}
}

func containsName(names []string, name string) bool {
	for _, candidate := range names {
		if candidate == name {
			return true
		}
	}
	return false
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneFloat(in *float64) *float64 {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}
