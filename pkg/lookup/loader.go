package lookup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
)

// ErrSuperseded is returned to callers whose request was overtaken by a newer
// search for the same field; their response is discarded.
var ErrSuperseded = errors.New("lookup: request superseded")

// FieldState is the loading state of one field's choices.
type FieldState struct {
	Items      []Item
	Search     string
	Page       int
	TotalPages int
	TotalItems int
	Loading    bool
	HasMore    bool
	// Err holds the failure of the last load, nil after a success.
	Err error
}

func (s FieldState) clone() FieldState {
	s.Items = append([]Item(nil), s.Items...)
	return s
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger reports provider failures to logger.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithOnChange registers fn to observe every state transition. fn runs
// outside the loader's lock.
func WithOnChange(fn func(field string, state FieldState)) LoaderOption {
	return func(l *Loader) {
		l.onChange = fn
	}
}

type fieldLoad struct {
	state      FieldState
	generation uint64
	cancel     context.CancelFunc
}

// Loader owns the choices shown for each options field. Search restarts a
// field from page 1 and cancels any request in flight for it; LoadMore
// appends the next page. Responses of superseded requests are dropped.
type Loader struct {
	provider Provider
	logger   *slog.Logger
	onChange func(field string, state FieldState)

	mu     sync.Mutex
	fields map[string]*fieldLoad
}

// NewLoader constructs a Loader backed by provider.
func NewLoader(provider Provider, opts ...LoaderOption) *Loader {
	l := &Loader{
		provider: provider,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		fields:   map[string]*fieldLoad{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// State returns a copy of field's state.
func (l *Loader) State(field string) FieldState {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry, ok := l.fields[field]; ok {
		return entry.state.clone()
	}
	return FieldState{}
}

// Search loads the first page of field matching search, replacing the
// current items. It blocks until the provider answers and returns
// ErrSuperseded when a newer Search for field started meanwhile.
func (l *Loader) Search(ctx context.Context, field, search string) (FieldState, error) {
	l.mu.Lock()
	entry := l.entryLocked(field)
	if entry.cancel != nil {
		entry.cancel()
	}
	entry.generation++
	generation := entry.generation
	reqCtx, cancel := context.WithCancel(ctx)
	entry.cancel = cancel
	entry.state.Search = search
	entry.state.Loading = true
	snapshot := entry.state.clone()
	l.mu.Unlock()
	l.notify(field, snapshot)

	return l.fetch(reqCtx, cancel, field, search, 1, generation, false)
}

// LoadMore appends the next page of field's current search. It is a no-op
// while a load is in flight or when no further page exists.
func (l *Loader) LoadMore(ctx context.Context, field string) (FieldState, error) {
	l.mu.Lock()
	entry := l.entryLocked(field)
	if entry.state.Loading || !entry.state.HasMore {
		snapshot := entry.state.clone()
		l.mu.Unlock()
		return snapshot, nil
	}
	generation := entry.generation
	reqCtx, cancel := context.WithCancel(ctx)
	entry.cancel = cancel
	entry.state.Loading = true
	search := entry.state.Search
	page := entry.state.Page + 1
	snapshot := entry.state.clone()
	l.mu.Unlock()
	l.notify(field, snapshot)

	return l.fetch(reqCtx, cancel, field, search, page, generation, true)
}

// Reset forgets field's state and cancels its request in flight.
func (l *Loader) Reset(field string) {
	l.mu.Lock()
	if entry, ok := l.fields[field]; ok {
		if entry.cancel != nil {
			entry.cancel()
		}
		entry.generation++
		entry.cancel = nil
		entry.state = FieldState{}
	}
	l.mu.Unlock()
}

func (l *Loader) fetch(ctx context.Context, cancel context.CancelFunc, field, search string, page int, generation uint64, appendItems bool) (FieldState, error) {
	defer cancel()
	result, err := l.provider.FetchOptions(ctx, field, search, page)

	l.mu.Lock()
	entry := l.entryLocked(field)
	if entry.generation != generation {
		snapshot := entry.state.clone()
		l.mu.Unlock()
		return snapshot, ErrSuperseded
	}
	entry.cancel = nil
	entry.state.Loading = false
	if err != nil {
		entry.state.Err = err
	} else {
		if appendItems {
			entry.state.Items = append(entry.state.Items, result.Items...)
		} else {
			entry.state.Items = append([]Item(nil), result.Items...)
		}
		entry.state.Page = result.Page
		entry.state.TotalPages = result.TotalPages
		entry.state.TotalItems = result.TotalItems
		entry.state.HasMore = result.HasMore()
		entry.state.Err = nil
	}
	snapshot := entry.state.clone()
	l.mu.Unlock()

	if err != nil {
		l.logger.Warn("option lookup failed", "field", field, "search", search, "page", page, "err", err)
	}
	l.notify(field, snapshot)
	return snapshot, err
}

func (l *Loader) entryLocked(field string) *fieldLoad {
	entry, ok := l.fields[field]
	if !ok {
		entry = &fieldLoad{}
		l.fields[field] = entry
	}
	return entry
}

func (l *Loader) notify(field string, state FieldState) {
	if l.onChange != nil {
		l.onChange(field, state)
	}
}
