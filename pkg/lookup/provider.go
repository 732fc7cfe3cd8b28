// Package lookup resolves the choices of options fields: paginated,
// searchable providers and a Loader that tracks per-field loading state.
package lookup

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	filters "github.com/goliatone/go-filters"
)

// DefaultPageSize is the number of items a StaticProvider returns per page.
const DefaultPageSize = 6

// Item is one selectable choice.
type Item struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Page is one page of a lookup result. Page is 1-based and always within
// [1, TotalPages]; TotalPages is at least 1.
type Page struct {
	Items      []Item `json:"items"`
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
	TotalItems int    `json:"total_items"`
}

// HasMore reports whether a later page exists.
func (p Page) HasMore() bool {
	return p.Page < p.TotalPages
}

// Provider fetches one page of choices for field matching search.
type Provider interface {
	FetchOptions(ctx context.Context, field, search string, page int) (Page, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, field, search string, page int) (Page, error)

// FetchOptions implements Provider.
func (fn ProviderFunc) FetchOptions(ctx context.Context, field, search string, page int) (Page, error) {
	if fn == nil {
		return Page{}, fmt.Errorf("lookup: provider function is nil")
	}
	return fn(ctx, field, search, page)
}

// Paginate filters items by a case-insensitive label substring and returns
// the requested page, clamped to the available range.
func Paginate(items []Item, search string, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	needle := strings.ToLower(strings.TrimSpace(search))
	matched := items
	if needle != "" {
		matched = make([]Item, 0, len(items))
		for _, item := range items {
			if strings.Contains(strings.ToLower(item.Label), needle) {
				matched = append(matched, item)
			}
		}
	}

	total := len(matched)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	out := make([]Item, end-start)
	copy(out, matched[start:end])
	return Page{
		Items:      out,
		Page:       page,
		TotalPages: totalPages,
		TotalItems: total,
	}
}

// Option configures a StaticProvider.
type Option func(*StaticProvider)

// WithPageSize overrides DefaultPageSize.
func WithPageSize(size int) Option {
	return func(p *StaticProvider) {
		if size > 0 {
			p.pageSize = size
		}
	}
}

// WithItems registers the choices of field.
func WithItems(field string, items ...Item) Option {
	return func(p *StaticProvider) {
		p.items[field] = append([]Item(nil), items...)
	}
}

// WithFieldOptions registers the static options of every options field.
func WithFieldOptions(fields ...filters.FieldDefinition) Option {
	return func(p *StaticProvider) {
		for _, def := range fields {
			if def.Kind != filters.KindOptions || len(def.StaticOptions) == 0 {
				continue
			}
			items := make([]Item, len(def.StaticOptions))
			for i, option := range def.StaticOptions {
				items[i] = Item{Label: option.Label, Value: option.Value}
			}
			p.items[def.Name] = items
		}
	}
}

// WithFallback generates the choices of fields without registered items.
func WithFallback(generate func(field string) []Item) Option {
	return func(p *StaticProvider) {
		p.fallback = generate
	}
}

// WithLatency delays every fetch by d, honouring context cancellation.
func WithLatency(d time.Duration) Option {
	return func(p *StaticProvider) {
		p.latency = d
	}
}

// StaticProvider serves choices from memory.
type StaticProvider struct {
	pageSize int
	latency  time.Duration
	fallback func(field string) []Item

	mu    sync.RWMutex
	items map[string][]Item
}

// NewStaticProvider constructs an in-memory provider.
func NewStaticProvider(opts ...Option) *StaticProvider {
	p := &StaticProvider{
		pageSize: DefaultPageSize,
		items:    map[string][]Item{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// SetItems replaces the choices of field.
func (p *StaticProvider) SetItems(field string, items []Item) {
	p.mu.Lock()
	p.items[field] = append([]Item(nil), items...)
	p.mu.Unlock()
}

// Fields lists the fields with registered items, sorted.
func (p *StaticProvider) Fields() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.items))
	for field := range p.items {
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}

// FetchOptions implements Provider. Unknown fields yield an empty page
// unless a fallback is configured.
func (p *StaticProvider) FetchOptions(ctx context.Context, field, search string, page int) (Page, error) {
	if p.latency > 0 {
		timer := time.NewTimer(p.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Page{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	p.mu.RLock()
	items, ok := p.items[field]
	p.mu.RUnlock()
	if !ok && p.fallback != nil {
		items = p.fallback(field)
	}
	return Paginate(items, search, page, p.pageSize), nil
}

// DemoCatalog returns a fallback producing total deterministic items per
// field, labelled "<field> option <n>" with values "<field>-opt-<n>".
func DemoCatalog(total int) func(field string) []Item {
	return func(field string) []Item {
		items := make([]Item, 0, total)
		for i := 1; i <= total; i++ {
			items = append(items, Item{
				Label: fmt.Sprintf("%s option %d", field, i),
				Value: fmt.Sprintf("%s-opt-%d", field, i),
			})
		}
		return items
	}
}
