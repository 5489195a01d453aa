// Package metadata defines the contract every provider adapter implements,
// plus the HTTP plumbing they share.
package metadata

import (
	"context"
	"fmt"
	"strings"

	"github.com/listenupapp/listenup-metadata/internal/domain"
)

// DefaultLimit is the result cap used when Criteria.Limit is unset.
const DefaultLimit = 5

// Criteria describes one search. Query, Author and ISBN are not mutually
// exclusive; ISBN takes precedence when present.
type Criteria struct {
	Query  string
	Author string
	ISBN   string
	Limit  int
	Keys   domain.APIKeys
}

// EffectiveLimit returns Limit or DefaultLimit when unset.
func (c Criteria) EffectiveLimit() int {
	if c.Limit <= 0 {
		return DefaultLimit
	}
	return c.Limit
}

// Empty reports whether no search term was given.
func (c Criteria) Empty() bool {
	return c.Query == "" && c.Author == "" && c.ISBN == ""
}

// Result is what a search yields. RawCount, when set, is the number of
// records the provider returned before local filtering.
type Result struct {
	Items    []domain.Book
	RawCount int
}

// Count returns RawCount when set, else len(Items).
func (r Result) Count() int {
	if r.RawCount > 0 {
		return r.RawCount
	}
	return len(r.Items)
}

type keysKey struct{}

// WithKeys attaches provider credentials to ctx for calls that take no Criteria.
func WithKeys(ctx context.Context, keys domain.APIKeys) context.Context {
	return context.WithValue(ctx, keysKey{}, keys)
}

// KeysFrom returns the credentials attached by WithKeys.
func KeysFrom(ctx context.Context) domain.APIKeys {
	keys, _ := ctx.Value(keysKey{}).(domain.APIKeys)
	return keys
}

// FirstKey returns the first non-empty key.
func FirstKey(keys ...string) string {
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			return k
		}
	}
	return ""
}

// Adapter translates one external provider into canonical Books.
type Adapter interface {
	Name() string
	Search(ctx context.Context, c Criteria) (Result, error)
	// FetchDetails returns an error wrapping ErrNotFound when id is unknown.
	FetchDetails(ctx context.Context, id string) (*domain.Book, error)
}

// Blocking is implemented by adapters whose calls should not run on an
// unbounded number of goroutines.
type Blocking interface {
	Blocking() bool
}

// IsBlocking reports whether a declares itself blocking.
func IsBlocking(a Adapter) bool {
	b, ok := a.(Blocking)
	return ok && b.Blocking()
}

// Safe wraps an adapter so a panic inside it comes back as an error instead
// of taking the process down. Errors pass through unchanged: the caller
// decides what a failed search means.
type Safe struct {
	Adapter
}

// NewSafe wraps a. Wrapping an already wrapped adapter returns it as is.
func NewSafe(a Adapter) *Safe {
	if s, ok := a.(*Safe); ok {
		return s
	}
	return &Safe{Adapter: a}
}

// Search calls the wrapped adapter.
func (s *Safe) Search(ctx context.Context, c Criteria) (res Result, err error) {
	defer s.catch("search", "", &err)
	return s.Adapter.Search(ctx, c)
}

// FetchDetails calls the wrapped adapter.
func (s *Safe) FetchDetails(ctx context.Context, id string) (book *domain.Book, err error) {
	defer s.catch("details", id, &err)
	return s.Adapter.FetchDetails(ctx, id)
}

// Blocking forwards the wrapped adapter's marker.
func (s *Safe) Blocking() bool {
	return IsBlocking(s.Adapter)
}

func (s *Safe) catch(op, id string, err *error) {
	if r := recover(); r != nil {
		*err = WrapError(s.Name(), op, id, fmt.Errorf("%w: %v", ErrPanic, r))
	}
}

// Finish normalizes items in place and drops any without a title.
func Finish(items []domain.Book) []domain.Book {
	out := items[:0]
	for i := range items {
		items[i].Normalize()
		if items[i].Title == "" || items[i].ProviderID == "" {
			continue
		}
		out = append(out, items[i])
	}
	return out
}
