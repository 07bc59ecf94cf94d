// Package store keeps the in-memory mirror of each gateway table and
// synchronises it optimistically: local state changes first, the remote
// write follows, and a failed write restores the snapshot taken before the
// change.
package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/abhishek622/careerflow/internal/filter"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("entity not found")
)

// State is a point-in-time copy of a store.
type State[T any] struct {
	Items   []T    `json:"items"`
	Loading bool   `json:"loading"`
	Err     string `json:"error,omitempty"`
}

// collection holds one entity list. Writers never mutate an element in
// place; they build a new slice so snapshots stay valid.
type collection[T any] struct {
	mu      sync.RWMutex
	items   []T
	loading bool
	err     string
	clone   func(T) T
}

func newCollection[T any](clone func(T) T) *collection[T] {
	return &collection[T]{clone: clone}
}

func (c *collection[T]) state() State[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return State[T]{Items: c.copyItems(c.items), Loading: c.loading, Err: c.err}
}

func (c *collection[T]) list() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.copyItems(c.items)
}

func (c *collection[T]) find(match func(T) bool) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if match(it) {
			return c.clone(it), true
		}
	}
	var zero T
	return zero, false
}

func (c *collection[T]) copyItems(items []T) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = c.clone(it)
	}
	return out
}

func (c *collection[T]) setLoading() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = true
	c.err = ""
}

// replace swaps in a freshly fetched list and clears the error.
func (c *collection[T]) replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	c.loading = false
	c.err = ""
}

func (c *collection[T]) done() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
}

func (c *collection[T]) clearErr() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = ""
}

// fail records err and leaves items untouched.
func (c *collection[T]) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	c.err = err.Error()
}

// mutate applies fn to the current list and returns the list it replaced.
// fn must return a new slice.
func (c *collection[T]) mutate(fn func([]T) []T) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.items
	c.items = fn(prev)
	return prev
}

// rollback restores prev verbatim and records err.
func (c *collection[T]) rollback(prev []T, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = prev
	c.err = err.Error()
}

func mapItems[T any](items []T, fn func(T) T) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = fn(it)
	}
	return out
}

// trimPtr returns a pointer to the trimmed value, nil stays nil.
func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

func filterItems[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

type options struct {
	logger    *zap.Logger
	now       func() time.Time
	currency  string
	selection *filter.Selection
	observer  LinkObserver
}

type Option func(*options)

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock overrides time.Now for optimistic timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithDefaultCurrency sets the currency applied to drafts that carry none.
func WithDefaultCurrency(c string) Option {
	return func(o *options) { o.currency = c }
}

// WithSelection shares a selection set with the application store.
func WithSelection(s *filter.Selection) Option {
	return func(o *options) { o.selection = s }
}

// WithLinkObserver makes the tag store report link changes to o.
func WithLinkObserver(o LinkObserver) Option {
	return func(opts *options) { opts.observer = o }
}

func buildOptions(opts []Option) options {
	o := options{
		logger:   zap.NewNop(),
		now:      time.Now,
		currency: "USD",
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

var validate = validator.New(validator.WithRequiredStructEnabled())
