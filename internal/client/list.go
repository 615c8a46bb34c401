package client

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// Confirmer answers yes/no questions before destructive actions. The terminal
// client prompts; tests plug in a canned answer.
type Confirmer interface {
	Confirm(message string) bool
}

// Notifier surfaces the outcome of an action to the user.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(string) bool

func (f ConfirmFunc) Confirm(msg string) bool { return f(msg) }

type discardNotifier struct{}

func (discardNotifier) Success(string) {}
func (discardNotifier) Error(string)   {}

// List is the shared browse screen: it loads rows from one endpoint, keeps
// the full set, and shows a filtered view over it. Reloads are fenced by a
// sequence number so a slow response can never overwrite a newer one.
type List[T any] struct {
	client *Client
	path   string

	mu      sync.Mutex
	seq     atomic.Int64
	items   []T
	visible []T
	filter  func(T) bool

	childMu  sync.Mutex
	children map[int][]byte

	Notifier Notifier
}

func NewList[T any](c *Client, path string) *List[T] {
	return &List[T]{client: c, path: path, Notifier: discardNotifier{}}
}

// Load fetches the rows. When several loads race (the user mashes refresh or
// switches filters quickly), only the most recent one lands; stale responses
// are dropped.
func (l *List[T]) Load(ctx context.Context) error {
	id := l.seq.Add(1)
	var rows []T
	if err := l.client.Get(ctx, l.path, &rows); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if id != l.seq.Load() {
		return nil // a newer load already finished or started
	}
	l.items = rows
	l.applyFilterLocked()
	return nil
}

// Filter installs a predicate over the loaded rows. The underlying set is
// kept intact; clearing the filter restores everything without a reload.
func (l *List[T]) Filter(pred func(T) bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filter = pred
	l.applyFilterLocked()
}

// ClearFilter removes the predicate and shows the full set again.
func (l *List[T]) ClearFilter() {
	l.Filter(nil)
}

// FilterSubstring is the search box behavior: case-insensitive substring match
// over the fields the caller exposes. An empty term clears the filter.
func (l *List[T]) FilterSubstring(term string, fields func(T) []string) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		l.ClearFilter()
		return
	}
	l.Filter(func(it T) bool {
		for _, f := range fields(it) {
			if strings.Contains(strings.ToLower(f), term) {
				return true
			}
		}
		return false
	})
}

func (l *List[T]) applyFilterLocked() {
	if l.filter == nil {
		l.visible = l.items
		return
	}
	vis := make([]T, 0, len(l.items))
	for _, it := range l.items {
		if l.filter(it) {
			vis = append(vis, it)
		}
	}
	l.visible = vis
}

// Visible returns the rows after filtering.
func (l *List[T]) Visible() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.visible
}

// Len is the total number of loaded rows, ignoring the filter.
func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Remove asks for confirmation, deletes the row and reloads. A declined
// confirmation is not an error.
func (l *List[T]) Remove(ctx context.Context, path, prompt string, confirm Confirmer) error {
	if confirm != nil && !confirm.Confirm(prompt) {
		return nil
	}
	var out struct {
		Message string `json:"message"`
	}
	if err := l.client.Delete(ctx, path, &out); err != nil {
		l.Notifier.Error(err.Error())
		return err
	}
	if out.Message != "" {
		l.Notifier.Success(out.Message)
	}
	return l.Load(ctx)
}

// Transition posts to an action endpoint (aprovar, receber, emitir...) and
// reloads on success.
func (l *List[T]) Transition(ctx context.Context, path string, body any) error {
	if err := l.client.Post(ctx, path, body, nil); err != nil {
		l.Notifier.Error(err.Error())
		return err
	}
	l.Notifier.Success("ok")
	return l.Load(ctx)
}

// Expand fetches the child rows of one parent (respostas of a cotação,
// parcelas of a conta) and caches the raw payload, so re-collapsing and
// re-expanding a row costs nothing.
func (l *List[T]) Expand(ctx context.Context, parentID int, path string, out any) error {
	l.childMu.Lock()
	cached, ok := l.children[parentID]
	l.childMu.Unlock()
	if ok {
		return decodeCached(cached, out)
	}
	raw, err := l.client.getRaw(ctx, path)
	if err != nil {
		return err
	}
	l.childMu.Lock()
	if l.children == nil {
		l.children = make(map[int][]byte)
	}
	l.children[parentID] = raw
	l.childMu.Unlock()
	return decodeCached(raw, out)
}

// Collapse drops one parent's cached children; a reload after mutation calls
// this so the next expand refetches.
func (l *List[T]) Collapse(parentID int) {
	l.childMu.Lock()
	delete(l.children, parentID)
	l.childMu.Unlock()
}
