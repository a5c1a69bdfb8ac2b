package client

import (
	"context"
	"sync"
)

const (
	// PageSize is the window every scroll-triggered fetch asks for.
	PageSize = 10
	// ScrollThreshold is how close to the bottom, in pixels, a scroll must get
	// to load the next page.
	ScrollThreshold = 10.0
)

// FetchFunc loads limit items starting at offset.
type FetchFunc[T any] func(ctx context.Context, offset, limit int) ([]T, error)

// Pager accumulates pages for an infinite-scroll list. The offset of each
// fetch is the number of items already loaded.
type Pager[T any] struct {
	fetch FetchFunc[T]

	mu        sync.Mutex
	items     []T
	loading   bool
	exhausted bool
	gen       uint64
	err       error
}

func NewPager[T any](fetch FetchFunc[T]) *Pager[T] {
	return &Pager[T]{fetch: fetch}
}

// Next loads the following page. A page shorter than PageSize, or an empty
// one, ends the list: later calls report false without fetching, as they do
// while a fetch is in flight. A page that arrives after Reset is dropped.
func (p *Pager[T]) Next(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if p.loading || p.exhausted {
		p.mu.Unlock()
		return false, nil
	}
	p.loading = true
	gen := p.gen
	offset := len(p.items)
	p.mu.Unlock()

	page, err := p.fetch(ctx, offset, PageSize)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return false, nil
	}
	p.loading = false
	if err != nil {
		p.err = err
		return false, err
	}
	p.err = nil
	if len(page) == 0 {
		p.exhausted = true
		return false, nil
	}
	p.items = append(p.items, page...)
	if len(page) < PageSize {
		p.exhausted = true
	}
	return true, nil
}

// OnScroll fetches the next page when the container is scrolled near its bottom.
func (p *Pager[T]) OnScroll(ctx context.Context, scrollTop, clientHeight, scrollHeight float64) (bool, error) {
	if !NearBottom(scrollTop, clientHeight, scrollHeight) {
		return false, nil
	}
	return p.Next(ctx)
}

// Reset drops loaded items, e.g. after a filter change, and re-enables fetching.
func (p *Pager[T]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.items = nil
	p.loading = false
	p.exhausted = false
	p.err = nil
}

func (p *Pager[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]T, len(p.items))
	copy(out, p.items)
	return out
}

func (p *Pager[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

func (p *Pager[T]) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Exhausted reports that the last fetch came back short or empty.
func (p *Pager[T]) Exhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exhausted
}

func (p *Pager[T]) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// NearBottom reports whether the visible area ends within ScrollThreshold of
// the content's bottom.
func NearBottom(scrollTop, clientHeight, scrollHeight float64) bool {
	return scrollHeight-(scrollTop+clientHeight) <= ScrollThreshold
}
