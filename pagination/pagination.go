// Package pagination owns the current page of a paged list.
//
// # Overview
//
// Controller is a small state machine over the current page number. It
// learns the filtered total from every page result through Recompute and
// keeps the invariant
//
//	1 <= Page() <= max(1, TotalPages())
//
// Next, Previous and JumpTo only move within those bounds. AfterInsert sends
// the list to the page that will hold a record appended at the end.
package pagination

import (
	"sync"

	"github.com/goliatone/go-team-directory/member"
)

const (
	// DefaultPageSize is the number of members per page if not configured.
	DefaultPageSize = 6
	// FirstPage is the starting page (1-indexed).
	FirstPage = 1
)

// Params is a page request expressed as page and limit.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the number of records before the first one of Page.
func (p Params) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Controller tracks currentPage, pageSize and the last known total.
// It is safe for concurrent use.
type Controller struct {
	mu       sync.RWMutex
	page     int
	pageSize int
	total    int
}

// New returns a controller on the first page. A non-positive pageSize
// falls back to DefaultPageSize.
func New(pageSize int) *Controller {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Controller{page: FirstPage, pageSize: pageSize}
}

// Page returns the current page number.
func (c *Controller) Page() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.page
}

// PageSize returns the fixed page size.
func (c *Controller) PageSize() int {
	return c.pageSize
}

// Total returns the last total reported by Recompute or AfterInsert.
func (c *Controller) Total() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// TotalPages returns ceil(total / pageSize).
func (c *Controller) TotalPages() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return member.TotalPages(c.total, c.pageSize)
}

// Params returns the request for the current page.
func (c *Controller) Params() Params {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Params{Page: c.page, Limit: c.pageSize}
}

// HasPrevious reports whether Previous would move.
func (c *Controller) HasPrevious() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.page > FirstPage
}

// HasNext reports whether Next would move.
func (c *Controller) HasNext() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.page < member.TotalPages(c.total, c.pageSize)
}

// ShowControls reports whether pagination controls should render at all.
// A single page or an empty result renders without them.
func (c *Controller) ShowControls() bool {
	return c.TotalPages() > 1
}

// Pages lists the page numbers for a jump-to-page selector.
func (c *Controller) Pages() []int {
	n := c.TotalPages()
	pages := make([]int, n)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

// Next moves forward one page if the current page is not the last.
func (c *Controller) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page >= member.TotalPages(c.total, c.pageSize) {
		return false
	}
	c.page++
	return true
}

// Previous moves back one page if the current page is not the first.
func (c *Controller) Previous() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page <= FirstPage {
		return false
	}
	c.page--
	return true
}

// JumpTo sets the current page to n when 1 <= n <= TotalPages.
func (c *Controller) JumpTo(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < FirstPage || n > member.TotalPages(c.total, c.pageSize) {
		return false
	}
	c.page = n
	return true
}

// Recompute records a new total and clamps the current page to
// max(1, totalPages). It reports whether the page changed.
func (c *Controller) Recompute(total int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if total < 0 {
		total = 0
	}
	c.total = total
	return c.clamp()
}

// AfterInsert is for the moment right after a successful create: it records
// newTotal and jumps to ceil(newTotal / pageSize), the page a record
// appended at the end lands on.
func (c *Controller) AfterInsert(newTotal int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if newTotal < 0 {
		newTotal = 0
	}
	c.total = newTotal
	c.page = max(FirstPage, member.TotalPages(newTotal, c.pageSize))
}

// Reset returns to the first page and forgets the total.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = FirstPage
	c.total = 0
}

func (c *Controller) clamp() bool {
	last := max(FirstPage, member.TotalPages(c.total, c.pageSize))
	if c.page > last {
		c.page = last
		return true
	}
	if c.page < FirstPage {
		c.page = FirstPage
		return true
	}
	return false
}
