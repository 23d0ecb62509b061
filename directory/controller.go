// Package directory implements the member list controller: it ties the
// search term and the current page to the remote list and keeps the visible
// page consistent with asynchronous results.
//
// Every fetch takes a sequence token. Only the response carrying the latest
// token is committed; older responses are dropped, so a slow answer to an
// earlier query never overwrites a later one. While a fetch is in flight the
// previous result stays visible, and the loading status is only used until
// the first result arrives.
package directory

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-team-directory/member"
	"github.com/goliatone/go-team-directory/pagination"
)

var (
	// ErrSuperseded is returned by a fetch whose response was dropped
	// because a newer query was issued meanwhile.
	ErrSuperseded = errors.New("directory: response superseded by a newer query")
	// ErrClosed is returned once the controller has been closed.
	ErrClosed = errors.New("directory: controller closed")
)

// Source is the cached member list. membercache.CachedCollection
// implements it.
type Source interface {
	List(ctx context.Context, q member.PageQuery) (member.PageResult, error)
	InvalidateAll(ctx context.Context)
}

// Status is the page level state of the list.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// View is a consistent snapshot of the list for rendering.
type View struct {
	Status       Status
	Members      []member.Member
	Total        int
	Search       string
	Page         int
	PageSize     int
	TotalPages   int
	Pages        []int
	HasPrevious  bool
	HasNext      bool
	ShowControls bool
	Fetching     bool
	Err          error
	Selected     *member.Member
}

// Empty reports whether a loaded list has nothing to show.
func (v View) Empty() bool {
	return v.Status == StatusReady && len(v.Members) == 0
}

// Controller is safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	source   Source
	pager    *pagination.Controller
	search   string
	seq      uint64
	loaded   bool
	fetching bool
	status   Status
	result   member.PageResult
	err      error
	selected member.ID
	closed   bool
	onChange func(View)
	logger   zerolog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithPageSize sets the page size, pagination.DefaultPageSize otherwise.
func WithPageSize(n int) Option {
	return func(c *Controller) {
		c.pager = pagination.New(n)
	}
}

// WithOnChange registers a listener called after every state change.
func WithOnChange(fn func(View)) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// New creates an idle controller on page 1 with an empty search.
func New(source Source, opts ...Option) *Controller {
	c := &Controller{
		source: source,
		pager:  pagination.New(pagination.DefaultPageSize),
		status: StatusIdle,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches the current page. It is the mount action.
func (c *Controller) Load(ctx context.Context) error {
	return c.fetch(ctx)
}

// SetSearch changes the search term and re-queries. The page is kept and
// clamped by the result if the filtered set is smaller.
func (c *Controller) SetSearch(ctx context.Context, term string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.search = term
	c.mu.Unlock()
	return c.fetch(ctx)
}

// Next moves to the following page if there is one.
func (c *Controller) Next(ctx context.Context) error {
	if !c.pager.Next() {
		return nil
	}
	return c.fetch(ctx)
}

// Previous moves to the preceding page if there is one.
func (c *Controller) Previous(ctx context.Context) error {
	if !c.pager.Previous() {
		return nil
	}
	return c.fetch(ctx)
}

// JumpTo moves to page n when it is within bounds.
func (c *Controller) JumpTo(ctx context.Context, n int) error {
	if !c.pager.JumpTo(n) {
		return nil
	}
	return c.fetch(ctx)
}

// Refresh drops every cached page and re-fetches the current one. Detail
// edits and deletes call it.
func (c *Controller) Refresh(ctx context.Context) error {
	c.source.InvalidateAll(ctx)
	return c.fetch(ctx)
}

// MemberCreated is the notification after a successful create elsewhere:
// the cache is invalidated, the page moves to where an appended record
// lands and that page is fetched.
func (c *Controller) MemberCreated(ctx context.Context, m member.Member) error {
	c.source.InvalidateAll(ctx)

	// The pager keeps the last known total through error states.
	newTotal := c.pager.Total() + 1
	c.pager.AfterInsert(newTotal)
	c.logger.Debug().
		Str("id", m.ID.String()).
		Int("total", newTotal).
		Int("page", c.pager.Page()).
		Msg("member created, moving to its page")
	return c.fetch(ctx)
}

// Select marks a member of the visible page for the quick view. It reports
// false when id is not on the page.
func (c *Controller) Select(id member.ID) bool {
	c.mu.Lock()
	found := slices.ContainsFunc(c.result.Members, func(m member.Member) bool { return m.ID == id })
	if found {
		c.selected = id
	}
	c.mu.Unlock()
	if found {
		c.notify()
	}
	return found
}

// ClearSelection closes the quick view.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	c.selected = ""
	c.mu.Unlock()
	c.notify()
}

// Close stops the controller from reacting to in-flight responses. The
// underlying requests are not aborted.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// View returns the current snapshot.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) fetch(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return ErrClosed
		}
		c.seq++
		token := c.seq
		params := c.pager.Params()
		q := member.PageQuery{
			Search:   c.search,
			Page:     params.Page,
			PageSize: params.Limit,
		}
		if !c.loaded {
			c.status = StatusLoading
		}
		c.fetching = true
		c.mu.Unlock()
		c.notify()

		result, err := c.source.List(ctx, q)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return ErrClosed
		}
		if token != c.seq {
			latest := c.seq
			c.mu.Unlock()
			c.logger.Debug().
				Uint64("token", token).
				Uint64("latest", latest).
				Int("page", q.Page).
				Str("search", q.Search).
				Msg("dropping superseded list response")
			return ErrSuperseded
		}

		c.fetching = false
		if err != nil {
			c.status = StatusError
			c.result = member.PageResult{}
			c.selected = ""
			c.err = err
			c.mu.Unlock()
			c.logger.Error().Err(err).Int("page", q.Page).Str("search", q.Search).Msg("member list fetch failed")
			c.notify()
			return err
		}

		c.status = StatusReady
		c.loaded = true
		c.err = nil
		c.result = result
		if c.selected != "" && !slices.ContainsFunc(result.Members, func(m member.Member) bool { return m.ID == c.selected }) {
			c.selected = ""
		}
		moved := c.pager.Recompute(result.Total)
		c.mu.Unlock()
		c.notify()

		if !moved {
			return nil
		}
		c.logger.Debug().
			Int("page", c.pager.Page()).
			Int("total", result.Total).
			Msg("page clamped, fetching last valid page")
	}
}

func (c *Controller) viewLocked() View {
	v := View{
		Status:       c.status,
		Members:      slices.Clone(c.result.Members),
		Total:        c.result.Total,
		Search:       c.search,
		Page:         c.pager.Page(),
		PageSize:     c.pager.PageSize(),
		TotalPages:   c.pager.TotalPages(),
		Pages:        c.pager.Pages(),
		HasPrevious:  c.pager.HasPrevious(),
		HasNext:      c.pager.HasNext(),
		ShowControls: c.pager.ShowControls(),
		Fetching:     c.fetching,
		Err:          c.err,
	}
	if v.Members == nil {
		v.Members = []member.Member{}
	}
	if c.status == StatusError {
		v.Pages = []int{}
		v.HasPrevious, v.HasNext, v.ShowControls = false, false, false
	}
	if c.selected != "" {
		for i := range v.Members {
			if v.Members[i].ID == c.selected {
				selected := v.Members[i]
				v.Selected = &selected
				break
			}
		}
	}
	return v
}

func (c *Controller) notify() {
	if c.onChange == nil {
		return
	}
	c.onChange(c.View())
}
