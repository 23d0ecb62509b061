// Package detail implements the single member page: load by id, edit in
// place through a draft form, and delete behind a confirmation dialog.
package detail

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-team-directory/form"
	"github.com/goliatone/go-team-directory/member"
	"github.com/goliatone/go-team-directory/modal"
)

// NoticeDeleteFailed is shown when the delete request fails.
const NoticeDeleteFailed = "Failed to delete member. Please try again."

var (
	// ErrNotReady is returned by edit and delete actions before a record is
	// loaded.
	ErrNotReady = errors.New("detail: no member loaded")
	// ErrNotEditing is returned by draft actions outside edit mode.
	ErrNotEditing = errors.New("detail: not in edit mode")
	// ErrNoConfirmation is returned by ConfirmDelete without an open
	// confirmation dialog.
	ErrNoConfirmation = errors.New("detail: delete was not requested")
	// ErrDeletePending is returned while a delete request runs.
	ErrDeletePending = errors.New("detail: delete already pending")
)

// Collection is the part of the member collection the page needs.
type Collection interface {
	GetByID(ctx context.Context, id member.ID) (member.Member, error)
	Update(ctx context.Context, id member.ID, patch member.Patch) (member.Member, error)
	Delete(ctx context.Context, id member.ID) error
}

// ListRefresher re-fetches the member list after a change.
// directory.Controller implements it.
type ListRefresher interface {
	Refresh(ctx context.Context) error
}

// Navigator moves the user back to the list.
type Navigator interface {
	ToList()
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func()

func (f NavigatorFunc) ToList() { f() }

// Status of the page.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusNotFound
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusNotFound:
		return "not_found"
	}
	return "unknown"
}

// View is a snapshot of the page for rendering.
type View struct {
	Status    Status
	Member    member.Member
	Editing   bool
	Draft     form.State
	Confirm   bool
	Deleting  bool
	Notice    string
	LoadError error
}

// Controller is safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	id       member.ID
	coll     Collection
	list     ListRefresher
	nav      Navigator
	confirm  *modal.Dialog
	status   Status
	record   member.Member
	loadErr  error
	draft    *form.Form
	deleting bool
	notice   string
	onChange func(View)
	logger   zerolog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithListRefresher refreshes the list after a save or a delete.
func WithListRefresher(r ListRefresher) Option {
	return func(c *Controller) {
		c.list = r
	}
}

// WithNavigator sets where a successful delete leads.
func WithNavigator(n Navigator) Option {
	return func(c *Controller) {
		c.nav = n
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

// New creates the page for id. Nothing is fetched until Load.
func New(coll Collection, id member.ID, opts ...Option) *Controller {
	c := &Controller{
		id:     id,
		coll:   coll,
		status: StatusIdle,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.confirm = modal.NewDialog("confirm-delete", modal.WithLogger(c.logger))
	return c
}

// ID returns the member id the page shows.
func (c *Controller) ID() member.ID { return c.id }

// Load fetches the member. Any failure leads to the not found state.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.status = StatusLoading
	c.mu.Unlock()
	c.notify()

	m, err := c.coll.GetByID(ctx, c.id)

	c.mu.Lock()
	if err != nil {
		c.status = StatusNotFound
		c.loadErr = err
		c.record = member.Member{}
	} else {
		c.status = StatusReady
		c.loadErr = nil
		c.record = m
	}
	c.mu.Unlock()
	if err != nil {
		c.logger.Warn().Err(err).Str("id", c.id.String()).Msg("member detail load failed")
	}
	c.notify()
	return err
}

// BeginEdit switches to edit mode with a draft seeded from the loaded
// record.
func (c *Controller) BeginEdit() error {
	c.mu.Lock()
	if c.status != StatusReady {
		c.mu.Unlock()
		return ErrNotReady
	}
	if c.draft == nil {
		c.draft = form.New(c.update, form.WithInitial(c.record.Fields()), form.WithLogger(c.logger))
	}
	c.notice = ""
	c.mu.Unlock()
	c.notify()
	return nil
}

// SetField changes one draft field.
func (c *Controller) SetField(field, value string) error {
	draft := c.currentDraft()
	if draft == nil {
		return ErrNotEditing
	}
	if err := draft.Set(field, value); err != nil {
		return err
	}
	c.notify()
	return nil
}

// CancelEdit discards the draft and shows the server-known values again.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	c.draft = nil
	c.mu.Unlock()
	c.notify()
}

// Save validates the draft and sends the changed fields. On success the
// page shows the updated record and the list is refreshed. On failure the
// draft is kept.
func (c *Controller) Save(ctx context.Context) error {
	draft := c.currentDraft()
	if draft == nil {
		return ErrNotEditing
	}

	updated, err := draft.Submit(ctx)
	if err != nil {
		c.notify()
		return err
	}

	c.mu.Lock()
	if c.draft == draft {
		c.draft = nil
	}
	c.record = updated
	c.mu.Unlock()
	c.notify()

	c.refreshList(ctx)
	return nil
}

// RequestDelete opens the confirmation dialog.
func (c *Controller) RequestDelete() error {
	c.mu.Lock()
	ready := c.status == StatusReady
	c.notice = ""
	c.mu.Unlock()
	if !ready {
		return ErrNotReady
	}
	c.confirm.Open()
	c.notify()
	return nil
}

// CancelDelete closes the confirmation dialog.
func (c *Controller) CancelDelete() {
	c.confirm.Close()
	c.notify()
}

// ConfirmDelete issues the delete. The confirmation dialog is released
// whatever the outcome. On success the list is refreshed and the user is
// sent back to it; on failure a notice is shown and the record stays.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	session := c.confirm.Session()
	if session == nil {
		return ErrNoConfirmation
	}

	c.mu.Lock()
	if c.deleting {
		c.mu.Unlock()
		return ErrDeletePending
	}
	c.deleting = true
	c.mu.Unlock()
	c.notify()

	err := modal.With(session, func(*modal.Session) error {
		return c.coll.Delete(ctx, c.id)
	})

	c.mu.Lock()
	c.deleting = false
	if err != nil {
		c.notice = NoticeDeleteFailed
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error().Err(err).Str("id", c.id.String()).Msg("member delete failed")
		c.notify()
		return err
	}

	c.notify()
	c.refreshList(ctx)
	if c.nav != nil {
		c.nav.ToList()
	}
	return nil
}

// View returns the current snapshot.
func (c *Controller) View() View {
	c.mu.Lock()
	v := View{
		Status:    c.status,
		Member:    c.record,
		Editing:   c.draft != nil,
		Deleting:  c.deleting,
		Notice:    c.notice,
		LoadError: c.loadErr,
	}
	draft := c.draft
	c.mu.Unlock()

	if draft != nil {
		v.Draft = draft.State()
	}
	v.Confirm = c.confirm.IsOpen()
	return v
}

// update is the draft's submit function: only the changed fields are sent,
// and an unchanged draft makes no request.
func (c *Controller) update(ctx context.Context, fields member.Fields) (member.Member, error) {
	c.mu.Lock()
	current := c.record
	c.mu.Unlock()

	patch := member.Diff(current.Fields(), fields)
	if patch.IsEmpty() {
		return current, nil
	}
	return c.coll.Update(ctx, c.id, patch)
}

func (c *Controller) currentDraft() *form.Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *Controller) refreshList(ctx context.Context) {
	if c.list == nil {
		return
	}
	if err := c.list.Refresh(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("list refresh after change failed")
	}
}

func (c *Controller) notify() {
	if c.onChange == nil {
		return
	}
	c.onChange(c.View())
}
