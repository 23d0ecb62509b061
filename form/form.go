// Package form holds the state of a member create or edit form.
//
// Required-field markers are computed only on Submit: editing a field never
// clears its marker until the next submit re-checks it. While a submission
// is in flight further submits are rejected. A failed submission keeps the
// entered values and sets a notice; a successful one resets the values and
// closes the enclosing dialog.
package form

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-team-directory/member"
	"github.com/goliatone/go-team-directory/modal"
)

// NoticeSubmitFailed is shown when the server rejects or fails a submission.
const NoticeSubmitFailed = "Failed to save member. Please try again."

var (
	// ErrPending is returned by Submit while a previous submission runs.
	ErrPending = errors.New("form: submission already pending")
	// ErrDismissed is returned when the dialog closed while the submission
	// was in flight; the form state was left untouched.
	ErrDismissed = errors.New("form: dialog closed before the submission completed")
)

// SubmitFunc sends valid fields to the collection.
type SubmitFunc func(ctx context.Context, fields member.Fields) (member.Member, error)

// SuccessFunc is called after a successful submission, outside the form lock.
type SuccessFunc func(ctx context.Context, m member.Member)

// State is a snapshot of the form for rendering.
type State struct {
	Values  member.Fields
	Errors  map[string]string
	Pending bool
	Notice  string
	Open    bool
}

// FieldError returns the marker under field, or "".
func (s State) FieldError(field string) string {
	return s.Errors[field]
}

// CanSubmit reports whether the submit button is enabled.
func (s State) CanSubmit() bool {
	return !s.Pending
}

// Form is safe for concurrent use.
type Form struct {
	mu        sync.Mutex
	initial   member.Fields
	values    member.Fields
	errors    map[string]string
	pending   bool
	notice    string
	session   *modal.Session
	dialog    *modal.Dialog
	submit    SubmitFunc
	onSuccess SuccessFunc
	onChange  func(State)
	logger    zerolog.Logger
}

// Option configures a Form.
type Option func(*Form)

// WithInitial seeds the values a fresh or reset form starts from.
func WithInitial(fields member.Fields) Option {
	return func(f *Form) {
		f.initial = fields
	}
}

// WithDialog binds the form to a dialog: Open acquires a session, success
// and Cancel release it.
func WithDialog(d *modal.Dialog) Option {
	return func(f *Form) {
		f.dialog = d
	}
}

// WithOnSuccess registers the callback run after a successful submission.
func WithOnSuccess(fn SuccessFunc) Option {
	return func(f *Form) {
		f.onSuccess = fn
	}
}

// WithOnChange registers a listener called with every new state.
func WithOnChange(fn func(State)) Option {
	return func(f *Form) {
		f.onChange = fn
	}
}

// WithLogger sets the form logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Form) {
		f.logger = logger
	}
}

// New creates a form that submits through submit.
func New(submit SubmitFunc, opts ...Option) *Form {
	f := &Form{
		submit: submit,
		errors: map[string]string{},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.values = f.initial
	return f
}

// Open shows the form. Without a dialog it returns nil.
func (f *Form) Open() *modal.Session {
	if f.dialog == nil {
		return nil
	}
	s := f.dialog.Open()
	f.mu.Lock()
	f.session = s
	f.mu.Unlock()
	f.changed()
	return s
}

// Cancel closes the dialog and discards the entered values.
func (f *Form) Cancel() {
	f.mu.Lock()
	s := f.session
	f.session = nil
	f.resetLocked()
	f.mu.Unlock()
	if s != nil {
		s.Close()
	}
	f.changed()
}

// Set changes one field value. Markers are left as they are.
func (f *Form) Set(field, value string) error {
	f.mu.Lock()
	values, err := f.values.With(field, value)
	if err == nil {
		f.values = values
	}
	f.mu.Unlock()
	if err != nil {
		return err
	}
	f.changed()
	return nil
}

// Values returns the entered values.
func (f *Form) Values() member.Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// FieldError returns the current marker under field.
func (f *Form) FieldError(field string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors[field]
}

// State returns a snapshot for rendering.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

// Reset restores the initial values and clears markers and notice.
func (f *Form) Reset() {
	f.mu.Lock()
	f.resetLocked()
	f.mu.Unlock()
	f.changed()
}

// Submit validates the values and, if they pass, submits them. A
// *member.ValidationError means no request was made.
func (f *Form) Submit(ctx context.Context) (member.Member, error) {
	f.mu.Lock()
	if f.pending {
		f.mu.Unlock()
		return member.Member{}, ErrPending
	}

	values := f.values
	if err := member.ValidateFields(values); err != nil {
		f.errors = maps.Clone(member.AsValidation(err).Fields)
		f.notice = ""
		f.mu.Unlock()
		f.changed()
		return member.Member{}, err
	}

	f.errors = map[string]string{}
	f.notice = ""
	f.pending = true
	session := f.session
	f.mu.Unlock()
	f.changed()

	m, err := f.submit(ctx, values)

	f.mu.Lock()
	f.pending = false
	if session != nil && !session.Active() {
		f.mu.Unlock()
		f.logger.Debug().Msg("form dismissed while submitting, result ignored")
		if err != nil {
			return member.Member{}, errors.Join(ErrDismissed, err)
		}
		return m, ErrDismissed
	}

	if err != nil {
		if verr := member.AsValidation(err); verr != nil && len(verr.Fields) > 0 {
			f.errors = maps.Clone(verr.Fields)
		}
		f.notice = NoticeSubmitFailed
		f.mu.Unlock()
		f.logger.Warn().Err(err).Msg("member submission failed")
		f.changed()
		return member.Member{}, err
	}

	f.resetLocked()
	f.session = nil
	f.mu.Unlock()

	if session != nil {
		session.Close()
	}
	f.changed()
	if f.onSuccess != nil {
		f.onSuccess(ctx, m)
	}
	return m, nil
}

func (f *Form) resetLocked() {
	f.values = f.initial
	f.errors = map[string]string{}
	f.notice = ""
}

func (f *Form) stateLocked() State {
	return State{
		Values:  f.values,
		Errors:  maps.Clone(f.errors),
		Pending: f.pending,
		Notice:  f.notice,
		Open:    f.session.Active(),
	}
}

func (f *Form) changed() {
	if f.onChange == nil {
		return
	}
	f.onChange(f.State())
}
