package auth

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// MsgUnexpectedError is the only message handler-internal faults are allowed
// to surface; the underlying cause stays in server-side logs.
const MsgUnexpectedError = "An unexpected error occurred"

const msgParseForm = "Failed to parse form"

// ActionState is the transient result of one action invocation: an error
// message, a success message, or a redirect. Never persisted.
type ActionState struct {
	Error    string `json:"error,omitempty"`
	Success  string `json:"success,omitempty"`
	Data     any    `json:"data,omitempty"`
	Redirect string `json:"-"`
}

// ErrorState wraps a caller-visible failure message.
func ErrorState(msg string) ActionState {
	return ActionState{Error: msg}
}

// SuccessState wraps a caller-visible success message.
func SuccessState(msg string) ActionState {
	return ActionState{Success: msg}
}

// RedirectState terminates the action in a redirect instead of data.
func RedirectState(path string) ActionState {
	return ActionState{Redirect: path}
}

// DataState wraps an action-specific payload.
func DataState(v any) ActionState {
	return ActionState{Data: v}
}

// Payload is a form payload carrying its own declarative validation rules.
// Validate must evaluate rules in declared field order and return the first
// violation, so the surfaced message is stable for the UI.
type Payload interface {
	Validate() error
}

// ActionFunc handles a validated payload. Business failures come back as
// ActionState data; a non-nil error means an unexpected fault and is
// generalized before it reaches the caller.
type ActionFunc[P Payload] func(c router.Context, data P) (ActionState, error)

// ActionWithUserFunc additionally receives the resolved session user.
type ActionWithUserFunc[P Payload] func(c router.Context, data P, user SessionUser) (ActionState, error)

// UserActionFunc is a session-gated action without a validated payload.
type UserActionFunc func(c router.Context, user SessionUser) (ActionState, error)

// ActionRunner carries the dependencies shared by every wrapped action:
// session resolution, logging, and result emission.
type ActionRunner struct {
	sessions *SessionManager
	cfg      *Config
	logger   Logger
	respond  func(router.Context, ActionState) error
}

type ActionRunnerOption func(*ActionRunner)

// WithActionLogger overrides the runner logger.
func WithActionLogger(l Logger) ActionRunnerOption {
	return func(r *ActionRunner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithResponder overrides how ActionState values are written to the client.
// The default emits JSON, or a 303 redirect when the state carries one.
func WithResponder(respond func(router.Context, ActionState) error) ActionRunnerOption {
	return func(r *ActionRunner) {
		if respond != nil {
			r.respond = respond
		}
	}
}

// NewActionRunner builds the wrapper pipeline around a session manager.
func NewActionRunner(cfg *Config, sessions *SessionManager, opts ...ActionRunnerOption) *ActionRunner {
	r := &ActionRunner{
		sessions: sessions,
		cfg:      cfg,
		logger:   defLogger{},
	}
	r.respond = r.defaultRespond

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

func (r *ActionRunner) defaultRespond(c router.Context, state ActionState) error {
	if state.Redirect != "" {
		return c.Redirect(state.Redirect, router.StatusSeeOther)
	}
	return c.JSON(http.StatusOK, state)
}

// redirectToSignIn short-circuits a sessionless request. This is the one
// condition permitted to bypass the ActionState result shape.
func (r *ActionRunner) redirectToSignIn(c router.Context) error {
	return c.Redirect(r.cfg.SignInRoute, router.StatusSeeOther)
}

// ValidatedAction wraps a handler with payload binding and schema
// validation. No session is required. Validation failures return the first
// violated rule's message without invoking the handler; handler faults are
// caught and generalized.
func ValidatedAction[P Payload](r *ActionRunner, handler ActionFunc[P]) router.HandlerFunc {
	return func(c router.Context) error {
		var payload P
		if err := c.Bind(&payload); err != nil {
			r.logger.Error("action payload bind failed: %s", err)
			return r.respond(c, ErrorState(msgParseForm))
		}

		if err := payload.Validate(); err != nil {
			return r.respond(c, ErrorState(FirstValidationError(err)))
		}

		state := r.safeInvoke(func() (ActionState, error) {
			return handler(c, payload)
		})

		return r.respond(c, state)
	}
}

// ValidatedActionWithUser is ValidatedAction plus session resolution. The
// session check runs before schema validation on purpose: an anonymous
// caller is redirected to sign-in regardless of what they submitted.
func ValidatedActionWithUser[P Payload](r *ActionRunner, handler ActionWithUserFunc[P]) router.HandlerFunc {
	return func(c router.Context) error {
		user, err := r.resolveUser(c)
		if err != nil {
			return r.redirectToSignIn(c)
		}

		var payload P
		if err := c.Bind(&payload); err != nil {
			r.logger.Error("action payload bind failed: %s", err)
			return r.respond(c, ErrorState(msgParseForm))
		}

		if err := payload.Validate(); err != nil {
			return r.respond(c, ErrorState(FirstValidationError(err)))
		}

		state := r.safeInvoke(func() (ActionState, error) {
			return handler(c, payload, *user)
		})

		return r.respond(c, state)
	}
}

// WithUser gates an action on session presence only.
func WithUser(r *ActionRunner, handler UserActionFunc) router.HandlerFunc {
	return func(c router.Context) error {
		user, err := r.resolveUser(c)
		if err != nil {
			return r.redirectToSignIn(c)
		}

		state := r.safeInvoke(func() (ActionState, error) {
			return handler(c, *user)
		})

		return r.respond(c, state)
	}
}

// WithRole gates an action on session presence and a minimum role. A role
// mismatch is a recoverable authorization error, not a fault: the caller
// gets the rich error's message with its HTTP code.
func WithRole(r *ActionRunner, minRole UserRole, handler UserActionFunc) router.HandlerFunc {
	return func(c router.Context) error {
		user, err := r.resolveUser(c)
		if err != nil {
			return r.redirectToSignIn(c)
		}

		if !RoleSatisfies(user.Role, minRole) {
			r.logger.Info("role gate rejected user %s: has %q, needs %q", user.ID, user.Role, minRole)
			return r.respondRichError(c, ErrAdminRequired)
		}

		state := r.safeInvoke(func() (ActionState, error) {
			return handler(c, *user)
		})

		return r.respond(c, state)
	}
}

// WithAdmin is WithRole fixed to the admin capability.
func WithAdmin(r *ActionRunner, handler UserActionFunc) router.HandlerFunc {
	return WithRole(r, RoleAdmin, handler)
}

// resolveUser is the session-resolution pipeline stage. It goes through
// GetUser, so the credential store is the authority, not the cookie.
func (r *ActionRunner) resolveUser(c router.Context) (*SessionUser, error) {
	user, err := r.sessions.GetUser(c)
	if err != nil {
		if !IsNoSession(err) {
			r.logger.Error("session resolution failed: %s", err)
		}
		return nil, err
	}
	return user, nil
}

// safeInvoke runs a handler, converting returned errors and recovered panics
// into the generic unexpected-error state. Handler-specific failure detail
// must come back as a normal ActionState to be observable by the caller.
func (r *ActionRunner) safeInvoke(fn func() (ActionState, error)) (state ActionState) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("action handler panic: %v", rec)
			state = ErrorState(MsgUnexpectedError)
		}
	}()

	state, err := fn()
	if err != nil {
		r.logger.Error("action handler error: %s", err)
		return ErrorState(MsgUnexpectedError)
	}

	return state
}

func (r *ActionRunner) respondRichError(c router.Context, err *goerrors.Error) error {
	code := err.Code
	if code == 0 {
		code = http.StatusForbidden
	}
	return c.JSON(code, ActionState{Error: err.Message})
}

// FirstValidationError extracts the message of the first violated rule.
// Payload Validate implementations evaluate fields sequentially, so the
// incoming error already is the first violation; ozzo map errors fall back
// to their own formatting.
func FirstValidationError(err error) string {
	if err == nil {
		return ""
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return verrs.Error()
	}

	return err.Error()
}
