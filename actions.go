package auth

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
)

// Caller-visible action messages. Sign-in failure uses one message for both
// unknown email and wrong password so accounts cannot be enumerated.
const (
	MsgInvalidCredentials   = "Invalid email or password. Please try again."
	MsgEmailTaken           = "An account with this email already exists."
	MsgAccountUpdated       = "Account updated successfully."
	MsgPasswordUpdated      = "Password updated successfully."
	MsgCurrentPasswordWrong = "Current password is incorrect."
	MsgPasswordUnchanged    = "New password must be different from your current password."
	MsgDeletePasswordWrong  = "Incorrect password. Account not deleted."
	MsgUserNotFound         = "User not found."
	MsgSignUpFailed         = "Failed to create account. Please try again."
)

// SignInPayload is the sign-in form.
type SignInPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules in declared field order.
func (p SignInPayload) Validate() error {
	return firstError(
		validation.Validate(p.Email,
			validation.Required.Error("Email is required"),
			validation.Length(3, 255).Error("Email must be between 3 and 255 characters"),
			is.Email.Error("Invalid email address"),
		),
		validation.Validate(p.Password,
			validation.Required.Error("Password is required"),
			validation.Length(8, 100).Error("Password must be between 8 and 100 characters"),
		),
	)
}

// SignUpPayload is the registration form.
type SignUpPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Name     string `form:"name" json:"name"`
}

// Validate will run validation rules in declared field order.
func (p SignUpPayload) Validate() error {
	return firstError(
		validation.Validate(p.Email,
			validation.Required.Error("Email is required"),
			validation.Length(3, 255).Error("Email must be between 3 and 255 characters"),
			is.Email.Error("Invalid email address"),
		),
		validation.Validate(p.Password,
			validation.Required.Error("Password is required"),
			validation.Length(8, 100).Error("Password must be between 8 and 100 characters"),
		),
		validation.Validate(p.Name,
			validation.Required.Error("Name is required"),
			validation.Length(2, 100).Error("Name must be between 2 and 100 characters"),
		),
	)
}

// UpdateAccountPayload is the profile form.
type UpdateAccountPayload struct {
	Name  string `form:"name" json:"name"`
	Email string `form:"email" json:"email"`
}

// Validate will run validation rules in declared field order.
func (p UpdateAccountPayload) Validate() error {
	return firstError(
		validation.Validate(p.Name,
			validation.Required.Error("Name is required"),
			validation.Length(1, 100).Error("Name must be between 1 and 100 characters"),
		),
		validation.Validate(p.Email,
			validation.Required.Error("Email is required"),
			validation.Length(3, 255).Error("Email must be between 3 and 255 characters"),
			is.Email.Error("Invalid email address"),
		),
	)
}

// UpdatePasswordPayload is the password change form. The new/confirm
// mismatch is a schema-level cross-field rule: it fails validation before
// the handler runs, unlike the new-equals-current check which needs the
// stored hash.
type UpdatePasswordPayload struct {
	CurrentPassword string `form:"current_password" json:"current_password"`
	NewPassword     string `form:"new_password" json:"new_password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will run validation rules in declared field order.
func (p UpdatePasswordPayload) Validate() error {
	return firstError(
		validation.Validate(p.CurrentPassword,
			validation.Required.Error("Current password is required"),
			validation.Length(8, 100).Error("Current password is required"),
		),
		validation.Validate(p.NewPassword,
			validation.Required.Error("New password must be at least 8 characters"),
			validation.Length(8, 100).Error("New password must be at least 8 characters"),
		),
		validation.Validate(p.ConfirmPassword,
			validation.Required.Error("Confirm password is required"),
			validation.Length(8, 100).Error("Confirm password is required"),
			validation.By(ValidateStringEquals(p.NewPassword, "Passwords don't match")),
		),
	)
}

// DeleteAccountPayload confirms account deletion with the password.
type DeleteAccountPayload struct {
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (p DeleteAccountPayload) Validate() error {
	return validation.Validate(p.Password,
		validation.Required.Error("Password is required"),
		validation.Length(8, 100).Error("Password is required"),
	)
}

// Accounts implements the account state transitions. Handlers return
// business failures as ActionState data; only infrastructure faults come
// back as errors for the middleware to generalize.
type Accounts struct {
	repo     RepositoryManager
	sessions *SessionManager
	hasher   PasswordAuthenticator
	cfg      *Config
	logger   Logger
}

type AccountsOption func(*Accounts)

// WithAccountsLogger overrides the accounts logger.
func WithAccountsLogger(l Logger) AccountsOption {
	return func(a *Accounts) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithAccountsHasher overrides the password hasher, mostly to cut bcrypt
// cost in tests.
func WithAccountsHasher(h PasswordAuthenticator) AccountsOption {
	return func(a *Accounts) {
		if h != nil {
			a.hasher = h
		}
	}
}

// NewAccounts wires the action handlers to the credential store and the
// session manager.
func NewAccounts(cfg *Config, repo RepositoryManager, sessions *SessionManager, opts ...AccountsOption) *Accounts {
	a := &Accounts{
		repo:     repo,
		sessions: sessions,
		hasher:   NewPasswordAuthenticator(),
		cfg:      cfg,
		logger:   defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a
}

// SignIn verifies credentials and establishes a session. Unknown email and
// wrong password produce byte-identical results.
func (a *Accounts) SignIn(c router.Context, data SignInPayload) (ActionState, error) {
	user, err := a.repo.Users().FindByEmail(c.Context(), data.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrorState(MsgInvalidCredentials), nil
		}
		return ActionState{}, WrapStoreError(err, "sign-in lookup failed")
	}

	if err := a.hasher.ComparePasswordAndHash(data.Password, user.PasswordHash); err != nil {
		return ErrorState(MsgInvalidCredentials), nil
	}

	if err := a.sessions.Establish(c, user.SessionUser()); err != nil {
		return ActionState{}, err
	}

	return RedirectState(a.cfg.DashboardRoute), nil
}

// SignUp registers a new account inside a transaction and signs it in. The
// session is established only after the transaction commits, so a failed
// insert leaves no partial session. The email unique constraint is the
// guard against duplicate sign-ups racing.
func (a *Accounts) SignUp(c router.Context, data SignUpPayload) (ActionState, error) {
	var created *User
	state := ActionState{}

	err := a.repo.RunInTx(c.Context(), nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := a.repo.Users().FindByEmailTx(ctx, tx, data.Email); err == nil {
			state = ErrorState(MsgEmailTaken)
			return nil
		} else if !errors.Is(err, ErrUserNotFound) {
			return WrapStoreError(err, "sign-up lookup failed")
		}

		hash, err := a.hasher.HashPassword(data.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user := &User{
			Name:         data.Name,
			Email:        data.Email,
			PasswordHash: hash,
			Role:         RoleCustomer,
		}

		if created, err = a.repo.Users().InsertTx(ctx, tx, user); err != nil {
			if isUniqueViolation(err) {
				state = ErrorState(MsgEmailTaken)
				created = nil
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		return ActionState{}, err
	}

	if state.Error != "" {
		return state, nil
	}

	if created == nil {
		return ErrorState(MsgSignUpFailed), nil
	}

	if err := a.sessions.Establish(c, created.SessionUser()); err != nil {
		return ActionState{}, err
	}

	return RedirectState(a.cfg.DashboardRoute), nil
}

// SignOut destroys the session and redirects to sign-in. Safe to call
// without a session.
func (a *Accounts) SignOut(c router.Context) error {
	a.sessions.Destroy(c)
	return c.Redirect(a.cfg.SignInRoute, router.StatusSeeOther)
}

// UpdateAccount changes name and email for the signed-in user.
func (a *Accounts) UpdateAccount(c router.Context, data UpdateAccountPayload, user SessionUser) (ActionState, error) {
	row, err := a.repo.Users().FindByID(c.Context(), user.ID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrorState(MsgUserNotFound), nil
		}
		return ActionState{}, WrapStoreError(err, "account update lookup failed")
	}

	row.Name = data.Name
	row.Email = data.Email
	row.Touch()

	if _, err := a.repo.Users().Update(c.Context(), row); err != nil {
		if isUniqueViolation(err) {
			return ErrorState(MsgEmailTaken), nil
		}
		return ActionState{}, WrapStoreError(err, "account update failed")
	}

	return SuccessState(MsgAccountUpdated), nil
}

// UpdatePassword replaces the stored hash. Precondition order is fixed:
// current-password verification, then new-differs-from-current, then
// persist. The new/confirm mismatch never reaches this handler.
func (a *Accounts) UpdatePassword(c router.Context, data UpdatePasswordPayload, user SessionUser) (ActionState, error) {
	row, err := a.repo.Users().FindByID(c.Context(), user.ID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrorState(MsgUserNotFound), nil
		}
		return ActionState{}, WrapStoreError(err, "password update lookup failed")
	}

	if err := a.hasher.ComparePasswordAndHash(data.CurrentPassword, row.PasswordHash); err != nil {
		return ErrorState(MsgCurrentPasswordWrong), nil
	}

	if data.CurrentPassword == data.NewPassword {
		return ErrorState(MsgPasswordUnchanged), nil
	}

	hash, err := a.hasher.HashPassword(data.NewPassword)
	if err != nil {
		return ActionState{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	row.PasswordHash = hash
	row.Touch()

	if _, err := a.repo.Users().Update(c.Context(), row); err != nil {
		return ActionState{}, WrapStoreError(err, "password update failed")
	}

	return SuccessState(MsgPasswordUpdated), nil
}

// DeleteAccount removes the row and the session after verifying the
// password. A wrong password leaves both row and cookie untouched.
func (a *Accounts) DeleteAccount(c router.Context, data DeleteAccountPayload, user SessionUser) (ActionState, error) {
	row, err := a.repo.Users().FindByID(c.Context(), user.ID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrorState(MsgUserNotFound), nil
		}
		return ActionState{}, WrapStoreError(err, "account delete lookup failed")
	}

	if err := a.hasher.ComparePasswordAndHash(data.Password, row.PasswordHash); err != nil {
		return ErrorState(MsgDeletePasswordWrong), nil
	}

	if err := a.repo.Users().Delete(c.Context(), row.ID); err != nil {
		return ActionState{}, WrapStoreError(err, "account delete failed")
	}

	a.sessions.Destroy(c)

	return RedirectState(a.cfg.SignInRoute), nil
}

// AdminOverview feeds the admin dashboard. It is mounted behind WithAdmin;
// the role gate has already run by the time this executes, so user is
// guaranteed to be an admin resolved against the store.
func (a *Accounts) AdminOverview(c router.Context, user SessionUser) (ActionState, error) {
	return DataState(map[string]any{
		"viewer": user.Email,
		"role":   user.Role,
	}), nil
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str, msg string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New(msg)
		}
		return nil
	}
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// isUniqueViolation matches driver-level unique constraint failures across
// the sqlite and postgres dialects we run against.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
