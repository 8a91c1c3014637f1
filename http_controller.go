package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

// AccountControllerRoutes are the storefront entry points.
type AccountControllerRoutes struct {
	SignIn         string
	SignUp         string
	SignOut        string
	Account        string
	Password       string
	DeleteAccount  string
	AdminDashboard string
}

// AccountControllerViews map routes to template names.
type AccountControllerViews struct {
	SignIn  string
	SignUp  string
	Account string
}

// AccountController binds the wrapped action handlers to HTTP routes.
type AccountController struct {
	Debug    bool
	Logger   Logger
	Accounts *Accounts
	Runner   *ActionRunner
	Sessions *SessionManager
	Routes   *AccountControllerRoutes
	Views    *AccountControllerViews
}

type AccountControllerOption func(*AccountController) *AccountController

func WithControllerAccounts(accounts *Accounts) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Accounts = accounts
		return c
	}
}

func WithControllerRunner(runner *ActionRunner) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Runner = runner
		return c
	}
}

func WithControllerSessions(sessions *SessionManager) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Sessions = sessions
		return c
	}
}

func WithControllerLogger(l Logger) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func NewAccountController(opts ...AccountControllerOption) *AccountController {
	c := &AccountController{
		Logger: defLogger{},
		Routes: &AccountControllerRoutes{
			SignIn:         "/sign-in",
			SignUp:         "/sign-up",
			SignOut:        "/sign-out",
			Account:        "/account",
			Password:       "/account/password",
			DeleteAccount:  "/account/delete",
			AdminDashboard: "/admin",
		},
		Views: &AccountControllerViews{
			SignIn:  "sign_in",
			SignUp:  "sign_up",
			Account: "account",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Accounts == nil {
		panic("Missing Accounts in account controller...")
	}

	if c.Runner == nil {
		panic("Missing ActionRunner in account controller...")
	}

	if c.Sessions == nil {
		panic("Missing SessionManager in account controller...")
	}

	return c
}

// RegisterAccountRoutes mounts the auth entry points on the router.
func RegisterAccountRoutes[T any](app router.Router[T], opts ...AccountControllerOption) {
	controller := NewAccountController(opts...)

	app.Get(controller.Routes.SignIn, controller.SignInShow).
		SetName("sign-in.get")
	app.Post(controller.Routes.SignIn, ValidatedAction(controller.Runner, controller.Accounts.SignIn)).
		SetName("sign-in.post")

	app.Get(controller.Routes.SignUp, controller.SignUpShow).
		SetName("sign-up.get")
	app.Post(controller.Routes.SignUp, ValidatedAction(controller.Runner, controller.Accounts.SignUp)).
		SetName("sign-up.post")

	app.Post(controller.Routes.SignOut, controller.Accounts.SignOut).
		SetName("sign-out.post")

	app.Get(controller.Routes.Account, controller.AccountShow).
		SetName("account.get")
	app.Post(controller.Routes.Account, ValidatedActionWithUser(controller.Runner, controller.Accounts.UpdateAccount)).
		SetName("account.post")

	app.Post(controller.Routes.Password, ValidatedActionWithUser(controller.Runner, controller.Accounts.UpdatePassword)).
		SetName("account-password.post")

	app.Post(controller.Routes.DeleteAccount, ValidatedActionWithUser(controller.Runner, controller.Accounts.DeleteAccount)).
		SetName("account-delete.post")

	app.Get(controller.Routes.AdminDashboard, WithAdmin(controller.Runner, controller.Accounts.AdminOverview)).
		SetName("admin.get")
}

func (a *AccountController) SignInShow(ctx router.Context) error {
	// Already signed in? The projection is enough for this redirect; no
	// store round trip needed just to bounce to the dashboard.
	if user := a.Sessions.Current(ctx); user != nil {
		return ctx.Redirect(a.Runner.cfg.DashboardRoute, router.StatusSeeOther)
	}

	return ctx.Render(a.Views.SignIn, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

func (a *AccountController) SignUpShow(ctx router.Context) error {
	if user := a.Sessions.Current(ctx); user != nil {
		return ctx.Redirect(a.Runner.cfg.DashboardRoute, router.StatusSeeOther)
	}

	return ctx.Render(a.Views.SignUp, router.ViewContext{
		"errors": nil,
		"record": SignUpPayload{},
	})
}

// AccountShow renders the profile page for the signed-in user. Display
// fields come from the authoritative row, not the cookie projection, since
// the page feeds the edit forms.
func (a *AccountController) AccountShow(ctx router.Context) error {
	user, err := a.Sessions.GetUser(ctx)
	if err != nil {
		return ctx.Redirect(a.Routes.SignIn, router.StatusSeeOther)
	}

	if a.Debug {
		fmt.Println("======= ACCOUNT SHOW ======")
		fmt.Println(print.MaybePrettyJSON(user))
		fmt.Println("===========================")
	}

	return ctx.Render(a.Views.Account, router.ViewContext{
		"user": user,
	})
}

// FlashActionState writes an ActionState into flash context for render-based
// responders that show the message on the next page load.
func FlashActionState(ctx router.Context, state ActionState) router.Context {
	if state.Error != "" {
		return flash.WithError(ctx, router.ViewContext{
			"error_message": state.Error,
		})
	}

	if state.Success != "" {
		return flash.WithSuccess(ctx, router.ViewContext{
			"system_message": state.Success,
		})
	}

	return ctx
}

// RenderResponder returns a responder that redirects with flash messages
// instead of emitting JSON, for server-rendered storefront pages.
func RenderResponder(fallback string) func(router.Context, ActionState) error {
	return func(ctx router.Context, state ActionState) error {
		if state.Redirect != "" {
			return FlashActionState(ctx, state).Redirect(state.Redirect, fiber.StatusSeeOther)
		}
		return FlashActionState(ctx, state).Redirect(fallback, fiber.StatusSeeOther)
	}
}
