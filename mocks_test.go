package auth_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	auth "github.com/boltline/storefront-auth"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// fakeContext is a concrete router.Context for exercising full action flows:
// cookies behave like a browser jar, Bind decodes the prepared body, and
// redirects, renders, and JSON responses are recorded for assertions.
type fakeContext struct {
	ctx        context.Context
	body       []byte
	cookies    map[string]string
	setCookies []*router.Cookie
	redirects  []fakeRedirect
	renders    []fakeRender
	jsonCode   int
	jsonBody   any
	jsonCalls  int
	statusCode int
	locals     map[any]any
	headers    map[string]string
	nextCalled bool
	bindErr    error
}

type fakeRedirect struct {
	path   string
	status int
}

type fakeRender struct {
	name string
	bind any
}

func newFakeContext() *fakeContext {
	return &fakeContext{
		ctx:     context.Background(),
		cookies: map[string]string{},
		locals:  map[any]any{},
		headers: map[string]string{},
	}
}

// withForm sets the request body the next Bind call decodes.
func (f *fakeContext) withForm(fields map[string]string) *fakeContext {
	raw, err := json.Marshal(fields)
	if err != nil {
		panic(err)
	}
	f.body = raw
	return f
}

func (f *fakeContext) lastRedirect() (fakeRedirect, bool) {
	if len(f.redirects) == 0 {
		return fakeRedirect{}, false
	}
	return f.redirects[len(f.redirects)-1], true
}

func (f *fakeContext) lastCookie(name string) *router.Cookie {
	for i := len(f.setCookies) - 1; i >= 0; i-- {
		if f.setCookies[i].Name == name {
			return f.setCookies[i]
		}
	}
	return nil
}

func (f *fakeContext) Next() error {
	f.nextCalled = true
	return nil
}

func (f *fakeContext) Context() context.Context {
	return f.ctx
}

func (f *fakeContext) SetContext(ctx context.Context) {
	f.ctx = ctx
}

func (f *fakeContext) Path() string   { return "/" }
func (f *fakeContext) Method() string { return "POST" }
func (f *fakeContext) Body() []byte   { return f.body }

func (f *fakeContext) Status(code int) router.Context {
	f.statusCode = code
	return f
}

func (f *fakeContext) SendString(s string) error { return nil }
func (f *fakeContext) Send(b []byte) error       { return nil }

func (f *fakeContext) JSON(code int, val any) error {
	f.jsonCode = code
	f.jsonBody = val
	f.jsonCalls++
	return nil
}

func (f *fakeContext) NoContent(code int) error {
	f.statusCode = code
	return nil
}

func (f *fakeContext) Render(name string, bind any, layout ...string) error {
	f.renders = append(f.renders, fakeRender{name: name, bind: bind})
	return nil
}

func (f *fakeContext) Redirect(path string, status ...int) error {
	code := 302
	if len(status) > 0 {
		code = status[0]
	}
	f.redirects = append(f.redirects, fakeRedirect{path: path, status: code})
	return nil
}

func (f *fakeContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	return f.Redirect(name, status...)
}

func (f *fakeContext) RedirectBack(fallback string, status ...int) error {
	return f.Redirect(fallback, status...)
}

func (f *fakeContext) SetHeader(key, val string) router.Context {
	f.headers[key] = val
	return f
}

func (f *fakeContext) Header(key string) string {
	return f.headers[key]
}

func (f *fakeContext) Get(key string, defaultValue any) any {
	if v, ok := f.locals[key]; ok {
		return v
	}
	return defaultValue
}

func (f *fakeContext) GetBool(key string, defaultValue bool) bool { return defaultValue }
func (f *fakeContext) GetInt(key string, def int) int             { return def }

func (f *fakeContext) GetString(key string, defaultValue string) string {
	if v, ok := f.locals[key].(string); ok {
		return v
	}
	return defaultValue
}

func (f *fakeContext) Set(key string, val any) {
	f.locals[key] = val
}

func (f *fakeContext) Bind(i any) error {
	if f.bindErr != nil {
		return f.bindErr
	}
	if f.body == nil {
		return nil
	}
	return json.Unmarshal(f.body, i)
}

func (f *fakeContext) BindJSON(i any) error     { return f.Bind(i) }
func (f *fakeContext) BindXML(i any) error      { return f.Bind(i) }
func (f *fakeContext) BindQuery(i any) error    { return f.Bind(i) }
func (f *fakeContext) CookieParser(i any) error { return nil }

func (f *fakeContext) Cookie(cookie *router.Cookie) {
	f.setCookies = append(f.setCookies, cookie)
	if !cookie.Expires.IsZero() && cookie.Expires.Before(time.Now()) {
		delete(f.cookies, cookie.Name)
		return
	}
	f.cookies[cookie.Name] = cookie.Value
}

func (f *fakeContext) Cookies(key string, defaultValue ...string) string {
	if v, ok := f.cookies[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (f *fakeContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (f *fakeContext) ParamsInt(key string, defaultValue int) int { return defaultValue }

func (f *fakeContext) Query(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (f *fakeContext) QueryValues(key string) []string           { return nil }
func (f *fakeContext) QueryInt(key string, defaultValue int) int { return defaultValue }
func (f *fakeContext) Queries() map[string]string                { return map[string]string{} }

func (f *fakeContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		f.locals[key] = value[0]
		return nil
	}
	return f.locals[key]
}

func (f *fakeContext) OriginalURL() string          { return "/" }
func (f *fakeContext) OnNext(callback func() error) {}
func (f *fakeContext) Referer() string              { return "" }

func (f *fakeContext) LocalsMerge(key any, value map[string]any) map[string]any { return value }

func (f *fakeContext) FormFile(key string) (*multipart.FileHeader, error) { return nil, nil }

func (f *fakeContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (f *fakeContext) IP() string { return "" }

func (f *fakeContext) SendStatus(code int) error {
	f.statusCode = code
	return nil
}

func (f *fakeContext) SendStream(r io.Reader) error { return nil }

func (f *fakeContext) RouteName() string              { return "" }
func (f *fakeContext) RouteParams() map[string]string { return map[string]string{} }

var _ router.Context = (*fakeContext)(nil)

// memUsers is an in-memory credential store with the same unique-email
// discipline the SQL schema enforces.
type memUsers struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*User
	byEmail map[string]uuid.UUID

	// blindEmailLookup makes FindByEmailTx miss, simulating a sign-up race
	// where the pre-check passes but the unique constraint still fires.
	blindEmailLookup bool
}

type User = auth.User

func newMemUsers() *memUsers {
	return &memUsers{
		byID:    map[uuid.UUID]*User{},
		byEmail: map[string]uuid.UUID{},
	}
}

func (m *memUsers) clone(u *User) *User {
	cp := *u
	return &cp
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*User, error) {
	return m.FindByEmailTx(ctx, nil, email)
}

func (m *memUsers) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.blindEmailLookup {
		return nil, auth.ErrUserNotFound
	}

	id, ok := m.byEmail[email]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return m.clone(m.byID[id]), nil
}

func (m *memUsers) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return m.FindByIDTx(ctx, nil, id)
}

func (m *memUsers) FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byID[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return m.clone(user), nil
}

func (m *memUsers) Insert(ctx context.Context, user *User) (*User, error) {
	return m.InsertTx(ctx, nil, user)
}

func (m *memUsers) InsertTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[user.Email]; exists {
		return nil, errUniqueEmail
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = auth.RoleCustomer
	}
	now := time.Now()
	if user.CreatedAt == nil {
		user.CreatedAt = &now
	}
	if user.UpdatedAt == nil {
		user.UpdatedAt = &now
	}

	m.byID[user.ID] = m.clone(user)
	m.byEmail[user.Email] = user.ID
	return m.clone(user), nil
}

func (m *memUsers) Update(ctx context.Context, user *User) (*User, error) {
	return m.UpdateTx(ctx, nil, user)
}

// UpdateTx merges non-zero fields into the stored row, mirroring the
// omit-zero update semantics of the bun repository.
func (m *memUsers) UpdateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[user.ID]
	if !ok {
		return nil, auth.ErrUserNotFound
	}

	if user.Email != "" && user.Email != existing.Email {
		if _, taken := m.byEmail[user.Email]; taken {
			return nil, errUniqueEmail
		}
		delete(m.byEmail, existing.Email)
		existing.Email = user.Email
		m.byEmail[existing.Email] = existing.ID
	}
	if user.Name != "" {
		existing.Name = user.Name
	}
	if user.PasswordHash != "" {
		existing.PasswordHash = user.PasswordHash
	}
	if user.Role != "" {
		existing.Role = user.Role
	}
	if user.UpdatedAt != nil {
		existing.UpdatedAt = user.UpdatedAt
	}

	return m.clone(existing), nil
}

func (m *memUsers) Delete(ctx context.Context, id uuid.UUID) error {
	return m.DeleteTx(ctx, nil, id)
}

func (m *memUsers) DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user, ok := m.byID[id]; ok {
		delete(m.byEmail, user.Email)
		delete(m.byID, id)
	}
	return nil
}

var _ auth.Users = (*memUsers)(nil)

type uniqueEmailError struct{}

func (uniqueEmailError) Error() string { return "UNIQUE constraint failed: users.email" }

var errUniqueEmail = uniqueEmailError{}

// stubRepo satisfies RepositoryManager over the in-memory store. RunInTx
// invokes the callback with a zero tx since memUsers ignores it.
type stubRepo struct {
	users *memUsers
}

func newStubRepo(users *memUsers) *stubRepo {
	return &stubRepo{users: users}
}

func (s *stubRepo) Users() auth.Users { return s.users }

func (s *stubRepo) Categories() repository.Repository[*auth.Category] { return nil }
func (s *stubRepo) Products() repository.Repository[*auth.Product]    { return nil }
func (s *stubRepo) Carts() repository.Repository[*auth.Cart]          { return nil }
func (s *stubRepo) Orders() repository.Repository[*auth.Order]        { return nil }

func (s *stubRepo) Validate() error {
	if s.users == nil {
		return errUniqueEmail
	}
	return nil
}

func (s *stubRepo) MustValidate() {}

func (s *stubRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

var _ auth.RepositoryManager = (*stubRepo)(nil)

// fastHasher swaps bcrypt out of action tests so they do not pay the cost
// factor per scenario. bcrypt itself is covered in its own tests.
type fastHasher struct{}

func (fastHasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", auth.ErrNoEmptyString
	}
	return "plain$" + password, nil
}

func (fastHasher) ComparePasswordAndHash(password, hash string) error {
	if "plain$"+password != hash {
		return auth.ErrMismatchedHashAndPassword
	}
	return nil
}

var _ auth.PasswordAuthenticator = fastHasher{}

const testSigningKey = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	cfg      *auth.Config
	store    *memUsers
	repo     *stubRepo
	codec    *auth.TokenCodec
	sessions *auth.SessionManager
	accounts *auth.Accounts
	runner   *auth.ActionRunner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := auth.NewConfig(testSigningKey)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config should validate: %v", err)
	}

	store := newMemUsers()
	repo := newStubRepo(store)
	codec := auth.NewTokenCodec(cfg)
	sessions := auth.NewSessionManager(cfg, codec, store)
	accounts := auth.NewAccounts(cfg, repo, sessions, auth.WithAccountsHasher(fastHasher{}))
	runner := auth.NewActionRunner(cfg, sessions)

	return &testEnv{
		cfg:      cfg,
		store:    store,
		repo:     repo,
		codec:    codec,
		sessions: sessions,
		accounts: accounts,
		runner:   runner,
	}
}

// signUp runs the full sign-up action and returns the context holding the
// session cookie.
func (e *testEnv) signUp(t *testing.T, email, password, name string) *fakeContext {
	t.Helper()

	fc := newFakeContext().withForm(map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	})

	state, err := e.accounts.SignUp(fc, auth.SignUpPayload{
		Email:    email,
		Password: password,
		Name:     name,
	})
	if err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}
	if state.Redirect == "" {
		t.Fatalf("sign-up did not redirect: %+v", state)
	}

	return fc
}

// withSession returns a fresh context carrying the session cookie from prev.
func (e *testEnv) withSession(prev *fakeContext) *fakeContext {
	fc := newFakeContext()
	if token := prev.Cookies(e.cfg.CookieName); token != "" {
		fc.cookies[e.cfg.CookieName] = token
	}
	return fc
}
