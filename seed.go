package auth

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RunMigrations applies the embedded schema for the given dialect
// ("sqlite" or "postgres") in filename order. Statements are idempotent so
// re-running against an existing database is safe.
func RunMigrations(ctx context.Context, db *bun.DB, dialect string) error {
	dir := path.Join("data/sql/migrations", dialect)

	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unknown migration dialect: "+dialect)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		script, err := fs.ReadFile(migrationsFS, path.Join(dir, name))
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read migration "+name)
		}

		if _, err := db.ExecContext(ctx, string(script)); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to apply migration "+name)
		}
	}

	return nil
}

// Seeder provisions the demo storefront: an admin, a test customer, and a
// small fastener catalog. Every insert is keyed on a deterministic hashid
// UUID so re-seeding converges instead of duplicating.
type Seeder struct {
	repo   RepositoryManager
	hasher PasswordAuthenticator
	logger Logger
}

type SeederOption func(*Seeder)

// WithSeederLogger overrides the seeder logger.
func WithSeederLogger(l Logger) SeederOption {
	return func(s *Seeder) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSeederHasher overrides the password hasher used for seeded accounts.
func WithSeederHasher(h PasswordAuthenticator) SeederOption {
	return func(s *Seeder) {
		if h != nil {
			s.hasher = h
		}
	}
}

// NewSeeder builds a seeder over the repository manager.
func NewSeeder(repo RepositoryManager, opts ...SeederOption) *Seeder {
	s := &Seeder{
		repo:   repo,
		hasher: NewPasswordAuthenticator(),
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Seed provisions users and catalog inside one transaction.
func (s *Seeder) Seed(ctx context.Context) error {
	return s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.seedUsers(ctx, tx); err != nil {
			return err
		}
		return s.seedCatalog(ctx, tx)
	})
}

func (s *Seeder) seedUsers(ctx context.Context, tx bun.Tx) error {
	accounts := []NewUser{
		{Name: "Admin User", Email: "admin@boltline.test", Password: "admin123", Role: RoleAdmin},
		{Name: "John Contractor", Email: "john@contractor.test", Password: "customer123", Role: RoleCustomer},
	}

	for _, acct := range accounts {
		if _, err := s.repo.Users().FindByEmailTx(ctx, tx, acct.Email); err == nil {
			s.logger.Debug("seed user exists: %s", acct.Email)
			continue
		} else if !errors.Is(err, ErrUserNotFound) {
			return err
		}

		hash, err := s.hasher.HashPassword(acct.Password)
		if err != nil {
			return err
		}

		user := &User{
			ID:           NewID(acct.Email),
			Name:         acct.Name,
			Email:        acct.Email,
			PasswordHash: hash,
			Role:         acct.Role,
		}

		if _, err := s.repo.Users().InsertTx(ctx, tx, user); err != nil {
			return err
		}

		s.logger.Info("seeded user %s (%s)", acct.Email, acct.Role)
	}

	return nil
}

func (s *Seeder) seedCatalog(ctx context.Context, tx bun.Tx) error {
	fasteners := &Category{
		Name:        "Fasteners",
		Slug:        "fasteners",
		Description: "All types of fasteners including screws, bolts, and nuts",
		SortOrder:   1,
		IsActive:    true,
	}
	fasteners.ID = NewID(fasteners.Slug)

	if _, err := s.repo.Categories().GetByIdentifierTx(ctx, tx, fasteners.Slug); err != nil {
		if !repoNotFound(err) {
			return err
		}
		if _, err := s.repo.Categories().CreateTx(ctx, tx, fasteners); err != nil {
			return err
		}
	}

	products := []*Product{
		{
			Name:          "Hex Bolt M6x25 Grade 8.8",
			Slug:          "hex-bolt-m6x25-grade-8-8",
			SKU:           "HB-M6-25-88",
			Price:         "0.18",
			CategoryID:    fasteners.ID,
			Material:      "Steel",
			Finish:        "Zinc Plated",
			ThreadSize:    "M6",
			Grade:         "8.8",
			StockQuantity: 5000,
			IsActive:      true,
		},
		{
			Name:          "Socket Head Cap Screw M8x30",
			Slug:          "socket-head-cap-screw-m8x30",
			SKU:           "SH-M8-30-A2",
			Price:         "0.42",
			CategoryID:    fasteners.ID,
			Material:      "Stainless Steel",
			Finish:        "Plain",
			ThreadSize:    "M8",
			Grade:         "A2",
			StockQuantity: 2400,
			IsActive:      true,
		},
		{
			Name:          "Nylon Lock Nut M6",
			Slug:          "nylon-lock-nut-m6",
			SKU:           "NL-M6-ZP",
			Price:         "0.07",
			CategoryID:    fasteners.ID,
			Material:      "Steel",
			Finish:        "Zinc Plated",
			ThreadSize:    "M6",
			StockQuantity: 12000,
			IsActive:      true,
		},
	}

	for _, product := range products {
		product.ID = NewID(product.Slug)

		if _, err := s.repo.Products().GetByIdentifierTx(ctx, tx, product.Slug); err != nil {
			if !repoNotFound(err) {
				return err
			}
			if _, err := s.repo.Products().CreateTx(ctx, tx, product); err != nil {
				return err
			}
		}
	}

	s.logger.Info("seeded catalog with %d products", len(products))
	return nil
}

// NewID derives a stable UUID from a natural key, falling back to a random
// one when derivation fails.
func NewID(naturalKey string) uuid.UUID {
	if id, err := hashid.NewUUID(naturalKey); err == nil {
		return id
	}
	return uuid.New()
}

func repoNotFound(err error) bool {
	return repository.IsRecordNotFound(err)
}
