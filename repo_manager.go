package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Categories() repository.Repository[*Category]
	Products() repository.Repository[*Product]
	Carts() repository.Repository[*Cart]
	Orders() repository.Repository[*Order]
}

type mngr struct {
	db         *bun.DB
	users      Users
	categories repository.Repository[*Category]
	products   repository.Repository[*Product]
	carts      repository.Repository[*Cart]
	orders     repository.Repository[*Order]
}

// NewRepositoryManager aggregates the credential store with the storefront
// collaborator repositories over one bun connection.
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:         db,
		users:      NewUsersRepository(db),
		categories: NewCategoriesRepository(db),
		products:   NewProductsRepository(db),
		carts:      NewCartsRepository(db),
		orders:     NewOrdersRepository(db),
	}
}

func NewCategoriesRepository(db *bun.DB) repository.Repository[*Category] {
	return repository.NewRepository[*Category](db, repository.ModelHandlers[*Category]{
		NewRecord: func() *Category { return &Category{} },
		GetID: func(record *Category) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Category, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
		GetIdentifier: func() string {
			return "slug"
		},
	})
}

func NewProductsRepository(db *bun.DB) repository.Repository[*Product] {
	return repository.NewRepository[*Product](db, repository.ModelHandlers[*Product]{
		NewRecord: func() *Product { return &Product{} },
		GetID: func(record *Product) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Product, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
		GetIdentifier: func() string {
			return "slug"
		},
	})
}

func NewCartsRepository(db *bun.DB) repository.Repository[*Cart] {
	return repository.NewRepository[*Cart](db, repository.ModelHandlers[*Cart]{
		NewRecord: func() *Cart { return &Cart{} },
		GetID: func(record *Cart) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Cart, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
		GetIdentifier: func() string {
			return "session_id"
		},
	})
}

func NewOrdersRepository(db *bun.DB) repository.Repository[*Order] {
	return repository.NewRepository[*Order](db, repository.ModelHandlers[*Order]{
		NewRecord: func() *Order { return &Order{} },
		GetID: func(record *Order) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Order, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
		GetIdentifier: func() string {
			return "order_number"
		},
	})
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.products == nil || m.categories == nil {
		return errors.New("repository catalog should be initialized")
	}

	if m.carts == nil || m.orders == nil {
		return errors.New("repository checkout should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Categories() repository.Repository[*Category] {
	return m.categories
}

func (m mngr) Products() repository.Repository[*Product] {
	return m.products
}

func (m mngr) Carts() repository.Repository[*Cart] {
	return m.carts
}

func (m mngr) Orders() repository.Repository[*Order] {
	return m.orders
}
