package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// OrderStatus tracks an order through fulfilment
type OrderStatus = string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Category groups products in the storefront catalog.
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:cat"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Slug          string     `bun:"slug,notnull,unique" json:"slug,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	ParentID      *uuid.UUID `bun:"parent_id" json:"parent_id,omitempty"`
	SortOrder     int        `bun:"sort_order" json:"sort_order,omitempty"`
	IsActive      bool       `bun:"is_active" json:"is_active,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Product is a catalog item. Industrial supply attributes (thread size,
// finish, grade) live as plain columns since they drive faceted browsing.
type Product struct {
	bun.BaseModel     `bun:"table:products,alias:prd"`
	ID                uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name              string     `bun:"name,notnull" json:"name,omitempty"`
	Slug              string     `bun:"slug,notnull,unique" json:"slug,omitempty"`
	Description       string     `bun:"description" json:"description,omitempty"`
	SKU               string     `bun:"sku,notnull,unique" json:"sku,omitempty"`
	Price             string     `bun:"price,notnull" json:"price,omitempty"`
	CategoryID        uuid.UUID  `bun:"category_id,notnull,type:uuid" json:"category_id,omitempty"`
	Category          *Category  `bun:"rel:belongs-to,join:category_id=id" json:"category,omitempty"`
	Material          string     `bun:"material" json:"material,omitempty"`
	Finish            string     `bun:"finish" json:"finish,omitempty"`
	ThreadSize        string     `bun:"thread_size" json:"thread_size,omitempty"`
	Grade             string     `bun:"grade" json:"grade,omitempty"`
	StockQuantity     int        `bun:"stock_quantity" json:"stock_quantity,omitempty"`
	LowStockThreshold int        `bun:"low_stock_threshold" json:"low_stock_threshold,omitempty"`
	IsActive          bool       `bun:"is_active" json:"is_active,omitempty"`
	CreatedAt         *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Cart belongs to a user, or to a guest session id before sign-in.
type Cart struct {
	bun.BaseModel `bun:"table:carts,alias:crt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        *uuid.UUID `bun:"user_id,type:uuid" json:"user_id,omitempty"`
	SessionID     string     `bun:"session_id" json:"session_id,omitempty"`
	Items         []*CartItem `bun:"rel:has-many,join:id=cart_id" json:"items,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// CartItem pins the price at the time the product was added.
type CartItem struct {
	bun.BaseModel `bun:"table:cart_items,alias:cti"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	CartID        uuid.UUID  `bun:"cart_id,notnull,type:uuid" json:"cart_id,omitempty"`
	ProductID     uuid.UUID  `bun:"product_id,notnull,type:uuid" json:"product_id,omitempty"`
	Product       *Product   `bun:"rel:belongs-to,join:product_id=id" json:"product,omitempty"`
	Quantity      int        `bun:"quantity,notnull" json:"quantity,omitempty"`
	Price         string     `bun:"price,notnull" json:"price,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Order snapshots customer info at purchase time so later account edits and
// deletions do not rewrite history.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:ord"`
	ID            uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	OrderNumber   string       `bun:"order_number,notnull,unique" json:"order_number,omitempty"`
	UserID        *uuid.UUID   `bun:"user_id,type:uuid" json:"user_id,omitempty"`
	CustomerName  string       `bun:"customer_name,notnull" json:"customer_name,omitempty"`
	CustomerEmail string       `bun:"customer_email,notnull" json:"customer_email,omitempty"`
	Subtotal      string       `bun:"subtotal,notnull" json:"subtotal,omitempty"`
	Total         string       `bun:"total,notnull" json:"total,omitempty"`
	Status        OrderStatus  `bun:"status,notnull" json:"status,omitempty"`
	Items         []*OrderItem `bun:"rel:has-many,join:id=order_id" json:"items,omitempty"`
	CreatedAt     *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// OrderItem snapshots name, sku, and price at purchase time.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oit"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	OrderID       uuid.UUID  `bun:"order_id,notnull,type:uuid" json:"order_id,omitempty"`
	ProductID     uuid.UUID  `bun:"product_id,notnull,type:uuid" json:"product_id,omitempty"`
	ProductName   string     `bun:"product_name,notnull" json:"product_name,omitempty"`
	ProductSKU    string     `bun:"product_sku,notnull" json:"product_sku,omitempty"`
	Quantity      int        `bun:"quantity,notnull" json:"quantity,omitempty"`
	Price         string     `bun:"price,notnull" json:"price,omitempty"`
	Total         string     `bun:"total,notnull" json:"total,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
