package store

import "github.com/jackc/pgx/v5/pgtype"

// UserRole enumerates the access levels known to the platform.
type UserRole string

// Known roles.
const (
	RoleSuperAdmin      UserRole = "SUPER_ADMIN"
	RoleRestaurantAdmin UserRole = "RESTAURANT_ADMIN"
	RoleBranchManager   UserRole = "BRANCH_MANAGER"
	RoleCustomer        UserRole = "CUSTOMER"
)

// User is a platform account.
type User struct {
	ID           pgtype.UUID
	Email        string
	Name         string
	PasswordHash string
	Role         UserRole
	CreatedAt    pgtype.Timestamptz
}

// Restaurant is a tenant on the platform.
type Restaurant struct {
	ID           pgtype.UUID
	Slug         string
	Name         string
	Description  pgtype.Text
	LogoURL      pgtype.Text
	ContactEmail pgtype.Text
	ContactPhone pgtype.Text
	CreatedAt    pgtype.Timestamptz
}

// Branch is a physical location of a restaurant.
type Branch struct {
	ID           pgtype.UUID
	RestaurantID pgtype.UUID
	Name         string
	Address      pgtype.Text
	Phone        pgtype.Text
	IsOpen       bool
	CreatedAt    pgtype.Timestamptz
}

// MenuItem is a sellable dish belonging to a restaurant.
type MenuItem struct {
	ID           pgtype.UUID
	RestaurantID pgtype.UUID
	Name         string
	Description  pgtype.Text
	Category     pgtype.Text
	Price        int64
	ImageURL     pgtype.Text
	Available    bool
	CreatedAt    pgtype.Timestamptz
}

// Addon is an optional extra a restaurant offers on menu items.
type Addon struct {
	ID           pgtype.UUID
	RestaurantID pgtype.UUID
	Name         string
	Price        int64
}

// DiscountType selects how a coupon value is interpreted.
type DiscountType string

// Coupon discount types.
const (
	DiscountTypePercentage DiscountType = "PERCENTAGE"
	DiscountTypeFixed      DiscountType = "FIXED"
)

// Coupon is a discount rule scoped to one restaurant or platform-global
// when RestaurantID is null.
type Coupon struct {
	ID                pgtype.UUID
	RestaurantID      pgtype.UUID
	Code              string
	DiscountType      DiscountType
	DiscountValue     int64
	MinOrderAmount    pgtype.Int8
	MaxDiscountAmount pgtype.Int8
	IsActive          bool
	StartsAt          pgtype.Timestamptz
	EndsAt            pgtype.Timestamptz
	UsageLimit        pgtype.Int4
	UsedCount         int32
	CreatedAt         pgtype.Timestamptz
}

// Cart holds a pre-submission order under construction.
type Cart struct {
	ID                pgtype.UUID
	RestaurantID      pgtype.UUID
	BranchID          pgtype.UUID
	UserID            pgtype.UUID
	AnonID            pgtype.Text
	Fulfillment       string
	AppliedCouponCode pgtype.Text
	ExpiresAt         pgtype.Timestamptz
	CreatedAt         pgtype.Timestamptz
	UpdatedAt         pgtype.Timestamptz
}

// CartItem is a line in a cart. Addons is a JSON snapshot of the selected
// add-ons ({name, unitPrice}) taken when the line was created.
type CartItem struct {
	ID         pgtype.UUID
	CartID     pgtype.UUID
	MenuItemID pgtype.UUID
	Name       string
	Qty        int32
	UnitPrice  int64
	Addons     []byte
	Subtotal   int64
}

// Order is a submitted, immutable order. Pricing fields are a snapshot of
// the quote the order was placed with; line items remain the source of truth.
type Order struct {
	ID                pgtype.UUID
	RestaurantID      pgtype.UUID
	BranchID          pgtype.UUID
	UserID            pgtype.UUID
	Status            string
	Fulfillment       string
	Currency          string
	Subtotal          int64
	DeliveryFee       int64
	ProcessingFee     int64
	PlatformFee       int64
	Discount          int64
	Total             int64
	AppliedCouponCode pgtype.Text
	Notes             pgtype.Text
	CreatedAt         pgtype.Timestamptz
}

// OrderItem is a frozen line of a submitted order.
type OrderItem struct {
	ID         pgtype.UUID
	OrderID    pgtype.UUID
	MenuItemID pgtype.UUID
	Name       string
	Qty        int32
	UnitPrice  int64
	Addons     []byte
	Subtotal   int64
}

// Review is a customer's rating of a menu item, one per user per item.
type Review struct {
	ID         pgtype.UUID
	MenuItemID pgtype.UUID
	UserID     pgtype.UUID
	Rating     int16
	Comment    pgtype.Text
	CreatedAt  pgtype.Timestamptz
	UpdatedAt  pgtype.Timestamptz
}

// AuditLog records a staff mutation for later inspection.
type AuditLog struct {
	ID           pgtype.UUID
	UserID       pgtype.UUID
	RestaurantID pgtype.UUID
	Action       string
	Resource     string
	ResourceID   pgtype.Text
	Detail       []byte
	CreatedAt    pgtype.Timestamptz
}

// Session is a refresh-token session. Only the token hash is stored.
type Session struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	TokenHash string
	UserAgent pgtype.Text
	IP        pgtype.Text
	ExpiresAt pgtype.Timestamptz
	CreatedAt pgtype.Timestamptz
}

// Address is a customer's saved delivery address. At most one per user
// carries is_default, enforced by a partial unique index.
type Address struct {
	ID         pgtype.UUID
	UserID     pgtype.UUID
	Street     string
	City       string
	State      pgtype.Text
	PostalCode string
	IsDefault  bool
	CreatedAt  pgtype.Timestamptz
	UpdatedAt  pgtype.Timestamptz
}

// DomainEvent is a persisted fact emitted by the services.
type DomainEvent struct {
	ID          pgtype.UUID
	Topic       string
	AggregateID pgtype.UUID
	Payload     []byte
	OccurredAt  pgtype.Timestamptz
}
