package user

import "time"

// Role distinguishes buyers from suppliers.
type Role string

const (
	RoleBuyer    Role = "buyer"
	RoleSupplier Role = "supplier"
)

// User is an account holder. The password is only ever stored as a bcrypt
// hash and never serialized.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Company      string    `json:"company,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// BuyerProfile is the buyer block printed on purchase orders.
type BuyerProfile struct {
	UserID          string    `json:"user_id"`
	Company         string    `json:"company"`
	Address         string    `json:"address"`
	ContactName     string    `json:"contact_name"`
	ContactEmail    string    `json:"contact_email"`
	Phone           string    `json:"phone"`
	DefaultCurrency string    `json:"default_currency"`
	DefaultIncoterm string    `json:"default_incoterm"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Identity is the authenticated caller attached to a request context.
type Identity struct {
	ID    string
	Email string
	Role  Role
}
