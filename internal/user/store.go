package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ziadkadry99/rfqpilot/internal/db"
)

var (
	// ErrInvalidCredentials covers both unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when signing up with an existing email.
	ErrEmailTaken = errors.New("email already registered")
)

// Store manages accounts and buyer profiles.
type Store struct {
	db   *db.DB
	cost int
}

// NewStore creates a new user store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, cost: bcrypt.DefaultCost}
}

// NormalizeEmail lower-cases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create registers a new user with the given plaintext password.
func (s *Store) Create(ctx context.Context, u User, password string) (*User, error) {
	u.Email = NormalizeEmail(u.Email)
	if u.Email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	existing, err := s.GetByEmail(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Role == "" {
		u.Role = RoleBuyer
	}
	u.PasswordHash = string(hash)
	u.CreatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO users (id, email, name, role, company, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		u.ID, u.Email, u.Name, string(u.Role), u.Company, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	return &u, nil
}

// Authenticate checks the password for the given email.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetByEmail returns the user with the given email, or nil when unknown.
func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(
		`SELECT id, email, name, role, company, password_hash, created_at FROM users WHERE email = ?`),
		NormalizeEmail(email))
	return scanUser(row)
}

// GetByID returns the user with the given id, or nil when unknown.
func (s *Store) GetByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(
		`SELECT id, email, name, role, company, password_hash, created_at FROM users WHERE id = ?`), id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.Company, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	u.Role = Role(role)
	return &u, nil
}

// SaveProfile inserts or replaces the buyer profile for p.UserID.
func (s *Store) SaveProfile(ctx context.Context, p BuyerProfile) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO buyer_profiles (user_id, company, address, contact_name, contact_email, phone,
			default_currency, default_incoterm, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			company = excluded.company,
			address = excluded.address,
			contact_name = excluded.contact_name,
			contact_email = excluded.contact_email,
			phone = excluded.phone,
			default_currency = excluded.default_currency,
			default_incoterm = excluded.default_incoterm,
			updated_at = excluded.updated_at`),
		p.UserID, p.Company, p.Address, p.ContactName, p.ContactEmail, p.Phone,
		p.DefaultCurrency, p.DefaultIncoterm, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving buyer profile: %w", err)
	}
	return nil
}

// GetProfile returns the buyer profile, or nil when none was saved.
func (s *Store) GetProfile(ctx context.Context, userID string) (*BuyerProfile, error) {
	var p BuyerProfile
	err := s.db.QueryRowContext(ctx, s.db.Rebind(`
		SELECT user_id, company, address, contact_name, contact_email, phone,
			default_currency, default_incoterm, updated_at
		FROM buyer_profiles WHERE user_id = ?`), userID,
	).Scan(&p.UserID, &p.Company, &p.Address, &p.ContactName, &p.ContactEmail, &p.Phone,
		&p.DefaultCurrency, &p.DefaultIncoterm, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting buyer profile: %w", err)
	}
	return &p, nil
}
