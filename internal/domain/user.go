package domain

import (
	"context"
	"errors"
	"slices"
	"time"
)

// Sentinel errors for user operations.
var (
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Role codes.
const (
	RoleOrganizer   = "organizer"
	RoleParticipant = "participant"
)

// User represents a registered account (organizer or participant).
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	Roles        []string  `json:"roles,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser returns a new User with the given fields. ID is typically set by the repository on create.
func NewUser(email, name string, createdAt, updatedAt time.Time) *User {
	return &User{
		Email:     email,
		Name:      name,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// Principal is the verified identity attached to a request.
type Principal struct {
	UserID string
	Email  string
	Roles  []string
}

// HasRole reports whether the principal carries the role code.
func (p *Principal) HasRole(code string) bool {
	return p != nil && slices.Contains(p.Roles, code)
}

// PasswordHasher handles salt generation, hashing, and verification.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, roles []string) (string, error)
}

// TokenVerifier verifies a bearer token and returns the identity it carries.
type TokenVerifier interface {
	Verify(token string) (*Principal, error)
}

// UserRepository stores accounts. Users come back with their role codes loaded.
type UserRepository interface {
	// Create inserts the user and links it to roleCode in one transaction.
	Create(ctx context.Context, user *User, roleCode string) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// AuthService signs users up, logs them in and loads their profile.
type AuthService interface {
	SignUp(ctx context.Context, email, password, name, role string) (*User, error)
	Login(ctx context.Context, email, password string) (token string, err error)
	GetUser(ctx context.Context, id string) (*User, error)
}
