// Package auth verifies storefront credentials.
//
// There are no tokens or sessions: a successful Verify only tells the caller
// who the user is and which role they hold.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"regexp"
	"strings"
)

// Role is the storefront role attached to a user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// ErrInvalidCredentials is returned when an email/password pair is rejected.
var ErrInvalidCredentials = errors.New("invalid credentials")

// User is the identity returned by a successful verification. It never
// carries the password.
type User struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// Verifier checks an email/password pair.
type Verifier interface {
	Verify(ctx context.Context, email, password string) (User, error)
}

// Account is a statically configured login.
type Account struct {
	User
	Password string
}

// StaticVerifier checks credentials against a fixed table. When guests are
// allowed, any well-formed email with a non-empty password that is not in
// the table signs in as a customer.
type StaticVerifier struct {
	accounts    map[string]Account
	allowGuests bool
}

// NewStaticVerifier builds a verifier over accounts, keyed by lower-cased
// email.
func NewStaticVerifier(allowGuests bool, accounts ...Account) *StaticVerifier {
	m := make(map[string]Account, len(accounts))
	for _, a := range accounts {
		m[strings.ToLower(a.Email)] = a
	}
	return &StaticVerifier{accounts: m, allowGuests: allowGuests}
}

// DemoAccount is the café's administrator login.
var DemoAccount = Account{
	User: User{
		ID:    "1",
		Email: "admin@cafeteria.com",
		Name:  "Administrador",
		Role:  RoleAdmin,
	},
	Password: "admin123",
}

// NewDemoVerifier returns the storefront's demo policy: the administrator
// account plus guest customers.
func NewDemoVerifier() *StaticVerifier {
	return NewStaticVerifier(true, DemoAccount)
}

func (v *StaticVerifier) Verify(_ context.Context, email, password string) (User, error) {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) || password == "" {
		return User{}, ErrInvalidCredentials
	}
	if a, ok := v.accounts[strings.ToLower(email)]; ok {
		if subtle.ConstantTimeCompare([]byte(a.Password), []byte(password)) != 1 {
			return User{}, ErrInvalidCredentials
		}
		return a.User, nil
	}
	if !v.allowGuests {
		return User{}, ErrInvalidCredentials
	}
	return User{Email: email, Name: "Cliente", Role: RoleCustomer}, nil
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}
