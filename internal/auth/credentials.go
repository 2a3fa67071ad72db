package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	AdminEmail = "admin@soulparking.co.id"
	StaffEmail = "user@soulparking.co.id"

	adminName = "System Admin"
	staffName = "Parking Staff"

	// InvalidCredentialsMessage is the only message shown for a failed login.
	InvalidCredentialsMessage = "Invalid credentials. Please try again."
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// User is the signed-in identity kept in a session.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// IsAdmin reports whether u has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserFor builds the session identity for an email. The role is admin only for
// the admin address, compared without case.
func UserFor(email string) User {
	if strings.EqualFold(email, AdminEmail) {
		return User{Email: email, Name: adminName, Role: RoleAdmin}
	}
	return User{Email: email, Name: staffName, Role: RoleUser}
}

type account struct {
	email        string
	passwordHash string
}

// Credentials holds the fixed accounts allowed to sign in.
type Credentials struct {
	accounts []account
}

var (
	defaultCredentials     *Credentials
	defaultCredentialsOnce sync.Once
	defaultCredentialsErr  error
)

// DefaultCredentials returns the two built-in accounts, hashing their passwords on first use.
func DefaultCredentials() (*Credentials, error) {
	defaultCredentialsOnce.Do(func() {
		defaultCredentials, defaultCredentialsErr = NewCredentials(map[string]string{
			AdminEmail: "admin123",
			StaffEmail: "password",
		})
	})
	return defaultCredentials, defaultCredentialsErr
}

// NewCredentials hashes each password with bcrypt.
func NewCredentials(passwords map[string]string) (*Credentials, error) {
	creds := &Credentials{accounts: make([]account, 0, len(passwords))}
	for email, password := range passwords {
		hash, err := HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", email, err)
		}
		creds.accounts = append(creds.accounts, account{email: email, passwordHash: hash})
	}
	return creds, nil
}

// Verify reports whether email and password match an account exactly.
func (c *Credentials) Verify(email, password string) bool {
	if c == nil {
		return false
	}
	for _, acct := range c.accounts {
		if acct.email == email {
			return VerifyPassword(acct.passwordHash, password)
		}
	}
	return false
}
