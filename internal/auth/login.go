package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/mobilier/internal/model"
)

// Login failures.
var (
	ErrForbiddenDomain = errors.New("email outside the login domain")
	ErrWrongPassword   = errors.New("wrong password")
)

// AdminLogin is the one login accepted outside the domain.
const AdminLogin = "admin"

// Stub accepts any address of one email domain with a shared password.
// It stands in for a real identity provider.
type Stub struct {
	domain string
	hash   []byte
}

// NewStub creates a login stub for domain (without '@') and the shared password.
func NewStub(domain, password string) (*Stub, error) {
	if password == "" {
		return nil, errors.New("shared password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing shared password: %w", err)
	}
	return &Stub{domain: strings.ToLower(strings.TrimPrefix(domain, "@")), hash: hash}, nil
}

// Login checks the email domain first, then the password, and returns the
// identity to issue a session for. An empty role means field work.
func (s *Stub) Login(email, password, role string) (model.Agent, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email != AdminLogin && !strings.HasSuffix(email, "@"+s.domain) {
		return model.Agent{}, fmt.Errorf("%w: use an @%s address", ErrForbiddenDomain, s.domain)
	}
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(password)); err != nil {
		return model.Agent{}, ErrWrongPassword
	}

	if role == "" {
		role = model.RoleField
	}
	if !model.ValidRole(role) {
		return model.Agent{}, fmt.Errorf("unknown role %q", role)
	}

	name, _, _ := strings.Cut(email, "@")
	return model.Agent{Name: name, Email: email, Role: role}, nil
}
