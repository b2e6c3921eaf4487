// Package service implements user registration and login on top of the user
// repository, bcrypt hashing, and the HS256 token provider.
package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/Roulerrr/server-iot-smart-home-ver.test/internal/security"
	userdomain "github.com/Roulerrr/server-iot-smart-home-ver.test/internal/user/domain"
)

// Sentinel errors for the auth service; the HTTP handler maps them to status codes.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrInvalidInput           = errors.New("invalid registration input")
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// LoginResult holds the outcome of a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *userdomain.User
}

// AuthService implements password-only register and login.
type AuthService struct {
	users  UserRepo
	hasher *security.Hasher
	tokens *security.TokenProvider
}

// NewAuthService returns an AuthService using the given repo, hasher, and token provider.
func NewAuthService(users UserRepo, hasher *security.Hasher, tokens *security.TokenProvider) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens}
}

// Register creates a new user with a bcrypt-hashed password. Returns
// ErrInvalidInput for missing or malformed fields, ErrEmailAlreadyRegistered
// when the email is taken. The returned user carries no password material
// beyond the stored hash.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*userdomain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || password == "" || !emailPattern.MatchString(email) {
		return nil, ErrInvalidInput
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}

	hash, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	u := &userdomain.User{Username: username, Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies the password for email and issues an access token. Returns
// ErrInvalidCredentials for an unknown email or a wrong password; the two
// cases are deliberately indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.Compare(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(u.ID, u.Username)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: u}, nil
}
