package auth

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/aristath/folio/internal/domain"
)

const bcryptCost = 10

// invalidCredentials is deliberately the same for unknown email and wrong
// password.
const invalidCredentials = "Invalid email or password"

// Service registers users and exchanges credentials for tokens
type Service struct {
	users  domain.UserStore
	tokens *TokenIssuer
	log    zerolog.Logger
}

// NewService creates a new auth service
func NewService(users domain.UserStore, tokens *TokenIssuer, log zerolog.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		log:    log.With().Str("service", "auth").Logger(),
	}
}

// LoginResult is a successful login.
type LoginResult struct {
	Token string
	User  domain.User
}

// Register creates an account and returns its id.
func (s *Service) Register(ctx context.Context, email, name, password string) (int64, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || name == "" || password == "" {
		return 0, domain.NewValidationError("All fields are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return 0, domain.NewValidationError("Invalid email address")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return 0, domain.NewValidationError("Email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.users.Create(ctx, email, name, string(hash))
}

// Login checks credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.NewValidationError("Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, domain.NewUnauthorizedError(invalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Debug().Int64("user_id", user.ID).Msg("Password mismatch")
		return nil, domain.NewUnauthorizedError(invalidCredentials)
	}

	token, _, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, User: *user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
