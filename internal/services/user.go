package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/todos-api/apiserver/internal/auth"
	"github.com/todos-api/apiserver/internal/store"
	"github.com/todos-api/apiserver/types"
)

const (
	// MaxUsernameLength is the longest accepted username, in characters.
	MaxUsernameLength = 14

	// MaxEmailLength matches the users.email column.
	MaxEmailLength = 255

	// MaxPasswordBytes is the longest password bcrypt accepts.
	MaxPasswordBytes = 72
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	List(ctx context.Context) ([]types.User, error)
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, id int, patch types.UserPatch) (types.User, error)
	Delete(ctx context.Context, id int) error
}

// UserService encapsulates account and login use-cases. Callers are expected
// to have passed the authorization gate for every method except Register and
// IssueToken.
type UserService struct {
	repo     UserRepository
	hasher   auth.PasswordHasher
	tokens   *auth.TokenService
	tokenTTL time.Duration
	events   EventPublisher
}

func NewUserService(repo UserRepository, hasher auth.PasswordHasher, tokens *auth.TokenService, tokenTTL time.Duration, events EventPublisher) *UserService {
	return &UserService{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		events:   events,
	}
}

// RegisterInput is a registration request after shape validation.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// UserUpdate is a partial account update with a plaintext password.
type UserUpdate struct {
	Username *string
	Email    *string
	Password *string
}

func (u UserUpdate) IsEmpty() bool {
	return u.Username == nil && u.Email == nil && u.Password == nil
}

// ValidateUsername enforces the 1 to MaxUsernameLength character bound.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n == 0 || n > MaxUsernameLength {
		return fmt.Errorf("%w: must be 1-%d characters", ErrInvalidUsername, MaxUsernameLength)
	}
	return nil
}

// ValidateEmail requires a non-empty email of at most MaxEmailLength
// characters.
func ValidateEmail(email string) error {
	n := utf8.RuneCountInString(email)
	if n == 0 || n > MaxEmailLength {
		return fmt.Errorf("%w: must be 1-%d characters", ErrInvalidEmail, MaxEmailLength)
	}
	return nil
}

// ValidatePassword requires a non-empty password of at most
// MaxPasswordBytes bytes.
func ValidatePassword(password string) error {
	if password == "" || len(password) > MaxPasswordBytes {
		return fmt.Errorf("%w: must be 1-%d bytes", ErrInvalidPassword, MaxPasswordBytes)
	}
	return nil
}

// Register creates an account. A taken username or email yields
// store.ErrDuplicate.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (types.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if err := ValidateUsername(username); err != nil {
		return types.User{}, err
	}
	if email == "" || in.Password == "" {
		return types.User{}, fmt.Errorf("%w: email and password are required", ErrMissingField)
	}
	if err := ValidateEmail(email); err != nil {
		return types.User{}, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return types.User{}, err
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
	})
	if err != nil {
		return types.User{}, fmt.Errorf("create user: %w", err)
	}

	publishEvent(ctx, s.events, ChannelUserRegistered, types.Event{UserID: user.ID})
	return user, nil
}

// IssueToken verifies username and password and returns a signed token.
// An unknown username yields store.ErrNotFound, a wrong password
// ErrInvalidCredentials.
func (s *UserService) IssueToken(ctx context.Context, username, password string) (string, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username, user.ID, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// List returns every user. Admin only.
func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies a partial update. The new username is revalidated and a
// new password is rehashed before anything is written.
func (s *UserService) Update(ctx context.Context, id int, update UserUpdate) (types.User, error) {
	if update.IsEmpty() {
		return types.User{}, ErrEmptyPatch
	}

	var patch types.UserPatch
	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		if err := ValidateUsername(username); err != nil {
			return types.User{}, err
		}
		patch.Username = &username
	}
	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		if email == "" {
			return types.User{}, fmt.Errorf("%w: email", ErrMissingField)
		}
		if err := ValidateEmail(email); err != nil {
			return types.User{}, err
		}
		patch.Email = &email
	}
	if update.Password != nil {
		if *update.Password == "" {
			return types.User{}, fmt.Errorf("%w: password", ErrMissingField)
		}
		if err := ValidatePassword(*update.Password); err != nil {
			return types.User{}, err
		}
		hashed, err := s.hasher.Hash(*update.Password)
		if err != nil {
			return types.User{}, fmt.Errorf("hash password: %w", err)
		}
		patch.PasswordHash = &hashed
	}

	user, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return types.User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Delete removes the user. Todos owned by the user are left in place.
func (s *UserService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete user: %w", err)
	}

	publishEvent(ctx, s.events, ChannelUserDeleted, types.Event{UserID: id})
	return nil
}
