package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pnithesh/viralvision-backend/internal/user/entity"
	userrepo "github.com/pnithesh/viralvision-backend/internal/user/repo"
	"github.com/pnithesh/viralvision-backend/pkg/utilities"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrPasswordTooLong is a validation error: bcrypt only reads 72 bytes.
	ErrPasswordTooLong = fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, maxPasswordBytes)
)

const maxPasswordBytes = 72

// UserRepository is the persistence the service needs.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

// Tokens issues session tokens.
type Tokens interface {
	Issue(userID string) (string, time.Time, error)
}

// Session is the result of a successful register or login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      entity.Profile
}

// Service orchestrates registration and password login.
type Service struct {
	users  UserRepository
	hasher PasswordHasher
	tokens Tokens
	newID  func() string
	now    func() time.Time

	// dummyHash is compared against when the email is unknown so a login for
	// a missing account costs the same as one with a wrong password.
	dummyOnce sync.Once
	dummyHash string
}

func NewService(users UserRepository, hasher PasswordHasher, tokens Tokens) *Service {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 10}
	}
	return &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		newID:  utilities.NewUUID,
		now:    time.Now,
	}
}

// Register creates an account and signs the caller in.
func (s *Service) Register(ctx context.Context, email, password, businessName string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	if len(password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateUser
	} else if !errors.Is(err, userrepo.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	u := &entity.User{
		ID:           s.newID(),
		Email:        email,
		PasswordHash: hash,
		BusinessName: strings.TrimSpace(businessName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrDuplicateEmail) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.issue(u)
}

// Login verifies the password. Unknown email and wrong password both return
// ErrInvalidCredentials to avoid user enumeration.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			s.hasher.Verify(s.dummy(), password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("not-a-real-password")
	})
	return s.dummyHash
}

func (s *Service) issue(u *entity.User) (*Session, error) {
	token, exp, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: exp, User: u.Profile()}, nil
}
