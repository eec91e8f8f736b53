package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/stencild/stencild/internal/authz"
	"github.com/stencild/stencild/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service encapsulates account business logic: registration with password
// hashing and credential verification for login.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// Register creates a new account with a bcrypt-hashed password. An empty
// role defaults to USER; unknown role text degrades to USER.
func (s *Service) Register(ctx context.Context, email, name, password, role string) (*models.User, error) {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		ID:           primitive.NewObjectID().Hex(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         string(authz.ParseRole(role)),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Authenticate verifies email/password and returns the matching user.
// Unknown email and wrong password both map to ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetByID resolves a subject identifier; returns (nil, nil) when absent.
func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail resolves a login identifier; returns (nil, nil) when absent.
func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.GetByEmail(ctx, email)
}
