package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"coffee-shop/apperrors"
	"coffee-shop/models"
	"coffee-shop/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthService struct {
	users     UserStore
	jwtSecret string
	jwtTTL    time.Duration
	cost      int
}

func NewAuthService(users UserStore, secret string, ttl time.Duration) *AuthService {
	return &AuthService{users: users, jwtSecret: secret, jwtTTL: ttl, cost: bcrypt.DefaultCost}
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// Register creates a regular user.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.register(ctx, in, models.RoleUser)
}

// CreateAdmin creates an admin user. It is reachable from the operator CLI only.
func (s *AuthService) CreateAdmin(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.register(ctx, in, models.RoleAdmin)
}

// EnsureAdmin creates the admin account unless the email is already registered.
func (s *AuthService) EnsureAdmin(ctx context.Context, in RegisterInput) error {
	_, err := s.users.FindByEmail(ctx, normalizeEmail(in.Email))
	if err == nil {
		log.Printf("Admin already exists: %s", in.Email)
		return nil
	}
	if !apperrors.Is(err, apperrors.KindNotFound) {
		return err
	}
	_, err = s.CreateAdmin(ctx, in)
	return err
}

func (s *AuthService) register(ctx context.Context, in RegisterInput, role models.Role) (*models.User, error) {
	email := normalizeEmail(in.Email)
	log.Printf("Attempting to register user with email: %s and role: %s", email, role)

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		log.Printf("warn: registration failed: user with email %s already exists", email)
		return nil, apperrors.Conflict("User with this email already exists")
	} else if !apperrors.Is(err, apperrors.KindNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(in.Name),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	// The store's unique index settles concurrent registrations of one email.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("User registered successfully with ID: %s", user.ID)
	return user, nil
}

// Login returns a signed token. Unknown email and wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, error) {
	email := normalizeEmail(in.Email)
	invalid := apperrors.Unauthorized("Invalid credentials")

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !apperrors.Is(err, apperrors.KindNotFound) {
			return "", err
		}
		// Burn a comparison so the response time does not reveal the miss.
		_ = bcrypt.CompareHashAndPassword(s.dummyHash(), []byte(in.Password))
		log.Printf("warn: login failed: user with email %s not found", email)
		return "", invalid
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		log.Printf("warn: login failed: invalid password for user with email %s", email)
		return "", invalid
	}

	token, err := utils.GenerateToken(user.ID, user.Role, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	log.Printf("User logged in successfully with email: %s", email)
	return token, nil
}

func (s *AuthService) dummyHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
	})
	return dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
