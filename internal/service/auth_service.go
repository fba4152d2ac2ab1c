package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"slotswap/internal/apperr"
	"slotswap/internal/auth"
	"slotswap/internal/model"
	"slotswap/internal/store"
)

const minPasswordLength = 8

// AuthService registers users, checks credentials and resolves bearer
// tokens to principals.
type AuthService struct {
	store  store.Store
	tokens *auth.TokenManager
	logger *zap.Logger
}

func NewAuthService(st store.Store, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:  st,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates a user with a bcrypt-hashed password and returns the
// user together with a signed token.
func (s *AuthService) Register(ctx context.Context, fullName, email, password string) (*model.User, string, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))

	if fullName == "" || email == "" || password == "" {
		return nil, "", apperr.InvalidArgument("full name, email and password are required")
	}
	if len(password) < minPasswordLength {
		return nil, "", apperr.InvalidArgument("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apperr.Unavailable(err, "hash password")
	}

	user := &model.User{
		ID:           uuid.New(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, "", apperr.InvalidState("a user with this email already exists")
		}
		return nil, "", wrapStore(err, "create user")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", apperr.Unavailable(err, "issue token")
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
	)

	return user, token, nil
}

// Login checks credentials and returns the user with a fresh token. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", apperr.InvalidArgument("email and password are required")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", apperr.Forbidden("invalid email or password")
		}
		return nil, "", wrapStore(err, "look up user")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", apperr.Forbidden("invalid email or password")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", apperr.Unavailable(err, "issue token")
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))

	return user, token, nil
}

// Authenticate resolves a bearer token to an existing user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperr.Forbidden("invalid or expired token")
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Forbidden("user no longer exists")
		}
		return nil, wrapStore(err, "look up user")
	}
	return user, nil
}
