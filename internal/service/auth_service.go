package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"taskhub/internal/apperr"
	"taskhub/internal/model"
	"taskhub/pkg/util"
)

// ErrInvalidCredentials is deliberately generic; login failures never
// reveal whether the email exists.
var ErrInvalidCredentials = errors.New("invalid email or password")

type AuthService struct {
	users     UserStore
	jwtSecret string
	logger    *zap.Logger
}

func NewAuthService(users UserStore, jwtSecret string, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// Register creates a new user and returns it with a signed token.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, string, error) {
	var fields []apperr.FieldError
	if name == "" {
		fields = append(fields, apperr.FieldError{Field: "name", Message: "Name is required"})
	}
	if !strings.Contains(email, "@") {
		fields = append(fields, apperr.FieldError{Field: "email", Message: "Invalid email"})
	}
	if len(password) < 6 {
		fields = append(fields, apperr.FieldError{Field: "password", Message: "Password must be at least 6 characters"})
	}
	if len(fields) > 0 {
		return nil, "", apperr.Validation(fields...)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", apperr.Storage("find user", err)
	}
	if existing != nil {
		return nil, "", apperr.Validation(apperr.FieldError{Field: "email", Message: "User already exists"})
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	u := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", apperr.Storage("create user", err)
	}

	token, err := util.GenerateJWT(u.ID, s.jwtSecret)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("User registered", zap.String("user_id", u.ID))
	return u, token, nil
}

// Login checks credentials and returns the user with a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", apperr.Storage("find user", err)
	}

	if !util.CheckPassword(password, u.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(u.ID, s.jwtSecret)
	if err != nil {
		return nil, "", err
	}

	return u, token, nil
}
