package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"sari-backend/internal/auth"
	"sari-backend/internal/models"
)

type UserService struct {
	Repo       UserStore
	JWTManager *auth.JWTManager
	log        *logrus.Entry
}

func NewUserService(repo UserStore, jwtManager *auth.JWTManager, logger *logrus.Logger) *UserService {
	return &UserService{
		Repo:       repo,
		JWTManager: jwtManager,
		log:        componentLogger(logger, "users"),
	}
}

func validRole(role string) bool {
	return role == models.RoleAdmin || role == models.RoleCashier
}

func (s *UserService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if strings.TrimSpace(req.Name) == "" || email == "" || req.Password == "" {
		return nil, invalid("name, email, and password are required")
	}
	if req.Role == "" {
		req.Role = models.RoleCashier
	}
	if !validRole(req.Role) {
		return nil, invalid("role must be admin or cashier")
	}

	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         req.Role,
		IsActive:     true,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if err := checkID(id, "user"); err != nil {
		return nil, err
	}
	u, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

// ListUsers returns all users
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.Repo.List(ctx)
}

// UpdateUser changes profile, role and status; the password only when given
func (s *UserService) UpdateUser(ctx context.Context, id string, req *models.UpdateUserRequest) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if strings.TrimSpace(req.Name) == "" || email == "" {
		return nil, invalid("name and email are required")
	}
	if !validRole(req.Role) {
		return nil, invalid("role must be admin or cashier")
	}
	if email != user.Email {
		if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
			return nil, ErrEmailTaken
		}
	}

	user.Name = strings.TrimSpace(req.Name)
	user.Email = email
	user.Role = req.Role
	user.IsActive = req.IsActive
	if req.Password != "" {
		hashedPassword, err := auth.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashedPassword
	}

	if err := s.Repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.Repo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		s.log.WithField("email", user.Email).Warn("Failed login")
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User logged in")
	return &models.AuthResponse{Token: token, User: user}, nil
}

// EnsureAdmin creates the configured admin account when no users exist yet.
// It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	n, err := s.Repo.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if email == "" || password == "" {
		return false, errors.New("no users exist and admin.email/admin.password are not set")
	}

	_, err = s.CreateUser(ctx, &models.CreateUserRequest{
		Name:     "Store Owner",
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return false, err
	}
	s.log.WithField("email", email).Info("Bootstrap admin created")
	return true, nil
}
