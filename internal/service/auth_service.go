package service

import (
	"errors"
	"fmt"
	"time"

	"lab-sample-intake/internal/models"
	"lab-sample-intake/internal/repository"
	"lab-sample-intake/pkg/utils"

	"go.uber.org/zap"
)

type AuthService struct {
	userRepo  *repository.UserRepository
	auditRepo *repository.AuditRepository
	logger    *zap.Logger
}

func NewAuthService(userRepo *repository.UserRepository, auditRepo *repository.AuditRepository, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// LoginResponse represents the response structure for login
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role"`
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(username, password string) (*LoginResponse, error) {
	// Find user by username
	user, err := s.userRepo.FindUserByUsername(username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Compare password
	if !utils.ComparePassword(user.PasswordHash, password) {
		s.logger.Info("rejected login", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}

	response, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	// Log login action
	_ = s.auditRepo.CreateAuditLog(&user.ID, "user_login", fmt.Sprintf("User %s logged in", username))

	return response, nil
}

// RefreshAccessToken generates a new access token from a refresh token
func (s *AuthService) RefreshAccessToken(refreshToken string) (string, error) {
	// Hash the refresh token
	tokenHash := utils.HashRefreshToken(refreshToken)

	// Find refresh token in database
	token, err := s.userRepo.FindRefreshTokenByHash(tokenHash)
	if err != nil {
		return "", errors.New("invalid or revoked refresh token")
	}

	// Check if token is expired
	if time.Now().After(token.ExpiresAt) {
		return "", errors.New("refresh token expired")
	}

	// Generate new access token
	accessToken, err := utils.GenerateAccessToken(token.User.ID, token.User.Username, token.User.Role)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	return accessToken, nil
}

// Logout revokes a refresh token
func (s *AuthService) Logout(refreshToken string) error {
	// Hash the refresh token
	tokenHash := utils.HashRefreshToken(refreshToken)

	// Revoke the token
	if err := s.userRepo.RevokeRefreshTokenByHash(tokenHash); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return nil
}

// Register creates a self-service account. Self-registered users always get
// the plain user role; elevated roles are granted through CreateUser.
func (s *AuthService) Register(username, password, fullName string) (*LoginResponse, error) {
	user, err := s.createUser(username, password, fullName, models.RoleUser)
	if err != nil {
		return nil, err
	}

	response, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	// Log registration action
	_ = s.auditRepo.CreateAuditLog(&user.ID, "user_registration", fmt.Sprintf("User %s registered", username))
	s.logger.Info("user registered", zap.String("username", username))

	return response, nil
}

// CreateUser creates an account with the given role on behalf of an admin.
// An empty role means RoleUser.
func (s *AuthService) CreateUser(adminID uint, username, password, fullName, role string) (*UserResponse, error) {
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleAdmin && role != models.RoleTechnician && role != models.RoleUser {
		return nil, ErrInvalidRole
	}

	user, err := s.createUser(username, password, fullName, role)
	if err != nil {
		return nil, err
	}

	_ = s.auditRepo.CreateAuditLog(&adminID, "user_created", fmt.Sprintf("User %s created as %s", username, role))
	s.logger.Info("user created", zap.String("username", username), zap.String("role", role), zap.Uint("by", adminID))

	return &UserResponse{ID: user.ID, Username: user.Username, FullName: user.FullName, Role: user.Role}, nil
}

func (s *AuthService) createUser(username, password, fullName, role string) (*models.User, error) {
	// Check if username already exists
	existingUser, err := s.userRepo.FindUserByUsername(username)
	if err == nil && existingUser != nil {
		return nil, ErrUsernameTaken
	}

	// Hash the password
	passwordHash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Create user
	user := &models.User{
		Username:     username,
		FullName:     fullName,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := s.userRepo.CreateUser(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *AuthService) issueTokens(user *models.User) (*LoginResponse, error) {
	// Generate access token
	accessToken, err := utils.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	// Generate refresh token
	refreshToken, err := utils.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	// Hash and store refresh token
	refreshTokenModel := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: utils.HashRefreshToken(refreshToken),
		ExpiresAt: time.Now().Add(utils.GetRefreshTokenExpiry()),
	}
	if err := s.userRepo.CreateRefreshToken(refreshTokenModel); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: UserResponse{
			ID:       user.ID,
			Username: user.Username,
			FullName: user.FullName,
			Role:     user.Role,
		},
	}, nil
}
