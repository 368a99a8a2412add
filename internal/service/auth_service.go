package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kasa-pos/internal/model"
	"kasa-pos/internal/repository"
	"kasa-pos/internal/session"
	"kasa-pos/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionRevoked     = errors.New("session expired (logged out or logged in elsewhere)")
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	Logout(ctx context.Context, s session.Session) error
	Authenticate(ctx context.Context, token string) (session.Session, error)
	Me(ctx context.Context, s session.Session) (*model.UserResponse, error)
	ChangePassword(ctx context.Context, s session.Session, oldPassword, newPassword string) error
	EnsureAdmin(ctx context.Context, username, password string) (bool, error)
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Privileges []string           `json:"privileges"`
}

type authService struct {
	userRepo repository.UserRepository
	signer   *jwt.Signer
	log      *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, signer *jwt.Signer, log *zap.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		signer:   signer,
		log:      log.Named("auth"),
	}
}

// Login verifies the credentials and opens a new session. Each login issues a
// fresh token version, so tokens from an earlier login stop working.
func (s *authService) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !user.CheckPassword(password) {
		s.log.Warn("failed login", zap.String("username", user.Username))
		return nil, ErrInvalidCredentials
	}

	version := uuid.New().String()
	now := time.Now()
	if err := s.userRepo.StartSession(ctx, user.ID, version, now); err != nil {
		return nil, errors.New("failed to update session")
	}
	user.TokenVersion = version
	user.LastLoginAt = &now

	token, err := s.signer.GenerateToken(user.ID, user.Username, user.Role, version)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	s.log.Info("user logged in", zap.String("username", user.Username), zap.String("role", user.Role))
	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Privileges: user.Privileges(),
	}, nil
}

// Logout rotates the token version, invalidating the presented token.
func (s *authService) Logout(ctx context.Context, sess session.Session) error {
	if err := s.userRepo.UpdateTokenVersion(ctx, sess.UserID, uuid.New().String()); err != nil {
		return err
	}
	s.log.Info("user logged out", zap.String("username", sess.Username))
	return nil
}

// Authenticate turns a bearer token into a Session, checking it against the
// user's current token version.
func (s *authService) Authenticate(ctx context.Context, token string) (session.Session, error) {
	claims, err := s.signer.ValidateToken(token)
	if err != nil {
		return session.Session{}, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return session.Session{}, ErrUserNotFound
		}
		return session.Session{}, err
	}
	if !user.IsActive {
		return session.Session{}, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return session.Session{}, ErrSessionRevoked
	}

	return session.Session{
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	}, nil
}

func (s *authService) Me(ctx context.Context, sess session.Session) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *authService) ChangePassword(ctx context.Context, sess session.Session, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, sess.UserID)
	if err != nil {
		return ErrUserNotFound
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	if len(newPassword) < 6 {
		return invalid(nil, "password must be at least 6 characters")
	}
	if err := user.SetPassword(newPassword); err != nil {
		return errors.New("failed to hash new password")
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, user.Password)
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
// Reports whether a user was created.
func (s *authService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	admin := &model.User{
		Username: username,
		FullName: "Administrator",
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	if err := admin.SetPassword(password); err != nil {
		return false, err
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return false, err
	}
	s.log.Info("default admin created", zap.String("username", username))
	return true, nil
}
