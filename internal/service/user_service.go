package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kasa-pos/internal/model"
	"kasa-pos/internal/repository"
	"kasa-pos/internal/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrUsernameExists = errors.New("username already exists")
	ErrInvalidRole    = errors.New("unknown role")
	ErrSelfLockout    = errors.New("cannot deactivate or demote your own account")
)

// UserService manages till operator accounts. Every call requires the
// user:manage privilege.
type UserService interface {
	CreateUser(ctx context.Context, s session.Session, req *CreateUserRequest) (*model.UserResponse, error)
	UpdateUser(ctx context.Context, s session.Session, id uuid.UUID, req *UpdateUserRequest) (*model.UserResponse, error)
	DeactivateUser(ctx context.Context, s session.Session, id uuid.UUID) error
	ListUsers(ctx context.Context, s session.Session) ([]model.UserResponse, error)
	GetUser(ctx context.Context, s session.Session, id uuid.UUID) (*model.UserResponse, error)
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"max=255"`
	Role     string `json:"role"` // defaults to cashier
}

// UpdateUserRequest changes only the fields that are set.
type UpdateUserRequest struct {
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=255"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6"`
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log.Named("users"),
	}
}

func checkRole(role string) error {
	if !model.ValidRole(role) {
		return invalid(ErrInvalidRole, "role must be %s or %s", model.RoleAdmin, model.RoleCashier)
	}
	return nil
}

func (s *userService) CreateUser(ctx context.Context, sess session.Session, req *CreateUserRequest) (*model.UserResponse, error) {
	if !sess.Can(model.PrivUserManage) {
		return nil, ErrForbidden
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Role == "" {
		req.Role = model.RoleCashier
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := checkRole(req.Role); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup username: %w", err)
	}
	if existing != nil {
		return nil, invalid(ErrUsernameExists, "username %q already exists", req.Username)
	}

	user := &model.User{
		Username: req.Username,
		FullName: strings.TrimSpace(req.FullName),
		Role:     req.Role,
		IsActive: true,
	}
	user.CreatedBy = sess.Username
	user.UpdatedBy = sess.Username
	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user created",
		zap.String("username", user.Username),
		zap.String("role", user.Role),
		zap.String("by", sess.Username),
	)
	resp := user.ToResponse()
	return &resp, nil
}

// UpdateUser applies a partial change. Deactivating, changing the role or
// resetting the password rotates the token version, ending the user's
// current session.
func (s *userService) UpdateUser(ctx context.Context, sess session.Session, id uuid.UUID, req *UpdateUserRequest) (*model.UserResponse, error) {
	if !sess.Can(model.PrivUserManage) {
		return nil, ErrForbidden
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.Role != nil {
		if err := checkRole(*req.Role); err != nil {
			return nil, err
		}
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	self := user.ID == sess.UserID
	if self && ((req.IsActive != nil && !*req.IsActive) || (req.Role != nil && *req.Role != user.Role)) {
		return nil, invalid(ErrSelfLockout, "%s", ErrSelfLockout.Error())
	}

	revoke := false
	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Role != nil && *req.Role != user.Role {
		user.Role = *req.Role
		revoke = true
	}
	if req.IsActive != nil && *req.IsActive != user.IsActive {
		user.IsActive = *req.IsActive
		revoke = revoke || !user.IsActive
	}
	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, errors.New("failed to hash password")
		}
		revoke = true
	}
	if revoke {
		user.TokenVersion = uuid.New().String()
	}
	user.UpdatedBy = sess.Username

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user updated",
		zap.String("username", user.Username),
		zap.String("role", user.Role),
		zap.Bool("active", user.IsActive),
		zap.Bool("sessions_revoked", revoke),
		zap.String("by", sess.Username),
	)
	resp := user.ToResponse()
	return &resp, nil
}

// DeactivateUser disables an account. Rows are kept because sales reference
// their cashier.
func (s *userService) DeactivateUser(ctx context.Context, sess session.Session, id uuid.UUID) error {
	active := false
	_, err := s.UpdateUser(ctx, sess, id, &UpdateUserRequest{IsActive: &active})
	return err
}

func (s *userService) ListUsers(ctx context.Context, sess session.Session) ([]model.UserResponse, error) {
	if !sess.Can(model.PrivUserManage) {
		return nil, ErrForbidden
	}
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.UserResponse, len(users))
	for i := range users {
		out[i] = users[i].ToResponse()
	}
	return out, nil
}

func (s *userService) GetUser(ctx context.Context, sess session.Session, id uuid.UUID) (*model.UserResponse, error) {
	if !sess.Can(model.PrivUserManage) {
		return nil, ErrForbidden
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) find(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
