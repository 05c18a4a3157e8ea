package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"go-task-tracker/internal/auth"
	"go-task-tracker/internal/model"
	"go-task-tracker/pkg/apierror"
)

// refreshTokenVersion is the generation marker embedded in refresh claims.
// The session model keeps one token per user and revokes by overwrite, so
// the version is constant until rotation detection is implemented.
const refreshTokenVersion = 1

type UserStore interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	FindByRefreshToken(ctx context.Context, token string) (model.User, error)
	UpdateRefreshToken(ctx context.Context, userID int64, token *string) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, page int, limit int) ([]model.PublicUser, int, error)
}

type AuthService struct {
	users  UserStore
	hasher auth.PasswordHasher
	tokens *auth.TokenManager
	audit  *AuditService
}

func NewAuthService(users UserStore, hasher auth.PasswordHasher, tokens *auth.TokenManager, audit *AuditService) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, audit: audit}
}

func (s *AuthService) Register(ctx context.Context, actor model.AuditActor, req model.RegisterRequest) (model.PublicUser, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))

	if err := validateRegistration(req); err != nil {
		return model.PublicUser{}, err
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return model.PublicUser{}, apierror.BadRequest("User with this email already exists", "")
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return model.PublicUser{}, err
	}

	if _, err := s.users.FindByUsername(ctx, req.Username); err == nil {
		return model.PublicUser{}, apierror.BadRequest("User with this username already exists", "")
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return model.PublicUser{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.PublicUser{}, err
	}

	created, err := s.users.Create(ctx, model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	})
	if errors.Is(err, model.ErrEmailTaken) {
		return model.PublicUser{}, apierror.BadRequest("User with this email already exists", "")
	}
	if errors.Is(err, model.ErrUsernameTaken) {
		return model.PublicUser{}, apierror.BadRequest("User with this username already exists", "")
	}
	if err != nil {
		return model.PublicUser{}, err
	}

	actor.UserID = created.ID
	actor.Username = created.Username
	actor.Role = created.Role
	s.audit.Record(ctx, "auth.register", actor, AuditStatusSuccess, created.Email, "")
	slog.Info("user registered", "user_id", created.ID, "email", created.Email)

	return created.Public(), nil
}

// Login verifies credentials and issues a fresh token pair. The new
// refresh token overwrites any previously stored one, which is the sole
// revocation mechanism for older sessions.
func (s *AuthService) Login(ctx context.Context, actor model.AuditActor, req model.LoginRequest) (model.AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return model.AuthResponse{}, apierror.BadRequest("email and password are required", "")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, model.ErrUserNotFound) {
		// Same failure as a wrong password, so callers cannot probe which
		// emails are registered.
		s.audit.Record(ctx, "auth.login", actor, AuditStatusFailure, req.Email, "unknown email")
		return model.AuthResponse{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.AuthResponse{}, err
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		actor.UserID = user.ID
		s.audit.Record(ctx, "auth.login", actor, AuditStatusFailure, req.Email, "password mismatch")
		return model.AuthResponse{}, model.ErrInvalidCredentials
	}

	accessToken, err := s.tokens.IssueAccess(user.ID, user.Email, user.Role)
	if err != nil {
		return model.AuthResponse{}, err
	}

	refreshToken, err := s.tokens.IssueRefresh(user.ID, refreshTokenVersion)
	if err != nil {
		return model.AuthResponse{}, err
	}

	if err := s.users.UpdateRefreshToken(ctx, user.ID, &refreshToken); err != nil {
		return model.AuthResponse{}, err
	}

	actor.UserID = user.ID
	actor.Username = user.Username
	actor.Role = user.Role
	s.audit.Record(ctx, "auth.login", actor, AuditStatusSuccess, user.Email, "")
	slog.Info("user logged in", "user_id", user.ID, "email", user.Email)

	return model.AuthResponse{
		User:         user.Public(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated: it stays valid until expiry,
// re-login, logout or password change.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (RefreshResponse, error) {
	if _, err := s.tokens.VerifyRefresh(refreshToken); err != nil {
		return RefreshResponse{}, model.ErrInvalidRefreshToken
	}

	user, err := s.users.FindByRefreshToken(ctx, refreshToken)
	if errors.Is(err, model.ErrUserNotFound) {
		// Superseded by a later login, cleared by logout, or never issued.
		return RefreshResponse{}, model.ErrInvalidRefreshToken
	}
	if err != nil {
		return RefreshResponse{}, err
	}

	accessToken, err := s.tokens.IssueAccess(user.ID, user.Email, user.Role)
	if err != nil {
		return RefreshResponse{}, err
	}

	return RefreshResponse{AccessToken: accessToken}, nil
}

// Logout clears the stored refresh secret, invalidating any future
// refresh attempt for the session regardless of the token's own expiry.
func (s *AuthService) Logout(ctx context.Context, actor model.AuditActor, userID int64) error {
	if err := s.users.UpdateRefreshToken(ctx, userID, nil); err != nil {
		return err
	}

	s.audit.Record(ctx, "auth.logout", actor, AuditStatusSuccess, "", "")
	slog.Info("user logged out", "user_id", userID)
	return nil
}

func (s *AuthService) Profile(ctx context.Context, userID int64) (model.PublicUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

// ChangePassword verifies the current password before storing the new
// hash, then clears the stored refresh token so existing sessions cannot
// keep minting access tokens under the old credential.
func (s *AuthService) ChangePassword(ctx context.Context, actor model.AuditActor, userID int64, req model.ChangePasswordRequest) error {
	if len(req.NewPassword) < 8 {
		return apierror.BadRequest("new password must be at least 8 characters", "new_password")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(req.CurrentPassword, user.PasswordHash) {
		s.audit.Record(ctx, "auth.password_change", actor, AuditStatusFailure, "", "password mismatch")
		return model.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	if err := s.users.UpdateRefreshToken(ctx, userID, nil); err != nil {
		return err
	}

	s.audit.Record(ctx, "auth.password_change", actor, AuditStatusSuccess, "", "")
	slog.Info("password changed", "user_id", userID)
	return nil
}

func (s *AuthService) GetUser(ctx context.Context, userID int64) (model.PublicUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

func (s *AuthService) ListUsers(ctx context.Context, page int, limit int) ([]model.PublicUser, *model.Meta, error) {
	users, total, err := s.users.List(ctx, page, limit)
	if err != nil {
		return nil, nil, err
	}
	return users, model.NewMeta(page, limit, total), nil
}

func (s *AuthService) DeleteUser(ctx context.Context, actor model.AuditActor, userID int64) error {
	if actor.UserID == userID {
		return apierror.BadRequest("cannot delete your own account", "")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	s.audit.Record(ctx, "user.delete", actor, AuditStatusSuccess, user.Email, "")
	slog.Info("user deleted", "user_id", userID, "deleted_by", actor.UserID)
	return nil
}

func validateRegistration(req model.RegisterRequest) error {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return apierror.BadRequest("username, email and password are required", "")
	}
	if len(req.Username) < 3 || len(req.Username) > 50 {
		return apierror.BadRequest("username must be between 3 and 50 characters", "username")
	}
	if len(req.Email) > 100 {
		return apierror.BadRequest("email must not exceed 100 characters", "email")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return apierror.BadRequest("email is not a valid address", "email")
	}
	if len(req.Password) < 8 {
		return apierror.BadRequest("password must be at least 8 characters", "password")
	}
	if req.Role != "" && req.Role != model.RoleUser && req.Role != model.RoleAdmin {
		return apierror.New("BAD_REQUEST", "invalid role", req.Role, http.StatusBadRequest)
	}
	return nil
}
