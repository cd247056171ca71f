package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"lms_backend/internal/mailer"
	"lms_backend/internal/model"
	"lms_backend/internal/policy"
	"lms_backend/internal/repository"
	"lms_backend/internal/utils"

	"github.com/sirupsen/logrus"
)

const minPasswordLength = 8

// ResetRequestedMessage is returned for every password reset request.
const ResetRequestedMessage = "If an account exists with this email, you will receive a reset link."

// AuthConfig is the configuration the credential service is constructed with
type AuthConfig struct {
	DefaultFromAddress string
	ResetTokenMaxAge   time.Duration
	PublicBaseURL      string
}

// AuthDeps groups the collaborators of the credential service
type AuthDeps struct {
	Users     repository.UserRepository
	Blacklist repository.TokenBlacklist
	Ledger    repository.ResetTokenLedger
	JWT       *utils.JWTUtil
	Signer    *utils.ResetSigner
	Mailer    mailer.Mailer
	Log       logrus.FieldLogger
}

// AuthService provides authentication and account related services
type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResult, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	Authenticate(ctx context.Context, accessToken string) (policy.Principal, error)
	CurrentUser(ctx context.Context, p policy.Principal) (*model.CurrentUser, error)
	GetProfile(ctx context.Context, userID int64) (*model.ProfileView, error)
	UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.ProfileView, error)
	ChangePassword(ctx context.Context, userID int64, req model.ChangePasswordRequest) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type authService struct {
	AuthDeps
	cfg AuthConfig
}

// NewAuthService creates a new AuthService
func NewAuthService(deps AuthDeps, cfg AuthConfig) AuthService {
	if cfg.ResetTokenMaxAge <= 0 {
		cfg.ResetTokenMaxAge = time.Hour
	}
	if cfg.DefaultFromAddress == "" {
		cfg.DefaultFromAddress = "noreply@lms.local"
	}
	return &authService{AuthDeps: deps, cfg: cfg}
}

func checkPasswordLength(password string) error {
	if len(password) < minPasswordLength {
		return ValidationError("Ensure this field has at least %d characters.", minPasswordLength)
	}
	return nil
}

// Register creates a user together with its profile and returns a token pair
func (s *authService) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResult, error) {
	if strings.TrimSpace(req.Username) == "" || req.Email == "" {
		return nil, ValidationError("username and email are required")
	}
	if err := checkPasswordLength(req.Password); err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = model.RoleStudent
	}
	if !role.Valid() {
		return nil, ValidationError("%q is not a valid choice.", string(role))
	}

	existing, err := s.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	existing, err = s.Users.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing username: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
	profile := &model.Profile{Role: role}
	if req.Phone != "" {
		phone := req.Phone
		profile.Phone = &phone
	}

	if err := s.Users.CreateWithProfile(ctx, user, profile); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, repository.ErrConflict) {
			if strings.Contains(repository.ConstraintName(err), "email") {
				return nil, ErrEmailTaken
			}
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user in repository: %w", err)
	}

	tokens, err := s.JWT.GeneratePair(user.ID)
	if err != nil {
		s.Log.WithError(err).WithField("user_id", user.ID).Error("user created, but failed to generate tokens")
		return nil, fmt.Errorf("user created, but failed to generate tokens: %w", err)
	}
	s.Log.WithFields(logrus.Fields{"user_id": user.ID, "role": role}).Info("user registered")
	return &model.AuthResult{User: user, Role: role, Tokens: tokens}, nil
}

// Login authenticates by email or username
func (s *authService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResult, error) {
	if req.Email == "" && req.Username == "" {
		return nil, ValidationError("Provide email or username.")
	}

	var user *model.User
	if strings.Contains(req.Email, "@") {
		u, err := s.Users.FindByEmail(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("error finding user by email: %w", err)
		}
		if u != nil && utils.CheckPasswordHash(req.Password, u.PasswordHash) {
			user = u
		}
	}
	if user == nil && req.Username != "" {
		u, err := s.Users.FindByUsername(ctx, req.Username)
		if err != nil {
			return nil, fmt.Errorf("error finding user by username: %w", err)
		}
		if u != nil && utils.CheckPasswordHash(req.Password, u.PasswordHash) {
			user = u
		}
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	profile, err := s.Users.FindProfile(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	role, _ := policy.ResolveRole(profile)

	tokens, err := s.JWT.GeneratePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	return &model.AuthResult{User: user, Role: role, Tokens: tokens}, nil
}

// Refresh exchanges a refresh token that has not been revoked for a new access token
func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ValidationError("Refresh token required")
	}
	claims, err := s.JWT.ValidateToken(refreshToken, utils.RefreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}
	revoked, err := s.Blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return "", fmt.Errorf("failed to check blacklist: %w", err)
	}
	if revoked {
		return "", ErrInvalidRefreshToken
	}
	user, err := s.Users.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return "", ErrInvalidRefreshToken
	}
	return s.JWT.GenerateToken(user.ID, utils.AccessToken)
}

// Logout revokes the refresh token. Only a missing token is reported; any
// other failure is logged and the caller still sees success.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return ValidationError("Refresh token required")
	}
	claims, err := s.JWT.ValidateToken(refreshToken, utils.RefreshToken)
	if err != nil {
		s.Log.WithError(err).Debug("logout with unusable refresh token")
		return nil
	}
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.Blacklist.Blacklist(ctx, claims.ID, claims.UserID, expiresAt); err != nil {
		s.Log.WithError(err).WithField("user_id", claims.UserID).Error("failed to blacklist refresh token")
	}
	return nil
}

// Authenticate resolves an access token to the calling principal
func (s *authService) Authenticate(ctx context.Context, accessToken string) (policy.Principal, error) {
	claims, err := s.JWT.ValidateToken(accessToken, utils.AccessToken)
	if err != nil {
		return policy.Anonymous(), &Error{Kind: KindAuth, Message: "Invalid or expired token"}
	}
	user, err := s.Users.FindByID(ctx, claims.UserID)
	if err != nil {
		return policy.Anonymous(), fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return policy.Anonymous(), &Error{Kind: KindAuth, Message: "User not found"}
	}
	profile, err := s.Users.FindProfile(ctx, user.ID)
	if err != nil {
		return policy.Anonymous(), fmt.Errorf("failed to load profile: %w", err)
	}
	return policy.NewPrincipal(user.ID, profile), nil
}

func (s *authService) CurrentUser(ctx context.Context, p policy.Principal) (*model.CurrentUser, error) {
	user, err := s.Users.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, NotFoundError("User")
	}
	cu := &model.CurrentUser{ID: user.ID, Username: user.Username, Email: user.Email}
	if p.HasRole {
		role := p.Role
		cu.Role = &role
	}
	return cu, nil
}

func (s *authService) loadAccount(ctx context.Context, userID int64) (*model.User, *model.Profile, error) {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrProfileNotFound
	}
	profile, err := s.Users.FindProfile(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return nil, nil, ErrProfileNotFound
	}
	return user, profile, nil
}

func profileView(user *model.User, profile *model.Profile) *model.ProfileView {
	return &model.ProfileView{
		ID:        profile.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     profile.Phone,
		Role:      profile.Role,
	}
}

func (s *authService) GetProfile(ctx context.Context, userID int64) (*model.ProfileView, error) {
	user, profile, err := s.loadAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profileView(user, profile), nil
}

// UpdateProfile applies a partial update; the role cannot be changed here
func (s *authService) UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.ProfileView, error) {
	user, profile, err := s.loadAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		if *req.Email == "" {
			return nil, ValidationError("email: This field may not be blank.")
		}
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		if *req.Phone == "" {
			profile.Phone = nil
		} else {
			phone := *req.Phone
			profile.Phone = &phone
		}
	}

	if err := s.Users.UpdateAccount(ctx, user, profile); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profileView(user, profile), nil
}

// ChangePassword rotates the password after verifying the current one
func (s *authService) ChangePassword(ctx context.Context, userID int64, req model.ChangePasswordRequest) error {
	if err := checkPasswordLength(req.NewPassword); err != nil {
		return err
	}
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || !utils.CheckPasswordHash(req.OldPassword, user.PasswordHash) {
		return ValidationError("Old password is incorrect.")
	}
	return s.setPassword(ctx, user.ID, req.NewPassword)
}

func (s *authService) setPassword(ctx context.Context, userID int64, password string) error {
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.Users.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// RequestPasswordReset mails a reset link when the email belongs to an
// account. Callers cannot tell whether it did.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up email: %w", err)
	}
	if user == nil {
		return nil
	}

	token, err := s.Signer.Sign(user.Email)
	if err != nil {
		return err
	}
	link := strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/accounts/reset-password/?token=" + url.QueryEscape(token)
	msg := mailer.Message{
		From:    s.cfg.DefaultFromAddress,
		To:      []string{user.Email},
		Subject: "Password reset",
		Body:    "Use this link to reset your password: " + link,
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		s.Log.WithError(err).WithField("user_id", user.ID).Warn("failed to deliver password reset mail")
	}
	return nil
}

// ResetPassword sets a new password using a reset token. Each token works once.
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return ValidationError("Token and new_password required")
	}
	if err := checkPasswordLength(newPassword); err != nil {
		return err
	}

	claims, err := s.Signer.Verify(token, s.cfg.ResetTokenMaxAge)
	if err != nil {
		return ErrInvalidResetToken
	}
	user, err := s.Users.FindByEmail(ctx, claims.Email)
	if err != nil {
		return fmt.Errorf("failed to look up email: %w", err)
	}
	if user == nil {
		return ErrInvalidResetToken
	}

	fresh, err := s.Ledger.Consume(ctx, claims.ID, s.cfg.ResetTokenMaxAge)
	if err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}
	if !fresh {
		return ErrInvalidResetToken
	}
	if err := s.setPassword(ctx, user.ID, newPassword); err != nil {
		// Give the token back so the user can retry with the same link.
		if relErr := s.Ledger.Release(ctx, claims.ID); relErr != nil {
			s.Log.WithError(relErr).WithField("user_id", user.ID).Error("failed to release reset token")
		}
		return err
	}
	s.Log.WithField("user_id", user.ID).Info("password reset")
	return nil
}
