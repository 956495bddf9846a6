package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/naccer/portal/backend/internal/config"
	"github.com/naccer/portal/backend/internal/models"
	"github.com/naccer/portal/backend/internal/store"
	"github.com/naccer/portal/backend/internal/utils"
	"github.com/naccer/portal/backend/pkg/response"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is the single answer to every failed login, so that
// callers cannot tell unknown, deactivated and mistyped accounts apart.
const ErrInvalidCredentials = "Invalid email or password"

type AuthService struct {
	db        *gorm.DB
	users     *store.UserStore
	jwtConfig *config.JWTConfig
	notifier  *NotificationService
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig, notifier *NotificationService) *AuthService {
	return &AuthService{
		db:        db,
		users:     store.NewUserStore(db),
		jwtConfig: jwtCfg,
		notifier:  notifier,
	}
}

type RegisterRequest struct {
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Password   string            `json:"password"`
	Role       string            `json:"role"`
	Department string            `json:"department"`
	Expertise  models.StringList `json:"expertise"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ClientInfo identifies the device a refresh token was issued to.
type ClientInfo struct {
	IP        string
	UserAgent string
}

type AuthResult struct {
	AccessToken     string
	AccessExpireAt  time.Time
	RefreshToken    string
	RefreshExpireAt time.Time
	User            *models.User
}

// Register creates an account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest, client ClientInfo) (*AuthResult, error) {
	name := strings.TrimSpace(req.Name)
	email := utils.NormalizeEmail(req.Email)

	if name == "" || email == "" || req.Password == "" {
		return nil, response.NewValidation("Please provide name, email and password")
	}
	if len(name) > 100 {
		return nil, response.NewValidation("Name cannot exceed 100 characters")
	}
	if !utils.IsValidEmail(email) {
		return nil, response.NewValidation("Please provide a valid email address")
	}
	if len(req.Password) < utils.MinPasswordLength {
		return nil, response.NewValidation("Password must be at least 6 characters")
	}
	role, err := models.ParseRole(strings.TrimSpace(req.Role))
	if err != nil {
		return nil, response.NewValidation("Role must be one of user, reviewer, staff")
	}

	taken, err := s.users.EmailTaken(ctx, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, response.NewConflict("User already exists with this email")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, response.NewPersistence("failed to hash password", err)
	}

	expertise := req.Expertise
	if expertise == nil {
		expertise = models.StringList{}
	}
	user := &models.User{
		Name:       name,
		Email:      email,
		Password:   hash,
		Role:       role,
		Department: strings.TrimSpace(req.Department),
		Expertise:  expertise,
		IsActive:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if response.IsKind(err, response.KindConflict) {
			return nil, response.NewConflict("User already exists with this email")
		}
		return nil, err
	}

	s.notifier.NotifyWelcome(ctx, user)

	return s.issueTokens(ctx, user, client)
}

// Login verifies credentials. Every failure returns the same error.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest, client ClientInfo) (*AuthResult, error) {
	email := utils.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, response.NewValidation("Please provide email and password")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		utils.DummyCheckPassword(req.Password)
		return nil, response.NewAuthentication(ErrInvalidCredentials)
	}
	passwordOK := utils.CheckPassword(req.Password, user.Password)
	if !passwordOK || !user.IsActive {
		return nil, response.NewAuthentication(ErrInvalidCredentials)
	}

	now := time.Now()
	if err := s.users.Update(ctx, user.ID, map[string]interface{}{"last_login": now}); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	return s.issueTokens(ctx, user, client)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User, client ClientInfo) (*AuthResult, error) {
	accessHours := s.jwtConfig.ExpireHour
	token, err := utils.GenerateToken(user.ID, user.Email, string(user.Role), accessHours)
	if err != nil {
		return nil, response.NewPersistence("failed to sign token", err)
	}

	refresh, err := s.createRefreshToken(ctx, s.db, user.ID, client)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		AccessToken:     token,
		AccessExpireAt:  time.Now().Add(time.Duration(accessHours) * time.Hour),
		RefreshToken:    refresh.token,
		RefreshExpireAt: refresh.record.ExpiresAt,
		User:            user,
	}, nil
}

type issuedRefreshToken struct {
	token  string
	record *models.RefreshToken
}

func (s *AuthService) refreshHours() int {
	if s.jwtConfig.RefreshExpireHours > 0 {
		return s.jwtConfig.RefreshExpireHours
	}
	return 720
}

func (s *AuthService) createRefreshToken(ctx context.Context, tx *gorm.DB, userID uint, client ClientInfo) (*issuedRefreshToken, error) {
	token, hash, err := utils.GenerateOpaqueToken()
	if err != nil {
		return nil, response.NewPersistence("failed to generate refresh token", err)
	}
	record := &models.RefreshToken{
		UserID:      userID,
		TokenHash:   hash,
		ExpiresAt:   time.Now().Add(time.Duration(s.refreshHours()) * time.Hour),
		CreatedByIP: client.IP,
		UserAgent:   truncate(client.UserAgent, 255),
	}
	if err := tx.WithContext(ctx).Create(record).Error; err != nil {
		return nil, response.NewPersistence("failed to store refresh token", err)
	}
	return &issuedRefreshToken{token: token, record: record}, nil
}

// Refresh rotates a refresh token and issues a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, response.NewValidation("Refresh token is required")
	}

	var stored models.RefreshToken
	err := s.db.WithContext(ctx).Where("token_hash = ?", utils.HashToken(refreshToken)).First(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewAuthentication("Invalid refresh token")
	}
	if err != nil {
		return nil, response.NewPersistence("failed to load refresh token", err)
	}
	if stored.RevokedAt != nil || time.Now().After(stored.ExpiresAt) {
		return nil, response.NewAuthentication("Invalid refresh token")
	}

	user, err := s.users.FindByID(ctx, stored.UserID)
	if err != nil || !user.IsActive {
		return nil, response.NewAuthentication("Invalid refresh token")
	}

	accessHours := s.jwtConfig.ExpireHour
	access, err := utils.GenerateToken(user.ID, user.Email, string(user.Role), accessHours)
	if err != nil {
		return nil, response.NewPersistence("failed to sign token", err)
	}

	var issued *issuedRefreshToken
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		issued, txErr = s.createRefreshToken(ctx, tx, user.ID, client)
		if txErr != nil {
			return txErr
		}
		res := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked_at IS NULL", stored.ID).
			Updates(map[string]interface{}{
				"revoked_at":           time.Now(),
				"replaced_by_token_id": issued.record.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// rotated concurrently by another request
			return response.NewAuthentication("Invalid refresh token")
		}
		return nil
	})
	if err != nil {
		if response.KindOf(err) != "" {
			return nil, err
		}
		return nil, response.NewPersistence("failed to rotate refresh token", err)
	}

	return &AuthResult{
		AccessToken:     access,
		AccessExpireAt:  time.Now().Add(time.Duration(accessHours) * time.Hour),
		RefreshToken:    issued.token,
		RefreshExpireAt: issued.record.ExpiresAt,
		User:            user,
	}, nil
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	err := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", utils.HashToken(refreshToken)).
		Update("revoked_at", time.Now()).Error
	if err != nil {
		return response.NewPersistence("failed to revoke refresh token", err)
	}
	return nil
}

// GetUserByID returns the account, active or not.
func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

// FindActiveUser backs the authentication middleware.
func (s *AuthService) FindActiveUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, response.NewAuthentication("Account is deactivated")
	}
	return user, nil
}

type UpdateProfileRequest struct {
	Name           *string            `json:"name"`
	Email          *string            `json:"email"`
	Department     *string            `json:"department"`
	Expertise      *models.StringList `json:"expertise"`
	ProfilePicture *string            `json:"profilePicture"`
}

// UpdateProfile changes the caller's own profile fields.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || len(name) > 100 {
			return nil, response.NewValidation("Name must be between 1 and 100 characters")
		}
		fields["name"] = name
	}
	if req.Email != nil {
		email := utils.NormalizeEmail(*req.Email)
		if !utils.IsValidEmail(email) {
			return nil, response.NewValidation("Please provide a valid email address")
		}
		if email != user.Email {
			taken, err := s.users.EmailTaken(ctx, email, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, response.NewConflict("Email already in use by another account")
			}
			fields["email"] = email
		}
	}
	if req.Department != nil {
		fields["department"] = strings.TrimSpace(*req.Department)
	}
	if req.Expertise != nil {
		fields["expertise"] = *req.Expertise
	}
	if req.ProfilePicture != nil {
		fields["profile_picture"] = strings.TrimSpace(*req.ProfilePicture)
	}

	if len(fields) > 0 {
		if err := s.users.Update(ctx, user.ID, fields); err != nil {
			if response.IsKind(err, response.KindConflict) {
				return nil, response.NewConflict("Email already in use by another account")
			}
			return nil, err
		}
	}
	return s.users.FindByID(ctx, user.ID)
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint, req *ChangePasswordRequest) error {
	if req.OldPassword == "" || req.NewPassword == "" {
		return response.NewValidation("Please provide current and new password")
	}
	if len(req.NewPassword) < utils.MinPasswordLength {
		return response.NewValidation("Password must be at least 6 characters")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(req.OldPassword, user.Password) {
		return response.NewValidation("Current password is incorrect")
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return response.NewPersistence("failed to hash password", err)
	}
	if err := s.users.Update(ctx, user.ID, map[string]interface{}{"password": hash}); err != nil {
		return err
	}

	// sign out every other device
	return s.revokeAll(ctx, user.ID)
}

func (s *AuthService) revokeAll(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now()).Error
	if err != nil {
		return response.NewPersistence("failed to revoke refresh tokens", err)
	}
	return nil
}

// ListStaff returns the active staff directory.
func (s *AuthService) ListStaff(ctx context.Context) ([]models.User, error) {
	return s.users.ListByRole(ctx, models.RoleStaff)
}

// SetActive deactivates or reactivates an account. Deactivation also
// revokes every refresh token; accounts are never deleted.
func (s *AuthService) SetActive(ctx context.Context, email string, active bool) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, response.NewNotFound("User not found")
	}
	if err := s.users.Update(ctx, user.ID, map[string]interface{}{"is_active": active}); err != nil {
		return nil, err
	}
	if !active {
		if err := s.revokeAll(ctx, user.ID); err != nil {
			return nil, err
		}
	}
	user.IsActive = active
	return user, nil
}

// SeedUser creates an account unless the email already exists and reports
// whether it was created.
func (s *AuthService) SeedUser(ctx context.Context, name, email, password string, role models.Role, department string, expertise []string) (bool, error) {
	email = utils.NormalizeEmail(email)
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return false, err
	}
	user := &models.User{
		Name:       name,
		Email:      email,
		Password:   hash,
		Role:       role,
		Department: department,
		Expertise:  models.StringList(expertise),
		IsActive:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return false, err
	}
	return true, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
