package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gas-market/core/security"
	"gas-market/core/validation"
	"gas-market/feature/auth/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// TokenType is the token_type of every issued token.
	TokenType = "bearer"

	// DefaultLimit and MaxLimit bound user listings.
	DefaultLimit = 100
	MaxLimit     = 1000
)

var (
	// ErrInvalidCredentials is returned for an unknown user or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveUser is returned when a deactivated user logs in.
	ErrInactiveUser = errors.New("user is inactive")
	// ErrUserNotFound is returned when no user has the requested ID.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken and ErrEmailTaken are returned on unique conflicts.
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already in use")
)

// Service manages users and access tokens.
type Service struct {
	db     *gorm.DB
	tokens *security.TokenManager
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new auth service.
func NewService(db *gorm.DB, tokens *security.TokenManager, logger *zap.Logger) *Service {
	return &Service{db: db, tokens: tokens, logger: logger, now: time.Now}
}

// Authenticate checks credentials and issues an access token.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.TokenResponse, error) {
	user, err := s.byUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := security.CheckPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, security.ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return s.issue(user.ID, user.Username)
}

// Refresh issues a new token for already verified claims.
func (s *Service) Refresh(claims *security.Claims) (*models.TokenResponse, error) {
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, security.ErrInvalidToken
	}
	return s.issue(uint(id), claims.Username)
}

// Current returns the user a token was issued to.
func (s *Service) Current(ctx context.Context, claims *security.Claims) (*models.User, error) {
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, security.ErrInvalidToken
	}
	return s.Get(ctx, uint(id))
}

// Create stores a new user.
func (s *Service) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if err := validateUsername(req.Username); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, 0, req.Username, email); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Email:        email,
		IsActive:     req.IsActive == nil || *req.IsActive,
		CreatedAt:    s.now(),
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created", zap.Uint("id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// List returns users ordered by ID.
func (s *Service) List(ctx context.Context, skip, limit int) ([]models.User, error) {
	if skip < 0 {
		return nil, validation.New(validation.KindInvalidParameter, "skip must not be negative")
	}
	if limit < 1 || limit > MaxLimit {
		return nil, validation.New(validation.KindInvalidParameter, "limit must be between 1 and %d", MaxLimit)
	}

	var users []models.User
	err := s.db.WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: "ID"}}).Offset(skip).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, id uint) (*models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Where(map[string]any{"ID": id}).Limit(1).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return &users[0], nil
}

// Update applies a partial update. A new password is rehashed.
func (s *Service) Update(ctx context.Context, id uint, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	username := user.Username
	if req.Username != nil {
		username = strings.TrimSpace(*req.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		updates["USERNAME"] = username
	}
	var email *string
	if req.Email != nil {
		if email, err = normalizeEmail(req.Email); err != nil {
			return nil, err
		}
		updates["EMAIL"] = email
	}
	if req.Password != nil {
		if err := validatePassword(*req.Password); err != nil {
			return nil, err
		}
		hash, err := security.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		updates["PASSWORD_HASH"] = hash
	}
	if req.IsActive != nil {
		updates["IS_ACTIVE"] = *req.IsActive
	}
	if len(updates) == 0 {
		return user, nil
	}
	if err := s.checkUnique(ctx, id, username, email); err != nil {
		return nil, err
	}

	updates["ATUALIZADO_EM"] = s.now()
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a user.
func (s *Service) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Where(map[string]any{"ID": id}).Delete(&models.User{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	s.logger.Info("User deleted", zap.Uint("id", id))
	return nil
}

// EnsureAdmin creates the bootstrap account unless the username exists. It
// reports whether a user was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, password, email string) (bool, error) {
	existing, err := s.byUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	req := models.CreateUserRequest{Username: username, Password: password}
	if email != "" {
		req.Email = &email
	}
	if _, err := s.Create(ctx, req); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) issue(id uint, username string) (*models.TokenResponse, error) {
	token, expiresIn, err := s.tokens.Issue(strconv.FormatUint(uint64(id), 10), username)
	if err != nil {
		return nil, err
	}
	return &models.TokenResponse{AccessToken: token, TokenType: TokenType, ExpiresIn: expiresIn}, nil
}

func (s *Service) byUsername(ctx context.Context, username string) (*models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Where(map[string]any{"USERNAME": strings.TrimSpace(username)}).Limit(1).Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// checkUnique rejects a username or email held by a user other than id.
func (s *Service) checkUnique(ctx context.Context, id uint, username string, email *string) error {
	q := s.db.Where(map[string]any{"USERNAME": username})
	if email != nil {
		q = q.Or(map[string]any{"EMAIL": *email})
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where(q).Find(&users).Error; err != nil {
		return fmt.Errorf("failed to check user uniqueness: %w", err)
	}
	for _, u := range users {
		if u.ID == id {
			continue
		}
		if u.Username == username {
			return ErrUsernameTaken
		}
		return ErrEmailTaken
	}
	return nil
}

func validateUsername(username string) error {
	if n := utf8.RuneCountInString(username); n < 3 || n > 50 {
		return validation.New(validation.KindInvalidParameter, "username must have between 3 and 50 characters")
	}
	return nil
}

func validatePassword(password string) error {
	if n := utf8.RuneCountInString(password); n < 6 || n > 100 {
		return validation.New(validation.KindInvalidParameter, "password must have between 6 and 100 characters")
	}
	return nil
}

// normalizeEmail trims the address; a blank address becomes nil.
func normalizeEmail(email *string) (*string, error) {
	if email == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*email)
	if v == "" {
		return nil, nil
	}
	if len(v) > 100 {
		return nil, validation.New(validation.KindInvalidParameter, "email must have at most 100 characters")
	}
	if _, err := mail.ParseAddress(v); err != nil {
		return nil, validation.New(validation.KindInvalidParameter, "invalid email %q", v)
	}
	return &v, nil
}
