package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/internal/app/repository"
	"github.com/booktime/booktime-backend/pkg/logger"
	"github.com/booktime/booktime-backend/pkg/mailer"
	"github.com/booktime/booktime-backend/pkg/util"
	"gorm.io/gorm"
)

const (
	welcomeSubject = "Welcome to BookTime"
	welcomeBody    = "Welcome to BookTime. You can now log in with your email address and start shopping."
)

// TokenBlacklist remembers revoked access tokens until they expire.
type TokenBlacklist interface {
	Revoke(ctx context.Context, tokenID string, expiry time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type SignupInput struct {
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
}

// AuthResult is what a successful signup or login hands back. BasketID is
// the basket the session should reference from now on, if any.
type AuthResult struct {
	User     *model.User
	Tokens   *util.TokenPair
	BasketID *uint
}

type AuthService interface {
	Signup(ctx context.Context, in SignupInput, anonymousBasketID *uint) (*AuthResult, error)
	Login(ctx context.Context, email, password string, anonymousBasketID *uint) (*AuthResult, error)
	Logout(ctx context.Context, claims *util.Claims) error
	GetUserByID(ctx context.Context, id uint) (*model.User, error)
}

type authService struct {
	userRepo      repository.UserRepository
	baskets       BasketService
	mail          mailer.Mailer
	blacklist     TokenBlacklist
	fromAddress   string
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	baskets BasketService,
	mail mailer.Mailer,
	blacklist TokenBlacklist,
	fromAddress string,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		baskets:       baskets,
		mail:          mail,
		blacklist:     blacklist,
		fromAddress:   fromAddress,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Signup(ctx context.Context, in SignupInput, anonymousBasketID *uint) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	logger.Info("Attempting user signup", map[string]interface{}{
		"email": email,
	})

	fields := map[string]string{}
	if email == "" || !strings.Contains(email, "@") {
		fields["email"] = "enter a valid email address"
	}
	if err := util.ValidatePassword(in.Password); err != nil {
		fields["password1"] = err.Error()
	}
	if in.Password != in.PasswordConfirm {
		fields["password2"] = ErrPasswordMismatch.Error()
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	existing, err := s.userRepo.FindByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing user", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}
	if existing != nil {
		logger.Warn("Signup failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, ErrEmailAlreadyExists
	}

	hashed, err := util.HashPassword(in.Password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hashed,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		IsActive:     true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, conflictOnDuplicate(err, ErrEmailAlreadyExists)
	}

	logger.Info("New signup", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	s.sendWelcome(ctx, user)

	return s.completeLogin(ctx, user, anonymousBasketID)
}

// sendWelcome never fails the signup; delivery problems are only logged.
func (s *authService) sendWelcome(ctx context.Context, user *model.User) {
	err := s.mail.Send(ctx, mailer.Message{
		From:    s.fromAddress,
		To:      []string{user.Email},
		Subject: welcomeSubject,
		Body:    welcomeBody,
	})
	if err != nil {
		logger.Warn("Welcome email could not be sent", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		return
	}
	logger.Info("Welcome email sent", map[string]interface{}{
		"user_id": user.ID,
	})
}

func (s *authService) Login(ctx context.Context, email, password string, anonymousBasketID *uint) (*AuthResult, error) {
	email = normalizeEmail(email)
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		logger.Warn("Login failed: inactive user", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, ErrInactiveUser
	}

	return s.completeLogin(ctx, user, anonymousBasketID)
}

// completeLogin stamps last_login, reconciles the session basket and
// issues tokens.
func (s *authService) completeLogin(ctx context.Context, user *model.User, anonymousBasketID *uint) (*AuthResult, error) {
	now := time.Now()
	if err := s.userRepo.UpdateLastLogin(user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	basketID, err := s.baskets.Merge(ctx, user.ID, anonymousBasketID)
	if err != nil {
		return nil, err
	}

	tokens, err := util.GenerateTokenPair(user.ID, user.Email, string(user.Role()), s.jwtSecret, s.accessExpiry, s.refreshExpiry)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}

	logger.Info("User logged in", map[string]interface{}{
		"user_id":   user.ID,
		"role":      user.Role(),
		"basket_id": basketID,
	})
	return &AuthResult{User: user, Tokens: tokens, BasketID: basketID}, nil
}

func (s *authService) Logout(ctx context.Context, claims *util.Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, ttl); err != nil {
		logger.Error("Failed to revoke token", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		return err
	}
	logger.Info("User logged out", map[string]interface{}{
		"user_id": claims.UserID,
	})
	return nil
}

func (s *authService) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}
