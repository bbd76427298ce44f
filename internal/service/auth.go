package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pliu/prava/internal/auth"
	"github.com/pliu/prava/internal/common"
	"github.com/pliu/prava/internal/config"
	"github.com/pliu/prava/internal/logging"
	"github.com/pliu/prava/internal/models"
	"github.com/pliu/prava/internal/store"
)

const otpPurposeVerify = "verify"

// Mailer delivers one-time codes.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
}

// TokenPair is returned by every successful sign-in path.
type TokenPair struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user"`
}

type RegisterResult struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// AuthService handles registration, OTP verification, login and refresh
// token rotation.
type AuthService struct {
	store      store.Store
	tokens     *auth.TokenIssuer
	mailer     Mailer
	log        logging.Logger
	otpTTL     time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewAuthService(s store.Store, tokens *auth.TokenIssuer, mailer Mailer, cfg *config.Config, log logging.Logger) *AuthService {
	return &AuthService{
		store:      s,
		tokens:     tokens,
		mailer:     mailer,
		log:        log,
		otpTTL:     cfg.OTPTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		now:        utcNow,
	}
}

// Register creates an unverified user and mails a verification code.
func (s *AuthService) Register(ctx context.Context, email, username, password, displayName string) (*RegisterResult, error) {
	if err := s.ensureFree(ctx, email, username); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	if displayName == "" {
		displayName = username
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		DisplayName:  displayName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	if err := s.issueOTP(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return &RegisterResult{
		Message: "Registration successful. Please verify your email with the OTP sent.",
		UserID:  user.ID,
	}, nil
}

func (s *AuthService) ensureFree(ctx context.Context, email, username string) error {
	_, err := s.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return common.ErrEmailTaken
	case !errors.Is(err, common.ErrNotFound):
		return fmt.Errorf("error checking email: %w", err)
	}

	_, err = s.store.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return common.ErrUsernameTaken
	case !errors.Is(err, common.ErrNotFound):
		return fmt.Errorf("error checking username: %w", err)
	}
	return nil
}

// Login checks the credentials. An unverified user gets a fresh code and
// common.ErrEmailNotVerified.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}

	if !user.IsVerified {
		if err := s.issueOTP(ctx, user); err != nil {
			return nil, err
		}
		return nil, common.ErrEmailNotVerified
	}

	return s.tokenPair(ctx, user)
}

// VerifyOTP consumes a valid code, marks the user verified and signs them in.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*TokenPair, error) {
	otp, err := s.store.FindValidOTP(ctx, email, code, s.now())
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidOTP
		}
		return nil, fmt.Errorf("error searching otp: %w", err)
	}

	if err := s.store.SetVerified(ctx, otp.UserID); err != nil {
		return nil, fmt.Errorf("error verifying user: %w", err)
	}
	if err := s.store.DeleteOTP(ctx, otp.ID); err != nil {
		return nil, fmt.Errorf("error deleting otp: %w", err)
	}

	user, err := s.store.GetUserByID(ctx, otp.UserID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return s.tokenPair(ctx, user)
}

// Refresh rotates refreshToken and returns a new pair. Unknown or expired
// tokens yield common.ErrRefreshTokenExpired.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.store.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrRefreshTokenExpired
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if stored.ExpiresAt.Before(s.now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	user, err := s.store.GetUserByID(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	next, err := s.newRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.store.RotateRefreshToken(ctx, refreshToken, next); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Rotated concurrently.
			return nil, common.ErrRefreshTokenExpired
		}
		return nil, fmt.Errorf("error rotating refresh token: %w", err)
	}

	access, err := s.tokens.Issue(identityOf(user))
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: next.Token, User: user}, nil
}

// ResendOTP replaces any outstanding codes for email with a new one.
func (s *AuthService) ResendOTP(ctx context.Context, email string) (*Message, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", common.ErrNotFound)
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if err := s.store.DeleteOTPsByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("error deleting otps: %w", err)
	}
	if err := s.issueOTP(ctx, user); err != nil {
		return nil, err
	}
	return &Message{Message: "OTP sent successfully"}, nil
}

func (s *AuthService) issueOTP(ctx context.Context, user *models.User) error {
	code, err := auth.NewOTP()
	if err != nil {
		return err
	}

	now := s.now()
	otp := &models.OtpCode{
		ID:        uuid.NewString(),
		Code:      code,
		Email:     user.Email,
		UserID:    user.ID,
		Purpose:   otpPurposeVerify,
		ExpiresAt: now.Add(s.otpTTL),
		CreatedAt: now,
	}
	if err := s.store.CreateOTP(ctx, otp); err != nil {
		return fmt.Errorf("error storing otp: %w", err)
	}

	if err := s.mailer.SendOTP(ctx, user.Email, code); err != nil {
		return fmt.Errorf("error sending otp: %w", err)
	}
	return nil
}

func (s *AuthService) tokenPair(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := s.tokens.Issue(identityOf(user))
	if err != nil {
		return nil, err
	}

	refresh, err := s.newRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateRefreshToken(ctx, refresh); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh.Token, User: user}, nil
}

func (s *AuthService) newRefreshToken(userID string) (*models.RefreshToken, error) {
	token, err := auth.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	return &models.RefreshToken{Token: token, UserID: userID, ExpiresAt: s.now().Add(s.refreshTTL)}, nil
}

func identityOf(u *models.User) auth.Identity {
	return auth.Identity{UserID: u.ID, Email: u.Email, Username: u.Username}
}
