package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/mail"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// authService implements AuthService.
type authService struct {
	userRepo    repository.UserRepository
	tokens      *auth.TokenManager
	mailer      mail.Mailer
	cfg         config.AuthConfig
	frontendURL string
	now         func() time.Time
	logger      zerolog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo repository.UserRepository,
	tokens *auth.TokenManager,
	mailer mail.Mailer,
	cfg config.AuthConfig,
	frontendURL string,
	logger zerolog.Logger,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		tokens:      tokens,
		mailer:      mailer,
		cfg:         cfg,
		frontendURL: frontendURL,
		now:         time.Now,
		logger:      logger.With().Str("service", "auth").Logger(),
	}
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and signs the user in.
func (s *authService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	email := normaliseEmail(req.Email)

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	if existing != nil {
		s.logger.Debug().Str("email", email).Msg("registration with existing email")
		return nil, model.ErrEmailTaken
	}
	req.Email = email
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	token, digest, err := auth.NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	verifyExpires := now.Add(s.cfg.VerifyTokenTTL)
	user := &model.User{
		ID:                  uuid.New(),
		Name:                req.Name,
		Email:               email,
		Phone:               req.Phone,
		IsActive:            true,
		PasswordHash:        hash,
		VerificationToken:   &digest,
		VerificationExpires: &verifyExpires,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	// A concurrent registration can still win the unique index.
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	if err := s.mailer.Send(ctx, user.Email, mail.VerificationMessage(user.Name, s.frontendURL, token)); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to send verification email")
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return s.session(user)
}

// Login validates credentials. Failed attempts are counted per account and
// lock it for the configured duration once the threshold is reached.
func (s *authService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normaliseEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	if user == nil {
		return nil, model.ErrInvalidCredentials
	}

	now := s.now()
	if user.IsLocked(now) {
		s.logger.Warn().Str("user_id", user.ID.String()).Msg("login attempt on locked account")
		return nil, model.ErrAccountLocked
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		user.RecordFailedLogin(now, s.cfg.MaxLoginAttempts, s.cfg.LockDuration)
		if err := s.userRepo.UpdateLoginState(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to record login attempt: %w", err)
		}
		s.logger.Warn().
			Str("user_id", user.ID.String()).
			Int("attempts", user.LoginAttempts).
			Bool("locked", user.IsLocked(now)).
			Msg("failed login")
		return nil, model.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, model.ErrAccountInactive
	}

	user.RecordSuccessfulLogin(now)
	if err := s.userRepo.UpdateLoginState(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user logged in")
	return s.session(user)
}

func (s *authService) Logout(_ context.Context, userID uuid.UUID) {
	s.logger.Info().Str("user_id", userID.String()).Msg("user logged out")
}

// Authenticate resolves a token to its user. Unknown and deactivated users
// are rejected.
func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, *auth.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, nil, model.ErrTokenExpired
		}
		return nil, nil, model.ErrInvalidToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, nil, model.ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, nil, model.ErrTokenUserNotFound
	}
	if !user.IsActive {
		return nil, nil, model.ErrAccountInactive
	}
	return user, claims, nil
}

func (s *authService) RefreshIfNeeded(claims *auth.Claims, userID uuid.UUID) (string, time.Time, bool, error) {
	if !s.tokens.NeedsRefresh(claims) {
		return "", time.Time{}, false, nil
	}
	token, expiresAt, err := s.tokens.Issue(userID)
	if err != nil {
		return "", time.Time{}, false, err
	}
	s.logger.Debug().Str("user_id", userID.String()).Msg("token refreshed")
	return token, expiresAt, true, nil
}

// ForgotPassword emails a single-use reset link. Unknown addresses are
// accepted silently.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, normaliseEmail(email))
	if err != nil {
		return fmt.Errorf("failed to start password reset: %w", err)
	}
	if user == nil || !user.IsActive {
		s.logger.Debug().Msg("password reset requested for unknown email")
		return nil
	}

	token, digest, err := auth.NewOpaqueToken()
	if err != nil {
		return err
	}
	if err := s.userRepo.SetResetToken(ctx, user.ID, digest, s.now().Add(s.cfg.ResetTokenTTL)); err != nil {
		return fmt.Errorf("failed to start password reset: %w", err)
	}

	if err := s.mailer.Send(ctx, user.Email, mail.PasswordResetMessage(user.Name, s.frontendURL, token)); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to send reset email")
		if clearErr := s.userRepo.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.logger.Error().Err(clearErr).Str("user_id", user.ID.String()).Msg("failed to clear reset token")
		}
		return fmt.Errorf("email could not be sent: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("password reset email sent")
	return nil
}

// ResetPassword sets a new password using an emailed token and signs the
// user in. The token is consumed.
func (s *authService) ResetPassword(ctx context.Context, token, password string) (*model.AuthResponse, error) {
	user, err := s.userRepo.GetByResetToken(ctx, auth.DigestToken(token), s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to reset password: %w", err)
	}
	if user == nil {
		return nil, model.ErrInvalidResetToken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, fmt.Errorf("failed to reset password: %w", err)
	}

	// A reset also lifts any lockout.
	user.RecordSuccessfulLogin(s.now())
	if err := s.userRepo.UpdateLoginState(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to reset password: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("password reset")
	return s.session(user)
}

func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.userRepo.GetByVerificationToken(ctx, auth.DigestToken(token), s.now())
	if err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}
	if user == nil {
		return model.ErrInvalidVerifyToken
	}
	if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}
	s.logger.Info().Str("user_id", user.ID.String()).Msg("email verified")
	return nil
}

// ResendVerification issues a fresh verification token. Verified users get
// a validation error.
func (s *authService) ResendVerification(ctx context.Context, user *model.User) error {
	if user.IsVerified {
		return model.NewValidationError("Email is already verified")
	}

	token, digest, err := auth.NewOpaqueToken()
	if err != nil {
		return err
	}
	if err := s.userRepo.SetVerificationToken(ctx, user.ID, digest, s.now().Add(s.cfg.VerifyTokenTTL)); err != nil {
		return fmt.Errorf("failed to resend verification: %w", err)
	}
	if err := s.mailer.Send(ctx, user.Email, mail.VerificationMessage(user.Name, s.frontendURL, token)); err != nil {
		return fmt.Errorf("email could not be sent: %w", err)
	}
	return nil
}

func (s *authService) CheckEmailAvailable(ctx context.Context, email string) (bool, error) {
	user, err := s.userRepo.GetByEmail(ctx, normaliseEmail(email))
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return user == nil, nil
}

// UpdatePassword changes the password after checking the current one and
// returns a fresh session.
func (s *authService) UpdatePassword(ctx context.Context, user *model.User, req *model.UpdatePasswordRequest) (*model.AuthResponse, error) {
	ok, err := auth.CheckPassword(user.PasswordHash, req.CurrentPassword)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrIncorrectPassword
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("password updated")
	return s.session(user)
}

func (s *authService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.Deactivate(ctx, userID); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}
	s.logger.Info().Str("user_id", userID.String()).Msg("account deactivated")
	return nil
}

func (s *authService) session(user *model.User) (*model.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to issue token")
		return nil, err
	}
	return &model.AuthResponse{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		IsAdmin:    user.IsAdmin,
		IsVerified: user.IsVerified,
		Token:      token,
		ExpiresAt:  expiresAt,
	}, nil
}
