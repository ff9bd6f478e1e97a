package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/mail"
	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testAuthConfig = config.AuthConfig{
	JWTSecret:        "test-secret",
	TokenTTL:         30 * 24 * time.Hour,
	RefreshWindow:    24 * time.Hour,
	MaxLoginAttempts: 5,
	LockDuration:     15 * time.Minute,
	ResetTokenTTL:    10 * time.Minute,
	VerifyTokenTTL:   24 * time.Hour,
}

var (
	hashOnce   sync.Once
	cachedHash string
)

// passwordHash hashes "secret123" once per test binary.
func passwordHash(t *testing.T) string {
	t.Helper()
	hashOnce.Do(func() {
		h, err := auth.HashPassword("secret123")
		require.NoError(t, err)
		cachedHash = h
	})
	return cachedHash
}

func newAuthService(userRepo *MockUserRepository, mailer *MockMailer, now time.Time) *authService {
	tokens := auth.NewTokenManager(testAuthConfig.JWTSecret, testAuthConfig.TokenTTL, testAuthConfig.RefreshWindow)
	svc := NewAuthService(userRepo, tokens, mailer, testAuthConfig, "http://shop.test", zerolog.Nop()).(*authService)
	svc.now = func() time.Time { return now }
	return svc
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	mailer := new(MockMailer)

	userRepo.On("GetByEmail", ctx, "new@example.com").Return(nil, nil)
	userRepo.On("Create", ctx, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "new@example.com" && u.IsActive && !u.IsVerified &&
			u.VerificationToken != nil && u.VerificationExpires.Equal(fixedNow.Add(24*time.Hour)) &&
			u.PasswordHash != "" && u.PasswordHash != "secret123"
	})).Return(nil)
	mailer.On("Send", ctx, "new@example.com", mock.MatchedBy(func(m mail.Message) bool {
		return strings.Contains(m.Body, "http://shop.test/verify-email/")
	})).Return(nil)

	svc := newAuthService(userRepo, mailer, fixedNow)
	resp, err := svc.Register(ctx, &model.RegisterRequest{Name: " Zara ", Email: " NEW@example.com", Password: "secret123"})
	require.NoError(t, err)

	assert.Equal(t, "Zara", resp.Name)
	assert.False(t, resp.IsVerified)
	assert.NotEmpty(t, resp.Token)
	userRepo.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		req  *model.RegisterRequest
	}{
		{"valid fields", &model.RegisterRequest{Name: "Tania", Email: "taken@example.com", Password: "secret123"}},
		{"short password", &model.RegisterRequest{Name: "Tania", Email: "taken@example.com", Password: "abc"}},
		{"short name", &model.RegisterRequest{Name: "T", Email: " Taken@Example.com", Password: "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := new(MockUserRepository)
			userRepo.On("GetByEmail", ctx, "taken@example.com").Return(&model.User{ID: uuid.New()}, nil)

			_, err := newAuthService(userRepo, new(MockMailer), fixedNow).Register(ctx, tt.req)
			assert.ErrorIs(t, err, model.ErrEmailTaken)
			userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthService_Register_InvalidFields(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	userRepo.On("GetByEmail", ctx, "fresh@example.com").Return(nil, nil)

	_, err := newAuthService(userRepo, new(MockMailer), fixedNow).
		Register(ctx, &model.RegisterRequest{Name: "Fresh", Email: "fresh@example.com", Password: "abc"})

	var domainErr *model.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, model.ErrCodeValidationFailed, domainErr.Code)
	assert.Equal(t, "password must satisfy min=6", domainErr.Message)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success resets counters", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		user := &model.User{ID: uuid.New(), Email: "u@example.com", IsActive: true, PasswordHash: passwordHash(t), LoginAttempts: 3}
		userRepo.On("GetByEmail", ctx, "u@example.com").Return(user, nil)
		userRepo.On("UpdateLoginState", ctx, user).Return(nil)

		resp, err := newAuthService(userRepo, nil, fixedNow).Login(ctx, &model.LoginRequest{Email: "u@example.com", Password: "secret123"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, 0, user.LoginAttempts)
		require.NotNil(t, user.LastLogin)
		assert.Equal(t, fixedNow, *user.LastLogin)
	})

	t.Run("unknown email", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		userRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, nil)

		_, err := newAuthService(userRepo, nil, fixedNow).Login(ctx, &model.LoginRequest{Email: "ghost@example.com", Password: "x"})
		assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("deactivated account", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		user := &model.User{ID: uuid.New(), Email: "off@example.com", PasswordHash: passwordHash(t)}
		userRepo.On("GetByEmail", ctx, "off@example.com").Return(user, nil)

		_, err := newAuthService(userRepo, nil, fixedNow).Login(ctx, &model.LoginRequest{Email: "off@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, model.ErrAccountInactive)
	})
}

func TestAuthService_Login_Lockout(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	user := &model.User{ID: uuid.New(), Email: "lock@example.com", IsActive: true, PasswordHash: passwordHash(t)}
	userRepo.On("GetByEmail", ctx, "lock@example.com").Return(user, nil)
	userRepo.On("UpdateLoginState", ctx, user).Return(nil)

	svc := newAuthService(userRepo, nil, fixedNow)
	for i := 0; i < 5; i++ {
		_, err := svc.Login(ctx, &model.LoginRequest{Email: "lock@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	}
	require.NotNil(t, user.LockUntil)
	assert.Equal(t, fixedNow.Add(15*time.Minute), *user.LockUntil)

	// The correct password is refused while locked.
	_, err := svc.Login(ctx, &model.LoginRequest{Email: "lock@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, model.ErrAccountLocked)

	// After the lock expires the correct password works again.
	svc.now = func() time.Time { return fixedNow.Add(16 * time.Minute) }
	_, err = svc.Login(ctx, &model.LoginRequest{Email: "lock@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Nil(t, user.LockUntil)
	assert.Equal(t, 0, user.LoginAttempts)
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	svc := newAuthService(userRepo, nil, fixedNow)

	active := &model.User{ID: uuid.New(), IsActive: true}
	inactive := &model.User{ID: uuid.New()}
	missing := uuid.New()
	userRepo.On("GetByID", ctx, active.ID).Return(active, nil)
	userRepo.On("GetByID", ctx, inactive.ID).Return(inactive, nil)
	userRepo.On("GetByID", ctx, missing).Return(nil, nil)

	token, _, err := svc.tokens.Issue(active.ID)
	require.NoError(t, err)
	user, claims, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, active.ID, user.ID)
	assert.NotNil(t, claims)

	token, _, _ = svc.tokens.Issue(inactive.ID)
	_, _, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, model.ErrAccountInactive)

	token, _, _ = svc.tokens.Issue(missing)
	_, _, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, model.ErrTokenUserNotFound)

	_, _, err = svc.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, model.ErrInvalidToken)

	expired := auth.NewTokenManager(testAuthConfig.JWTSecret, -time.Hour, time.Hour)
	token, _, _ = expired.Issue(active.ID)
	_, _, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, model.ErrTokenExpired)
}

func TestAuthService_ForgotAndResetPassword(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	mailer := new(MockMailer)
	svc := newAuthService(userRepo, mailer, fixedNow)

	user := &model.User{ID: uuid.New(), Name: "Rida", Email: "rida@example.com", IsActive: true, LoginAttempts: 5}
	lockedUntil := fixedNow.Add(time.Minute)
	user.LockUntil = &lockedUntil

	var emailed string
	userRepo.On("GetByEmail", ctx, "rida@example.com").Return(user, nil)
	userRepo.On("SetResetToken", ctx, user.ID, mock.AnythingOfType("string"), fixedNow.Add(10*time.Minute)).Return(nil)
	mailer.On("Send", ctx, "rida@example.com", mock.Anything).Run(func(args mock.Arguments) {
		msg := args.Get(2).(mail.Message)
		emailed = msg.Body[strings.Index(msg.Body, "/reset-password/")+len("/reset-password/"):]
		emailed = strings.Fields(emailed)[0]
	}).Return(nil)

	require.NoError(t, svc.ForgotPassword(ctx, "Rida@Example.com"))
	require.NotEmpty(t, emailed)

	// The stored digest, not the emailed token, is what the repository sees.
	storedDigest := userRepo.Calls[1].Arguments.String(2)
	assert.Equal(t, auth.DigestToken(emailed), storedDigest)

	userRepo.On("GetByResetToken", ctx, storedDigest, fixedNow).Return(user, nil)
	userRepo.On("UpdatePassword", ctx, user.ID, mock.AnythingOfType("string")).Return(nil)
	userRepo.On("UpdateLoginState", ctx, user).Return(nil)

	resp, err := svc.ResetPassword(ctx, emailed, "newsecret")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Nil(t, user.LockUntil)
	userRepo.AssertExpectations(t)

	userRepo.On("GetByResetToken", ctx, auth.DigestToken("bogus"), fixedNow).Return(nil, nil)
	_, err = svc.ResetPassword(ctx, "bogus", "newsecret")
	assert.ErrorIs(t, err, model.ErrInvalidResetToken)
}

func TestAuthService_ForgotPassword_UnknownEmail(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	mailer := new(MockMailer)
	userRepo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, nil)

	require.NoError(t, newAuthService(userRepo, mailer, fixedNow).ForgotPassword(ctx, "nobody@example.com"))
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_ForgotPassword_MailFailureClearsToken(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	mailer := new(MockMailer)
	user := &model.User{ID: uuid.New(), Email: "m@example.com", IsActive: true}

	userRepo.On("GetByEmail", ctx, "m@example.com").Return(user, nil)
	userRepo.On("SetResetToken", ctx, user.ID, mock.Anything, mock.Anything).Return(nil)
	userRepo.On("ClearResetToken", ctx, user.ID).Return(nil)
	mailer.On("Send", ctx, "m@example.com", mock.Anything).Return(errors.New("provider down"))

	err := newAuthService(userRepo, mailer, fixedNow).ForgotPassword(ctx, "m@example.com")
	assert.ErrorContains(t, err, "email could not be sent")
	userRepo.AssertExpectations(t)
}

func TestAuthService_VerifyEmail(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	svc := newAuthService(userRepo, nil, fixedNow)
	user := &model.User{ID: uuid.New()}

	userRepo.On("GetByVerificationToken", ctx, auth.DigestToken("good"), fixedNow).Return(user, nil)
	userRepo.On("GetByVerificationToken", ctx, auth.DigestToken("stale"), fixedNow).Return(nil, nil)
	userRepo.On("MarkVerified", ctx, user.ID).Return(nil)

	require.NoError(t, svc.VerifyEmail(ctx, "good"))
	assert.ErrorIs(t, svc.VerifyEmail(ctx, "stale"), model.ErrInvalidVerifyToken)
}

func TestAuthService_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	svc := newAuthService(userRepo, nil, fixedNow)
	user := &model.User{ID: uuid.New(), PasswordHash: passwordHash(t)}

	_, err := svc.UpdatePassword(ctx, user, &model.UpdatePasswordRequest{CurrentPassword: "nope", NewPassword: "another1"})
	assert.ErrorIs(t, err, model.ErrIncorrectPassword)

	userRepo.On("UpdatePassword", ctx, user.ID, mock.AnythingOfType("string")).Return(nil)
	resp, err := svc.UpdatePassword(ctx, user, &model.UpdatePasswordRequest{CurrentPassword: "secret123", NewPassword: "another1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestAuthService_CheckEmailAndRefresh(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	svc := newAuthService(userRepo, nil, fixedNow)

	userRepo.On("GetByEmail", ctx, "free@example.com").Return(nil, nil)
	available, err := svc.CheckEmailAvailable(ctx, "FREE@example.com")
	require.NoError(t, err)
	assert.True(t, available)

	id := uuid.New()
	fresh, _, err := svc.tokens.Issue(id)
	require.NoError(t, err)
	claims, err := svc.tokens.Parse(fresh)
	require.NoError(t, err)

	_, _, refreshed, err := svc.RefreshIfNeeded(claims, id)
	require.NoError(t, err)
	assert.False(t, refreshed)

	short := auth.NewTokenManager(testAuthConfig.JWTSecret, time.Hour, 24*time.Hour)
	expiring, _, err := short.Issue(id)
	require.NoError(t, err)
	claims, err = svc.tokens.Parse(expiring)
	require.NoError(t, err)

	token, _, refreshed, err := svc.RefreshIfNeeded(claims, id)
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.NotEmpty(t, token)
}
