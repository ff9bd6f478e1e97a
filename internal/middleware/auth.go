package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/auth"
	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RefreshedTokenHeader carries a reissued token for clients that do not use
// the session cookie.
const RefreshedTokenHeader = "X-Refreshed-Token"

type contextKey int

const (
	userKey contextKey = iota
	claimsKey
)

// Authenticator resolves session tokens to users.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, *auth.Claims, error)
	RefreshIfNeeded(claims *auth.Claims, userID uuid.UUID) (token string, expiresAt time.Time, refreshed bool, err error)
}

// SessionCookie writes and clears the httpOnly session cookie.
type SessionCookie struct {
	Name   string
	Secure bool
}

// Set stores token in the cookie until expiresAt.
func (c SessionCookie) Set(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the cookie immediately.
func (c SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Auth guards routes with session tokens taken from the Authorization
// header or the session cookie.
type Auth struct {
	authenticator Authenticator
	cookie        SessionCookie
	logger        zerolog.Logger
}

// NewAuth creates the authentication middleware set.
func NewAuth(authenticator Authenticator, cookie SessionCookie, logger zerolog.Logger) *Auth {
	return &Auth{
		authenticator: authenticator,
		cookie:        cookie,
		logger:        logger.With().Str("component", "auth_middleware").Logger(),
	}
}

// Require rejects requests without a valid session.
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := a.token(r)
		if token == "" {
			writeError(w, model.ErrUnauthorised)
			return
		}

		user, claims, err := a.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			var domainErr *model.DomainError
			if errors.As(err, &domainErr) {
				writeError(w, domainErr)
				return
			}
			a.logger.Error().Err(err).Msg("failed to authenticate request")
			writeError(w, &model.DomainError{
				Code:    model.ErrCodeInternalError,
				Message: "Server Error",
				Status:  http.StatusInternalServerError,
			})
			return
		}

		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), user, claims)))
	})
}

// Optional attaches the user when a valid session is present and otherwise
// lets the request through as a guest.
func (a *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := a.token(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, claims, err := a.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			a.logger.Debug().Err(err).Msg("continuing as guest")
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), user, claims)))
	})
}

// Admin must run after Require.
func (a *Auth) Admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil {
			writeError(w, model.ErrUnauthorised)
			return
		}
		if !user.IsAdmin {
			writeError(w, &model.DomainError{
				Code:    model.ErrCodeForbidden,
				Message: "User role is not authorized to access this route",
				Status:  http.StatusForbidden,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Refresh reissues the session when it is close to expiry. Requests
// without a session pass through untouched.
func (a *Auth) Refresh(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		claims, _ := r.Context().Value(claimsKey).(*auth.Claims)
		if user != nil && claims != nil {
			token, expiresAt, refreshed, err := a.authenticator.RefreshIfNeeded(claims, user.ID)
			switch {
			case err != nil:
				a.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to refresh token")
			case refreshed:
				a.cookie.Set(w, token, expiresAt)
				w.Header().Set(RefreshedTokenHeader, token)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Auth) token(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := r.Cookie(a.cookie.Name); err == nil {
		return cookie.Value
	}
	return ""
}

func withSession(ctx context.Context, user *model.User, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, claimsKey, claims)
}

// WithUser returns a context carrying user, as Require does.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the signed-in user, or nil for guests.
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(userKey).(*model.User)
	return user
}
