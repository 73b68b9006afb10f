package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"tutorhub/internal/models"
	"tutorhub/internal/security"
	"tutorhub/internal/service"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const AuthContextKey ContextKey = "auth"

// Auth is the authenticated identity attached to a request
type Auth struct {
	SessionID string
	UserID    int64
	Username  string
	Email     string
	Role      models.Role
	Status    models.UserStatus
	Remaining time.Duration

	// viaCookie is set when the session came from the cookie rather than a bearer header
	viaCookie bool
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	sessions      *service.SessionManager
	gate          *service.PermissionGate
	signer        *security.SessionTokenSigner
	csrf          *security.CSRFGenerator
	limiter       *security.RateLimiter
	respond       *Responder
	logger        *zap.Logger
	secureCookies bool
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(sessions *service.SessionManager, gate *service.PermissionGate, signer *security.SessionTokenSigner, csrf *security.CSRFGenerator, limiter *security.RateLimiter, respond *Responder, logger *zap.Logger, secureCookies bool) *Middleware {
	return &Middleware{
		sessions:      sessions,
		gate:          gate,
		signer:        signer,
		csrf:          csrf,
		limiter:       limiter,
		respond:       respond,
		logger:        logger,
		secureCookies: secureCookies,
	}
}

// RequireAuth resolves the session from the bearer header or session cookie
// and rejects the request with 401 when there is none or it is no longer valid
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, viaCookie := sessionToken(r)
		if token == "" {
			m.respond.Error(w, r, service.ErrNotAuthenticated)
			return
		}

		sessionID, err := m.signer.SessionID(token)
		if err != nil {
			m.rejectSession(w, r, viaCookie, service.ErrSessionInvalid)
			return
		}

		info, err := m.sessions.CheckSession(r.Context(), sessionID)
		if err != nil {
			if errors.Is(err, service.ErrSessionInvalid) {
				m.rejectSession(w, r, viaCookie, err)
				return
			}
			m.respond.Error(w, r, err)
			return
		}

		auth := &Auth{
			SessionID: info.Session.ID,
			UserID:    info.User.ID,
			Username:  info.Session.Username,
			Email:     info.Session.Email,
			Role:      info.Session.Role,
			Status:    info.User.Status,
			Remaining: info.Remaining,
			viaCookie: viaCookie,
		}
		ctx := context.WithValue(r.Context(), AuthContextKey, auth)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) rejectSession(w http.ResponseWriter, r *http.Request, viaCookie bool, err error) {
	if viaCookie {
		http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName, m.secureCookies))
	}
	m.respond.Error(w, r, err)
}

// RequireRole allows the request through only for the listed roles.
// It must run after RequireAuth.
func (m *Middleware) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := GetAuthFromContext(r.Context())
			if auth == nil {
				m.respond.Error(w, r, service.ErrNotAuthenticated)
				return
			}
			if err := m.gate.RequireRole(auth.Role, roles...); err != nil {
				m.respond.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CSRFProtect requires a valid X-CSRF-Token on state-changing requests that
// authenticated with the session cookie. Bearer clients are exempt.
func (m *Middleware) CSRFProtect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := GetAuthFromContext(r.Context())
		if auth != nil && auth.viaCookie && isStateChanging(r.Method) {
			if !m.csrf.ValidateToken(auth.SessionID, r.Header.Get(CSRFHeaderName)) {
				m.logger.Warn("csrf validation failed",
					zap.Int64("user_id", auth.UserID),
					zap.String("path", r.URL.Path),
				)
				m.respond.Error(w, r, errCSRF)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit throttles requests per client IP
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.limiter.Allow(security.GetClientIP(r)) {
			m.respond.BadRequest(w, ErrTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Logging logs every request with its status, size and duration
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_ip", security.GetClientIP(r)),
			)
		})
	}
}

// GetAuthFromContext retrieves the authenticated identity from the request context
func GetAuthFromContext(ctx context.Context) *Auth {
	auth, ok := ctx.Value(AuthContextKey).(*Auth)
	if !ok {
		return nil
	}
	return auth
}

// sessionToken returns the signed session token, preferring the Authorization header
func sessionToken(r *http.Request) (token string, viaCookie bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		if scheme, value, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(value), false
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value, true
	}
	return "", false
}

func isStateChanging(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}
