package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aimoney/aimoney-api/config"
	"github.com/aimoney/aimoney-api/logger"
	"github.com/aimoney/aimoney-api/models"
	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionContextKey = "session"

var errMissingEmailClaim = errors.New("token has no email claim")

// CustomClaims contains the identity claims we read from session tokens.
type CustomClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Role    string `json:"role"`
}

// Validate rejects tokens that do not identify the caller by email.
func (c CustomClaims) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Email) == "" {
		return errMissingEmailClaim
	}
	return nil
}

// Session is the authenticated caller, derived from a validated token
type Session struct {
	UserID  string
	Email   string
	Name    string
	Picture string
	Role    string
}

// IsAdmin reports whether the session carries the admin role
func (s *Session) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

// NewSessionValidator builds the token validator. Tokens issued by this service are
// HS256 with JWT_SECRET; when AUTH0_DOMAIN is set, RS256 tokens are verified through JWKS.
func NewSessionValidator(cfg *config.Config) (*validator.Validator, error) {
	customClaims := validator.WithCustomClaims(func() validator.CustomClaims {
		return &CustomClaims{}
	})

	if cfg.UsesExternalIdentityProvider() {
		issuerURL, err := url.Parse("https://" + cfg.Auth0Domain + "/")
		if err != nil {
			return nil, err
		}

		provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

		return validator.New(
			provider.KeyFunc,
			validator.RS256,
			issuerURL.String(),
			[]string{cfg.Auth0Audience},
			customClaims,
			validator.WithAllowedClockSkew(time.Minute),
		)
	}

	secret := []byte(cfg.JWTSecret)
	keyFunc := func(ctx context.Context) (interface{}, error) {
		return secret, nil
	}

	return validator.New(
		keyFunc,
		validator.HS256,
		cfg.SessionIssuer,
		[]string{cfg.SessionAudience},
		customClaims,
		validator.WithAllowedClockSkew(30*time.Second),
	)
}

// EnsureValidSession is a middleware that requires a valid bearer token and stores the
// caller's Session in the gin context. Requests without one are answered with 401 and
// the handler chain is aborted.
func EnsureValidSession(cfg *config.Config) gin.HandlerFunc {
	jwtValidator, err := NewSessionValidator(cfg)
	if err != nil {
		logger.L().Fatal("Failed to set up the jwt validator", zap.Error(err))
	}
	return SessionMiddleware(jwtValidator.ValidateToken)
}

// SessionMiddleware adapts a token validation function into a gin middleware
func SessionMiddleware(validate jwtmiddleware.ValidateToken) gin.HandlerFunc {
	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		logger.FromCtx(r.Context()).Info("Rejected session token", zap.Error(err))
		writeUnauthorized(w)
	}

	checker := jwtmiddleware.New(
		validate,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(c *gin.Context) {
		authenticated := false

		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
			if !ok {
				writeUnauthorized(w)
				return
			}

			session := sessionFromClaims(claims)
			if session == nil {
				writeUnauthorized(w)
				return
			}

			authenticated = true
			c.Request = r
			SetSession(c, session)
			c.Next()
		}

		checker.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)

		if !authenticated {
			c.Abort()
		}
	}
}

func sessionFromClaims(claims *validator.ValidatedClaims) *Session {
	custom, ok := claims.CustomClaims.(*CustomClaims)
	if !ok || custom.Email == "" {
		return nil
	}

	return &Session{
		UserID:  claims.RegisteredClaims.Subject,
		Email:   custom.Email,
		Name:    custom.Name,
		Picture: custom.Picture,
		Role:    custom.Role,
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	body := gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": "Authentication required",
		},
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.L().Warn("Failed to write error response", zap.Error(err))
	}
}

// SetSession stores the caller's session in the gin context
func SetSession(c *gin.Context, session *Session) {
	c.Set(sessionContextKey, session)
}

// GetSession extracts the caller's session from the gin context
func GetSession(c *gin.Context) (*Session, error) {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_SESSION", Message: "Session not found in context"}
	}

	session, ok := value.(*Session)
	if !ok || session == nil {
		return nil, &AuthError{Code: "INVALID_SESSION", Message: "Session is not in the expected format"}
	}

	return session, nil
}

// RequireAdmin is a middleware that only lets admin sessions through
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := GetSession(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Authentication required",
				},
			})
			return
		}

		if !session.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Insufficient permissions to access this resource",
				},
			})
			return
		}

		c.Next()
	}
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
