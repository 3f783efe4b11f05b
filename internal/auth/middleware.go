package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/recivo/recivo-api/internal/logger"
	"github.com/recivo/recivo-api/internal/services"
	"github.com/recivo/recivo-api/internal/types/api/responses"
	"github.com/recivo/recivo-api/internal/types/business"
)

var (
	// ErrInvalidToken is returned when the provided token is invalid
	ErrInvalidToken = errors.New("invalid token")
)

// Context keys for values set by the middleware.
const (
	UserContextKey  = "auth_user"
	ActorContextKey = "auth_actor"
)

// IDTokenClaims is the subset of the identity provider's ID token this
// application reads.
type IDTokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Config wires the auth client to the identity provider.
type Config struct {
	JWKSURL  string
	Issuer   string
	Audience string
}

// Client validates bearer tokens against the provider's JWKS and resolves
// them to application users through the invitation gate.
type Client struct {
	config Config
	users  *services.UserService
	jwks   *keyfunc.JWKS
	logger *zap.Logger
}

// NewClient fetches the JWKS and returns a ready auth client.
func NewClient(config Config, users *services.UserService) (*Client, error) {
	if config.JWKSURL == "" {
		return nil, fmt.Errorf("JWKS URL is not configured")
	}

	jwks, err := keyfunc.Get(config.JWKSURL, keyfunc.Options{
		RefreshInterval:  time.Hour,
		RefreshRateLimit: time.Minute,
		RefreshTimeout:   time.Second * 10,
		RefreshErrorHandler: func(err error) {
			logger.Log.Error("JWKS refresh error", zap.Error(err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS: %w", err)
	}

	return &Client{
		config: config,
		users:  users,
		jwks:   jwks,
		logger: logger.Log,
	}, nil
}

// ValidateToken parses and verifies a bearer token and returns its claims.
func (c *Client) ValidateToken(tokenString string) (*IDTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &IDTokenClaims{}, c.jwks.Keyfunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*IDTokenClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if c.config.Issuer != "" && claims.Issuer != c.config.Issuer {
		return nil, fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	if c.config.Audience != "" {
		found := false
		for _, aud := range claims.Audience {
			if aud == c.config.Audience {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
		}
	}
	return claims, nil
}

// Middleware authenticates the request and attaches the resolved user and
// audit actor to the gin context. An unknown identity with no pending
// invitation is rejected.
func (c *Client) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, responses.ErrorResponse{Error: "missing bearer token"})
			return
		}

		claims, err := c.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.logger.Info("Token validation failed", zap.Error(err))
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, responses.ErrorResponse{Error: "invalid token"})
			return
		}

		user, err := c.users.ResolveUser(ctx.Request.Context(), claims.Subject, claims.Email, claims.Name)
		if err != nil {
			if errors.Is(err, services.ErrForbidden) {
				ctx.AbortWithStatusJSON(http.StatusForbidden, responses.ErrorResponse{Error: "access is by invitation only"})
				return
			}
			c.logger.Error("Failed to resolve user", zap.String("sub", claims.Subject), zap.Error(err))
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, responses.ErrorResponse{Error: "failed to resolve user"})
			return
		}

		ctx.Set(UserContextKey, user)
		ctx.Set(ActorContextKey, business.AuditActor{
			UserID:   user.ID,
			UserName: user.DisplayName,
			Email:    user.Email,
		})
		ctx.Next()
	}
}

// CurrentUser returns the authenticated user attached by Middleware.
func CurrentUser(ctx *gin.Context) (business.User, bool) {
	value, ok := ctx.Get(UserContextKey)
	if !ok {
		return business.User{}, false
	}
	user, ok := value.(business.User)
	return user, ok
}

// CurrentActor returns the audit actor for the request, falling back to the
// anonymous identity so audit writes never fail for lack of one.
func CurrentActor(ctx *gin.Context) business.AuditActor {
	value, ok := ctx.Get(ActorContextKey)
	if !ok {
		return business.AuditActor{}
	}
	actor, _ := value.(business.AuditActor)
	return actor
}

// RequireRoles allows the request through only when the authenticated
// user's role is one of the given roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(ctx *gin.Context) {
		user, ok := CurrentUser(ctx)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, responses.ErrorResponse{Error: "authentication required"})
			return
		}
		if _, ok := allowed[user.Role]; !ok {
			ctx.AbortWithStatusJSON(http.StatusForbidden, responses.ErrorResponse{Error: "insufficient role"})
			return
		}
		ctx.Next()
	}
}
