package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/apperr"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/auth"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/models"
)

const identityKey = "identity"

// Identity is the authenticated caller attached to the request by Protect.
type Identity struct {
	User   *models.User
	Claims *auth.Claims
	Token  string
}

type UserFinder interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

type Authenticator struct {
	tokens  *auth.Tokens
	users   UserFinder
	revoker auth.Revoker
	logger  *zap.Logger
}

func NewAuthenticator(tokens *auth.Tokens, users UserFinder, revoker auth.Revoker, logger *zap.Logger) *Authenticator {
	if revoker == nil {
		revoker = auth.NoopRevoker
	}
	return &Authenticator{
		tokens:  tokens,
		users:   users,
		revoker: revoker,
		logger:  logger,
	}
}

var (
	errNotLoggedIn  = apperr.New(apperr.Unauthorized, "You are not logged in. Please login to get access.")
	errBadToken     = apperr.New(apperr.Unauthorized, "Invalid or expired token. Please login again.")
	errUserMissing  = apperr.New(apperr.NotFound, "User does not exist.")
	errStaleToken   = apperr.New(apperr.Unauthorized, "Password was changed recently. Please login again.")
	errNoIdentity   = errors.New("role check reached without an authenticated identity")
	errRevokedToken = apperr.New(apperr.Unauthorized, "Token has been revoked. Please login again.")
)

// Protect requires a valid token for an existing user.
func (a *Authenticator) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := a.authenticate(c)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and otherwise
// lets the request through anonymously.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth.ExtractToken(c.Request) == "" {
			c.Next()
			return
		}

		id, err := a.authenticate(c)
		if err != nil {
			if _, ok := apperr.As(err); !ok {
				a.logger.Error("optional auth failed", zap.Error(err))
			}
			c.Next()
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// RestrictTo authenticates and then checks the caller's role. Authentication is
// part of the returned chain, so a role check never runs on its own.
func (a *Authenticator) RestrictTo(roles ...models.Role) gin.HandlersChain {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	denied := apperr.Newf(apperr.Forbidden,
		"Access denied. This resource is only available to %s users.", strings.Join(allowed, ", "))

	check := func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok {
			_ = c.Error(apperr.Wrap(apperr.Internal, "Something went wrong", errNoIdentity))
			c.Abort()
			return
		}

		for _, r := range roles {
			if id.User.Role == r {
				c.Next()
				return
			}
		}

		a.logger.Warn("role check failed",
			zap.String("user_id", id.User.ID),
			zap.String("role", string(id.User.Role)),
			zap.String("path", c.FullPath()),
		)
		_ = c.Error(denied)
		c.Abort()
	}

	return gin.HandlersChain{a.Protect(), check}
}

func (a *Authenticator) authenticate(c *gin.Context) (*Identity, error) {
	raw := auth.ExtractToken(c.Request)
	if raw == "" {
		return nil, errNotLoggedIn
	}

	claims, err := a.tokens.Verify(raw)
	if err != nil {
		return nil, errBadToken
	}

	ctx := c.Request.Context()

	if claims.ID != "" {
		revoked, err := a.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			// fail open, the signature and expiry were already checked
			a.logger.Error("failed to check token revocation", zap.Error(err))
		} else if revoked {
			return nil, errRevokedToken
		}
	}

	user, err := a.users.Get(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("load token subject: %w", err)
	}
	if user == nil {
		return nil, errUserMissing
	}

	if claims.Stale(user.PasswordChangedAt) {
		return nil, errStaleToken
	}

	return &Identity{User: user, Claims: claims, Token: raw}, nil
}

func CurrentIdentity(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*Identity)
	return id, ok && id != nil
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	id, ok := CurrentIdentity(c)
	if !ok {
		return nil, false
	}
	return id.User, true
}
