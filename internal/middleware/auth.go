package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/naccer/portal/backend/internal/access"
	"github.com/naccer/portal/backend/internal/models"
	"github.com/naccer/portal/backend/internal/utils"
	"github.com/naccer/portal/backend/pkg/response"
)

const (
	ContextPrincipal = "principal"
	ContextUser      = "user"
)

// UserLookup loads the account behind a verified token.
type UserLookup interface {
	FindActiveUser(ctx context.Context, id uint) (*models.User, error)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthRequired verifies the bearer token and loads the caller. Unknown and
// deactivated accounts are rejected with 401.
func AuthRequired(users UserLookup) gin.HandlerFunc {
	return authenticate(users, false)
}

// StreamAuth also accepts ?token= because EventSource cannot send headers.
func StreamAuth(users UserLookup) gin.HandlerFunc {
	return authenticate(users, true)
}

func authenticate(users UserLookup, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" && allowQuery {
			token = c.Query("token")
		}
		if token == "" {
			response.Unauthorized(c, "Not authorized, no token provided")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			response.Unauthorized(c, "Not authorized, token failed")
			c.Abort()
			return
		}

		user, err := users.FindActiveUser(c.Request.Context(), claims.UserID)
		switch {
		case response.IsKind(err, response.KindNotFound):
			response.Unauthorized(c, "Not authorized, user not found")
			c.Abort()
			return
		case err != nil:
			response.Abort(c, err)
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextPrincipal, access.Principal{
			UserID: user.ID,
			Role:   user.Role,
			Name:   user.Name,
			Email:  user.Email,
		})
		c.Next()
	}
}

// Authorize rejects callers whose role can never perform op. Ownership and
// assignment are checked later by the services.
func Authorize(op access.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			response.Unauthorized(c, "Not authorized")
			c.Abort()
			return
		}
		if !access.RoleGrants(p.Role, op) {
			response.Forbidden(c, "Role "+p.Role.String()+" is not authorized to access this resource")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetPrincipal returns the authenticated caller.
func GetPrincipal(c *gin.Context) (access.Principal, bool) {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return access.Principal{}, false
	}
	p, ok := v.(access.Principal)
	return p, ok
}

// GetUser returns the authenticated account.
func GetUser(c *gin.Context) *models.User {
	if v, ok := c.Get(ContextUser); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// GetUserID returns the caller's id, or 0 when unauthenticated.
func GetUserID(c *gin.Context) uint {
	p, _ := GetPrincipal(c)
	return p.UserID
}
