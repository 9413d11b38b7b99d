package middleware

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/SysArcDCMS/dcms-scheduler/internal/httperr"
)

const (
	ContextActorID   = "actorID"
	ContextActorRole = "actorRole"
)

const (
	RoleAnonymous = "anonymous"
	RolePatient   = "patient"
	RoleStaff     = "staff"
	RoleDentist   = "dentist"
	RoleAdmin     = "admin"
)

// Actor is whoever is behind the request. Tokens are issued elsewhere;
// this service only reads them.
type Actor struct {
	ID   string
	Role string
}

// String is the value recorded in cancelled_by and audit rows.
func (a Actor) String() string {
	if a.ID == "" {
		return a.Role
	}
	return a.Role + ":" + a.ID
}

// ActorMiddleware resolves the actor from an optional bearer token. No
// token means an anonymous actor; a bad token is rejected.
func ActorMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(ContextActorID, "")
			c.Set(ContextActorRole, RoleAnonymous)
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httperr.Unauthorized(c, "invalid_authorization_header", "Authorization header must be a bearer token.")
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenMalformed
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			httperr.Unauthorized(c, "invalid_token", "Token is invalid or expired.")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			httperr.Unauthorized(c, "invalid_token_claims", "Token claims are unreadable.")
			return
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			httperr.Unauthorized(c, "invalid_token_payload", "Token has no subject.")
			return
		}

		role, _ := claims["role"].(string)
		if role == "" {
			role = RolePatient
		}

		c.Set(ContextActorID, sub)
		c.Set(ContextActorRole, strings.ToLower(role))

		c.Next()
	}
}

func ActorFrom(c *gin.Context) Actor {
	return Actor{
		ID:   c.GetString(ContextActorID),
		Role: c.GetString(ContextActorRole),
	}
}

// RequireRole lets the request through only for the listed roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if actor.Role == "" || actor.Role == RoleAnonymous {
			httperr.Unauthorized(c, "missing_authorization_header", "Authentication required.")
			return
		}
		if !slices.Contains(roles, actor.Role) {
			httperr.Forbidden(c, "forbidden", "Role not allowed.")
			return
		}
		c.Next()
	}
}
