package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/lshigami/Classtrail/config"
	"github.com/lshigami/Classtrail/internal/dto"
	"github.com/lshigami/Classtrail/internal/model"
	"github.com/lshigami/Classtrail/internal/repository"
	"github.com/lshigami/Classtrail/internal/service"
	"github.com/rs/zerolog/log"
)

const actorKey = "actor"

type Auth struct {
	secret []byte
	users  repository.UserRepository
}

func NewAuth(cfg *config.Config, users repository.UserRepository) *Auth {
	return &Auth{secret: []byte(strings.TrimSpace(cfg.Auth.JWTSecret)), users: users}
}

// RequireAuth validates the bearer token, records the caller in the user table and stores the Actor on the context.
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := ""
		if authz := strings.TrimSpace(c.GetHeader("Authorization")); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			raw = strings.TrimSpace(authz[7:])
		}
		if raw == "" {
			abort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.secret, nil
		})
		if err != nil || !tok.Valid {
			abort(c, http.StatusUnauthorized, "Invalid token")
			return
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			abort(c, http.StatusUnauthorized, "Invalid token claims")
			return
		}

		userID, err := uuid.Parse(strClaim(claims, "sub"))
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid subject")
			return
		}
		role := strings.ToLower(strClaim(claims, "role"))
		switch role {
		case service.RoleStudent, service.RoleTeacher, service.RoleAdmin:
		case "":
			role = service.RoleStudent
		default:
			abort(c, http.StatusForbidden, "Unknown role")
			return
		}

		user := model.User{ID: userID, Name: strClaim(claims, "name"), Email: strClaim(claims, "email"), Role: role}
		if err := a.users.Sync(c.Request.Context(), &user); err != nil {
			log.Error().Err(err).Str("userID", userID.String()).Msg("RequireAuth: failed to sync user")
			abort(c, http.StatusInternalServerError, "Failed to load user")
			return
		}

		c.Set(actorKey, service.Actor{UserID: userID, Role: role})
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "Forbidden")
	}
}

func ActorFrom(c *gin.Context) (service.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return service.Actor{}, false
	}
	actor, ok := v.(service.Actor)
	return actor, ok
}

// SetActor is used by handlers mounted without RequireAuth, mostly in tests.
func SetActor(c *gin.Context, actor service.Actor) {
	c.Set(actorKey, actor)
}

func strClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Message: msg})
}
