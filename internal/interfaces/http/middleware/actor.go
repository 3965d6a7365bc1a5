package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/logger"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// ActorKey is the gin context key holding the resolved identity.Actor
const ActorKey = "actor"

// UserFinder loads the account behind an authenticated request
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

// Actor resolves the acting user from the X-User-ID header, which the
// authentication layer in front of the API sets after verifying the caller.
// Requests without the header, or naming an unknown or inactive user, run as
// identity.Anonymous and are refused by the capability guard where a user is
// required. A malformed header is rejected outright.
func Actor(users UserFinder, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := identity.Anonymous()

		if raw := c.GetHeader(HeaderUserID); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
					dto.ErrCodeUnauthorized, "Malformed user identity", GetRequestID(c)))
				return
			}

			user, err := users.FindByID(c.Request.Context(), id)
			switch {
			case err == nil:
				actor = user.Actor()
			case errors.Is(err, shared.ErrNotFound):
				logger.Enrich(c.Request.Context(), log).Debug("unknown user, continuing anonymously", zap.String("user_id", raw))
			default:
				logger.Enrich(c.Request.Context(), log).Error("resolve actor", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
					dto.ErrCodeInternal, "An unexpected error occurred", GetRequestID(c)))
				return
			}
		}

		ctx := identity.WithActor(c.Request.Context(), actor)
		if actor.IsAuthenticated() {
			ctx = logger.WithUserID(ctx, actor.ID.String())
		}
		c.Request = c.Request.WithContext(ctx)
		c.Set(ActorKey, actor)
		c.Next()
	}
}

// GetActor returns the actor resolved by Actor, or identity.Anonymous
func GetActor(c *gin.Context) identity.Actor {
	if v, ok := c.Get(ActorKey); ok {
		if actor, ok := v.(identity.Actor); ok {
			return actor
		}
	}
	return identity.ActorFromContext(c.Request.Context())
}
