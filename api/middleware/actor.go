package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/serviplace/serviplace-backend/api/responses"
	"github.com/serviplace/serviplace-backend/pkg/enums"
	pkgerrors "github.com/serviplace/serviplace-backend/pkg/errors"
	"github.com/serviplace/serviplace-backend/pkg/logger"
)

const (
	actorIDHeader   = "X-Actor-Id"
	actorRoleHeader = "X-Actor-Role"
)

type contextKey string

const (
	ctxActorID   contextKey = "actor_id"
	ctxActorRole contextKey = "actor_role"
)

// ActorContext reads the pre-resolved actor identity forwarded by the auth
// gateway. Role resolution is external; an unknown role is rejected, a
// missing one defaults downstream to the system actor.
func ActorContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			actorID := strings.TrimSpace(r.Header.Get(actorIDHeader))
			rawRole := strings.TrimSpace(r.Header.Get(actorRoleHeader))

			if rawRole != "" {
				role, err := enums.ParseActorRole(rawRole)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid actor role header"))
					return
				}
				ctx = context.WithValue(ctx, ctxActorRole, role)
			}
			if actorID != "" {
				ctx = context.WithValue(ctx, ctxActorID, actorID)
				if logg != nil {
					ctx = logg.WithActor(ctx, actorID, rawRole)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ActorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActorID).(string); ok {
		return v
	}
	return ""
}

func ActorRoleFromContext(ctx context.Context) enums.ActorRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActorRole).(enums.ActorRole); ok {
		return v
	}
	return ""
}
