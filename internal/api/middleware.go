package api

import (
	"net/http"
	"strings"
	"time"

	"yardgate/internal/actor"
	"yardgate/pkg/config"
)

// ActorAuth resolves the calling actor from a bearer session token.
//
// Expected header:
// - Authorization: Bearer <JWT>
//
// In dev, if Authorization is missing, it falls back to X-Actor-Id /
// X-Actor-Role / X-Actor-Name headers to keep local testing simple.
func ActorAuth(cfg config.Config, actors *actor.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token := strings.TrimSpace(authz[7:])
				a, err := actor.VerifyToken(token, cfg.AuthSecret, time.Now())
				if err != nil {
					WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session token")
					return
				}

				// Keep the actor directory in sync so bookings can resolve
				// created_by into a display name later. Best effort.
				if actors != nil {
					_ = actors.Upsert(r.Context(), *a)
				}

				next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), *a)))
				return
			}

			// Dev fallback
			if cfg.AppEnv != "prod" {
				if a, ok := devActor(r); ok {
					if actors != nil {
						_ = actors.Upsert(r.Context(), a)
					}
					next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), a)))
					return
				}
			}

			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session token")
		})
	}
}

func devActor(r *http.Request) (actor.Actor, bool) {
	id := strings.TrimSpace(r.Header.Get("X-Actor-Id"))
	if id == "" {
		return actor.Actor{}, false
	}
	role, err := actor.ParseRole(strings.TrimSpace(r.Header.Get("X-Actor-Role")))
	if err != nil {
		role = actor.RoleViewer
	}
	return actor.Actor{
		ID:   id,
		Name: strings.TrimSpace(r.Header.Get("X-Actor-Name")),
		Role: role,
	}, true
}
