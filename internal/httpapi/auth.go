package httpapi

import (
	"net/http"
	"time"

	"yardgate/internal/actor"
	"yardgate/internal/api"
	"yardgate/pkg/config"
)

const sessionTTL = 12 * time.Hour

type AuthHandlers struct {
	Cfg config.Config
}

type TokenRequest struct {
	ActorID string `json:"actor_id" validate:"required"`
	Name    string `json:"name"`
	Role    string `json:"role" validate:"required"`
}

// IssueToken mints a session token for local development and integration
// tests. In production actors arrive with tokens minted by the real identity
// provider, so this endpoint is disabled there.
func (h AuthHandlers) IssueToken(w http.ResponseWriter, r *http.Request) {
	if h.Cfg.AppEnv == "prod" {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "token issuing disabled in prod")
		return
	}

	var req TokenRequest
	if !api.DecodeJSONBody(w, r, &req) {
		return
	}
	role, err := actor.ParseRole(req.Role)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid role")
		return
	}

	a := actor.Actor{ID: req.ActorID, Name: req.Name, Role: role}
	token, err := actor.SignToken(a, h.Cfg.AuthSecret, sessionTTL, time.Now())
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to sign token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "expires_in": int(sessionTTL.Seconds())})
}
