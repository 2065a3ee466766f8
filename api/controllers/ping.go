package controllers

import (
	"net/http"

	"github.com/VINCENT-bot354/safaribytes/api/middleware"
	"github.com/VINCENT-bot354/safaribytes/api/responses"
)

type pingResponse struct {
	Scope  string `json:"scope"`
	Status string `json:"status"`
	UserID uint64 `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"`
}

// Ping answers ok for scope and echoes the caller when the route is
// authenticated.
func Ping(scope string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := pingResponse{Scope: scope, Status: "ok"}
		if id, ok := middleware.IdentityFromContext(r.Context()); ok {
			resp.UserID = id.ID
			resp.Role = string(id.Role)
		}
		responses.WriteSuccess(w, resp)
	}
}
