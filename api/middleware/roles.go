package middleware

import (
	"net/http"

	"github.com/VINCENT-bot354/safaribytes/api/responses"
	"github.com/VINCENT-bot354/safaribytes/pkg/enums"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
)

// RequireRoles rejects anonymous requests with 401 and authenticated requests
// holding any other role with 403.
func RequireRoles(logg *logger.Logger, roles ...enums.ActorRole) func(http.Handler) http.Handler {
	allowed := make(map[enums.ActorRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if UserIDFromContext(ctx) == 0 {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			if _, ok := allowed[RoleFromContext(ctx)]; !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted").
					WithDetails(map[string]any{"role": RoleFromContext(ctx)}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireFulfillment admits staff and admins.
func RequireFulfillment(logg *logger.Logger) func(http.Handler) http.Handler {
	return RequireRoles(logg, enums.ActorRoleStaff, enums.ActorRoleAdmin)
}
