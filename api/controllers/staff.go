package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/VINCENT-bot354/safaribytes/api/middleware"
	"github.com/VINCENT-bot354/safaribytes/api/responses"
	"github.com/VINCENT-bot354/safaribytes/api/validators"
	"github.com/VINCENT-bot354/safaribytes/internal/staff"
	"github.com/VINCENT-bot354/safaribytes/pkg/db/models"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
)

type TrackingLinkUpdater interface {
	UpdateTrackingLink(ctx context.Context, input staff.UpdateInput) (*models.Staff, error)
}

type trackingLinkPayload struct {
	Message string `json:"message" validate:"required,max=4096"`
}

type trackingLinkResponse struct {
	StaffID      uint64     `json:"staff_id"`
	TrackingLink string     `json:"tracking_link"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// UpdateTrackingLink accepts a shared-location message from a courier and
// keeps the link it contains as their live link.
func UpdateTrackingLink(svc TrackingLinkUpdater, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "staff service unavailable"))
			return
		}

		var payload trackingLinkPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		member, err := svc.UpdateTrackingLink(ctx, staff.UpdateInput{
			StaffID: middleware.UserIDFromContext(ctx),
			Name:    middleware.UserNameFromContext(ctx),
			Message: payload.Message,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		resp := trackingLinkResponse{StaffID: member.ID, UpdatedAt: member.TrackingUpdatedAt}
		if member.TrackingLink != nil {
			resp.TrackingLink = *member.TrackingLink
		}
		responses.WriteSuccess(w, resp)
	}
}
