package analytics

import (
	"net/http"
	"time"

	"github.com/VINCENT-bot354/safaribytes/api/responses"
	"github.com/VINCENT-bot354/safaribytes/internal/analytics"
	"github.com/VINCENT-bot354/safaribytes/internal/analytics/types"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
)

// Summary serves the admin sales report for a date window.
func Summary(service analytics.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if service == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "analytics unavailable"))
			return
		}

		start, end, err := resolveSummaryRange(r, timeNowUTC(), loc)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := service.Summary(ctx, types.SummaryRequest{Start: start, End: end})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
