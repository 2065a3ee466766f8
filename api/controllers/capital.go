package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/VINCENT-bot354/safaribytes/api/middleware"
	"github.com/VINCENT-bot354/safaribytes/api/responses"
	"github.com/VINCENT-bot354/safaribytes/api/validators"
	"github.com/VINCENT-bot354/safaribytes/internal/ledger"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
)

type capitalPayload struct {
	Amount  decimal.Decimal `json:"amount"`
	Purpose string          `json:"purpose" validate:"required,max=1000"`
}

func (p capitalPayload) toInput() ledger.EntryInput {
	return ledger.EntryInput{Amount: p.Amount, Purpose: validators.SanitizeString(p.Purpose, 1000)}
}

// CapitalLedger returns every entry with the running total.
func CapitalLedger(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}
		summary, err := svc.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func RecordCapital(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}
		var payload capitalPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entry, err := svc.Record(r.Context(), middleware.UserIDFromContext(r.Context()), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

func EditCapital(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}
		entryID, err := validators.ParsePathID(r, "entryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload capitalPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entry, err := svc.Edit(r.Context(), middleware.UserIDFromContext(r.Context()), entryID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}
