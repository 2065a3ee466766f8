package controllers

import (
	"net/http"
	"strings"

	"github.com/VINCENT-bot354/safaribytes/api/responses"
	"github.com/VINCENT-bot354/safaribytes/api/validators"
	"github.com/VINCENT-bot354/safaribytes/internal/delivery"
	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
)

type deliveryQuotePayload struct {
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
	PlaceID   string   `json:"place_id" validate:"omitempty,max=512"`
}

// DeliveryQuote prices delivery for a pin drop or an autocomplete pick.
func DeliveryQuote(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		var payload deliveryQuotePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		quote, err := svc.Quote(ctx, delivery.QuoteRequest{
			Latitude:  payload.Latitude,
			Longitude: payload.Longitude,
			PlaceID:   strings.TrimSpace(payload.PlaceID),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// DeliverySuggest returns address autocomplete suggestions.
func DeliverySuggest(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		query := validators.SanitizeString(r.URL.Query().Get("q"), 200)
		if query == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "q is required"))
			return
		}

		suggestions, err := svc.Suggest(ctx, delivery.SuggestRequest{
			Query:    query,
			Language: strings.TrimSpace(r.URL.Query().Get("language")),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"suggestions": suggestions})
	}
}
