package delivery

import (
	"context"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
	"github.com/VINCENT-bot354/safaribytes/pkg/maps"
)

// PlacesClient is the part of the maps client used for place quotes.
type PlacesClient interface {
	Autocomplete(ctx context.Context, req maps.AutocompleteRequest) ([]maps.AutocompleteSuggestion, error)
	ResolvePlace(ctx context.Context, placeID string) (*maps.PlaceDetails, error)
}

// Service quotes delivery fees and backs the checkout address picker.
type Service interface {
	Quote(ctx context.Context, req QuoteRequest) (*Quote, error)
	Suggest(ctx context.Context, req SuggestRequest) ([]Suggestion, error)
}

// QuoteRequest carries either coordinates or a place id from autocomplete.
type QuoteRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	PlaceID   string   `json:"place_id"`
}

// Quote is returned to the storefront before checkout.
type Quote struct {
	DistanceKm  float64         `json:"distance_km"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Latitude    float64         `json:"latitude"`
	Longitude   float64         `json:"longitude"`
	Address     string          `json:"address,omitempty"`
}

type SuggestRequest struct {
	Query    string
	Language string
}

type Suggestion struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

type service struct {
	calc   *Calculator
	places PlacesClient
}

// NewService builds the quoting service. places may be nil, in which case
// only coordinate quotes are served.
func NewService(calc *Calculator, places PlacesClient) Service {
	return &service{calc: calc, places: places}
}

func (s *service) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	point, address, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	distance := s.calc.DistanceKm(point)
	return &Quote{
		DistanceKm:  math.Round(distance*100) / 100,
		DeliveryFee: s.calc.Fee(distance),
		Latitude:    point.Latitude,
		Longitude:   point.Longitude,
		Address:     address,
	}, nil
}

func (s *service) resolve(ctx context.Context, req QuoteRequest) (Point, string, error) {
	if req.Latitude != nil && req.Longitude != nil {
		point := Point{Latitude: *req.Latitude, Longitude: *req.Longitude}
		if !point.Valid() {
			return Point{}, "", pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
		}
		return point, "", nil
	}
	if req.Latitude != nil || req.Longitude != nil {
		return Point{}, "", pkgerrors.New(pkgerrors.CodeValidation, "latitude and longitude must be provided together")
	}

	placeID := strings.TrimSpace(req.PlaceID)
	if placeID == "" {
		return Point{}, "", pkgerrors.New(pkgerrors.CodeValidation, "coordinates or place_id required")
	}
	if s.places == nil {
		return Point{}, "", pkgerrors.New(pkgerrors.CodeDependency, "maps client unavailable")
	}
	details, err := s.places.ResolvePlace(ctx, placeID)
	if err != nil {
		return Point{}, "", err
	}
	if details == nil || (details.Location.Latitude == 0 && details.Location.Longitude == 0) {
		return Point{}, "", pkgerrors.New(pkgerrors.CodeDependency, "place location missing")
	}
	return Point{Latitude: details.Location.Latitude, Longitude: details.Location.Longitude}, details.FormattedAddress, nil
}

func (s *service) Suggest(ctx context.Context, req SuggestRequest) ([]Suggestion, error) {
	if s.places == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "maps client unavailable")
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query is required")
	}

	resp, err := s.places.Autocomplete(ctx, maps.AutocompleteRequest{
		Input:        req.Query,
		LanguageCode: strings.TrimSpace(req.Language),
	})
	if err != nil {
		return nil, err
	}
	suggestions := make([]Suggestion, 0, len(resp))
	for _, item := range resp {
		suggestions = append(suggestions, Suggestion{PlaceID: item.PlaceID, Description: item.Description})
	}
	return suggestions, nil
}
