package maps

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/VINCENT-bot354/safaribytes/pkg/errors"
)

const (
	biasRadiusMeters      = 30000
	autocompleteFieldMask = "suggestions.placePrediction.placeId,suggestions.placePrediction.text"
	placeFieldMask        = "id,formattedAddress,location"
)

type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// AutocompleteRequest is the places:autocomplete body. Region, language and
// bias default from the client when left empty.
type AutocompleteRequest struct {
	Input               string        `json:"input"`
	IncludedRegionCodes []string      `json:"includedRegionCodes,omitempty"`
	LanguageCode        string        `json:"languageCode,omitempty"`
	SessionToken        string        `json:"sessionToken,omitempty"`
	LocationBias        *LocationBias `json:"locationBias,omitempty"`
}

type LocationBias struct {
	Circle Circle `json:"circle"`
}

type Circle struct {
	Center LatLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type AutocompleteSuggestion struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

type PlaceDetails struct {
	PlaceID          string `json:"place_id"`
	FormattedAddress string `json:"formatted_address"`
	Location         LatLng `json:"location"`
}

type autocompleteResponse struct {
	Suggestions []struct {
		PlacePrediction *struct {
			PlaceID string `json:"placeId"`
			Text    struct {
				Text string `json:"text"`
			} `json:"text"`
		} `json:"placePrediction"`
	} `json:"suggestions"`
}

type placeResponse struct {
	ID               string `json:"id"`
	FormattedAddress string `json:"formattedAddress"`
	Location         LatLng `json:"location"`
}

func notConfigured() error {
	return pkgerrors.New(pkgerrors.CodeDependency, "google maps client not configured")
}

func (c *Client) Autocomplete(ctx context.Context, req AutocompleteRequest) ([]AutocompleteSuggestion, error) {
	if c == nil {
		return nil, notConfigured()
	}
	req.Input = strings.TrimSpace(req.Input)
	if req.Input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "autocomplete input is required")
	}
	if len(req.IncludedRegionCodes) == 0 {
		req.IncludedRegionCodes = []string{c.region}
	}
	if req.LanguageCode == "" {
		req.LanguageCode = "en"
	}
	if req.LocationBias == nil && c.bias != nil {
		req.LocationBias = &LocationBias{Circle: Circle{Center: *c.bias, Radius: biasRadiusMeters}}
	}

	var resp autocompleteResponse
	if err := c.call(ctx, "autocomplete", http.MethodPost, "places:autocomplete", autocompleteFieldMask, req, &resp); err != nil {
		return nil, err
	}

	out := make([]AutocompleteSuggestion, 0, len(resp.Suggestions))
	for _, s := range resp.Suggestions {
		// query predictions carry no place id and cannot be resolved
		if s.PlacePrediction == nil || s.PlacePrediction.PlaceID == "" {
			continue
		}
		out = append(out, AutocompleteSuggestion{
			PlaceID:     s.PlacePrediction.PlaceID,
			Description: s.PlacePrediction.Text.Text,
		})
	}
	return out, nil
}

// ResolvePlace returns the formatted address and coordinates of placeID.
func (c *Client) ResolvePlace(ctx context.Context, placeID string) (*PlaceDetails, error) {
	if c == nil {
		return nil, notConfigured()
	}
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "place ID is required")
	}

	var resp placeResponse
	if err := c.call(ctx, "place details", http.MethodGet, "places/"+url.PathEscape(placeID), placeFieldMask, nil, &resp); err != nil {
		return nil, err
	}
	return &PlaceDetails{
		PlaceID:          resp.ID,
		FormattedAddress: resp.FormattedAddress,
		Location:         resp.Location,
	}, nil
}
