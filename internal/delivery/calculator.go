package delivery

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/VINCENT-bot354/safaribytes/pkg/config"
)

const earthRadiusKm = 6371.0

// Point is a WGS84 coordinate.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point lies within coordinate bounds.
func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// Calculator prices a delivery by straight-line distance from the store.
type Calculator struct {
	store      Point
	ratePerKm  decimal.Decimal
	minimumFee decimal.Decimal
}

func NewCalculator(cfg config.DeliveryConfig) *Calculator {
	return &Calculator{
		store:      Point{Latitude: cfg.StoreLatitude, Longitude: cfg.StoreLongitude},
		ratePerKm:  decimal.NewFromFloat(cfg.RatePerKm),
		minimumFee: decimal.NewFromFloat(cfg.MinimumFee),
	}
}

// Store returns the origin every distance is measured from.
func (c *Calculator) Store() Point {
	return c.store
}

// Fee returns max(distance*rate, minimum), rounded to cents.
func (c *Calculator) Fee(distanceKm float64) decimal.Decimal {
	if distanceKm < 0 {
		distanceKm = 0
	}
	fee := decimal.NewFromFloat(distanceKm).Mul(c.ratePerKm)
	if fee.LessThan(c.minimumFee) {
		fee = c.minimumFee
	}
	return fee.Round(2)
}

// DistanceKm is the haversine distance from the store to dest.
func (c *Calculator) DistanceKm(dest Point) float64 {
	return Haversine(c.store, dest)
}

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b Point) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLng := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
