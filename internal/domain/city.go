package domain

import (
	"context"
	"fmt"
	"strings"
)

// City is a registered reference point for earthquake searches. Immutable
// once validated; the core never mutates cities.
type City struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks the name and coordinate bounds.
//
// Longitude is bounded to [-90, 90], not [-180, 180]. This matches the
// validation rule of the system this service replaced and is kept as a
// documented domain simplification rather than silently widened.
func (c City) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("city name is required")
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", c.Latitude)
	}
	if c.Longitude < -90 || c.Longitude > 90 {
		return fmt.Errorf("longitude %v out of range [-90, 90]", c.Longitude)
	}
	return nil
}

// Coordinates returns the city's reference point.
func (c City) Coordinates() Coordinates {
	return Coordinates{Lat: c.Latitude, Lon: c.Longitude}
}

// CityDirectory resolves city ids. The search core consumes only this slice
// of the registry.
type CityDirectory interface {
	// GetCity returns the city or an error wrapping ErrCityNotFound.
	GetCity(ctx context.Context, id int64) (City, error)
}
