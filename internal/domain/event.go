package domain

import (
	"context"
	"time"
)

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// EventFeature is one seismic event from the upstream catalog. Transient:
// features are never persisted, only the derived ResultPayload is.
type EventFeature struct {
	Coordinates Coordinates
	Magnitude   float64
	Place       string
	Time        time.Time
}

// EventSource fetches qualifying events for a time window. The single I/O
// boundary of a search run. Implementations return whatever detail they have;
// the orchestrator collapses every failure into ErrUpstreamUnavailable.
type EventSource interface {
	FetchEvents(ctx context.Context, r DateRange, minMagnitude float64) ([]EventFeature, error)
}
