package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// NoResultsMessage is the marker text for a window with no qualifying event.
const NoResultsMessage = "No results found"

// ResultPayload is the cacheable outcome for one date range: either the
// closest-event summary or the explicit no-event marker (Found == false).
type ResultPayload struct {
	Found      bool
	City       string
	Magnitude  float64
	Place      string
	EventTime  time.Time
	DistanceKm float64
}

// ClosestResult builds a payload from the nearest event for a city.
func ClosestResult(cityName string, ev EventFeature, distanceKm float64) ResultPayload {
	return ResultPayload{
		Found:      true,
		City:       cityName,
		Magnitude:  ev.Magnitude,
		Place:      ev.Place,
		EventTime:  ev.Time,
		DistanceKm: distanceKm,
	}
}

// NoEventResult builds the cacheable "No results found" marker.
func NoEventResult() ResultPayload {
	return ResultPayload{}
}

type closestJSON struct {
	City       string  `json:"city"`
	Magnitude  float64 `json:"magnitude"`
	Place      string  `json:"place"`
	Date       string  `json:"date"`
	DistanceKm float64 `json:"distance_km"`
}

type markerJSON struct {
	Message string `json:"message"`
}

// MarshalJSON encodes the public API shape; the same encoding is stored in
// the cache so persisted entries round-trip without a second schema.
func (p ResultPayload) MarshalJSON() ([]byte, error) {
	if !p.Found {
		return json.Marshal(markerJSON{Message: NoResultsMessage})
	}
	return json.Marshal(closestJSON{
		City:       p.City,
		Magnitude:  p.Magnitude,
		Place:      p.Place,
		Date:       p.EventTime.UTC().Format(time.RFC3339),
		DistanceKm: p.DistanceKm,
	})
}

// UnmarshalJSON decodes either payload shape, distinguishing the marker by
// the presence of the message field.
func (p *ResultPayload) UnmarshalJSON(data []byte) error {
	var probe struct {
		Message *string `json:"message"`
		closestJSON
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("decode result payload: %w", err)
	}
	if probe.Message != nil {
		*p = NoEventResult()
		return nil
	}
	ts, err := time.Parse(time.RFC3339, probe.Date)
	if err != nil {
		return fmt.Errorf("decode result payload date %q: %w", probe.Date, err)
	}
	*p = ResultPayload{
		Found:      true,
		City:       probe.City,
		Magnitude:  probe.Magnitude,
		Place:      probe.Place,
		EventTime:  ts.UTC(),
		DistanceKm: probe.DistanceKm,
	}
	return nil
}
