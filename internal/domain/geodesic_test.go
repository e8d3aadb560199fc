package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineKm_KnownDistances(t *testing.T) {
	// One degree of longitude along the equator.
	d := HaversineKm(Coordinates{Lat: 0, Lon: 0}, Coordinates{Lat: 0, Lon: 1})
	assert.InDelta(t, 111.19, d, 0.1)

	// Equator to pole: a quarter of the circumference.
	d = HaversineKm(Coordinates{Lat: 0, Lon: 0}, Coordinates{Lat: 90, Lon: 0})
	assert.InDelta(t, 10007.5, d, 1.0)

	assert.Zero(t, HaversineKm(Coordinates{Lat: 35.0, Lon: 24.0}, Coordinates{Lat: 35.0, Lon: 24.0}))
}

func TestNearest_PicksMinimum(t *testing.T) {
	ref := Coordinates{Lat: 0, Lon: 0}
	candidates := []EventFeature{
		{Coordinates: Coordinates{Lat: 0, Lon: 10}, Place: "far"},
		{Coordinates: Coordinates{Lat: 0, Lon: 1}, Place: "near"},
		{Coordinates: Coordinates{Lat: 0, Lon: 5}, Place: "middle"},
	}

	nearest, km, ok := GreatCircleLocator{}.Nearest(ref, candidates)
	require.True(t, ok)
	assert.Equal(t, "near", nearest.Place)
	assert.InDelta(t, 111.19, km, 0.1)
}

func TestNearest_TieBreaksToFirstInInputOrder(t *testing.T) {
	ref := Coordinates{Lat: 10, Lon: 10}
	same := Coordinates{Lat: 11, Lon: 11}
	candidates := []EventFeature{
		{Coordinates: same, Place: "first", Time: time.Unix(1, 0)},
		{Coordinates: same, Place: "second", Time: time.Unix(2, 0)},
	}

	nearest, _, ok := GreatCircleLocator{}.Nearest(ref, candidates)
	require.True(t, ok)
	assert.Equal(t, "first", nearest.Place)
}

func TestNearest_EmptyCandidates(t *testing.T) {
	_, _, ok := GreatCircleLocator{}.Nearest(Coordinates{}, nil)
	assert.False(t, ok)
}
