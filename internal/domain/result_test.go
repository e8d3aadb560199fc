package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultPayload_MarshalClosest(t *testing.T) {
	p := ClosestResult("Lisbon", EventFeature{
		Magnitude: 6.1,
		Place:     "12 km SW of Somewhere",
		Time:      time.Date(2020, 1, 5, 14, 30, 0, 0, time.UTC),
	}, 152.7)

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Lisbon", decoded["city"])
	assert.Equal(t, 6.1, decoded["magnitude"])
	assert.Equal(t, "12 km SW of Somewhere", decoded["place"])
	assert.Equal(t, "2020-01-05T14:30:00Z", decoded["date"])
	assert.Equal(t, 152.7, decoded["distance_km"])
	assert.NotContains(t, decoded, "message")
}

func TestResultPayload_MarshalMarker(t *testing.T) {
	data, err := json.Marshal(NoEventResult())
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"No results found"}`, string(data))
}

func TestResultPayload_RoundTrip(t *testing.T) {
	original := ClosestResult("Quito", EventFeature{
		Magnitude: 5.4,
		Place:     "offshore",
		Time:      time.Date(2021, 7, 1, 3, 4, 5, 0, time.UTC),
	}, 89.25)

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded ResultPayload
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestResultPayload_UnmarshalMarker(t *testing.T) {
	var p ResultPayload
	require.NoError(t, json.Unmarshal([]byte(`{"message":"No results found"}`), &p))
	assert.False(t, p.Found)
}

func TestResultPayload_UnmarshalBadDate(t *testing.T) {
	var p ResultPayload
	err := json.Unmarshal([]byte(`{"city":"X","date":"yesterday"}`), &p)
	require.Error(t, err)
}
