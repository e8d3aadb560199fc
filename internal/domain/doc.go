// Package domain models earthquake search data and the range cache contract.
//
// # Data Source
//
// Seismic events come from the USGS FDSN event web service
// (https://earthquake.usgs.gov/fdsnws/event/1/), queried by time window and
// minimum magnitude. Responses are GeoJSON feature collections:
//
//	geometry.coordinates = [lon, lat, depth]   (note the lon-first order;
//	                                            adapters reorder to lat/lon
//	                                            before distance computation)
//	properties.mag                              moment magnitude
//	properties.place                            human-readable place label
//	properties.time                             epoch milliseconds UTC
//
// # Date Ranges
//
// All ranges are inclusive day intervals at UTC midnight granularity:
// [2020-01-01, 2020-01-10] covers ten days. Two ranges overlap when neither
// ends strictly before the other starts; ranges meeting at a one-day boundary
// (end+1 == next start) are adjacent, which matters for gap computation but
// is not an overlap.
//
// The cache stores at most one result payload per (city, range), and for a
// fixed city no two stored ranges may overlap. Overlapping entries would make
// "nearest earthquake on date D" ambiguous, so the invariant is enforced at
// write time and treated as a data-integrity fault if ever observed at read
// time.
//
// # Result Payloads
//
// A payload is either the closest-event summary for a window or an explicit
// "No results found" marker. The marker is deliberately cacheable: a window
// with no qualifying event must not be re-fetched on every request. The JSON
// encoding matches the public API shape:
//
//	{"city": ..., "magnitude": ..., "place": ..., "date": ..., "distance_km": ...}
//	{"message": "No results found"}
//
// where date is RFC3339 UTC.
//
// # Coordinate Bounds
//
// City latitude and longitude are both validated against [-90, 90]. The
// longitude bound is a deliberate simplification inherited from the system
// this service replaced; see [City.Validate].
package domain
