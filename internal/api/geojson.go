package api

import (
	"github.com/mr1hm/emdat-stats/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// toGeoJSON keeps only events with a position. Absent statistics are left
// out of the properties.
func toGeoJSON(events []models.Event) FeatureCollection {
	features := make([]Feature, 0, len(events))

	for i := range events {
		e := &events[i]
		pos, ok := e.Coordinates()
		if !ok {
			continue
		}

		props := map[string]any{
			"dis_no":        e.DisNo,
			"year":          e.Year,
			"country":       e.Country,
			"disaster_type": e.DisasterType,
		}
		if e.DisasterSubtype != "" {
			props["disaster_subtype"] = e.DisasterSubtype
		}
		if e.EventName != "" {
			props["event_name"] = e.EventName
		}
		if e.Location != "" {
			props["location"] = e.Location
		}
		for _, s := range models.Statistics {
			if v := e.Stat(s); v != nil {
				props[s.String()] = *v
			}
		}

		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{pos.Longitude, pos.Latitude},
			},
			Properties: props,
		})
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
