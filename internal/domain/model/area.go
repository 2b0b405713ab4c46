package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// GatheringArea is an emergency assembly location returned by a point query.
// Properties are passed through untouched; only ID is inspected.
type GatheringArea struct {
	ID         string
	Properties map[string]any
}

// Feature is the wire shape of a point-query feature.
type Feature struct {
	ID         *ID             `json:"id,omitempty"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry,omitempty"`
}

// GatheringArea returns the area keyed by properties.id, falling back to the
// feature id. Features without either are rejected.
func (f Feature) GatheringArea() (GatheringArea, error) {
	if raw, ok := f.Properties["id"]; ok && raw != nil {
		if id := fmt.Sprint(raw); id != "" {
			return GatheringArea{ID: id, Properties: f.Properties}, nil
		}
	}
	if f.ID != nil && *f.ID != "" {
		return GatheringArea{ID: f.ID.String(), Properties: f.Properties}, nil
	}
	return GatheringArea{}, errors.New("feature has no id")
}
