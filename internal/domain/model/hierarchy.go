// Package model contains the administrative hierarchy and gathering-area
// records passed between the portal client, the resolver and the writer.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a portal-assigned identifier. The portal sends ids either as JSON
// numbers or as strings; both decode to the same value.
type ID string

// UnmarshalJSON accepts a number or a string.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes canonical decimal ids as numbers so documents keep the
// portal's shape. Anything else, such as "007" or "+5", stays a string.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// String implements fmt.Stringer.
func (id ID) String() string { return string(id) }

// Unit is one node of the administrative tree as the portal lists it.
type Unit struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// ProvinceRef is an input (code, name) pair.
type ProvinceRef struct {
	Code int
	Name string
}

// Province is the root of one collected tree.
type Province struct {
	Code      int
	Name      string
	Districts []*District
}

// District owns its neighborhoods.
type District struct {
	Unit
	Neighborhoods []*Neighborhood
}

// Neighborhood owns its streets and the gathering areas intersecting it.
type Neighborhood struct {
	Unit
	Streets        []Street
	GatheringAreas map[string]GatheringArea
}

// Street is a leaf of the tree.
type Street struct {
	Unit
}

// Counts returns the number of districts, neighborhoods and gathering areas.
func (p *Province) Counts() (districts, neighborhoods, areas int) {
	for _, d := range p.Districts {
		districts++
		for _, n := range d.Neighborhoods {
			neighborhoods++
			areas += len(n.GatheringAreas)
		}
	}
	return districts, neighborhoods, areas
}
