package portal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/paulmach/orb/geojson"
)

var (
	tokenPattern = regexp.MustCompile(`data-token="([^"]*)"`)

	// The map page embeds its polygons as a script assignment on one line.
	areasPattern = regexp.MustCompile(`toplanmaAlanlari = (.*);`)
)

// MapArea is one polygon the map page draws for a neighborhood.
type MapArea struct {
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties map[string]any    `json:"properties"`
}

// ExtractToken returns the data-token attribute of the query tool page.
func ExtractToken(page []byte) (Token, error) {
	m := tokenPattern.FindSubmatch(page)
	if m == nil || len(m[1]) == 0 {
		return "", fmt.Errorf("%w: data-token attribute not found", ErrAuthentication)
	}
	return Token(m[1]), nil
}

// expiredPage reports whether a map response is the query tool's landing
// page: it carries a token but no toplanmaAlanlari assignment.
func expiredPage(page []byte) bool {
	return !areasPattern.Match(page) && tokenPattern.Match(page)
}

// ExtractGatheringAreas decodes the toplanmaAlanlari assignment of a map page.
// A missing assignment, a null value or an empty list all mean the
// neighborhood has no registered areas and return (nil, nil).
func ExtractGatheringAreas(page []byte) ([]MapArea, error) {
	m := areasPattern.FindSubmatch(page)
	if m == nil {
		return nil, nil
	}
	raw := bytes.TrimSpace(m[1])
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var areas []MapArea
	if err := json.Unmarshal(raw, &areas); err != nil {
		return nil, fmt.Errorf("%w: toplanmaAlanlari: %w", ErrParse, err)
	}
	if len(areas) == 0 {
		return nil, nil
	}
	return areas, nil
}
