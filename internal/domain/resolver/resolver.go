// Package resolver finds the gathering areas of a neighborhood by sampling its
// map polygon and point-querying the samples.
package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/toplanma/internal/domain/geo"
	"github.com/okian/toplanma/internal/domain/model"
	"github.com/okian/toplanma/internal/portal"
	"github.com/okian/toplanma/pkg/logger"
	"github.com/okian/toplanma/pkg/metrics"
	"github.com/paulmach/orb"
)

// AreaSource is the portal surface the resolver needs.
type AreaSource interface {
	MapAreas(ctx context.Context, provinceCode int, districtID, neighborhoodID model.ID) ([]portal.MapArea, error)
	PointAreas(ctx context.Context, p orb.Point) ([]model.GatheringArea, error)
}

// Resolver is stateless apart from its source and may be shared by workers.
type Resolver struct {
	source AreaSource
	logger logger.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a resolver reading from source.
func New(source AreaSource, opts ...Option) *Resolver {
	r := &Resolver{source: source}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Named("resolver")
	}
	return r
}

// Resolve returns the gathering areas keyed by id. A neighborhood without a
// registered polygon yields an empty map and no error.
func (r *Resolver) Resolve(ctx context.Context, provinceCode int, districtID, neighborhoodID model.ID) (map[string]model.GatheringArea, error) {
	start := time.Now()
	result := map[string]model.GatheringArea{}

	areas, err := r.source.MapAreas(ctx, provinceCode, districtID, neighborhoodID)
	if err != nil {
		return nil, fmt.Errorf("map areas: %w", err)
	}
	if len(areas) == 0 || areas[0].Geometry == nil {
		metrics.RecordNeighborhoodResolved(0, float64(time.Since(start).Milliseconds()))
		return result, nil
	}

	ring, ok := geo.OuterRing(areas[0].Geometry.Geometry())
	if !ok {
		r.logger.Debug(ctx, "map polygon has no outer ring",
			logger.Int("province_code", provinceCode),
			logger.String("district_id", districtID.String()),
			logger.String("neighborhood_id", neighborhoodID.String()))
		metrics.RecordNeighborhoodResolved(0, float64(time.Since(start).Milliseconds()))
		return result, nil
	}

	points := geo.Sample(ring)
	metrics.RecordSamplePoints(len(points))
	for _, p := range points {
		found, err := r.source.PointAreas(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("point %v: %w", p, err)
		}
		for _, area := range found {
			result[area.ID] = area
		}
	}

	metrics.RecordNeighborhoodResolved(len(result), float64(time.Since(start).Milliseconds()))
	return result, nil
}
