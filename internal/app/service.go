// Package service runs a collection: it walks every configured province and
// persists one document per province.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/toplanma/internal/adapters/repository"
	"github.com/okian/toplanma/internal/domain/dedupe"
	"github.com/okian/toplanma/internal/domain/model"
	"github.com/okian/toplanma/internal/portal"
	"github.com/okian/toplanma/pkg/logger"
	"github.com/okian/toplanma/pkg/metrics"
)

// ProvinceWalker collects one province tree.
type ProvinceWalker interface {
	WalkProvince(ctx context.Context, ref model.ProvinceRef) (*model.Province, error)
}

// Service drives one collection run.
type Service struct {
	mu sync.RWMutex

	walker    ProvinceWalker
	store     repository.Store
	provinces []model.ProvinceRef
	deduper   dedupe.Deduper
	progress  *Progress

	runID    string
	running  bool
	started  time.Time
	finished time.Time
	written  []string
	failed   []int

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.runID = id
		}
	}
}

// WithServiceDeduper reports unique areas from the given tracker.
func WithServiceDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		s.deduper = d
	}
}

// WithServiceProgress reports walker progress from the given counters.
func WithServiceProgress(p *Progress) Option {
	return func(s *Service) {
		if p != nil {
			s.progress = p
		}
	}
}

// New constructs a Service over the given provinces.
func New(walker ProvinceWalker, store repository.Store, provinces []model.ProvinceRef, opts ...Option) *Service {
	s := &Service{
		walker:    walker,
		store:     store,
		provinces: provinces,
		runID:     uuid.NewString(),
		progress:  &Progress{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	s.logger = s.logger.With(logger.String("run_id", s.runID))
	return s
}

// RunID identifies this run in logs.
func (s *Service) RunID() string { return s.runID }

// Run walks and writes every province in order. A province that fails is
// logged and skipped. Authentication failures and cancellation end the run
// with an error.
func (s *Service) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("run already in progress")
	}
	s.running = true
	s.started = time.Now()
	s.finished = time.Time{}
	s.written = nil
	s.failed = nil
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.finished = time.Now()
		s.mu.Unlock()
	}()

	s.logger.Info(ctx, "collection started", logger.Int("provinces", len(s.provinces)))

	for _, ref := range s.provinces {
		if err := ctx.Err(); err != nil {
			return err
		}
		log := s.logger.With(logger.Int("province_code", ref.Code), logger.String("province", ref.Name))
		start := time.Now()

		tree, err := s.walker.WalkProvince(ctx, ref)
		if err != nil {
			if errors.Is(err, portal.ErrAuthentication) {
				log.Error(ctx, "authentication failed, aborting run", logger.Error(err))
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.provinceFailed(ctx, log, ref, err)
			continue
		}

		path, err := s.store.SaveProvince(ctx, tree)
		if err != nil {
			s.provinceFailed(ctx, log, ref, err)
			continue
		}

		districts, neighborhoods, areas := tree.Counts()
		s.mu.Lock()
		s.written = append(s.written, path)
		s.mu.Unlock()
		log.Info(ctx, "province written",
			logger.String("path", path),
			logger.Int("districts", districts),
			logger.Int("neighborhoods", neighborhoods),
			logger.Int("areas", areas),
			logger.Duration("took", time.Since(start)))
	}

	stats := s.GetStats()
	s.logger.Info(ctx, "collection finished",
		logger.Any("written", stats["provincesWritten"]),
		logger.Any("failed", stats["provincesFailed"]),
		logger.Any("uniqueAreas", stats["uniqueAreas"]))
	return nil
}

func (s *Service) provinceFailed(ctx context.Context, log logger.Logger, ref model.ProvinceRef, err error) {
	metrics.RecordProvinceFailed()
	s.mu.Lock()
	s.failed = append(s.failed, ref.Code)
	s.mu.Unlock()
	log.Error(ctx, "province failed", logger.Error(fmt.Errorf("province %d: %w", ref.Code, err)))
}

// GetStats returns run statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	province, district, updatedAt := s.progress.Current()
	stats := map[string]interface{}{
		"runId":               s.runID,
		"running":             s.running,
		"provincesTotal":      len(s.provinces),
		"provincesWritten":    len(s.written),
		"provincesFailed":     len(s.failed),
		"files":               append([]string(nil), s.written...),
		"failedProvinces":     append([]int(nil), s.failed...),
		"districtsDone":       s.progress.DistrictsDone.Load(),
		"districtsFailed":     s.progress.DistrictsFailed.Load(),
		"neighborhoodsDone":   s.progress.NeighborhoodsDone.Load(),
		"neighborhoodsFailed": s.progress.NeighborhoodsFailed.Load(),
		"areasFound":          s.progress.AreasFound.Load(),
		"currentProvince":     province,
		"currentDistrict":     district,
	}
	if s.deduper != nil {
		stats["uniqueAreas"] = s.deduper.Size()
	}
	if !s.started.IsZero() {
		stats["startedAt"] = s.started.UTC().Format(time.RFC3339)
	}
	if !s.finished.IsZero() {
		stats["finishedAt"] = s.finished.UTC().Format(time.RFC3339)
	}
	if !updatedAt.IsZero() {
		stats["updatedAt"] = updatedAt.UTC().Format(time.RFC3339)
	}
	return stats
}
