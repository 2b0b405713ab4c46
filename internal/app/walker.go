package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/toplanma/internal/adapters/mq/queue"
	"github.com/okian/toplanma/internal/adapters/mq/worker"
	"github.com/okian/toplanma/internal/domain/dedupe"
	"github.com/okian/toplanma/internal/domain/model"
	"github.com/okian/toplanma/internal/portal"
	"github.com/okian/toplanma/pkg/logger"
	"github.com/okian/toplanma/pkg/metrics"
)

// Hierarchy lists the administrative units below a parent.
type Hierarchy interface {
	Districts(ctx context.Context, provinceCode int) ([]model.Unit, error)
	Neighborhoods(ctx context.Context, provinceCode int, districtID model.ID) ([]model.Unit, error)
	Streets(ctx context.Context, provinceCode int, districtID, neighborhoodID model.ID) ([]model.Unit, error)
}

// AreaResolver finds the gathering areas of one neighborhood.
type AreaResolver interface {
	Resolve(ctx context.Context, provinceCode int, districtID, neighborhoodID model.ID) (map[string]model.GatheringArea, error)
}

// Walker assembles the tree of one province. Districts are walked in order;
// the neighborhoods of a district are resolved concurrently by a worker pool.
type Walker struct {
	hierarchy   Hierarchy
	resolver    AreaResolver
	deduper     dedupe.Deduper
	progress    *Progress
	workerCount int
	queueSize   int
	logger      logger.Logger
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithWalkerWorkers bounds the neighborhoods resolved at once.
func WithWalkerWorkers(n int) WalkerOption {
	return func(w *Walker) {
		if n > 0 {
			w.workerCount = n
		}
	}
}

// WithWalkerQueueSize bounds pending neighborhood jobs.
func WithWalkerQueueSize(n int) WalkerOption {
	return func(w *Walker) {
		if n > 0 {
			w.queueSize = n
		}
	}
}

// WithDeduper shares a run-wide area tracker.
func WithDeduper(d dedupe.Deduper) WalkerOption {
	return func(w *Walker) {
		if d != nil {
			w.deduper = d
		}
	}
}

// WithProgress shares progress counters with the caller.
func WithProgress(p *Progress) WalkerOption {
	return func(w *Walker) {
		if p != nil {
			w.progress = p
		}
	}
}

// WithWalkerLogger sets a custom logger.
func WithWalkerLogger(l logger.Logger) WalkerOption {
	return func(w *Walker) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWalker creates a walker over the given portal surfaces.
func NewWalker(h Hierarchy, r AreaResolver, opts ...WalkerOption) *Walker {
	w := &Walker{
		hierarchy:   h,
		resolver:    r,
		workerCount: 10,
		queueSize:   1000,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.deduper == nil {
		w.deduper = dedupe.NewInMemoryDeduper()
	}
	if w.progress == nil {
		w.progress = &Progress{}
	}
	if w.logger == nil {
		w.logger = logger.Named("walker")
	}
	return w
}

// WalkProvince collects the tree of one province. Failed neighborhoods and
// districts are logged and left out. An error is returned when the district
// list cannot be fetched, when authentication fails or when ctx ends.
func (w *Walker) WalkProvince(ctx context.Context, ref model.ProvinceRef) (*model.Province, error) {
	log := w.logger.With(logger.Int("province_code", ref.Code), logger.String("province", ref.Name))
	w.progress.setCurrent(ref.Name, "")

	districts, err := w.hierarchy.Districts(ctx, ref.Code)
	if err != nil {
		return nil, fmt.Errorf("province %d districts: %w", ref.Code, err)
	}

	province := &model.Province{Code: ref.Code, Name: ref.Name, Districts: make([]*model.District, 0, len(districts))}
	for _, d := range districts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w.progress.setCurrent(ref.Name, d.Name)
		dlog := log.With(logger.String("district_id", d.ID.String()), logger.String("district", d.Name))

		district, err := w.walkDistrict(ctx, dlog, ref.Code, d)
		switch {
		case errors.Is(err, portal.ErrAuthentication):
			return nil, err
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			w.progress.DistrictsFailed.Add(1)
			metrics.RecordDistrictFailed()
			dlog.Error(ctx, "skipping district", logger.Error(err))
			continue
		}

		province.Districts = append(province.Districts, district)
		w.progress.DistrictsDone.Add(1)
		dlog.Info(ctx, "district done", logger.Int("neighborhoods", len(district.Neighborhoods)))
	}
	return province, nil
}

func (w *Walker) walkDistrict(ctx context.Context, log logger.Logger, provinceCode int, d model.Unit) (*model.District, error) {
	units, err := w.hierarchy.Neighborhoods(ctx, provinceCode, d.ID)
	if err != nil {
		return nil, fmt.Errorf("neighborhoods: %w", err)
	}

	// Each job owns one slot, so workers never write the same element.
	slots := make([]*model.Neighborhood, len(units))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var (
		fatalOnce sync.Once
		fatal     error
	)

	handler := worker.HandlerFunc(func(ctx context.Context, job worker.Job) error {
		if ctx.Err() != nil {
			return nil
		}
		nb, err := w.resolveNeighborhood(ctx, job)
		if err != nil {
			if errors.Is(err, portal.ErrAuthentication) {
				fatalOnce.Do(func() {
					fatal = err
					cancel()
				})
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			w.progress.NeighborhoodsFailed.Add(1)
			metrics.RecordNeighborhoodFailed(failureKind(err))
			return fmt.Errorf("skipping neighborhood %q: %w", job.Neighborhood.Name, err)
		}
		slots[job.Index] = nb
		w.progress.NeighborhoodsDone.Add(1)
		return nil
	})

	q := queue.NewInMemoryQueue(queue.WithCapacity(w.queueSize))
	pool := worker.NewPool(w.workerCount, q, handler)
	log.Debug(ctx, "resolving neighborhoods",
		logger.Int("neighborhoods", len(units)),
		logger.Int("workers", pool.Size()))
	pool.Start(ctx)

	for i, u := range units {
		job := queue.Job{ProvinceCode: provinceCode, DistrictID: d.ID, Neighborhood: u, Index: i}
		if err := q.Enqueue(ctx, job); err != nil {
			break
		}
	}
	if ctx.Err() != nil {
		// Workers stop after their current job; queued jobs are dropped.
		log.Warn(ctx, "district canceled", logger.Int("dropped_jobs", q.Len(ctx)))
		if err := pool.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Error(ctx, "worker pool shutdown", logger.Error(err))
		}
	} else {
		_ = q.Close()
	}
	pool.Wait()

	if fatal != nil {
		return nil, fatal
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	district := &model.District{Unit: d, Neighborhoods: make([]*model.Neighborhood, 0, len(units))}
	for _, nb := range slots {
		if nb != nil {
			district.Neighborhoods = append(district.Neighborhoods, nb)
		}
	}
	if failed := len(units) - len(district.Neighborhoods); failed > 0 {
		log.Warn(ctx, "district has skipped neighborhoods", logger.Int("skipped", failed))
	}
	return district, nil
}

func (w *Walker) resolveNeighborhood(ctx context.Context, job queue.Job) (*model.Neighborhood, error) {
	start := time.Now()
	streets, err := w.hierarchy.Streets(ctx, job.ProvinceCode, job.DistrictID, job.Neighborhood.ID)
	if err != nil {
		return nil, fmt.Errorf("streets: %w", err)
	}
	areas, err := w.resolver.Resolve(ctx, job.ProvinceCode, job.DistrictID, job.Neighborhood.ID)
	if err != nil {
		return nil, fmt.Errorf("gathering areas: %w", err)
	}

	nb := &model.Neighborhood{
		Unit:           job.Neighborhood,
		Streets:        make([]model.Street, len(streets)),
		GatheringAreas: areas,
	}
	for i, s := range streets {
		nb.Streets[i] = model.Street{Unit: s}
	}

	ids := make([]string, 0, len(areas))
	for id := range areas {
		ids = append(ids, id)
	}
	w.deduper.RecordAll(ctx, ids)
	w.progress.AreasFound.Add(int64(len(areas)))

	w.logger.Debug(ctx, "neighborhood resolved",
		logger.Int("province_code", job.ProvinceCode),
		logger.String("district_id", job.DistrictID.String()),
		logger.String("neighborhood_id", job.Neighborhood.ID.String()),
		logger.Int("streets", len(streets)),
		logger.Int("areas", len(areas)),
		logger.Duration("took", time.Since(start)))
	return nb, nil
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, portal.ErrParse):
		return "parse"
	case errors.Is(err, portal.ErrTransientService):
		return "transient"
	default:
		return "other"
	}
}
