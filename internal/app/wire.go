package service

import (
	"fmt"

	"github.com/okian/toplanma/internal/adapters/repository"
	"github.com/okian/toplanma/internal/config"
	"github.com/okian/toplanma/internal/domain/dedupe"
	"github.com/okian/toplanma/internal/domain/model"
	"github.com/okian/toplanma/internal/domain/resolver"
	"github.com/okian/toplanma/internal/portal"
)

// NewFromConfig wires the portal client, resolver, walker and file store
// described by cfg.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Service, error) {
	client, err := portal.New(cfg.BaseURL, cfg.PagePath,
		portal.WithTimeout(cfg.RequestTimeout()),
		portal.WithExpiryRetries(cfg.ExpiryRetries),
		portal.WithNetworkRetries(cfg.NetworkRetries),
		portal.WithBackoff(cfg.BackoffInitial(), cfg.BackoffMax()),
	)
	if err != nil {
		return nil, fmt.Errorf("portal client: %w", err)
	}

	deduper := dedupe.NewInMemoryDeduper()
	progress := &Progress{}
	walker := NewWalker(client, resolver.New(client),
		WithWalkerWorkers(cfg.WorkerCount),
		WithWalkerQueueSize(cfg.QueueSize),
		WithDeduper(deduper),
		WithProgress(progress),
	)

	selected := cfg.SelectedProvinces()
	refs := make([]model.ProvinceRef, len(selected))
	for i, p := range selected {
		refs[i] = model.ProvinceRef{Code: p.Code, Name: p.Name}
	}

	var storeOpts []repository.Option
	if cfg.OutputIndent != "" {
		storeOpts = append(storeOpts, repository.WithIndent(cfg.OutputIndent))
	}

	opts = append([]Option{WithServiceDeduper(deduper), WithServiceProgress(progress)}, opts...)
	return New(walker, repository.NewFileStore(cfg.OutputDir, storeOpts...), refs, opts...), nil
}
