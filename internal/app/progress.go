package service

import (
	"sync"
	"sync/atomic"
	"time"
)

// Progress counts collected and failed units. It is shared by the walker
// and the service and is safe for concurrent use.
type Progress struct {
	DistrictsDone       atomic.Int64
	DistrictsFailed     atomic.Int64
	NeighborhoodsDone   atomic.Int64
	NeighborhoodsFailed atomic.Int64
	AreasFound          atomic.Int64

	mu        sync.RWMutex
	province  string
	district  string
	updatedAt time.Time
}

func (p *Progress) setCurrent(province, district string) {
	p.mu.Lock()
	p.province = province
	p.district = district
	p.updatedAt = time.Now()
	p.mu.Unlock()
}

// Current returns the province and district being walked.
func (p *Progress) Current() (province, district string, updatedAt time.Time) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.province, p.district, p.updatedAt
}
