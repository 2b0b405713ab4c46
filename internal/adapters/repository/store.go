// Package repository persists collected province trees.
package repository

import (
	"context"

	"github.com/okian/toplanma/internal/domain/model"
)

// Store persists one document per province.
type Store interface {
	// SaveProvince writes p, replacing any earlier document for the same
	// province. It returns where the document was written.
	SaveProvince(ctx context.Context, p *model.Province) (string, error)
}
