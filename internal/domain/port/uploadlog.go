package port

import (
	"context"

	"github.com/hasbegun/argus/internal/domain/entity"
)

// UploadLog is the dedup index: an ordered collection of upload records,
// at most one per content hash.
type UploadLog interface {
	// FindByHash returns the record for hash, if any.
	FindByHash(ctx context.Context, hash string) (entity.UploadRecord, bool, error)

	// Append adds a new record. The caller serializes Append against
	// FindByHash; implementations must still be safe for concurrent use.
	Append(ctx context.Context, record entity.UploadRecord) error

	// All returns every record in insertion order.
	All(ctx context.Context) ([]entity.UploadRecord, error)
}
