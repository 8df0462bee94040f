package services

import (
	"context"
	"fmt"
	"math"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/entries"
	"github.com/dustin/go-humanize"
)

// LimitProvider returns the storage limit that applies to an owner.
type LimitProvider interface {
	StorageLimit(ctx context.Context, ownerID int64) (int64, error)
}

// StaticLimit gives every owner the same limit.
type StaticLimit int64

func (l StaticLimit) StorageLimit(context.Context, int64) (int64, error) {
	return int64(l), nil
}

// QuotaAccountant compares usage against the owner's limit. Usage is summed
// from the entry repository on every call; nothing is cached.
//
// CheckCapacity and the write that follows it are not atomic. Two uploads
// racing for the same owner may both pass against the same total and
// overshoot the limit by at most one upload each.
type QuotaAccountant struct {
	entries entries.Repository
	limits  LimitProvider
}

func NewQuotaAccountant(r entries.Repository, limits LimitProvider) *QuotaAccountant {
	return &QuotaAccountant{entries: r, limits: limits}
}

// CheckCapacity fails with common.ErrQuotaExceeded when incomingBytes would
// take the owner past their limit.
func (q *QuotaAccountant) CheckCapacity(ctx context.Context, ownerID, incomingBytes int64) error {
	used, err := q.entries.TotalFileBytes(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("usage: %w", err)
	}
	limit, err := q.limits.StorageLimit(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("limit: %w", err)
	}
	if used+incomingBytes > limit {
		return fmt.Errorf("%w: %s used, %s requested, limit %s", common.ErrQuotaExceeded,
			humanize.IBytes(uint64(used)), humanize.IBytes(uint64(incomingBytes)), humanize.IBytes(uint64(limit)))
	}
	return nil
}

// UsageSnapshot reports current usage. Percentage is rounded to the nearest
// integer and is not clamped, so it can read above 100 after a race.
func (q *QuotaAccountant) UsageSnapshot(ctx context.Context, ownerID int64) (*models.StorageUsage, error) {
	used, err := q.entries.TotalFileBytes(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("usage: %w", err)
	}
	limit, err := q.limits.StorageLimit(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("limit: %w", err)
	}

	u := &models.StorageUsage{
		UsedBytes:      used,
		LimitBytes:     limit,
		RemainingBytes: max(limit-used, 0),
		UsedHuman:      humanize.IBytes(uint64(used)),
		LimitHuman:     humanize.IBytes(uint64(limit)),
	}
	if limit > 0 {
		u.Percentage = int(math.Round(float64(used) / float64(limit) * 100))
	}
	return u, nil
}
