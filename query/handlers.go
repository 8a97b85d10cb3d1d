package query

import (
	"context"

	"github.com/goliatone/go-mining/core"
)

// DifficultyReader is implemented by share limiters that track a
// per-connection difficulty.
type DifficultyReader interface {
	Difficulty(ctx context.Context, conn core.ConnectionHandle) (int, error)
}

type DifficultyQuery struct {
	registry *core.Registry
}

func NewDifficultyQuery(registry *core.Registry) *DifficultyQuery {
	return &DifficultyQuery{registry: registry}
}

func (q *DifficultyQuery) Query(ctx context.Context, msg DifficultyMessage) (int, error) {
	if q == nil || q.registry == nil {
		return 0, queryDependencyError("query: registry is required")
	}
	limiter, ok := q.registry.ShareLimiter()
	if !ok {
		return 0, queryDependencyError("query: share limiter is not installed")
	}
	reader, ok := limiter.(DifficultyReader)
	if !ok {
		return 0, queryDependencyError("query: share limiter does not track difficulty")
	}
	return reader.Difficulty(ctx, msg.Connection)
}

// PoolTimeQuery reads the installed timestamper, so every caller observes the
// same clock as the policies.
type PoolTimeQuery struct {
	registry *core.Registry
}

func NewPoolTimeQuery(registry *core.Registry) *PoolTimeQuery {
	return &PoolTimeQuery{registry: registry}
}

func (q *PoolTimeQuery) Query(_ context.Context, _ PoolTimeMessage) (float64, error) {
	if q == nil || q.registry == nil {
		return 0, queryDependencyError("query: registry is required")
	}
	timestamper, ok := q.registry.Timestamper()
	if !ok {
		return 0, queryDependencyError("query: timestamper is not installed")
	}
	return timestamper.Time(), nil
}

type InstalledSlotsQuery struct {
	registry *core.Registry
}

func NewInstalledSlotsQuery(registry *core.Registry) *InstalledSlotsQuery {
	return &InstalledSlotsQuery{registry: registry}
}

func (q *InstalledSlotsQuery) Query(_ context.Context, _ InstalledSlotsMessage) ([]core.Slot, error) {
	if q == nil || q.registry == nil {
		return nil, queryDependencyError("query: registry is required")
	}
	return q.registry.Installed(), nil
}
