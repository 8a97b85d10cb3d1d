package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-mining/core"
	"github.com/goliatone/go-mining/ratelimit"
)

var (
	_ gocmd.Querier[DifficultyMessage, int]             = (*DifficultyQuery)(nil)
	_ gocmd.Querier[PoolTimeMessage, float64]           = (*PoolTimeQuery)(nil)
	_ gocmd.Querier[InstalledSlotsMessage, []core.Slot] = (*InstalledSlotsQuery)(nil)
	_ DifficultyReader                                  = (*ratelimit.VardiffLimiter)(nil)
)
