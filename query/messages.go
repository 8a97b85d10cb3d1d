package query

import "github.com/goliatone/go-mining/core"

const (
	TypeDifficulty = "pool.query.difficulty"
	TypePoolTime   = "pool.query.time"
	TypeInstalled  = "pool.query.installed"
)

type DifficultyMessage struct {
	Connection core.ConnectionHandle
}

func (DifficultyMessage) Type() string { return TypeDifficulty }

func (m DifficultyMessage) Validate() error {
	if m.Connection == 0 {
		return queryValidationError("connection", "connection handle is required")
	}
	return nil
}

type PoolTimeMessage struct{}

func (PoolTimeMessage) Type() string { return TypePoolTime }

func (PoolTimeMessage) Validate() error { return nil }

type InstalledSlotsMessage struct{}

func (InstalledSlotsMessage) Type() string { return TypeInstalled }

func (InstalledSlotsMessage) Validate() error { return nil }
