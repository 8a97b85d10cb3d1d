package core

import (
	"strings"

	"github.com/google/uuid"
)

// RuntimeIdentity identifies one running pool process.
type RuntimeIdentity struct {
	ID        string
	CreatedAt float64
}

func NewRuntimeIdentity(ts Timestamper) RuntimeIdentity {
	if ts == nil {
		ts = WallClockTimestamper{}
	}
	return RuntimeIdentity{ID: uuid.NewString(), CreatedAt: ts.Time()}
}

func (r RuntimeIdentity) IsZero() bool {
	return strings.TrimSpace(r.ID) == ""
}
