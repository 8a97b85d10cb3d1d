package core

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// PredictableStartTime is the base reading of PredictableTimestamper.
const PredictableStartTime = 1345678900

type WallClockTimestamper struct{}

func (WallClockTimestamper) Time() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// PredictableTimestamper advances by exactly one second per reading, so the
// Nth call returns StartTime+N. State is per instance.
type PredictableTimestamper struct {
	StartTime float64

	mu    sync.Mutex
	delta float64
}

func NewPredictableTimestamper() *PredictableTimestamper {
	return &PredictableTimestamper{StartTime: PredictableStartTime}
}

func (t *PredictableTimestamper) Time() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.delta++
	return t.StartTime + t.delta
}

// Now converts a Timestamper reading to time.Time.
func Now(ts Timestamper) time.Time {
	if ts == nil {
		ts = WallClockTimestamper{}
	}
	secs, frac := math.Modf(ts.Time())
	return time.Unix(int64(secs), int64(frac*float64(time.Second))).UTC()
}

// SequenceIdsProvider issues session ids from a wrapping uint32 sequence:
// 1, 2, ..., 2^32-1, 0, 1, ...
type SequenceIdsProvider struct {
	last atomic.Uint32
}

type SequenceOption func(*SequenceIdsProvider)

// WithLastSessionID seeds the sequence so the next id is last+1.
func WithLastSessionID(last SessionID) SequenceOption {
	return func(p *SequenceIdsProvider) {
		p.last.Store(uint32(last))
	}
}

func NewSequenceIdsProvider(opts ...SequenceOption) *SequenceIdsProvider {
	provider := &SequenceIdsProvider{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(provider)
	}
	return provider
}

func (p *SequenceIdsProvider) NewSessionID() SessionID {
	return SessionID(p.last.Add(1))
}
