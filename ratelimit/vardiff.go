package ratelimit

import (
	"context"
	"errors"
	"math"
	"sync"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-mining/core"
	"github.com/goliatone/go-mining/settings"
)

const PolicyVardiff = "vardiff"

// Limits bound and shape the difficulty adjustment. Periods are seconds.
type Limits struct {
	MinimalDifficulty    int
	MaximalDifficulty    int
	DefaultDifficulty    int
	StartupDifficulty    int
	StartupPeriod        float64
	RecalculationPeriod  float64
	FullCollectionPeriod float64
	TargetSubmissionRate float64
	MinOKSubmitsRatio    float64
	MaxOKSubmitsRatio    float64
	ChangeRatioDown      float64
	ChangeRatioUp        float64
}

func DefaultLimits() Limits {
	return LimitsFromSettings(settings.DefaultPoolSettings())
}

func LimitsFromSettings(s settings.PoolSettings) Limits {
	return Limits{
		MinimalDifficulty:    s.LimiterMinimalDifficulty,
		MaximalDifficulty:    s.LimiterMaximalDifficulty,
		DefaultDifficulty:    s.LimiterDefaultDifficulty,
		StartupDifficulty:    s.LimiterStartupDifficulty,
		StartupPeriod:        float64(s.LimiterStartupPeriodS),
		RecalculationPeriod:  float64(s.LimiterRecalculationPeriodS),
		FullCollectionPeriod: float64(s.LimiterFullCollectionPeriodS),
		TargetSubmissionRate: s.LimiterTargetSubmissionRate,
		MinOKSubmitsRatio:    s.LimiterMinOKSubmitsRatio,
		MaxOKSubmitsRatio:    s.LimiterMaxOKSubmitsRatio,
		ChangeRatioDown:      s.LimiterChangeRatioDown,
		ChangeRatioUp:        s.LimiterChangeRatioUp,
	}
}

// Clamp truncates toward zero and keeps the result inside
// [MinimalDifficulty, MaximalDifficulty].
func (l Limits) Clamp(difficulty float64) int {
	bounded := math.Max(float64(l.MinimalDifficulty), math.Min(float64(l.MaximalDifficulty), difficulty))
	return int(bounded)
}

// IdlePeriod is how long a connection may stay silent before an idle sweep
// lowers its difficulty: the time in which MinOKSubmitsRatio of the target
// rate expects a single share, kept within [RecalculationPeriod,
// FullCollectionPeriod].
func (l Limits) IdlePeriod() float64 {
	if l.TargetSubmissionRate <= 0 || l.MinOKSubmitsRatio <= 0 {
		return l.FullCollectionPeriod
	}
	period := math.Max(math.Ceil(1/(l.TargetSubmissionRate*l.MinOKSubmitsRatio)), l.RecalculationPeriod)
	if l.FullCollectionPeriod > 0 {
		period = math.Min(period, l.FullCollectionPeriod)
	}
	return period
}

// DifficultyNotifier delivers a new difficulty to the miner behind conn.
type DifficultyNotifier func(ctx context.Context, conn core.ConnectionHandle, session *core.Session, difficulty int)

type VardiffOption func(*VardiffLimiter)

func WithStateStore(store StateStore) VardiffOption {
	return func(l *VardiffLimiter) {
		if store != nil {
			l.store = store
		}
	}
}

func WithClock(clock core.Timestamper) VardiffOption {
	return func(l *VardiffLimiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

func WithNotifier(notify DifficultyNotifier) VardiffOption {
	return func(l *VardiffLimiter) {
		l.notify = notify
	}
}

func WithReporter(reporter core.Reporter) VardiffOption {
	return func(l *VardiffLimiter) {
		l.reporter = reporter
	}
}

// WithStartupAt pins the start of the startup window instead of taking it
// from the first clock reading.
func WithStartupAt(at float64) VardiffOption {
	return func(l *VardiffLimiter) {
		l.startedAt = at
		l.started = true
	}
}

func WithLogger(logger core.Logger) VardiffOption {
	return func(l *VardiffLimiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// VardiffLimiter keeps each connection's share submission rate near
// TargetSubmissionRate by requesting a new difficulty whenever the observed
// rate leaves the [MinOKSubmitsRatio, MaxOKSubmitsRatio] band.
type VardiffLimiter struct {
	mu        sync.Mutex
	limits    Limits
	store     StateStore
	clock     core.Timestamper
	notify    DifficultyNotifier
	reporter  core.Reporter
	logger    core.Logger
	startedAt float64
	started   bool
}

func NewVardiffLimiter(limits Limits, opts ...VardiffOption) *VardiffLimiter {
	l := &VardiffLimiter{
		limits: limits,
		store:  NewMemoryStateStore(),
		clock:  core.WallClockTimestamper{},
		logger: glog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

func (l *VardiffLimiter) Limits() Limits {
	if l == nil {
		return Limits{}
	}
	return l.limits
}

func (l *VardiffLimiter) OnSubmitShare(ctx context.Context, conn core.ConnectionHandle, session *core.Session) {
	if l == nil {
		return
	}
	l.mu.Lock()
	now := l.clock.Time()
	state, err := l.loadLocked(ctx, conn, now)
	if err != nil {
		l.mu.Unlock()
		l.logFailure(ctx, "load", conn, err)
		return
	}
	state.Submits++
	state.LastSubmit = now
	if session != nil {
		state.Session = session
	}

	previous := state.Difficulty
	changed := false
	if now >= state.LastRecalculation+l.limits.RecalculationPeriod {
		changed = l.recalculate(&state, now)
	}
	err = l.store.Upsert(ctx, state)
	l.mu.Unlock()
	if err != nil {
		l.logFailure(ctx, "upsert", conn, err)
		return
	}
	if changed {
		l.announce(ctx, state, previous, session)
	}
}

// RecalculateIdle lowers the difficulty of every connection that has not
// submitted for Limits.IdlePeriod. It returns how many connections changed.
func (l *VardiffLimiter) RecalculateIdle(ctx context.Context) (int, error) {
	if l == nil {
		return 0, errors.New("ratelimit: limiter is nil")
	}
	type lowered struct {
		state    State
		previous int
	}
	var changes []lowered

	l.mu.Lock()
	now := l.clock.Time()
	states, err := l.store.List(ctx)
	if err != nil {
		l.mu.Unlock()
		return 0, err
	}
	idle := l.limits.IdlePeriod()
	for _, state := range states {
		if state.Difficulty <= l.limits.MinimalDifficulty || now-state.LastSubmit < idle {
			continue
		}
		previous := state.Difficulty
		if !l.recalculate(&state, now) {
			continue
		}
		if err := l.store.Upsert(ctx, state); err != nil {
			l.logFailure(ctx, "upsert", state.Connection, err)
			continue
		}
		changes = append(changes, lowered{state: state, previous: previous})
	}
	l.mu.Unlock()

	for _, change := range changes {
		l.announce(ctx, change.state, change.previous, change.state.Session)
	}
	return len(changes), nil
}

// Store exposes the state store the limiter was built with.
func (l *VardiffLimiter) Store() StateStore {
	if l == nil {
		return nil
	}
	return l.store
}

func (l *VardiffLimiter) announce(ctx context.Context, state State, previous int, session *core.Session) {
	core.LogEvent(ctx, l.logger, "info", "difficulty changed", map[string]any{
		"event_type":      core.EventDifficultyChanged,
		"connection":      uint64(state.Connection),
		"from":            previous,
		"to":              state.Difficulty,
		"submission_rate": state.SubmissionRate,
	})
	if l.notify != nil {
		l.notify(ctx, state.Connection, session, state.Difficulty)
	}
	if l.reporter != nil {
		l.reporter.Report(ctx, core.EventDifficultyChanged, session)
	}
}

// Difficulty returns the connection's current difficulty, starting its
// bookkeeping when the connection is new.
func (l *VardiffLimiter) Difficulty(ctx context.Context, conn core.ConnectionHandle) (int, error) {
	if l == nil {
		return 0, errors.New("ratelimit: limiter is nil")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	state, err := l.loadLocked(ctx, conn, l.clock.Time())
	if err != nil {
		return 0, err
	}
	if err := l.store.Upsert(ctx, state); err != nil {
		return 0, err
	}
	return state.Difficulty, nil
}

// Forget drops the connection's state, typically on disconnect.
func (l *VardiffLimiter) Forget(ctx context.Context, conn core.ConnectionHandle) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Delete(ctx, conn)
}

func (l *VardiffLimiter) loadLocked(ctx context.Context, conn core.ConnectionHandle, now float64) (State, error) {
	// The startup window opens on the first reading the limiter takes.
	if !l.started {
		l.startedAt = now
		l.started = true
	}
	state, err := l.store.Get(ctx, conn)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, ErrStateNotFound) {
		return State{}, err
	}
	difficulty := l.limits.StartupDifficulty
	if now > l.startedAt+l.limits.StartupPeriod {
		difficulty = l.limits.DefaultDifficulty
	}
	state = State{
		Connection:      conn,
		Difficulty:      difficulty,
		DifficultySetAt: now,
		LastSubmit:      now,
	}
	resetCollection(&state, now)
	return state, nil
}

func (l *VardiffLimiter) recalculate(state *State, now float64) bool {
	secs := now - state.StartTime
	state.LastRecalculation = now
	if secs <= 0 || l.limits.TargetSubmissionRate <= 0 {
		return false
	}
	submits := float64(state.Submits)
	state.SubmissionRate = submits / secs
	expected := secs * l.limits.TargetSubmissionRate

	var ratio float64
	switch {
	case submits > expected*l.limits.MaxOKSubmitsRatio:
		ratio = l.limits.ChangeRatioUp
	case submits < expected*l.limits.MinOKSubmitsRatio && state.Difficulty > l.limits.MinimalDifficulty:
		ratio = l.limits.ChangeRatioDown
	default:
		if l.limits.FullCollectionPeriod > 0 && secs >= l.limits.FullCollectionPeriod {
			resetCollection(state, now)
		}
		return false
	}

	current := float64(state.Difficulty)
	ideal := current * state.SubmissionRate / l.limits.TargetSubmissionRate
	next := l.limits.Clamp(current + (ideal-current)*ratio)
	if next == state.Difficulty {
		return false
	}
	if next > state.Difficulty {
		state.ChangesUp++
	} else {
		state.ChangesDown++
	}
	state.Difficulty = next
	state.DifficultySetAt = now
	// Shares of different difficulties must not share a window.
	resetCollection(state, now)
	return true
}

func resetCollection(state *State, now float64) {
	state.Submits = 0
	state.StartTime = now
	state.LastRecalculation = now
}

func (l *VardiffLimiter) logFailure(ctx context.Context, op string, conn core.ConnectionHandle, err error) {
	core.LogEvent(ctx, l.logger, "error", "share limiter "+op+" failed", map[string]any{
		"event_type": "share_limiter",
		"connection": uint64(conn),
		"error":      err.Error(),
	})
}

var _ core.ShareLimiter = (*VardiffLimiter)(nil)
