package core

import (
	"context"
	"strings"
)

// Report event names the protocol layer emits.
const (
	EventNewSubscription     = "new_subscription"
	EventNewAuthorization    = "new_authorization"
	EventSessionDisconnected = "session_disconnected"
	EventDifficultyChanged   = "difficulty_changed"
	EventWorkerStatsChanged  = "worker_stats_changed"
)

// ReportEvent is a detached copy of one Reporter call, safe to hand to
// queues and command handlers after the session moves on.
type ReportEvent struct {
	Name       string
	SessionID  SessionID
	Connection ConnectionHandle
	RemoteAddr string
	Workers    []string
	RuntimeID  string
	Timestamp  float64
}

func NewReportEvent(name string, session *Session, runtime RuntimeIdentity, ts Timestamper) ReportEvent {
	event := ReportEvent{
		Name:      strings.TrimSpace(name),
		RuntimeID: runtime.ID,
	}
	if ts != nil {
		event.Timestamp = ts.Time()
	}
	if session != nil {
		event.SessionID = session.ID
		event.Connection = session.Connection
		event.RemoteAddr = strings.TrimSpace(session.RemoteAddr)
		event.Workers = append([]string(nil), session.Workers...)
	}
	return event
}

// Session rebuilds the session view carried by the event.
func (e ReportEvent) Session() *Session {
	return &Session{
		ID:         e.SessionID,
		Connection: e.Connection,
		RemoteAddr: e.RemoteAddr,
		Workers:    append([]string(nil), e.Workers...),
	}
}

// FilteredReporter forwards the events Allow accepts to Reporter.
type FilteredReporter struct {
	Reporter Reporter
	Allow    func(eventName string) bool
}

func (r *FilteredReporter) Report(ctx context.Context, eventName string, session *Session) {
	if r == nil || r.Reporter == nil {
		return
	}
	if r.Allow != nil && !r.Allow(eventName) {
		return
	}
	r.Reporter.Report(ctx, eventName, session)
}
