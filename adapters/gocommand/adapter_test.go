package gocommand

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goliatone/go-command"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-mining/core"
)

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(ReportMessage{ReportEvent: core.ReportEvent{Name: core.EventNewAuthorization}}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(ReportMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
}

func TestCommandReporter_ExecutesReportMessage(t *testing.T) {
	var got []ReportMessage
	cmd := command.CommandFunc[ReportMessage](func(_ context.Context, msg ReportMessage) error {
		got = append(got, msg)
		return nil
	})
	reporter := NewCommandReporter(cmd,
		WithRuntime(core.RuntimeIdentity{ID: "rt-7"}),
		WithClock(core.NewPredictableTimestamper()),
	)

	session := &core.Session{ID: 42, Connection: 3, RemoteAddr: " 10.0.0.9 ", Workers: []string{"alice.rig1"}}
	reporter.Report(context.Background(), core.EventNewAuthorization, session)
	session.Workers[0] = "mutated"

	if len(got) != 1 {
		t.Fatalf("expected one executed message, got %d", len(got))
	}
	msg := got[0]
	if msg.Type() != ReportMessageType {
		t.Fatalf("expected %q, got %q", ReportMessageType, msg.Type())
	}
	if msg.Name != core.EventNewAuthorization || msg.SessionID != 42 || msg.Connection != 3 {
		t.Fatalf("unexpected message identity: %+v", msg.ReportEvent)
	}
	if msg.RemoteAddr != "10.0.0.9" {
		t.Fatalf("expected trimmed remote address, got %q", msg.RemoteAddr)
	}
	if msg.RuntimeID != "rt-7" {
		t.Fatalf("expected runtime id, got %q", msg.RuntimeID)
	}
	if msg.Timestamp != core.PredictableStartTime+1 {
		t.Fatalf("expected timestamp from installed clock, got %v", msg.Timestamp)
	}
	if msg.Workers[0] != "alice.rig1" {
		t.Fatalf("expected message to hold a detached copy of workers, got %v", msg.Workers)
	}
}

func TestCommandReporter_LogsFailures(t *testing.T) {
	logger := &warnLogger{}
	cmd := command.CommandFunc[ReportMessage](func(context.Context, ReportMessage) error {
		return errors.New("sink offline")
	})
	reporter := NewCommandReporter(cmd, WithLogger(logger))

	reporter.Report(context.Background(), core.EventSessionDisconnected, &core.Session{ID: 1})
	reporter.Report(context.Background(), " ", &core.Session{ID: 2})

	if logger.count() != 2 {
		t.Fatalf("expected both failures to be logged, got %d", logger.count())
	}
}

func TestDispatchReporter_ReachesSubscribers(t *testing.T) {
	received := make(chan ReportMessage, 1)
	subscription := SubscribeReportsFunc(func(_ context.Context, msg ReportMessage) error {
		received <- msg
		return nil
	})
	defer subscription.Unsubscribe()

	reporter := NewDispatchReporter(WithRuntime(core.RuntimeIdentity{ID: "rt-dispatch"}))
	reporter.Report(context.Background(), core.EventNewSubscription, &core.Session{ID: 5})

	select {
	case msg := <-received:
		if msg.Name != core.EventNewSubscription || msg.RuntimeID != "rt-dispatch" {
			t.Fatalf("unexpected dispatched message %+v", msg.ReportEvent)
		}
	default:
		t.Fatalf("expected subscriber to receive the report")
	}
}

func TestRegister_CommandReporterThroughSetup(t *testing.T) {
	catalog := core.NewBuiltinCatalog()
	if err := Register(catalog); err != nil {
		t.Fatalf("register: %v", err)
	}
	registry, err := core.Setup(core.Config{Policies: core.PoliciesConfig{Reporter: PolicyCommand}},
		core.WithCatalog(catalog),
		core.WithRuntimeIdentity(core.RuntimeIdentity{ID: "rt-setup"}),
	)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	installed, _ := registry.Reporter()
	reporter, ok := installed.(*CommandReporter)
	if !ok {
		t.Fatalf("expected command reporter, got %T", installed)
	}
	if reporter.runtime.ID != "rt-setup" {
		t.Fatalf("expected runtime identity from setup, got %q", reporter.runtime.ID)
	}
}

var _ glog.Logger = (*warnLogger)(nil)

type warnLogger struct {
	mu    sync.Mutex
	warns int
}

func (l *warnLogger) Trace(string, ...any) {}
func (l *warnLogger) Debug(string, ...any) {}
func (l *warnLogger) Info(string, ...any)  {}
func (l *warnLogger) Error(string, ...any) {}
func (l *warnLogger) Fatal(string, ...any) {}

func (l *warnLogger) Warn(string, ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns++
}

func (l *warnLogger) WithContext(context.Context) glog.Logger { return l }

func (l *warnLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.warns
}
