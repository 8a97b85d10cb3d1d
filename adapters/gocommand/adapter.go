package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-mining/core"
)

const (
	ReportMessageType = "pool.report"

	// PolicyCommand selects the dispatcher-backed reporter.
	PolicyCommand = "command"
)

// ReportMessage carries one Reporter call through go-command.
type ReportMessage struct {
	core.ReportEvent
}

func (ReportMessage) Type() string { return ReportMessageType }

func (m ReportMessage) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("gocommand: report event name is required")
	}
	return nil
}

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type ReporterOption func(*CommandReporter)

func WithRuntime(runtime core.RuntimeIdentity) ReporterOption {
	return func(r *CommandReporter) {
		r.runtime = runtime
	}
}

func WithClock(clock core.Timestamper) ReporterOption {
	return func(r *CommandReporter) {
		if clock != nil {
			r.clock = clock
		}
	}
}

func WithLogger(logger core.Logger) ReporterOption {
	return func(r *CommandReporter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// CommandReporter turns Report calls into ReportMessage executions.
// Reporter has no error path, so failures are logged and dropped.
type CommandReporter struct {
	commander command.Commander[ReportMessage]
	runtime   core.RuntimeIdentity
	clock     core.Timestamper
	logger    core.Logger
}

func NewCommandReporter(commander command.Commander[ReportMessage], opts ...ReporterOption) *CommandReporter {
	r := &CommandReporter{
		commander: commander,
		clock:     core.WallClockTimestamper{},
		logger:    glog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// NewDispatchReporter publishes reports on the go-command dispatcher, where
// any handler added with SubscribeReports receives them.
func NewDispatchReporter(opts ...ReporterOption) *CommandReporter {
	return NewCommandReporter(dispatchCommander{}, opts...)
}

func (r *CommandReporter) Report(ctx context.Context, eventName string, session *core.Session) {
	if r == nil || r.commander == nil {
		return
	}
	msg := ReportMessage{ReportEvent: core.NewReportEvent(eventName, session, r.runtime, r.clock)}
	if err := ValidateMessageContract(msg); err != nil {
		r.logFailure(ctx, msg, err)
		return
	}
	if err := r.commander.Execute(ctx, msg); err != nil {
		r.logFailure(ctx, msg, err)
	}
}

func (r *CommandReporter) logFailure(ctx context.Context, msg ReportMessage, err error) {
	core.LogEvent(ctx, r.logger, "warn", "report dropped", map[string]any{
		"event_type": msg.Name,
		"session_id": uint32(msg.SessionID),
		"runtime_id": msg.RuntimeID,
		"error":      err.Error(),
	})
}

type dispatchCommander struct{}

func (dispatchCommander) Execute(ctx context.Context, msg ReportMessage) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func SubscribeReports(handler command.Commander[ReportMessage], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(handler, runnerOpts...)
}

func SubscribeReportsFunc(handler command.CommandFunc[ReportMessage], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(handler, runnerOpts...)
}

// Register adds the "command" reporter policy to catalog.
func Register(catalog *core.Catalog) error {
	if catalog == nil {
		return fmt.Errorf("gocommand: catalog is required")
	}
	return catalog.Register(core.SlotReporter, PolicyCommand, func(env core.Env) (any, error) {
		opts := []ReporterOption{WithRuntime(env.Runtime), WithLogger(env.Logger)}
		if clock, ok := env.Registry.Timestamper(); ok {
			opts = append(opts, WithClock(clock))
		}
		return NewDispatchReporter(opts...), nil
	})
}

var (
	_ core.Reporter                    = (*CommandReporter)(nil)
	_ command.Commander[ReportMessage] = dispatchCommander{}
	_ command.Message                  = ReportMessage{}
)
