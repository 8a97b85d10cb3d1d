package gojob

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-mining/core"
)

const (
	JobIDReport = "pool.report"

	// PolicyQueue selects the queue-backed reporter.
	PolicyQueue = "queue"
)

// ToExecutionMessage maps a report event to a go-job message.
func ToExecutionMessage(event core.ReportEvent) *job.ExecutionMessage {
	workers := make([]any, 0, len(event.Workers))
	for _, worker := range event.Workers {
		workers = append(workers, worker)
	}
	return &job.ExecutionMessage{
		JobID:      JobIDReport,
		ScriptPath: JobIDReport,
		Parameters: map[string]any{
			"event":       strings.TrimSpace(event.Name),
			"session_id":  uint64(event.SessionID),
			"connection":  uint64(event.Connection),
			"remote_addr": event.RemoteAddr,
			"workers":     workers,
			"runtime_id":  event.RuntimeID,
			"timestamp":   event.Timestamp,
		},
		IdempotencyKey: idempotencyKey(event),
	}
}

// FromExecutionMessage rebuilds a report event. Numeric parameters may
// arrive as any integer or float type depending on the queue encoding.
func FromExecutionMessage(msg *job.ExecutionMessage) (core.ReportEvent, error) {
	if msg == nil {
		return core.ReportEvent{}, fmt.Errorf("gojob: execution message is required")
	}
	if strings.TrimSpace(msg.JobID) != JobIDReport {
		return core.ReportEvent{}, fmt.Errorf("gojob: unexpected job id %q", msg.JobID)
	}
	params := msg.Parameters
	name, _ := params["event"].(string)
	if strings.TrimSpace(name) == "" {
		return core.ReportEvent{}, fmt.Errorf("gojob: report event name is required")
	}
	sessionID, ok := toUint64(params["session_id"])
	if !ok || sessionID > math.MaxUint32 {
		return core.ReportEvent{}, fmt.Errorf("gojob: invalid session_id %v", params["session_id"])
	}
	connection, _ := toUint64(params["connection"])
	timestamp, _ := toFloat64(params["timestamp"])
	remoteAddr, _ := params["remote_addr"].(string)
	runtimeID, _ := params["runtime_id"].(string)

	event := core.ReportEvent{
		Name:       strings.TrimSpace(name),
		SessionID:  core.SessionID(sessionID),
		Connection: core.ConnectionHandle(connection),
		RemoteAddr: remoteAddr,
		RuntimeID:  runtimeID,
		Timestamp:  timestamp,
	}
	switch workers := params["workers"].(type) {
	case []string:
		event.Workers = append([]string(nil), workers...)
	case []any:
		for _, raw := range workers {
			if worker, ok := raw.(string); ok {
				event.Workers = append(event.Workers, worker)
			}
		}
	}
	return event, nil
}

type ReporterOption func(*QueueReporter)

func WithRuntime(runtime core.RuntimeIdentity) ReporterOption {
	return func(r *QueueReporter) {
		r.runtime = runtime
	}
}

func WithClock(clock core.Timestamper) ReporterOption {
	return func(r *QueueReporter) {
		if clock != nil {
			r.clock = clock
		}
	}
}

func WithLogger(logger core.Logger) ReporterOption {
	return func(r *QueueReporter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// QueueReporter enqueues every report so a separate worker can deliver it
// without holding up the protocol layer.
type QueueReporter struct {
	enqueuer queue.Enqueuer
	runtime  core.RuntimeIdentity
	clock    core.Timestamper
	logger   core.Logger
}

func NewQueueReporter(enqueuer queue.Enqueuer, opts ...ReporterOption) *QueueReporter {
	r := &QueueReporter{
		enqueuer: enqueuer,
		clock:    core.WallClockTimestamper{},
		logger:   glog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *QueueReporter) Report(ctx context.Context, eventName string, session *core.Session) {
	if r == nil {
		return
	}
	event := core.NewReportEvent(eventName, session, r.runtime, r.clock)
	if err := r.enqueue(ctx, event); err != nil {
		core.LogEvent(ctx, r.logger, "warn", "report not enqueued", map[string]any{
			"event_type": event.Name,
			"session_id": uint32(event.SessionID),
			"error":      err.Error(),
		})
	}
}

func (r *QueueReporter) enqueue(ctx context.Context, event core.ReportEvent) error {
	if r.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	if event.Name == "" {
		return fmt.Errorf("gojob: report event name is required")
	}
	_, err := r.enqueuer.Enqueue(ctx, ToExecutionMessage(event))
	return err
}

// ReportRelay moves queued reports into a Reporter, one delivery per call.
type ReportRelay struct {
	dequeuer queue.Dequeuer
	sink     core.Reporter
	logger   core.Logger
}

func NewReportRelay(dequeuer queue.Dequeuer, sink core.Reporter) *ReportRelay {
	return &ReportRelay{dequeuer: dequeuer, sink: sink, logger: glog.Nop()}
}

func (r *ReportRelay) WithLogger(logger core.Logger) *ReportRelay {
	if r != nil && logger != nil {
		r.logger = logger
	}
	return r
}

// RelayOne dequeues a single delivery, hands it to the sink and acks it.
// Malformed messages are dead-lettered. A delivery whose context is already
// done is released for retry without reaching the sink.
func (r *ReportRelay) RelayOne(ctx context.Context) error {
	if r == nil || r.dequeuer == nil || r.sink == nil {
		return fmt.Errorf("gojob: report relay is not configured")
	}
	delivery, err := r.dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	event, err := FromExecutionMessage(delivery.Message())
	if err != nil {
		core.LogEvent(ctx, r.logger, "error", "malformed report dropped", map[string]any{
			"event_type": "report_relay",
			"error":      err.Error(),
		})
		return delivery.Nack(ctx, deadLetter(err.Error()))
	}
	if err := ctx.Err(); err != nil {
		return errors.Join(err, delivery.Nack(context.WithoutCancel(ctx), retryLater(err.Error())))
	}
	r.sink.Report(ctx, event.Name, event.Session())
	return delivery.Ack(ctx)
}

// Register adds the "queue" reporter policy to catalog, enqueueing on the
// given queue.
func Register(catalog *core.Catalog, enqueuer queue.Enqueuer) error {
	if catalog == nil {
		return fmt.Errorf("gojob: catalog is required")
	}
	if enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is required")
	}
	return catalog.Register(core.SlotReporter, PolicyQueue, func(env core.Env) (any, error) {
		opts := []ReporterOption{WithRuntime(env.Runtime), WithLogger(env.Logger)}
		if clock, ok := env.Registry.Timestamper(); ok {
			opts = append(opts, WithClock(clock))
		}
		return NewQueueReporter(enqueuer, opts...), nil
	})
}

func deadLetter(reason string) queue.NackOptions {
	return queue.NackOptions{
		Disposition: queue.NackDispositionDeadLetter,
		Reason:      strings.TrimSpace(reason),
	}
}

func retryLater(reason string) queue.NackOptions {
	return queue.NackOptions{
		Disposition: queue.NackDispositionRetry,
		Reason:      strings.TrimSpace(reason),
	}
}

func idempotencyKey(event core.ReportEvent) string {
	return strings.Join([]string{
		event.RuntimeID,
		strconv.FormatUint(uint64(event.SessionID), 10),
		event.Name,
		strconv.FormatFloat(event.Timestamp, 'f', -1, 64),
	}, ":")
}

func toUint64(value any) (uint64, bool) {
	switch typed := value.(type) {
	case uint64:
		return typed, true
	case uint32:
		return uint64(typed), true
	case uint:
		return uint64(typed), true
	case int:
		return uint64(typed), typed >= 0
	case int64:
		return uint64(typed), typed >= 0
	case float64:
		return uint64(typed), typed >= 0 && typed == math.Trunc(typed)
	}
	return 0, false
}

func toFloat64(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case uint64:
		return float64(typed), true
	}
	return 0, false
}

var _ core.Reporter = (*QueueReporter)(nil)
