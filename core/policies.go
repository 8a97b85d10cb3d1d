package core

import (
	"context"
	"strings"
)

// OpenWorkerManager authorizes every worker.
type OpenWorkerManager struct {
	onLoad *Readiness[bool]
}

func NewOpenWorkerManager() *OpenWorkerManager {
	return &OpenWorkerManager{onLoad: Resolved(true)}
}

func (*OpenWorkerManager) Authorize(context.Context, string, string) bool {
	return true
}

func (m *OpenWorkerManager) OnLoad() *Readiness[bool] {
	if m == nil || m.onLoad == nil {
		return Resolved(true)
	}
	return m.onLoad
}

type NopShareLimiter struct{}

func (NopShareLimiter) OnSubmitShare(context.Context, ConnectionHandle, *Session) {}

type NopReporter struct{}

func (NopReporter) Report(context.Context, string, *Session) {}

// LoggingShareManager writes one log entry per share and block outcome and
// keeps no round state.
type LoggingShareManager struct {
	logger Logger
	onLoad *Readiness[bool]
}

func NewLoggingShareManager(logger Logger) *LoggingShareManager {
	return &LoggingShareManager{
		logger: resolveLogger("share_manager", logger),
		onLoad: Resolved(true),
	}
}

func (*LoggingShareManager) OnNetworkBlock(context.Context, string) {}

func (m *LoggingShareManager) OnSubmitShare(ctx context.Context, share ShareSubmission) {
	if m == nil {
		return
	}
	status := "INVALID"
	if share.Valid {
		status = "valid"
	}
	LogEvent(ctx, m.logger, "info", strings.Join([]string{share.BlockHash, status, share.WorkerName}, " "), map[string]any{
		"event_type":  "share",
		"block_hash":  share.BlockHash,
		"worker_name": share.WorkerName,
		"remote_addr": share.RemoteAddr,
		"difficulty":  share.Difficulty,
		"valid":       share.Valid,
	})
}

func (m *LoggingShareManager) OnSubmitBlock(ctx context.Context, block BlockSubmission) {
	if m == nil {
		return
	}
	status := "REJECTED"
	if block.Accepted {
		status = "ACCEPTED"
	}
	LogEvent(ctx, m.logger, "info", "Block "+block.BlockHash+" "+status, map[string]any{
		"event_type":  "block",
		"block_hash":  block.BlockHash,
		"worker_name": block.WorkerName,
		"accepted":    block.Accepted,
	})
}

func (m *LoggingShareManager) OnLoad() *Readiness[bool] {
	if m == nil || m.onLoad == nil {
		return Resolved(true)
	}
	return m.onLoad
}

// LoggingReporter emits every reported event as a debug entry.
type LoggingReporter struct {
	logger  Logger
	runtime RuntimeIdentity
}

func NewLoggingReporter(logger Logger, runtime RuntimeIdentity) *LoggingReporter {
	return &LoggingReporter{logger: resolveLogger("reporter", logger), runtime: runtime}
}

func (r *LoggingReporter) Report(ctx context.Context, eventName string, session *Session) {
	if r == nil {
		return
	}
	fields := map[string]any{
		"event_type": strings.TrimSpace(eventName),
		"runtime_id": r.runtime.ID,
	}
	if session != nil {
		fields["session_id"] = uint32(session.ID)
		fields["remote_addr"] = session.RemoteAddr
	}
	LogEvent(ctx, r.logger, "debug", "report "+strings.TrimSpace(eventName), fields)
}
