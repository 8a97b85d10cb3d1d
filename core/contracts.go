package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

// WorkerManager decides whether a worker may open a mining session. It is
// called once per login attempt and must report failures as false.
type WorkerManager interface {
	Authorize(ctx context.Context, workerName string, workerPassword string) bool
}

// ShareLimiter is invoked once per submitted share. Implementations that
// adjust per-connection difficulty keep that state themselves.
type ShareLimiter interface {
	OnSubmitShare(ctx context.Context, conn ConnectionHandle, session *Session)
}

// ShareManager records round boundaries and share/block outcomes. The
// protocol layer must not accept shares before OnLoad resolves.
type ShareManager interface {
	OnNetworkBlock(ctx context.Context, prevHash string)
	OnSubmitShare(ctx context.Context, share ShareSubmission)
	OnSubmitBlock(ctx context.Context, block BlockSubmission)
	OnLoad() *Readiness[bool]
}

// Timestamper is the process-wide clock authority, in seconds since epoch.
type Timestamper interface {
	Time() float64
}

type IdsProvider interface {
	NewSessionID() SessionID
}

type Reporter interface {
	Report(ctx context.Context, eventName string, session *Session)
}

// Loader is implemented by policies that load external state before they
// are safe to use.
type Loader interface {
	OnLoad() *Readiness[bool]
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
