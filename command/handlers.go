// Package command exposes the registry's policies as go-command handlers so a
// protocol layer can drive them through a dispatcher.
package command

import (
	"context"
	"slices"

	gocmd "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-mining/core"
)

// OpenSessionCommand allocates a session id and stores the new session as the
// command result.
type OpenSessionCommand struct {
	registry *core.Registry
}

func NewOpenSessionCommand(registry *core.Registry) *OpenSessionCommand {
	return &OpenSessionCommand{registry: registry}
}

func (c *OpenSessionCommand) Execute(ctx context.Context, msg OpenSessionMessage) error {
	if c == nil || c.registry == nil {
		return commandDependencyError("command: registry is required")
	}
	ids, ok := c.registry.IdsProvider()
	if !ok {
		return commandDependencyError("command: ids provider is not installed")
	}
	session := &core.Session{
		ID:         ids.NewSessionID(),
		Connection: msg.Connection,
		RemoteAddr: msg.RemoteAddr,
	}
	report(ctx, c.registry, core.EventNewSubscription, session)
	storeResult(ctx, session)
	return nil
}

// connectionForgetter is implemented by share limiters that keep
// per-connection state.
type connectionForgetter interface {
	Forget(ctx context.Context, conn core.ConnectionHandle) error
}

// CloseSessionCommand drops the share limiter's state for the connection and
// reports the disconnect.
type CloseSessionCommand struct {
	registry *core.Registry
}

func NewCloseSessionCommand(registry *core.Registry) *CloseSessionCommand {
	return &CloseSessionCommand{registry: registry}
}

func (c *CloseSessionCommand) Execute(ctx context.Context, msg CloseSessionMessage) error {
	if c == nil || c.registry == nil {
		return commandDependencyError("command: registry is required")
	}
	var forgetErr error
	if limiter, ok := c.registry.ShareLimiter(); ok {
		if forgetter, ok := limiter.(connectionForgetter); ok {
			if err := forgetter.Forget(ctx, msg.Connection); err != nil {
				forgetErr = goerrors.Wrap(err, goerrors.CategoryInternal, "command: share limiter forget failed").
					WithTextCode(core.PoolErrorInternal)
			}
		}
	}
	report(ctx, c.registry, core.EventSessionDisconnected, msg.Session)
	return forgetErr
}

// AuthorizeWorkerCommand stores the worker manager's decision. Authorized
// workers are appended to the session once; re-authorizing a worker the
// session already carries is not reported again.
type AuthorizeWorkerCommand struct {
	registry *core.Registry
}

func NewAuthorizeWorkerCommand(registry *core.Registry) *AuthorizeWorkerCommand {
	return &AuthorizeWorkerCommand{registry: registry}
}

func (c *AuthorizeWorkerCommand) Execute(ctx context.Context, msg AuthorizeWorkerMessage) error {
	if c == nil || c.registry == nil {
		return commandDependencyError("command: registry is required")
	}
	manager, ok := c.registry.WorkerManager()
	if !ok {
		return commandDependencyError("command: worker manager is not installed")
	}
	authorized := manager.Authorize(ctx, msg.WorkerName, msg.WorkerPassword)
	if authorized && msg.Session != nil && !slices.Contains(msg.Session.Workers, msg.WorkerName) {
		msg.Session.Workers = append(msg.Session.Workers, msg.WorkerName)
		report(ctx, c.registry, core.EventNewAuthorization, msg.Session)
	}
	storeResult(ctx, authorized)
	return nil
}

// SubmitShareCommand runs the share limiter before the share manager records
// the outcome. Shares are refused until the share manager has loaded.
type SubmitShareCommand struct {
	registry *core.Registry
}

func NewSubmitShareCommand(registry *core.Registry) *SubmitShareCommand {
	return &SubmitShareCommand{registry: registry}
}

func (c *SubmitShareCommand) Execute(ctx context.Context, msg SubmitShareMessage) error {
	if c == nil || c.registry == nil {
		return commandDependencyError("command: registry is required")
	}
	limiter, ok := c.registry.ShareLimiter()
	if !ok {
		return commandDependencyError("command: share limiter is not installed")
	}
	manager, ok := c.registry.ShareManager()
	if !ok {
		return commandDependencyError("command: share manager is not installed")
	}
	if err := requireLoaded(manager); err != nil {
		return err
	}
	limiter.OnSubmitShare(ctx, msg.Connection, msg.Session)
	manager.OnSubmitShare(ctx, msg.Share)
	return nil
}

type SubmitBlockCommand struct {
	registry *core.Registry
}

func NewSubmitBlockCommand(registry *core.Registry) *SubmitBlockCommand {
	return &SubmitBlockCommand{registry: registry}
}

func (c *SubmitBlockCommand) Execute(ctx context.Context, msg SubmitBlockMessage) error {
	if c == nil || c.registry == nil {
		return commandDependencyError("command: registry is required")
	}
	manager, ok := c.registry.ShareManager()
	if !ok {
		return commandDependencyError("command: share manager is not installed")
	}
	if err := requireLoaded(manager); err != nil {
		return err
	}
	manager.OnSubmitBlock(ctx, msg.Block)
	return nil
}

type NetworkBlockCommand struct {
	registry *core.Registry
}

func NewNetworkBlockCommand(registry *core.Registry) *NetworkBlockCommand {
	return &NetworkBlockCommand{registry: registry}
}

func (c *NetworkBlockCommand) Execute(ctx context.Context, msg NetworkBlockMessage) error {
	if c == nil || c.registry == nil {
		return commandDependencyError("command: registry is required")
	}
	manager, ok := c.registry.ShareManager()
	if !ok {
		return commandDependencyError("command: share manager is not installed")
	}
	manager.OnNetworkBlock(ctx, msg.PrevHash)
	return nil
}

type idleRecalculator interface {
	RecalculateIdle(ctx context.Context) (int, error)
}

// RecalculateIdleCommand runs the share limiter's idle sweep and stores how
// many connections changed. Limiters without per-connection state store 0.
type RecalculateIdleCommand struct {
	registry *core.Registry
}

func NewRecalculateIdleCommand(registry *core.Registry) *RecalculateIdleCommand {
	return &RecalculateIdleCommand{registry: registry}
}

func (c *RecalculateIdleCommand) Execute(ctx context.Context, _ RecalculateIdleMessage) error {
	if c == nil || c.registry == nil {
		return commandDependencyError("command: registry is required")
	}
	limiter, ok := c.registry.ShareLimiter()
	if !ok {
		return commandDependencyError("command: share limiter is not installed")
	}
	sweeper, ok := limiter.(idleRecalculator)
	if !ok {
		storeResult(ctx, 0)
		return nil
	}
	changed, err := sweeper.RecalculateIdle(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "command: idle recalculation failed").
			WithTextCode(core.PoolErrorInternal)
	}
	storeResult(ctx, changed)
	return nil
}

func requireLoaded(manager core.ShareManager) error {
	if signal := manager.OnLoad(); signal != nil && !signal.IsReady() {
		return commandNotReadyError("command: share manager has not finished loading")
	}
	return nil
}

func report(ctx context.Context, registry *core.Registry, event string, session *core.Session) {
	reporter, ok := registry.Reporter()
	if !ok {
		return
	}
	reporter.Report(ctx, event, session)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
