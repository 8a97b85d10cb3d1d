package command

import (
	"context"
	"fmt"
	"time"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/cron"
	"github.com/goliatone/go-mining/core"
)

// ScheduleIdleSweep runs RecalculateIdleCommand on scheduler every interval.
// The sweep reads time from the installed Timestamper; interval only paces it.
func ScheduleIdleSweep(scheduler *cron.Scheduler, registry *core.Registry, every time.Duration) (cron.Handle, error) {
	if scheduler == nil {
		return nil, commandDependencyError("command: scheduler is required")
	}
	if every <= 0 {
		return nil, commandValidationError("every", "sweep interval must be positive")
	}
	cmd := NewRecalculateIdleCommand(registry)
	return scheduler.ScheduleCron(gocmd.HandlerConfig{
		Expression: fmt.Sprintf("@every %s", every),
	}, func() error {
		return cmd.Execute(context.Background(), RecalculateIdleMessage{})
	})
}
