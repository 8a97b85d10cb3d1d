package command

import (
	"context"
	"errors"
	"sync"
	"testing"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-mining/core"
)

type stubWorkerManager struct {
	allow map[string]string
}

func (m stubWorkerManager) Authorize(_ context.Context, name string, password string) bool {
	expected, ok := m.allow[name]
	return ok && expected == password
}

type recordingShareLimiter struct {
	mu    sync.Mutex
	conns []core.ConnectionHandle
}

func (l *recordingShareLimiter) OnSubmitShare(_ context.Context, conn core.ConnectionHandle, _ *core.Session) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.conns = append(l.conns, conn)
}

type forgettingShareLimiter struct {
	recordingShareLimiter
	forgotten []core.ConnectionHandle
	err       error
}

func (l *forgettingShareLimiter) Forget(_ context.Context, conn core.ConnectionHandle) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.forgotten = append(l.forgotten, conn)
	return l.err
}

type recordingShareManager struct {
	mu            sync.Mutex
	shares        []core.ShareSubmission
	blocks        []core.BlockSubmission
	networkBlocks []string
	load          *core.Readiness[bool]
}

func (m *recordingShareManager) OnNetworkBlock(_ context.Context, prevHash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.networkBlocks = append(m.networkBlocks, prevHash)
}

func (m *recordingShareManager) OnSubmitShare(_ context.Context, share core.ShareSubmission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shares = append(m.shares, share)
}

func (m *recordingShareManager) OnSubmitBlock(_ context.Context, block core.BlockSubmission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks = append(m.blocks, block)
}

func (m *recordingShareManager) OnLoad() *core.Readiness[bool] {
	if m.load != nil {
		return m.load
	}
	return core.Resolved(true)
}

type recordingReporter struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingReporter) Report(_ context.Context, eventName string, _ *core.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventName)
}

func newTestRegistry(t *testing.T) (*core.Registry, *recordingShareLimiter, *recordingShareManager, *recordingReporter) {
	t.Helper()
	return newTestRegistryWith(t, &recordingShareManager{})
}

func newTestRegistryWith(t *testing.T, manager *recordingShareManager) (*core.Registry, *recordingShareLimiter, *recordingShareManager, *recordingReporter) {
	t.Helper()
	limiter := &recordingShareLimiter{}
	reporter := &recordingReporter{}
	registry, err := core.Setup(core.Config{},
		core.WithInstance(core.SlotWorkerManager, stubWorkerManager{allow: map[string]string{"alice.rig1": "x"}}),
		core.WithInstance(core.SlotShareLimiter, limiter),
		core.WithInstance(core.SlotShareManager, manager),
		core.WithInstance(core.SlotReporter, reporter),
	)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	return registry, limiter, manager, reporter
}

func TestOpenSessionCommand_AllocatesSequentialIDs(t *testing.T) {
	registry, _, _, reporter := newTestRegistry(t)
	cmd := NewOpenSessionCommand(registry)

	for want := core.SessionID(1); want <= 2; want++ {
		collector := gocmd.NewResult[*core.Session]()
		ctx := gocmd.ContextWithResult(context.Background(), collector)
		if err := cmd.Execute(ctx, OpenSessionMessage{Connection: 9, RemoteAddr: "10.0.0.1"}); err != nil {
			t.Fatalf("execute open session: %v", err)
		}
		session, ok := collector.Load()
		if !ok {
			t.Fatalf("expected session result to be stored")
		}
		if session.ID != want || session.Connection != 9 || session.RemoteAddr != "10.0.0.1" {
			t.Fatalf("unexpected session: %#v", session)
		}
	}
	if len(reporter.events) != 2 || reporter.events[0] != core.EventNewSubscription {
		t.Fatalf("expected subscription reports, got %v", reporter.events)
	}
}

func TestCloseSessionCommand_ForgetsConnectionAndReports(t *testing.T) {
	limiter := &forgettingShareLimiter{}
	reporter := &recordingReporter{}
	registry, err := core.Setup(core.Config{},
		core.WithInstance(core.SlotShareLimiter, limiter),
		core.WithInstance(core.SlotReporter, reporter),
	)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	cmd := NewCloseSessionCommand(registry)
	if err := cmd.Execute(context.Background(), CloseSessionMessage{Connection: 6, Session: &core.Session{ID: 3, Connection: 6}}); err != nil {
		t.Fatalf("execute close session: %v", err)
	}
	if len(limiter.forgotten) != 1 || limiter.forgotten[0] != 6 {
		t.Fatalf("expected connection 6 to be forgotten, got %v", limiter.forgotten)
	}
	if len(reporter.events) != 1 || reporter.events[0] != core.EventSessionDisconnected {
		t.Fatalf("expected disconnect report, got %v", reporter.events)
	}
}

func TestCloseSessionCommand_ReportsEvenWhenForgetFails(t *testing.T) {
	limiter := &forgettingShareLimiter{err: errors.New("store down")}
	reporter := &recordingReporter{}
	registry, err := core.Setup(core.Config{},
		core.WithInstance(core.SlotShareLimiter, limiter),
		core.WithInstance(core.SlotReporter, reporter),
	)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	err = NewCloseSessionCommand(registry).Execute(context.Background(), CloseSessionMessage{Connection: 6})
	if err == nil {
		t.Fatalf("expected forget failure to surface")
	}
	if len(reporter.events) != 1 {
		t.Fatalf("expected disconnect to be reported anyway, got %v", reporter.events)
	}
}

func TestCloseSessionCommand_LimiterWithoutStateIsFine(t *testing.T) {
	registry, limiter, _, reporter := newTestRegistry(t)
	if err := NewCloseSessionCommand(registry).Execute(context.Background(), CloseSessionMessage{Connection: 2}); err != nil {
		t.Fatalf("execute close session: %v", err)
	}
	if len(limiter.conns) != 0 || len(reporter.events) != 1 {
		t.Fatalf("expected only a disconnect report, got limiter=%v reports=%v", limiter.conns, reporter.events)
	}
}

func TestAuthorizeWorkerCommand_StoresDecision(t *testing.T) {
	registry, _, _, reporter := newTestRegistry(t)
	cmd := NewAuthorizeWorkerCommand(registry)
	session := &core.Session{ID: 1, Connection: 9}

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{name: "alice.rig1", password: "x", want: true},
		{name: "alice.rig1", password: "wrong", want: false},
		{name: "bob.rig1", password: "x", want: false},
	}
	for _, tc := range tests {
		collector := gocmd.NewResult[bool]()
		ctx := gocmd.ContextWithResult(context.Background(), collector)
		msg := AuthorizeWorkerMessage{Session: session, WorkerName: tc.name, WorkerPassword: tc.password}
		if err := cmd.Execute(ctx, msg); err != nil {
			t.Fatalf("execute authorize: %v", err)
		}
		got, ok := collector.Load()
		if !ok || got != tc.want {
			t.Fatalf("%s/%s: expected %v, got %v (stored=%v)", tc.name, tc.password, tc.want, got, ok)
		}
	}
	if len(session.Workers) != 1 || session.Workers[0] != "alice.rig1" {
		t.Fatalf("expected only the authorized worker on the session, got %v", session.Workers)
	}
	if len(reporter.events) != 1 || reporter.events[0] != core.EventNewAuthorization {
		t.Fatalf("expected one authorization report, got %v", reporter.events)
	}
}

func TestAuthorizeWorkerCommand_ReauthorizeKeepsWorkersUnique(t *testing.T) {
	registry, _, _, reporter := newTestRegistry(t)
	cmd := NewAuthorizeWorkerCommand(registry)
	session := &core.Session{ID: 1, Connection: 9}
	msg := AuthorizeWorkerMessage{Session: session, WorkerName: "alice.rig1", WorkerPassword: "x"}

	for i := 0; i < 3; i++ {
		collector := gocmd.NewResult[bool]()
		ctx := gocmd.ContextWithResult(context.Background(), collector)
		if err := cmd.Execute(ctx, msg); err != nil {
			t.Fatalf("execute authorize: %v", err)
		}
		if got, _ := collector.Load(); !got {
			t.Fatalf("expected attempt %d to stay authorized", i)
		}
	}
	if len(session.Workers) != 1 {
		t.Fatalf("expected a single worker entry, got %v", session.Workers)
	}
	if len(reporter.events) != 1 {
		t.Fatalf("expected one authorization report, got %v", reporter.events)
	}
}

func TestSubmitShareCommand_LimiterThenManager(t *testing.T) {
	registry, limiter, manager, _ := newTestRegistry(t)
	cmd := NewSubmitShareCommand(registry)
	msg := SubmitShareMessage{
		Connection: 4,
		Session:    &core.Session{ID: 2, Connection: 4},
		Share:      core.ShareSubmission{WorkerName: "alice.rig1", BlockHash: "00ab", Valid: true},
	}
	if err := cmd.Execute(context.Background(), msg); err != nil {
		t.Fatalf("execute submit share: %v", err)
	}
	if len(limiter.conns) != 1 || limiter.conns[0] != 4 {
		t.Fatalf("expected limiter to see connection 4, got %v", limiter.conns)
	}
	if len(manager.shares) != 1 || manager.shares[0].BlockHash != "00ab" {
		t.Fatalf("expected share to be recorded, got %#v", manager.shares)
	}
}

func TestBlockCommands_DelegateToShareManager(t *testing.T) {
	registry, _, manager, _ := newTestRegistry(t)
	ctx := context.Background()

	if err := NewNetworkBlockCommand(registry).Execute(ctx, NetworkBlockMessage{PrevHash: "prev"}); err != nil {
		t.Fatalf("execute network block: %v", err)
	}
	block := core.BlockSubmission{Accepted: true, WorkerName: "alice.rig1", BlockHash: "0000f"}
	if err := NewSubmitBlockCommand(registry).Execute(ctx, SubmitBlockMessage{Block: block}); err != nil {
		t.Fatalf("execute submit block: %v", err)
	}
	if len(manager.networkBlocks) != 1 || manager.networkBlocks[0] != "prev" {
		t.Fatalf("unexpected network blocks: %v", manager.networkBlocks)
	}
	if len(manager.blocks) != 1 || !manager.blocks[0].Accepted {
		t.Fatalf("unexpected blocks: %#v", manager.blocks)
	}
}
