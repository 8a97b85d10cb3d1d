package core

import (
	"fmt"
	"strings"
)

// ConnectionHandle is an opaque, non-owning reference to a protocol
// connection. Policies may key state by it but cannot reach or retain the
// connection itself.
type ConnectionHandle uint64

// SessionID is a session identifier issued by an IdsProvider.
type SessionID uint32

type Session struct {
	ID         SessionID
	Connection ConnectionHandle
	RemoteAddr string
	Workers    []string
}

func (s *Session) String() string {
	if s == nil {
		return "<nil session>"
	}
	return fmt.Sprintf("%s:%d", strings.TrimSpace(s.RemoteAddr), s.ID)
}

type ShareSubmission struct {
	WorkerName  string
	RemoteAddr  string
	BlockHeader string
	BlockHash   string
	Difficulty  float64
	Timestamp   float64
	Valid       bool
}

type BlockSubmission struct {
	Accepted    bool
	WorkerName  string
	BlockHeader string
	BlockHash   string
	Timestamp   float64
}

type Slot string

const (
	SlotWorkerManager    Slot = "worker_manager"
	SlotShareManager     Slot = "share_manager"
	SlotShareLimiter     Slot = "share_limiter"
	SlotTimestamper      Slot = "timestamper"
	SlotIdsProvider      Slot = "ids_provider"
	SlotReporter         Slot = "reporter"
	SlotTemplateRegistry Slot = "template_registry"
	SlotShareSink        Slot = "share_sink"
	SlotAdmin            Slot = "admin"
)

// CapabilitySlots are the slots with a contract and a default implementation.
var CapabilitySlots = []Slot{
	SlotTimestamper,
	SlotIdsProvider,
	SlotReporter,
	SlotWorkerManager,
	SlotShareManager,
	SlotShareLimiter,
}

// CollaboratorSlots hold opaque external collaborators with no contract here.
var CollaboratorSlots = []Slot{
	SlotTemplateRegistry,
	SlotShareSink,
	SlotAdmin,
}

func ParseSlot(raw string) (Slot, error) {
	slot := Slot(strings.ToLower(strings.TrimSpace(raw)))
	if !slot.Valid() {
		return "", slotUnknownError(raw)
	}
	return slot, nil
}

func (s Slot) Valid() bool {
	switch s {
	case SlotWorkerManager, SlotShareManager, SlotShareLimiter, SlotTimestamper,
		SlotIdsProvider, SlotReporter, SlotTemplateRegistry, SlotShareSink, SlotAdmin:
		return true
	default:
		return false
	}
}

func (s Slot) String() string {
	return string(s)
}
