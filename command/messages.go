package command

import (
	"strings"

	"github.com/goliatone/go-mining/core"
)

const (
	TypeOpenSession     = "pool.command.session.open"
	TypeCloseSession    = "pool.command.session.close"
	TypeAuthorizeWorker = "pool.command.worker.authorize"
	TypeSubmitShare     = "pool.command.share.submit"
	TypeSubmitBlock     = "pool.command.block.submit"
	TypeNetworkBlock    = "pool.command.block.network"
	TypeRecalculateIdle = "pool.command.limiter.idle"
)

type OpenSessionMessage struct {
	Connection core.ConnectionHandle
	RemoteAddr string
}

func (OpenSessionMessage) Type() string { return TypeOpenSession }

func (m OpenSessionMessage) Validate() error {
	if m.Connection == 0 {
		return commandValidationError("connection", "connection handle is required")
	}
	return nil
}

type CloseSessionMessage struct {
	Connection core.ConnectionHandle
	Session    *core.Session
}

func (CloseSessionMessage) Type() string { return TypeCloseSession }

func (m CloseSessionMessage) Validate() error {
	if m.Connection == 0 {
		return commandValidationError("connection", "connection handle is required")
	}
	return nil
}

type AuthorizeWorkerMessage struct {
	Session        *core.Session
	WorkerName     string
	WorkerPassword string
}

func (AuthorizeWorkerMessage) Type() string { return TypeAuthorizeWorker }

func (m AuthorizeWorkerMessage) Validate() error {
	if strings.TrimSpace(m.WorkerName) == "" {
		return commandValidationError("worker_name", "worker name is required")
	}
	return nil
}

type SubmitShareMessage struct {
	Connection core.ConnectionHandle
	Session    *core.Session
	Share      core.ShareSubmission
}

func (SubmitShareMessage) Type() string { return TypeSubmitShare }

func (m SubmitShareMessage) Validate() error {
	if m.Session == nil {
		return commandValidationError("session", "session is required")
	}
	if strings.TrimSpace(m.Share.WorkerName) == "" {
		return commandValidationError("worker_name", "worker name is required")
	}
	return nil
}

type SubmitBlockMessage struct {
	Block core.BlockSubmission
}

func (SubmitBlockMessage) Type() string { return TypeSubmitBlock }

func (m SubmitBlockMessage) Validate() error {
	if strings.TrimSpace(m.Block.BlockHash) == "" {
		return commandValidationError("block_hash", "block hash is required")
	}
	return nil
}

type NetworkBlockMessage struct {
	PrevHash string
}

func (NetworkBlockMessage) Type() string { return TypeNetworkBlock }

func (m NetworkBlockMessage) Validate() error {
	if strings.TrimSpace(m.PrevHash) == "" {
		return commandValidationError("prev_hash", "previous block hash is required")
	}
	return nil
}

type RecalculateIdleMessage struct{}

func (RecalculateIdleMessage) Type() string { return TypeRecalculateIdle }
