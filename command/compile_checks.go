package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[OpenSessionMessage]     = (*OpenSessionCommand)(nil)
	_ gocmd.Commander[CloseSessionMessage]    = (*CloseSessionCommand)(nil)
	_ gocmd.Commander[AuthorizeWorkerMessage] = (*AuthorizeWorkerCommand)(nil)
	_ gocmd.Commander[SubmitShareMessage]     = (*SubmitShareCommand)(nil)
	_ gocmd.Commander[SubmitBlockMessage]     = (*SubmitBlockCommand)(nil)
	_ gocmd.Commander[NetworkBlockMessage]    = (*NetworkBlockCommand)(nil)
	_ gocmd.Commander[RecalculateIdleMessage] = (*RecalculateIdleCommand)(nil)
)
