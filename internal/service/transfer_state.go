// internal/service/transfer_state.go
package service

import (
	"github.com/google/uuid"

	"finflow-transfer/internal/util"
)

type transferStatus string

const (
	stateValidating transferStatus = "VALIDATING"
	stateReserved   transferStatus = "RESERVED"
	stateCommitted  transferStatus = "COMMITTED"
	stateRejected   transferStatus = "REJECTED"
	stateRolledBack transferStatus = "ROLLED_BACK"
)

// transferState tracks one transfer through the engine and logs each step.
type transferState struct {
	id      uuid.UUID
	current transferStatus
}

func newTransferState(id uuid.UUID) *transferState {
	return &transferState{id: id, current: stateValidating}
}

func (s *transferState) to(next transferStatus) {
	util.GetLogger().Debugw("Transfer state changed", "transaction_id", s.id, "from", s.current, "to", next)
	s.current = next
}
