package model

import (
	"time"

	"github.com/google/uuid"
)

type SwapStatus string

const (
	SwapStatusPending  SwapStatus = "PENDING"
	SwapStatusAccepted SwapStatus = "ACCEPTED"
	SwapStatusRejected SwapStatus = "REJECTED"
)

// ACCEPTED and REJECTED are terminal; a resolved request never changes again.
var swapTransitions = map[SwapStatus][]SwapStatus{
	SwapStatusPending: {SwapStatusAccepted, SwapStatusRejected},
}

// Terminal reports whether the request can no longer change status.
func (s SwapStatus) Terminal() bool {
	return s == SwapStatusAccepted || s == SwapStatusRejected
}

// CanTransition reports whether moving from s to next is allowed.
func (s SwapStatus) CanTransition(next SwapStatus) bool {
	for _, allowed := range swapTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SwapRequest is one principal's offer to trade their slot for another
// principal's slot. While PENDING it is the sole authority over both
// referenced slots' SWAP_PENDING state.
type SwapRequest struct {
	ID          uuid.UUID  `json:"id"`
	RequesterID uuid.UUID  `json:"requester_id"`
	RecipientID uuid.UUID  `json:"recipient_id"`
	MySlotID    uuid.UUID  `json:"my_slot_id"`
	TheirSlotID uuid.UUID  `json:"their_slot_id"`
	Status      SwapStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Resolved for list views, not stored columns.
	Requester *User `json:"requester,omitempty"`
	Recipient *User `json:"recipient,omitempty"`
	MySlot    *Slot `json:"my_slot,omitempty"`
	TheirSlot *Slot `json:"their_slot,omitempty"`
}
