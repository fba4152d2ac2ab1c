package model

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusBusy        SlotStatus = "BUSY"
	SlotStatusSwappable   SlotStatus = "SWAPPABLE"
	SlotStatusSwapPending SlotStatus = "SWAP_PENDING"
)

// slotTransitions is the full availability state machine. Anything not
// listed here is an illegal transition.
var slotTransitions = map[SlotStatus][]SlotStatus{
	SlotStatusBusy:        {SlotStatusSwappable},
	SlotStatusSwappable:   {SlotStatusBusy, SlotStatusSwapPending},
	SlotStatusSwapPending: {SlotStatusBusy, SlotStatusSwappable},
}

// Valid reports whether s is a known availability status.
func (s SlotStatus) Valid() bool {
	switch s {
	case SlotStatusBusy, SlotStatusSwappable, SlotStatusSwapPending:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is allowed.
func (s SlotStatus) CanTransition(next SlotStatus) bool {
	for _, allowed := range slotTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Slot struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	Title     string     `json:"title"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
	Status    SlotStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Overlaps reports whether [start, end) intersects the slot's time range.
// Slots that merely touch at an endpoint do not overlap.
func (s *Slot) Overlaps(start, end time.Time) bool {
	return start.Before(s.EndTime) && end.After(s.StartTime)
}
