// Package store defines the persistence contract consumed by the services.
// Implementations live in the postgres and memory subpackages.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"slotswap/internal/model"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("store: record not found")
	// ErrStale is returned by a conditional update when the record's
	// current state no longer matches the expected state.
	ErrStale = errors.New("store: expected state did not match")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("store: duplicate record")
)

// SlotFilter narrows ListSlotsByOwner. Nil fields are ignored.
type SlotFilter struct {
	Status *model.SlotStatus
	From   *time.Time
	To     *time.Time
}

// Tx is the set of operations available inside one unit of work. Every
// mutation is conditional on the record's expected state so that concurrent
// transitions cannot race past each other.
type Tx interface {
	GetSlot(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	UpdateSlotStatus(ctx context.Context, id uuid.UUID, next, expected model.SlotStatus) error
	UpdateSlotOwnerAndStatus(ctx context.Context, id, newOwner uuid.UUID, next, expected model.SlotStatus) error

	CreateSwapRequest(ctx context.Context, req *model.SwapRequest) error
	GetSwapRequest(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error)
	UpdateSwapRequestStatus(ctx context.Context, id uuid.UUID, next, expected model.SwapStatus) error
}

// Store is the full persistence surface. InTx runs fn as a single atomic
// unit: if fn returns an error every write made through its Tx is discarded.
type Store interface {
	Tx

	InTx(ctx context.Context, fn func(tx Tx) error) error

	CreateSlot(ctx context.Context, slot *model.Slot) error
	UpdateSlot(ctx context.Context, slot *model.Slot) error
	DeleteSlot(ctx context.Context, id uuid.UUID) error
	ListSlotsByOwner(ctx context.Context, ownerID uuid.UUID, filter SlotFilter) ([]*model.Slot, error)
	// ListSwappableSlots returns SWAPPABLE slots not owned by exceptOwner,
	// optionally bounded by start time, ordered by start time ascending.
	ListSwappableSlots(ctx context.Context, exceptOwner uuid.UUID, from, to *time.Time) ([]*model.Slot, error)
	// FindOverlappingSlots returns the owner's slots whose time range
	// intersects [start, end), excluding the slot with id exclude
	// (uuid.Nil to exclude nothing).
	FindOverlappingSlots(ctx context.Context, ownerID uuid.UUID, start, end time.Time, exclude uuid.UUID) ([]*model.Slot, error)

	// ListIncomingRequests returns PENDING requests addressed to recipient,
	// newest first, with requester and slot summaries resolved.
	ListIncomingRequests(ctx context.Context, recipientID uuid.UUID) ([]*model.SwapRequest, error)
	// ListOutgoingRequests returns all requests made by requester, any
	// status, newest first, with recipient and slot summaries resolved.
	ListOutgoingRequests(ctx context.Context, requesterID uuid.UUID) ([]*model.SwapRequest, error)

	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}
