package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"slotswap/internal/apperr"
	"slotswap/internal/model"
	"slotswap/internal/store"
)

const maxTitleLength = 100

// SlotService manages calendar slots: CRUD for the owner and the
// marketplace listing of other users' swappable slots. It never touches a
// slot that a pending swap holds in SWAP_PENDING; those belong to the
// swap engine alone.
type SlotService struct {
	store  store.Store
	logger *zap.Logger
}

func NewSlotService(st store.Store, logger *zap.Logger) *SlotService {
	return &SlotService{
		store:  st,
		logger: logger,
	}
}

type CreateSlotInput struct {
	Title     string
	StartTime time.Time
	EndTime   time.Time
	Status    model.SlotStatus
}

type UpdateSlotInput struct {
	Title     *string
	StartTime *time.Time
	EndTime   *time.Time
	Status    *model.SlotStatus
}

// Create adds a slot to the actor's calendar. The status defaults to BUSY
// and may not be SWAP_PENDING; the time range must not overlap any of the
// actor's existing slots.
func (s *SlotService) Create(ctx context.Context, actorID uuid.UUID, input CreateSlotInput) (*model.Slot, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperr.InvalidArgument("title is required")
	}
	if len(title) > maxTitleLength {
		return nil, apperr.InvalidArgument("title cannot exceed %d characters", maxTitleLength)
	}
	if !input.EndTime.After(input.StartTime) {
		return nil, apperr.InvalidArgument("end time must be after start time")
	}

	status := input.Status
	if status == "" {
		status = model.SlotStatusBusy
	}
	if status == model.SlotStatusSwapPending {
		return nil, apperr.InvalidArgument("a slot cannot be created in SWAP_PENDING state")
	}
	if !status.Valid() {
		return nil, apperr.InvalidArgument("invalid status %q", string(status))
	}

	if err := s.checkOverlap(ctx, actorID, input.StartTime, input.EndTime, uuid.Nil); err != nil {
		return nil, err
	}

	slot := &model.Slot{
		ID:        uuid.New(),
		OwnerID:   actorID,
		Title:     title,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Status:    status,
	}
	if err := s.store.CreateSlot(ctx, slot); err != nil {
		return nil, wrapStore(err, "create slot")
	}

	s.logger.Info("Slot created",
		zap.String("slot_id", slot.ID.String()),
		zap.String("owner_id", actorID.String()),
		zap.String("status", string(slot.Status)),
	)

	return slot, nil
}

// Get returns one of the actor's slots.
func (s *SlotService) Get(ctx context.Context, actorID, slotID uuid.UUID) (*model.Slot, error) {
	return s.getOwned(ctx, actorID, slotID)
}

// List returns the actor's slots ordered by start time.
func (s *SlotService) List(ctx context.Context, actorID uuid.UUID, filter store.SlotFilter) ([]*model.Slot, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperr.InvalidArgument("invalid status %q", string(*filter.Status))
	}

	slots, err := s.store.ListSlotsByOwner(ctx, actorID, filter)
	if err != nil {
		return nil, wrapStore(err, "list slots")
	}
	return slots, nil
}

// Update applies a partial edit to one of the actor's slots. A slot held by
// a pending swap cannot be edited at all, and no edit may move a slot into
// or out of SWAP_PENDING.
func (s *SlotService) Update(ctx context.Context, actorID, slotID uuid.UUID, input UpdateSlotInput) (*model.Slot, error) {
	slot, err := s.getOwned(ctx, actorID, slotID)
	if err != nil {
		return nil, err
	}
	if slot.Status == model.SlotStatusSwapPending {
		return nil, apperr.InvalidState("slot has a pending swap and cannot be edited")
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperr.InvalidArgument("title is required")
		}
		if len(title) > maxTitleLength {
			return nil, apperr.InvalidArgument("title cannot exceed %d characters", maxTitleLength)
		}
		slot.Title = title
	}

	if input.Status != nil {
		if !input.Status.Valid() || *input.Status == model.SlotStatusSwapPending {
			return nil, apperr.InvalidArgument("status must be BUSY or SWAPPABLE")
		}
		slot.Status = *input.Status
	}

	if input.StartTime != nil || input.EndTime != nil {
		if input.StartTime != nil {
			slot.StartTime = *input.StartTime
		}
		if input.EndTime != nil {
			slot.EndTime = *input.EndTime
		}
		if !slot.EndTime.After(slot.StartTime) {
			return nil, apperr.InvalidArgument("end time must be after start time")
		}
		if err := s.checkOverlap(ctx, actorID, slot.StartTime, slot.EndTime, slot.ID); err != nil {
			return nil, err
		}
	}

	if err := s.store.UpdateSlot(ctx, slot); err != nil {
		return nil, wrapStore(err, "update slot")
	}

	s.logger.Info("Slot updated",
		zap.String("slot_id", slot.ID.String()),
		zap.String("owner_id", actorID.String()),
		zap.String("status", string(slot.Status)),
	)

	return slot, nil
}

// SetStatus flips a slot between BUSY and SWAPPABLE.
func (s *SlotService) SetStatus(ctx context.Context, actorID, slotID uuid.UUID, status model.SlotStatus) (*model.Slot, error) {
	return s.Update(ctx, actorID, slotID, UpdateSlotInput{Status: &status})
}

// Delete removes one of the actor's slots unless a pending swap holds it.
func (s *SlotService) Delete(ctx context.Context, actorID, slotID uuid.UUID) error {
	slot, err := s.getOwned(ctx, actorID, slotID)
	if err != nil {
		return err
	}
	if slot.Status == model.SlotStatusSwapPending {
		return apperr.InvalidState("slot has a pending swap and cannot be deleted")
	}

	if err := s.store.DeleteSlot(ctx, slotID); err != nil {
		return wrapStore(err, "delete slot")
	}

	s.logger.Info("Slot deleted",
		zap.String("slot_id", slotID.String()),
		zap.String("owner_id", actorID.String()),
	)

	return nil
}

// Marketplace returns other users' SWAPPABLE slots ordered by start time.
func (s *SlotService) Marketplace(ctx context.Context, actorID uuid.UUID, from, to *time.Time) ([]*model.Slot, error) {
	slots, err := s.store.ListSwappableSlots(ctx, actorID, from, to)
	if err != nil {
		return nil, wrapStore(err, "list swappable slots")
	}
	return slots, nil
}

func (s *SlotService) getOwned(ctx context.Context, actorID, slotID uuid.UUID) (*model.Slot, error) {
	slot, err := s.store.GetSlot(ctx, slotID)
	if err != nil {
		return nil, wrapStore(err, "slot %s", slotID)
	}
	if slot.OwnerID != actorID {
		return nil, apperr.Forbidden("not authorized to access this slot")
	}
	return slot, nil
}

func (s *SlotService) checkOverlap(ctx context.Context, ownerID uuid.UUID, start, end time.Time, exclude uuid.UUID) error {
	conflicts, err := s.store.FindOverlappingSlots(ctx, ownerID, start, end, exclude)
	if err != nil {
		return wrapStore(err, "check slot conflicts")
	}
	if len(conflicts) > 0 {
		return apperr.InvalidState("time range conflicts with an existing slot")
	}
	return nil
}
