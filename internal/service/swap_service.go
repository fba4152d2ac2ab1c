package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"slotswap/internal/apperr"
	"slotswap/internal/model"
	"slotswap/internal/store"
)

// SwapService is the slot-swap negotiation engine. It is the only code path
// allowed to move a slot through SWAP_PENDING or to change the owner of a
// slot referenced by a pending request. Every mutation runs inside one
// store transaction with expected-state guards, so a failure at any point
// leaves both slots and the ledger exactly as they were.
type SwapService struct {
	store  store.Store
	logger *zap.Logger
}

func NewSwapService(st store.Store, logger *zap.Logger) *SwapService {
	return &SwapService{
		store:  st,
		logger: logger,
	}
}

// Propose creates a PENDING swap request offering the actor's slot for
// another user's slot and parks both slots in SWAP_PENDING.
func (s *SwapService) Propose(ctx context.Context, actorID, mySlotID, theirSlotID uuid.UUID) (*model.SwapRequest, error) {
	var req *model.SwapRequest

	err := s.store.InTx(ctx, func(tx store.Tx) error {
		mySlot, err := tx.GetSlot(ctx, mySlotID)
		if err != nil {
			return wrapStore(err, "offered slot %s", mySlotID)
		}
		theirSlot, err := tx.GetSlot(ctx, theirSlotID)
		if err != nil {
			return wrapStore(err, "requested slot %s", theirSlotID)
		}

		if mySlot.OwnerID != actorID {
			return apperr.Forbidden("you do not own the offered slot")
		}
		if theirSlot.OwnerID == actorID {
			return apperr.InvalidArgument("cannot request a swap for your own slot")
		}
		if mySlot.Status != model.SlotStatusSwappable || theirSlot.Status != model.SlotStatusSwappable {
			return apperr.InvalidState("both slots must be SWAPPABLE to request a swap")
		}

		req = &model.SwapRequest{
			ID:          uuid.New(),
			RequesterID: actorID,
			RecipientID: theirSlot.OwnerID,
			MySlotID:    mySlot.ID,
			TheirSlotID: theirSlot.ID,
			Status:      model.SwapStatusPending,
		}
		if err := tx.CreateSwapRequest(ctx, req); err != nil {
			return wrapStore(err, "create swap request")
		}

		// The SWAPPABLE guard doubles as the lock against a concurrent
		// proposal grabbing the same slot.
		if err := tx.UpdateSlotStatus(ctx, mySlot.ID, model.SlotStatusSwapPending, model.SlotStatusSwappable); err != nil {
			return wrapStore(err, "mark offered slot pending")
		}
		if err := tx.UpdateSlotStatus(ctx, theirSlot.ID, model.SlotStatusSwapPending, model.SlotStatusSwappable); err != nil {
			return wrapStore(err, "mark requested slot pending")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Swap proposed",
		zap.String("request_id", req.ID.String()),
		zap.String("requester_id", req.RequesterID.String()),
		zap.String("recipient_id", req.RecipientID.String()),
		zap.String("my_slot_id", req.MySlotID.String()),
		zap.String("their_slot_id", req.TheirSlotID.String()),
	)

	return req, nil
}

// Respond resolves a pending swap request. Accepting exchanges the two
// slots' owners and marks both BUSY; rejecting restores both to SWAPPABLE.
// Only the recipient may respond, and only once: a resolved request always
// answers InvalidState no matter which way it was resolved.
func (s *SwapService) Respond(ctx context.Context, actorID, requestID uuid.UUID, accept bool) (*model.SwapRequest, error) {
	var req *model.SwapRequest

	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		req, err = tx.GetSwapRequest(ctx, requestID)
		if err != nil {
			return wrapStore(err, "swap request %s", requestID)
		}

		if req.Status != model.SwapStatusPending {
			return apperr.InvalidState("swap request is not pending")
		}
		if req.RecipientID != actorID {
			return apperr.Forbidden("you are not authorized to respond to this request")
		}

		mySlot, err := tx.GetSlot(ctx, req.MySlotID)
		if err != nil {
			return wrapStore(err, "offered slot %s", req.MySlotID)
		}
		theirSlot, err := tx.GetSlot(ctx, req.TheirSlotID)
		if err != nil {
			return wrapStore(err, "requested slot %s", req.TheirSlotID)
		}

		// Both slots must still be held by this request. Anything else
		// means an external mutation slipped in; abort and keep the
		// ledger PENDING rather than resolve over inconsistent state.
		if mySlot.Status != model.SlotStatusSwapPending || theirSlot.Status != model.SlotStatusSwapPending {
			return apperr.InvalidState("slots are not in SWAP_PENDING state")
		}

		if accept {
			ownerA, ownerB := mySlot.OwnerID, theirSlot.OwnerID
			if err := tx.UpdateSlotOwnerAndStatus(ctx, mySlot.ID, ownerB, model.SlotStatusBusy, model.SlotStatusSwapPending); err != nil {
				return wrapStore(err, "transfer offered slot")
			}
			if err := tx.UpdateSlotOwnerAndStatus(ctx, theirSlot.ID, ownerA, model.SlotStatusBusy, model.SlotStatusSwapPending); err != nil {
				return wrapStore(err, "transfer requested slot")
			}
			if err := tx.UpdateSwapRequestStatus(ctx, req.ID, model.SwapStatusAccepted, model.SwapStatusPending); err != nil {
				return wrapStore(err, "resolve swap request")
			}
			req.Status = model.SwapStatusAccepted
			return nil
		}

		if err := tx.UpdateSlotStatus(ctx, mySlot.ID, model.SlotStatusSwappable, model.SlotStatusSwapPending); err != nil {
			return wrapStore(err, "release offered slot")
		}
		if err := tx.UpdateSlotStatus(ctx, theirSlot.ID, model.SlotStatusSwappable, model.SlotStatusSwapPending); err != nil {
			return wrapStore(err, "release requested slot")
		}
		if err := tx.UpdateSwapRequestStatus(ctx, req.ID, model.SwapStatusRejected, model.SwapStatusPending); err != nil {
			return wrapStore(err, "resolve swap request")
		}
		req.Status = model.SwapStatusRejected
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Swap resolved",
		zap.String("request_id", req.ID.String()),
		zap.String("recipient_id", actorID.String()),
		zap.String("status", string(req.Status)),
	)

	return req, nil
}

// ListIncoming returns the pending requests addressed to the actor, newest
// first, with requester and slot summaries resolved.
func (s *SwapService) ListIncoming(ctx context.Context, actorID uuid.UUID) ([]*model.SwapRequest, error) {
	requests, err := s.store.ListIncomingRequests(ctx, actorID)
	if err != nil {
		return nil, wrapStore(err, "list incoming swap requests")
	}
	return requests, nil
}

// ListOutgoing returns every request the actor has made, any status,
// newest first, with recipient and slot summaries resolved.
func (s *SwapService) ListOutgoing(ctx context.Context, actorID uuid.UUID) ([]*model.SwapRequest, error) {
	requests, err := s.store.ListOutgoingRequests(ctx, actorID)
	if err != nil {
		return nil, wrapStore(err, "list outgoing swap requests")
	}
	return requests, nil
}
