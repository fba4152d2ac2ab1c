package controller

import (
	"net/http"

	"github.com/google/uuid"
)

type swapRequestBody struct {
	MySlotID    uuid.UUID `json:"my_slot_id"`
	TheirSlotID uuid.UUID `json:"their_slot_id"`
}

type swapResponseBody struct {
	Accept *bool `json:"accept"`
}

func (c *Controller) handleSwapRequest(w http.ResponseWriter, r *http.Request) {
	var req swapRequestBody
	if err := decodeBody(r, &req); err != nil {
		c.badRequest(w, "%v", err)
		return
	}
	if req.MySlotID == uuid.Nil || req.TheirSlotID == uuid.Nil {
		c.badRequest(w, "my_slot_id and their_slot_id are required")
		return
	}

	swap, err := c.swapService.Propose(r.Context(), currentUser(r).ID, req.MySlotID, req.TheirSlotID)
	if err != nil {
		c.respondError(w, err)
		return
	}

	c.respond(w, http.StatusCreated, envelope{
		"success": true,
		"message": "swap request created",
		"request": swap,
	})
}

func (c *Controller) handleSwapResponse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		c.badRequest(w, "invalid request id")
		return
	}

	var req swapResponseBody
	if err := decodeBody(r, &req); err != nil {
		c.badRequest(w, "%v", err)
		return
	}
	if req.Accept == nil {
		c.badRequest(w, "accept (boolean) is required")
		return
	}

	swap, err := c.swapService.Respond(r.Context(), currentUser(r).ID, id, *req.Accept)
	if err != nil {
		c.respondError(w, err)
		return
	}

	message := "swap request rejected"
	if *req.Accept {
		message = "swap request accepted"
	}
	c.respond(w, http.StatusOK, envelope{
		"success": true,
		"message": message,
		"request": swap,
	})
}

func (c *Controller) handleIncoming(w http.ResponseWriter, r *http.Request) {
	requests, err := c.swapService.ListIncoming(r.Context(), currentUser(r).ID)
	if err != nil {
		c.respondError(w, err)
		return
	}

	c.respond(w, http.StatusOK, envelope{
		"success":  true,
		"count":    len(requests),
		"requests": requests,
	})
}

func (c *Controller) handleOutgoing(w http.ResponseWriter, r *http.Request) {
	requests, err := c.swapService.ListOutgoing(r.Context(), currentUser(r).ID)
	if err != nil {
		c.respondError(w, err)
		return
	}

	c.respond(w, http.StatusOK, envelope{
		"success":  true,
		"count":    len(requests),
		"requests": requests,
	})
}
