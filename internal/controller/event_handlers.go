package controller

import (
	"net/http"
	"time"

	"slotswap/internal/model"
	"slotswap/internal/service"
	"slotswap/internal/store"
)

type createEventRequest struct {
	Title     string     `json:"title"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Status    string     `json:"status"`
}

type updateEventRequest struct {
	Title     *string    `json:"title"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Status    *string    `json:"status"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (c *Controller) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeBody(r, &req); err != nil {
		c.badRequest(w, "%v", err)
		return
	}
	if req.StartTime == nil || req.EndTime == nil {
		c.badRequest(w, "title, start_time and end_time are required")
		return
	}

	slot, err := c.slotService.Create(r.Context(), currentUser(r).ID, service.CreateSlotInput{
		Title:     req.Title,
		StartTime: *req.StartTime,
		EndTime:   *req.EndTime,
		Status:    model.SlotStatus(req.Status),
	})
	if err != nil {
		c.respondError(w, err)
		return
	}

	c.respond(w, http.StatusCreated, envelope{
		"success": true,
		"message": "event created successfully",
		"event":   slot,
	})
}

func (c *Controller) handleListEvents(w http.ResponseWriter, r *http.Request) {
	var filter store.SlotFilter

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := model.SlotStatus(raw)
		filter.Status = &status
	}
	var err error
	if filter.From, err = parseTimeParam(r.URL.Query().Get("startDate")); err != nil {
		c.badRequest(w, "%v", err)
		return
	}
	if filter.To, err = parseTimeParam(r.URL.Query().Get("endDate")); err != nil {
		c.badRequest(w, "%v", err)
		return
	}

	slots, err := c.slotService.List(r.Context(), currentUser(r).ID, filter)
	if err != nil {
		c.respondError(w, err)
		return
	}

	c.respond(w, http.StatusOK, envelope{
		"success": true,
		"count":   len(slots),
		"events":  slots,
	})
}

func (c *Controller) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		c.badRequest(w, "invalid event id")
		return
	}

	slot, err := c.slotService.Get(r.Context(), currentUser(r).ID, id)
	if err != nil {
		c.respondError(w, err)
		return
	}

	c.respond(w, http.StatusOK, envelope{"success": true, "event": slot})
}

func (c *Controller) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		c.badRequest(w, "invalid event id")
		return
	}

	var req updateEventRequest
	if err := decodeBody(r, &req); err != nil {
		c.badRequest(w, "%v", err)
		return
	}
	if req.Title == nil && req.StartTime == nil && req.EndTime == nil && req.Status == nil {
		c.badRequest(w, "no fields provided to update")
		return
	}

	input := service.UpdateSlotInput{
		Title:     req.Title,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if req.Status != nil {
		status := model.SlotStatus(*req.Status)
		input.Status = &status
	}

	slot, err := c.slotService.Update(r.Context(), currentUser(r).ID, id, input)
	if err != nil {
		c.respondError(w, err)
		return
	}

	c.respond(w, http.StatusOK, envelope{
		"success": true,
		"message": "event updated successfully",
		"event":   slot,
	})
}

func (c *Controller) handleUpdateEventStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		c.badRequest(w, "invalid event id")
		return
	}

	var req updateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		c.badRequest(w, "%v", err)
		return
	}

	slot, err := c.slotService.SetStatus(r.Context(), currentUser(r).ID, id, model.SlotStatus(req.Status))
	if err != nil {
		c.respondError(w, err)
		return
	}

	c.respond(w, http.StatusOK, envelope{
		"success": true,
		"message": "event status updated successfully",
		"event":   slot,
	})
}

func (c *Controller) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		c.badRequest(w, "invalid event id")
		return
	}

	if err := c.slotService.Delete(r.Context(), currentUser(r).ID, id); err != nil {
		c.respondError(w, err)
		return
	}

	c.respond(w, http.StatusOK, envelope{
		"success": true,
		"message": "event deleted successfully",
	})
}

func (c *Controller) handleMarketplace(w http.ResponseWriter, r *http.Request) {
	from, err := parseTimeParam(r.URL.Query().Get("startDate"))
	if err != nil {
		c.badRequest(w, "%v", err)
		return
	}
	to, err := parseTimeParam(r.URL.Query().Get("endDate"))
	if err != nil {
		c.badRequest(w, "%v", err)
		return
	}

	slots, err := c.slotService.Marketplace(r.Context(), currentUser(r).ID, from, to)
	if err != nil {
		c.respondError(w, err)
		return
	}

	c.respond(w, http.StatusOK, envelope{
		"success": true,
		"count":   len(slots),
		"events":  slots,
	})
}
