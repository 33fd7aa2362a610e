package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"station-dashboard-backend/internal/model"
	"station-dashboard-backend/internal/station"
	"station-dashboard-backend/internal/upstream"
)

// respondCommandOutcome maps a command result onto the HTTP response. On
// success the fresh snapshot is returned so the UI can paint immediately; an
// upstream rejection keeps its status and reason.
func (h *Handler) respondCommandOutcome(c *gin.Context, err error) {
	if err == nil {
		c.JSON(http.StatusOK, h.core.Snapshot())
		return
	}

	var cmdErr *upstream.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Status >= 400 && cmdErr.Status < 500 {
		c.JSON(cmdErr.Status, gin.H{"error": cmdErr.Error()})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}

type assignRequest struct {
	TrainNo       string             `json:"trainNo" binding:"required"`
	ResourceIDs   []string           `json:"platformIds" binding:"required,min=1"`
	ActualArrival string             `json:"actualArrival"`
	Train         *model.TrainRecord `json:"train"`
}

// Assign places an arriving or waiting train on one or more resources.
func (h *Handler) Assign(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.core.Assign(c.Request.Context(), station.AssignRequest{
		TrainNo:       req.TrainNo,
		ResourceIDs:   req.ResourceIDs,
		ActualArrival: req.ActualArrival,
		Train:         req.Train,
	})
	h.respondCommandOutcome(c, err)
}

type assignFreightRequest struct {
	Label         string `json:"label"`
	IncomingLine  string `json:"incomingLine"`
	ResourceID    string `json:"platformId" binding:"required"`
	ActualArrival string `json:"actualArrival"`
}

// AssignFreight places a freight consist on a single resource.
func (h *Handler) AssignFreight(c *gin.Context) {
	var req assignFreightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.core.AssignFreight(c.Request.Context(), station.FreightRequest{
		Label:         req.Label,
		IncomingLine:  req.IncomingLine,
		ResourceID:    req.ResourceID,
		ActualArrival: req.ActualArrival,
	})
	h.respondCommandOutcome(c, err)
}

type resourceRequest struct {
	ResourceID string `json:"platformId" binding:"required"`
}

// Unassign clears one resource and returns its train to the arrival list.
func (h *Handler) Unassign(c *gin.Context) {
	var req resourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondCommandOutcome(c, h.core.Unassign(c.Request.Context(), req.ResourceID))
}

// Depart records a departure from a resource, clearing any paired partner too.
func (h *Handler) Depart(c *gin.Context) {
	var req resourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondCommandOutcome(c, h.core.Depart(c.Request.Context(), req.ResourceID))
}

// ToggleMaintenance flips a resource's maintenance flag.
func (h *Handler) ToggleMaintenance(c *gin.Context) {
	var req resourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondCommandOutcome(c, h.core.ToggleMaintenance(c.Request.Context(), req.ResourceID))
}

type waitingRequest struct {
	TrainNo       string `json:"trainNo" binding:"required"`
	Name          string `json:"name"`
	IncomingLine  string `json:"incomingLine"`
	ActualArrival string `json:"actualArrival"`
}

// AddToWaitingList enqueues a train on the waiting list.
func (h *Handler) AddToWaitingList(c *gin.Context) {
	var req waitingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.core.AddToWaitingList(c.Request.Context(), station.WaitingRequest{
		TrainNo:       req.TrainNo,
		Name:          req.Name,
		IncomingLine:  req.IncomingLine,
		ActualArrival: req.ActualArrival,
	})
	h.respondCommandOutcome(c, err)
}

// RemoveFromWaitingList drops a train from the waiting list.
func (h *Handler) RemoveFromWaitingList(c *gin.Context) {
	h.respondCommandOutcome(c, h.core.RemoveFromWaitingList(c.Request.Context(), c.Param("trainNo")))
}

type addTrainRequest struct {
	TrainNo            string `json:"trainNo" binding:"required"`
	Name               string `json:"name" binding:"required"`
	IncomingLine       string `json:"incomingLine"`
	ScheduledArrival   string `json:"scheduledArrival"`
	ScheduledDeparture string `json:"scheduledDeparture"`
	Terminating        bool   `json:"isTerminating"`
}

// AddTrain adds a train to the master schedule.
func (h *Handler) AddTrain(c *gin.Context) {
	var req addTrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.core.AddTrain(c.Request.Context(), model.TrainRecord{
		TrainNo:            req.TrainNo,
		Name:               req.Name,
		IncomingLine:       req.IncomingLine,
		ScheduledArrival:   req.ScheduledArrival,
		ScheduledDeparture: req.ScheduledDeparture,
		Terminating:        req.Terminating,
	})
	h.respondCommandOutcome(c, err)
}

// DeleteTrain removes a train from the master schedule.
func (h *Handler) DeleteTrain(c *gin.Context) {
	h.respondCommandOutcome(c, h.core.DeleteTrain(c.Request.Context(), c.Param("trainNo")))
}

// AcceptSuggestion accepts the tracked pending suggestion.
func (h *Handler) AcceptSuggestion(c *gin.Context) {
	err := h.core.AcceptSuggestion(c.Request.Context())
	if errors.Is(err, station.ErrNoPendingSuggestion) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	h.respondCommandOutcome(c, err)
}
