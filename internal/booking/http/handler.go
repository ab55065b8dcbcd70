package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/glasswing-dev/reservation-backend/internal/booking"
	"github.com/glasswing-dev/reservation-backend/internal/pkg/response"
)

type Handler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BindError(c, err)
		return
	}

	req, err := body.toCreateRequest()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exception date: " + err.Error()})
		return
	}

	b, conflict, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if conflict != nil {
		c.JSON(http.StatusConflict, NewConflictResponse(conflict))
		return
	}

	c.JSON(http.StatusCreated, CreateBookingResponse{
		Status:  "success",
		Booking: NewBookingResponse(b),
	})
}

func (h *Handler) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) List(c *gin.Context) {
	var query ListBookingsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	bookings, err := h.service.List(c.Request.Context(), query.ResourceID, query.From, query.To)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) Availability(c *gin.Context) {
	var query AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}
	if query.Slot == 0 {
		query.Slot = 60
	}

	result, err := h.service.Availability(c.Request.Context(), booking.AvailabilityRequest{
		ResourceID:  query.ResourceID,
		From:        query.From,
		To:          query.To,
		SlotMinutes: query.Slot,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewAvailabilityResponse(result.Resource, result))
}

func (h *Handler) NextAvailable(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var query NextAvailableQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.service.NextAvailable(c.Request.Context(), booking.NextAvailableRequest{
		ResourceID:   id,
		DesiredStart: query.DesiredStart,
		Duration:     time.Duration(query.DurationMinutes) * time.Minute,
		Horizon:      time.Duration(query.HorizonHours) * time.Hour,
		Step:         time.Duration(query.StepMinutes) * time.Minute,
		Max:          query.Max,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NextAvailableResponse{
		Suggestions:   newSlotResponses(result.Suggestions),
		SearchedUntil: formatTime(result.SearchedUntil),
	})
}
