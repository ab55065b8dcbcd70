package http

import (
	"encoding/json"
	"time"

	"github.com/glasswing-dev/reservation-backend/internal/booking"
	"github.com/glasswing-dev/reservation-backend/internal/interval"
	"github.com/glasswing-dev/reservation-backend/internal/resource"
)

// All instants on the wire are RFC 3339 UTC with millisecond precision.
const (
	timeLayout = "2006-01-02T15:04:05.000Z07:00"
	dateLayout = "2006-01-02"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

type ExceptionBody struct {
	Date         string     `json:"date" binding:"required,datetime=2006-01-02"`
	ReplaceStart *time.Time `json:"replace_start"`
	ReplaceEnd   *time.Time `json:"replace_end"`
}

type CreateBookingBody struct {
	ResourceID     string          `json:"resource_id" binding:"required,uuid"`
	StartTime      time.Time       `json:"start_time" binding:"required"`
	EndTime        time.Time       `json:"end_time" binding:"required"`
	Metadata       json.RawMessage `json:"metadata"`
	RecurrenceRule string          `json:"recurrence_rule"`
	Exceptions     []ExceptionBody `json:"exceptions"`
}

func (b *CreateBookingBody) toCreateRequest() (booking.CreateRequest, error) {
	req := booking.CreateRequest{
		ResourceID:     b.ResourceID,
		StartTime:      b.StartTime,
		EndTime:        b.EndTime,
		Metadata:       b.Metadata,
		RecurrenceRule: b.RecurrenceRule,
	}
	for _, ex := range b.Exceptions {
		date, err := time.ParseInLocation(dateLayout, ex.Date, time.UTC)
		if err != nil {
			return booking.CreateRequest{}, err
		}
		req.Exceptions = append(req.Exceptions, booking.Exception{
			Date:         date,
			ReplaceStart: ex.ReplaceStart,
			ReplaceEnd:   ex.ReplaceEnd,
		})
	}
	return req, nil
}

type ExceptionResponse struct {
	ID           string  `json:"id,omitempty"`
	Date         string  `json:"date"`
	ReplaceStart *string `json:"replace_start,omitempty"`
	ReplaceEnd   *string `json:"replace_end,omitempty"`
}

type BookingResponse struct {
	ID             string              `json:"id"`
	ResourceID     string              `json:"resource_id"`
	StartTime      string              `json:"start_time"`
	EndTime        string              `json:"end_time"`
	Metadata       json.RawMessage     `json:"metadata"`
	CreatedAt      string              `json:"created_at"`
	IsRecurring    bool                `json:"is_recurring"`
	RecurrenceRule string              `json:"recurrence_rule,omitempty"`
	Exceptions     []ExceptionResponse `json:"exceptions"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	resp := BookingResponse{
		ID:          b.ID,
		ResourceID:  b.ResourceID,
		StartTime:   formatTime(b.StartTime),
		EndTime:     formatTime(b.EndTime),
		Metadata:    b.Metadata,
		CreatedAt:   formatTime(b.CreatedAt),
		IsRecurring: b.IsRecurring(),
		Exceptions:  make([]ExceptionResponse, 0, len(b.Exceptions)),
	}
	if b.Rule != nil {
		resp.RecurrenceRule = b.Rule.Rule
	}
	for _, ex := range b.Exceptions {
		resp.Exceptions = append(resp.Exceptions, ExceptionResponse{
			ID:           ex.ID,
			Date:         ex.Date.UTC().Format(dateLayout),
			ReplaceStart: formatTimePtr(ex.ReplaceStart),
			ReplaceEnd:   formatTimePtr(ex.ReplaceEnd),
		})
	}
	return resp
}

type CreateBookingResponse struct {
	Status  string          `json:"status"`
	Booking BookingResponse `json:"booking"`
}

type SlotResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func newSlotResponses(spans []interval.Span) []SlotResponse {
	slots := make([]SlotResponse, 0, len(spans))
	for _, s := range spans {
		slots = append(slots, SlotResponse{Start: formatTime(s.Start), End: formatTime(s.End)})
	}
	return slots
}

type ConflictEntryResponse struct {
	BookingID       string  `json:"booking_id"`
	Start           string  `json:"start"`
	End             string  `json:"end"`
	IsRecurring     bool    `json:"is_recurring"`
	OccurrenceStart *string `json:"occurrence_start,omitempty"`
	OccurrenceEnd   *string `json:"occurrence_end,omitempty"`
}

type ConflictResponse struct {
	Status        string                  `json:"status"`
	Message       string                  `json:"message"`
	Conflicts     []ConflictEntryResponse `json:"conflicts"`
	NextAvailable []SlotResponse          `json:"next_available"`
}

func NewConflictResponse(c *booking.Conflict) ConflictResponse {
	resp := ConflictResponse{
		Status:        "conflict",
		Message:       "requested time overlaps existing bookings",
		Conflicts:     make([]ConflictEntryResponse, 0, len(c.Conflicts)),
		NextAvailable: newSlotResponses(c.NextAvailable),
	}
	for _, entry := range c.Conflicts {
		resp.Conflicts = append(resp.Conflicts, ConflictEntryResponse{
			BookingID:       entry.BookingID,
			Start:           formatTime(entry.Start),
			End:             formatTime(entry.End),
			IsRecurring:     entry.IsRecurring,
			OccurrenceStart: formatTimePtr(entry.OccurrenceStart),
			OccurrenceEnd:   formatTimePtr(entry.OccurrenceEnd),
		})
	}
	return resp
}

type AvailabilityQuery struct {
	ResourceID string    `form:"resource_id" binding:"required,uuid"`
	From       time.Time `form:"from" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	To         time.Time `form:"to" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	Slot       int       `form:"slot" binding:"omitempty,min=1"`
}

type AvailableSlotResponse struct {
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationMinutes int    `json:"duration_minutes"`
}

type AvailabilityResponse struct {
	ResourceID          string                  `json:"resource_id"`
	ResourceName        string                  `json:"resource_name"`
	From                string                  `json:"from"`
	To                  string                  `json:"to"`
	SlotDurationMinutes int                     `json:"slot_duration_minutes"`
	AvailableSlots      []AvailableSlotResponse `json:"available_slots"`
	BusySlotsCount      int                     `json:"busy_slots_count"`
}

func NewAvailabilityResponse(res *resource.Resource, result *booking.AvailabilityResult) AvailabilityResponse {
	slots := make([]AvailableSlotResponse, 0, len(result.Slots))
	for _, s := range result.Slots {
		slots = append(slots, AvailableSlotResponse{
			Start:           formatTime(s.Start),
			End:             formatTime(s.End),
			DurationMinutes: s.Minutes(),
		})
	}
	return AvailabilityResponse{
		ResourceID:          res.ID,
		ResourceName:        res.Name,
		From:                formatTime(result.From),
		To:                  formatTime(result.To),
		SlotDurationMinutes: result.SlotMinutes,
		AvailableSlots:      slots,
		BusySlotsCount:      result.BusyCount,
	}
}

type NextAvailableQuery struct {
	DesiredStart    time.Time `form:"desired_start" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	DurationMinutes int       `form:"duration" binding:"required,min=1"`
	HorizonHours    int       `form:"horizon_hours" binding:"omitempty,min=1"`
	StepMinutes     int       `form:"step_minutes" binding:"omitempty,min=1"`
	Max             int       `form:"max" binding:"omitempty,min=1,max=50"`
}

type NextAvailableResponse struct {
	Suggestions   []SlotResponse `json:"suggestions"`
	SearchedUntil string         `json:"searched_until"`
}

type ListBookingsQuery struct {
	ResourceID string    `form:"resource_id" binding:"required,uuid"`
	From       time.Time `form:"from" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	To         time.Time `form:"to" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}
