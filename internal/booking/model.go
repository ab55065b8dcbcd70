package booking

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/glasswing-dev/reservation-backend/internal/interval"
	"github.com/glasswing-dev/reservation-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.New(http.StatusNotFound, "booking not found")
	ErrResourceNotFound  = apperror.New(http.StatusNotFound, "resource not found")
	ErrInvalidTimeRange  = apperror.New(http.StatusBadRequest, "end_time must be after start_time")
	ErrInvalidRecurrence = apperror.New(http.StatusBadRequest, "recurrence_rule is not a valid RFC 5545 RRULE")
	ErrInvalidException  = apperror.New(http.StatusBadRequest, "exception must set both replace_start and replace_end or neither, with replace_end after replace_start")
	ErrOrphanExceptions  = apperror.New(http.StatusBadRequest, "exceptions require a recurrence_rule")
	ErrInvalidDuration   = apperror.New(http.StatusBadRequest, "duration must be positive")

	// ErrTimeConflict is the storage-level signal that the non-overlap
	// exclusion rejected a write. The service turns it into a Conflict
	// value; it never reaches the transport as an error.
	ErrTimeConflict = apperror.New(http.StatusConflict, "time slot already booked")
)

// Booking reserves a resource over the half-open interval
// [StartTime, EndTime). A recurring booking carries exactly one Rule; its
// own interval is the first occurrence and the duration template for all
// occurrences.
type Booking struct {
	ID         string
	ResourceID string
	StartTime  time.Time
	EndTime    time.Time
	Metadata   json.RawMessage
	CreatedAt  time.Time

	Rule       *RecurrenceRule
	Exceptions []Exception
}

func (b *Booking) IsRecurring() bool {
	return b.Rule != nil
}

func (b *Booking) Span() interval.Span {
	return interval.Span{Start: b.StartTime, End: b.EndTime}
}

// RecurrenceRule is owned one-to-one by a recurring booking.
type RecurrenceRule struct {
	BookingID  string
	Rule       string
	IsInfinite bool
}

// Exception is a per-date override on a recurring booking: a nil
// replacement pair skips the occurrence on Date, a non-nil pair rewrites it.
type Exception struct {
	ID           string
	BookingID    string
	Date         time.Time
	ReplaceStart *time.Time
	ReplaceEnd   *time.Time
}

// BusyInstance is one materialized occupied interval on a resource: a
// single booking or one expanded occurrence of a recurring booking.
type BusyInstance struct {
	BookingID   string
	Start       time.Time
	End         time.Time
	IsRecurring bool
}

func (bi BusyInstance) Span() interval.Span {
	return interval.Span{Start: bi.Start, End: bi.End}
}

// ConflictEntry ties a clashing busy instance to the requested occurrence
// that produced the clash. The occurrence fields are only set for recurring
// requests, so clients can tell which instance of the recurrence collided.
type ConflictEntry struct {
	BusyInstance
	OccurrenceStart *time.Time
	OccurrenceEnd   *time.Time
}

// Conflict is the success-typed outcome of a create that would violate the
// non-overlap invariant. NextAvailable may be empty.
type Conflict struct {
	Conflicts     []ConflictEntry
	NextAvailable []interval.Span
}
