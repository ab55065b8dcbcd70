package booking

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/glasswing-dev/reservation-backend/internal/interval"
	"github.com/glasswing-dev/reservation-backend/internal/recurrence"
	"github.com/glasswing-dev/reservation-backend/internal/resource"
)

const (
	// DefaultValidationWindow bounds the write-time expansion of a
	// recurring booking when no horizon is configured.
	DefaultValidationWindow = 90 * 24 * time.Hour

	defaultSearchHorizon  = 720 * time.Hour
	defaultSearchStep     = 15 * time.Minute
	defaultMaxSuggestions = 5
)

type CreateRequest struct {
	ResourceID     string
	StartTime      time.Time
	EndTime        time.Time
	Metadata       json.RawMessage
	RecurrenceRule string
	Exceptions     []Exception
}

type AvailabilityRequest struct {
	ResourceID  string
	From        time.Time
	To          time.Time
	SlotMinutes int
}

type AvailabilityResult struct {
	Resource    *resource.Resource
	From        time.Time
	To          time.Time
	SlotMinutes int
	Slots       []interval.Span
	BusyCount   int
}

type NextAvailableRequest struct {
	ResourceID   string
	DesiredStart time.Time
	Duration     time.Duration
	Horizon      time.Duration // zero means the 720h default
	Step         time.Duration // zero means the 15m default
	Max          int           // zero means the default of 5
}

type NextAvailableResult struct {
	Suggestions   []interval.Span
	SearchedUntil time.Time
}

type Service interface {
	// Create persists a single or recurring booking. A violated non-overlap
	// invariant is not an error: it comes back as a Conflict value carrying
	// the clashing busy instances and next-available suggestions.
	Create(ctx context.Context, req CreateRequest) (*Booking, *Conflict, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, resourceID string, from, to time.Time) ([]*Booking, error)
	Availability(ctx context.Context, req AvailabilityRequest) (*AvailabilityResult, error)
	NextAvailable(ctx context.Context, req NextAvailableRequest) (*NextAvailableResult, error)
}

type service struct {
	repo             Repository
	resolver         *Resolver
	resService       resource.Service
	validationWindow time.Duration
}

func NewService(repo Repository, resolver *Resolver, resService resource.Service, validationWindow time.Duration) Service {
	if validationWindow <= 0 {
		validationWindow = DefaultValidationWindow
	}
	return &service{
		repo:             repo,
		resolver:         resolver,
		resService:       resService,
		validationWindow: validationWindow,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, *Conflict, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, nil, ErrInvalidTimeRange
	}
	if req.RecurrenceRule == "" && len(req.Exceptions) > 0 {
		return nil, nil, ErrOrphanExceptions
	}
	for _, ex := range req.Exceptions {
		if (ex.ReplaceStart == nil) != (ex.ReplaceEnd == nil) {
			return nil, nil, ErrInvalidException
		}
		if ex.ReplaceStart != nil && !ex.ReplaceEnd.After(*ex.ReplaceStart) {
			return nil, nil, ErrInvalidException
		}
	}

	if _, err := s.resService.GetByID(ctx, req.ResourceID); err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return nil, nil, ErrResourceNotFound
		}
		return nil, nil, err
	}

	if req.RecurrenceRule != "" {
		return s.createRecurring(ctx, req)
	}
	return s.createSingle(ctx, req)
}

func (s *service) createSingle(ctx context.Context, req CreateRequest) (*Booking, *Conflict, error) {
	b := &Booking{
		ResourceID: req.ResourceID,
		StartTime:  req.StartTime.UTC(),
		EndTime:    req.EndTime.UTC(),
		Metadata:   req.Metadata,
	}

	// The exclusion constraint only sees stored template rows, so an overlap
	// with an expanded occurrence of a recurring booking must be caught here.
	// The constraint stays as the backstop for concurrent single writers.
	busy, err := s.resolver.BusySet(ctx, b.ResourceID, b.StartTime, b.EndTime)
	if err != nil {
		return nil, nil, err
	}
	if len(busy) > 0 {
		conflict, cerr := s.conflictFrom(ctx, b.ResourceID, busy, b.StartTime, b.EndTime.Sub(b.StartTime))
		if cerr != nil {
			return nil, nil, cerr
		}
		return nil, conflict, nil
	}

	err = s.repo.CreateSingle(ctx, b)
	if errors.Is(err, ErrTimeConflict) {
		conflict, cerr := s.singleConflict(ctx, b)
		if cerr != nil {
			return nil, nil, cerr
		}
		return nil, conflict, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return b, nil, nil
}

// singleConflict assembles the structured 409 payload after the exclusion
// constraint rejected an insert: the busy instances overlapping the
// requested interval plus up to five same-duration alternatives.
func (s *service) singleConflict(ctx context.Context, b *Booking) (*Conflict, error) {
	busy, err := s.resolver.BusySet(ctx, b.ResourceID, b.StartTime, b.EndTime)
	if err != nil {
		return nil, err
	}
	return s.conflictFrom(ctx, b.ResourceID, busy, b.StartTime, b.EndTime.Sub(b.StartTime))
}

func (s *service) conflictFrom(ctx context.Context, resourceID string, busy []BusyInstance, start time.Time, duration time.Duration) (*Conflict, error) {
	entries := make([]ConflictEntry, len(busy))
	for i, bi := range busy {
		entries[i] = ConflictEntry{BusyInstance: bi}
	}

	suggestions, _, err := s.scanForSlots(ctx, resourceID, start, duration,
		defaultSearchHorizon, defaultSearchStep, defaultMaxSuggestions)
	if err != nil {
		return nil, err
	}
	return &Conflict{Conflicts: entries, NextAvailable: suggestions}, nil
}

func (s *service) createRecurring(ctx context.Context, req CreateRequest) (*Booking, *Conflict, error) {
	start := req.StartTime.UTC()
	end := req.EndTime.UTC()

	if err := recurrence.Validate(req.RecurrenceRule, start); err != nil {
		return nil, nil, ErrInvalidRecurrence
	}
	infinite, err := recurrence.IsInfinite(req.RecurrenceRule)
	if err != nil {
		return nil, nil, ErrInvalidRecurrence
	}

	b := &Booking{
		ResourceID: req.ResourceID,
		StartTime:  start,
		EndTime:    end,
		Metadata:   req.Metadata,
		Rule:       &RecurrenceRule{Rule: req.RecurrenceRule, IsInfinite: infinite},
		Exceptions: req.Exceptions,
	}

	var conflict *Conflict
	err = s.repo.CreateRecurring(ctx, b, func(ctx context.Context) error {
		found, perr := s.recurringConflicts(ctx, req, start, end)
		if perr != nil {
			return perr
		}
		if found != nil {
			conflict = found
			return ErrTimeConflict
		}
		return nil
	})
	if conflict != nil {
		return nil, conflict, nil
	}
	if errors.Is(err, ErrTimeConflict) {
		// A concurrent single create committed between the precheck reads
		// and the template insert; surface it in the structured shape too.
		conflict, cerr := s.singleConflict(ctx, b)
		if cerr != nil {
			return nil, nil, cerr
		}
		return nil, conflict, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return b, nil, nil
}

// recurringConflicts expands the requested recurrence over the validation
// window and checks every occurrence against the existing busy set. All
// conflicts are collected; there is no short-circuit on the first clash.
func (s *service) recurringConflicts(ctx context.Context, req CreateRequest, start, end time.Time) (*Conflict, error) {
	occurrences, err := recurrence.Expand(
		req.RecurrenceRule,
		start, end,
		start, start.Add(s.validationWindow),
		toRecurrenceExceptions(req.Exceptions),
	)
	if err != nil {
		return nil, ErrInvalidRecurrence
	}
	if len(occurrences) == 0 {
		return nil, nil
	}

	// Replacement exceptions may move an occurrence outside the expansion
	// window, so the busy query spans the actual extremes.
	windowStart, windowEnd := occurrences[0].Start, occurrences[0].End
	for _, occ := range occurrences[1:] {
		if occ.Start.Before(windowStart) {
			windowStart = occ.Start
		}
		if occ.End.After(windowEnd) {
			windowEnd = occ.End
		}
	}

	busy, err := s.resolver.BusySet(ctx, req.ResourceID, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	var entries []ConflictEntry
	for _, occ := range occurrences {
		span := interval.Span{Start: occ.Start, End: occ.End}
		for _, bi := range busy {
			if interval.Overlaps(bi.Span(), span) {
				occStart, occEnd := occ.Start, occ.End
				entries = append(entries, ConflictEntry{
					BusyInstance:    bi,
					OccurrenceStart: &occStart,
					OccurrenceEnd:   &occEnd,
				})
			}
		}
	}
	if len(entries) == 0 {
		return nil, nil
	}

	suggestions, _, err := s.scanForSlots(ctx, req.ResourceID, start, end.Sub(start),
		defaultSearchHorizon, defaultSearchStep, defaultMaxSuggestions)
	if err != nil {
		return nil, err
	}
	return &Conflict{Conflicts: entries, NextAvailable: suggestions}, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, resourceID string, from, to time.Time) ([]*Booking, error) {
	if !to.After(from) {
		return nil, ErrInvalidTimeRange
	}
	if _, err := s.resService.GetByID(ctx, resourceID); err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	return s.repo.ListInWindow(ctx, resourceID, from.UTC(), to.UTC())
}

func (s *service) Availability(ctx context.Context, req AvailabilityRequest) (*AvailabilityResult, error) {
	if !req.To.After(req.From) {
		return nil, ErrInvalidTimeRange
	}
	if req.SlotMinutes <= 0 {
		req.SlotMinutes = 60
	}

	res, err := s.resService.GetByID(ctx, req.ResourceID)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}

	from, to := req.From.UTC(), req.To.UTC()
	busy, err := s.resolver.BusySet(ctx, req.ResourceID, from, to)
	if err != nil {
		return nil, err
	}

	merged := interval.Merge(busySpans(busy))
	slots := interval.Gaps(merged, from, to, time.Duration(req.SlotMinutes)*time.Minute)

	return &AvailabilityResult{
		Resource:    res,
		From:        from,
		To:          to,
		SlotMinutes: req.SlotMinutes,
		Slots:       slots,
		BusyCount:   len(busy),
	}, nil
}

func (s *service) NextAvailable(ctx context.Context, req NextAvailableRequest) (*NextAvailableResult, error) {
	if req.Duration <= 0 {
		return nil, ErrInvalidDuration
	}
	if req.Horizon <= 0 {
		req.Horizon = defaultSearchHorizon
	}
	if req.Step <= 0 {
		req.Step = defaultSearchStep
	}
	if req.Max <= 0 {
		req.Max = defaultMaxSuggestions
	}

	if _, err := s.resService.GetByID(ctx, req.ResourceID); err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}

	suggestions, searchedUntil, err := s.scanForSlots(ctx, req.ResourceID,
		req.DesiredStart.UTC(), req.Duration, req.Horizon, req.Step, req.Max)
	if err != nil {
		return nil, err
	}
	return &NextAvailableResult{Suggestions: suggestions, SearchedUntil: searchedUntil}, nil
}

// scanForSlots walks forward from desiredStart looking for free candidate
// slots of the given duration. On hitting an obstruction the cursor jumps
// to its end; after emitting a suggestion the cursor advances by step. The
// first suggestion is therefore the earliest free slot at or after
// desiredStart, not necessarily grid-aligned.
func (s *service) scanForSlots(ctx context.Context, resourceID string, desiredStart time.Time, duration, horizon, step time.Duration, max int) ([]interval.Span, time.Time, error) {
	searchEnd := desiredStart.Add(horizon)

	busy, err := s.resolver.BusySet(ctx, resourceID, desiredStart, searchEnd)
	if err != nil {
		return nil, time.Time{}, err
	}
	merged := interval.Merge(busySpans(busy))

	var suggestions []interval.Span
	cursor := desiredStart
	for cursor.Before(searchEnd) && len(suggestions) < max {
		candidate := interval.Span{Start: cursor, End: cursor.Add(duration)}

		if obstruction, blocked := firstObstruction(merged, candidate); blocked {
			cursor = obstruction.End
			continue
		}

		suggestions = append(suggestions, candidate)
		cursor = cursor.Add(step)
	}
	return suggestions, cursor, nil
}

// firstObstruction scans the merged busy list for a span overlapping the
// candidate. Linear is fine: the list is small in practice.
func firstObstruction(merged []interval.Span, candidate interval.Span) (interval.Span, bool) {
	for _, m := range merged {
		if interval.Overlaps(m, candidate) {
			return m, true
		}
	}
	return interval.Span{}, false
}

func busySpans(busy []BusyInstance) []interval.Span {
	spans := make([]interval.Span, len(busy))
	for i, bi := range busy {
		spans[i] = bi.Span()
	}
	return spans
}
