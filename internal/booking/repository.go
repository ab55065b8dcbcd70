package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// CreateSingle inserts a non-recurring booking. The resource-scoped
	// range-exclusion constraint is the source of truth for non-overlap;
	// a violation is reported as ErrTimeConflict.
	CreateSingle(ctx context.Context, b *Booking) error

	// CreateRecurring writes the booking, its rule, and its exceptions in
	// one transaction. The transaction holds an advisory lock on the
	// resource while precheck runs, so the expand-check-insert sequence of
	// concurrent recurring writers cannot interleave. A non-nil precheck
	// error aborts the transaction and is returned verbatim.
	CreateRecurring(ctx context.Context, b *Booking, precheck func(ctx context.Context) error) error

	GetByID(ctx context.Context, id string) (*Booking, error)

	// ListSingleInWindow returns non-recurring bookings whose stored range
	// intersects [from, to), via the native range-overlap operator.
	ListSingleInWindow(ctx context.Context, resourceID string, from, to time.Time) ([]*Booking, error)

	// ListRecurringStartingBefore returns recurring bookings whose template
	// start precedes the given instant, with rule and exceptions loaded.
	// The template start is only a lower bound; occurrences may lie far
	// beyond it.
	ListRecurringStartingBefore(ctx context.Context, resourceID string, before time.Time) ([]*Booking, error)

	// ListInWindow returns every booking relevant to [from, to): singles
	// overlapping the window plus all recurring templates starting before
	// its end.
	ListInWindow(ctx context.Context, resourceID string, from, to time.Time) ([]*Booking, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

const insertBookingQuery = `
	INSERT INTO public.bookings (resource_id, start_time, end_time, metadata)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at
`

func (r *pgxRepository) CreateSingle(ctx context.Context, b *Booking) error {
	err := r.pool.QueryRow(ctx, insertBookingQuery,
		b.ResourceID, b.StartTime, b.EndTime, b.Metadata).
		Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		if isExclusionViolation(err) {
			return ErrTimeConflict
		}
		return fmt.Errorf("create booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) CreateRecurring(ctx context.Context, b *Booking, precheck func(ctx context.Context) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// The exclusion constraint only guards the template interval, so
		// recurring writers on the same resource must be serialized across
		// the whole expand-check-insert sequence.
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1::text))", b.ResourceID); err != nil {
			return fmt.Errorf("lock resource failed: %w", err)
		}

		if err := precheck(ctx); err != nil {
			return err
		}

		if err := tx.QueryRow(ctx, insertBookingQuery,
			b.ResourceID, b.StartTime, b.EndTime, b.Metadata).
			Scan(&b.ID, &b.CreatedAt); err != nil {
			if isExclusionViolation(err) {
				return ErrTimeConflict
			}
			return fmt.Errorf("create recurring booking failed: %w", err)
		}

		b.Rule.BookingID = b.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO public.recurrence_rules (booking_id, rrule, is_infinite)
			VALUES ($1, $2, $3)
		`, b.ID, b.Rule.Rule, b.Rule.IsInfinite); err != nil {
			return fmt.Errorf("create recurrence rule failed: %w", err)
		}

		for i := range b.Exceptions {
			ex := &b.Exceptions[i]
			ex.BookingID = b.ID
			if err := tx.QueryRow(ctx, `
				INSERT INTO public.exceptions (booking_id, except_date, replace_start, replace_end)
				VALUES ($1, $2, $3, $4)
				RETURNING id
			`, b.ID, ex.Date, ex.ReplaceStart, ex.ReplaceEnd).Scan(&ex.ID); err != nil {
				return fmt.Errorf("create exception failed: %w", err)
			}
		}
		return nil
	})
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	bookings, err := r.selectBookings(ctx, squirrel.Eq{"b.id": id})
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, ErrNotFound
	}
	return bookings[0], nil
}

func (r *pgxRepository) ListSingleInWindow(ctx context.Context, resourceID string, from, to time.Time) ([]*Booking, error) {
	return r.selectBookings(ctx,
		squirrel.Eq{"b.resource_id": resourceID},
		squirrel.Expr("rr.booking_id IS NULL"),
		squirrel.Expr("b.time_range && tstzrange(?, ?, '[)')", from, to),
	)
}

func (r *pgxRepository) ListRecurringStartingBefore(ctx context.Context, resourceID string, before time.Time) ([]*Booking, error) {
	return r.selectBookings(ctx,
		squirrel.Eq{"b.resource_id": resourceID},
		squirrel.Expr("rr.booking_id IS NOT NULL"),
		squirrel.Lt{"b.start_time": before},
	)
}

func (r *pgxRepository) ListInWindow(ctx context.Context, resourceID string, from, to time.Time) ([]*Booking, error) {
	return r.selectBookings(ctx,
		squirrel.Eq{"b.resource_id": resourceID},
		squirrel.Lt{"b.start_time": to},
		squirrel.Or{
			squirrel.Gt{"b.end_time": from},
			squirrel.Expr("rr.booking_id IS NOT NULL"),
		},
	)
}

// selectBookings fetches bookings with their rule and exception list in a
// single read, grouping the joined exception rows per booking.
func (r *pgxRepository) selectBookings(ctx context.Context, where ...squirrel.Sqlizer) ([]*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(
		"b.id", "b.resource_id", "b.start_time", "b.end_time", "b.metadata", "b.created_at",
		"rr.rrule", "rr.is_infinite",
		"e.id", "e.except_date", "e.replace_start", "e.replace_end",
	).
		From("public.bookings b").
		LeftJoin("public.recurrence_rules rr ON rr.booking_id = b.id").
		LeftJoin("public.exceptions e ON e.booking_id = b.id")

	for _, w := range where {
		query = query.Where(w)
	}
	query = query.OrderBy("b.start_time ASC", "b.id ASC", "e.except_date ASC")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select bookings failed: %w", err)
	}
	defer rows.Close()

	var (
		result []*Booking
		index  = make(map[string]*Booking)
	)
	for rows.Next() {
		var (
			b            Booking
			rule         *string
			isInfinite   *bool
			exID         *string
			exDate       *time.Time
			replaceStart *time.Time
			replaceEnd   *time.Time
		)
		if err := rows.Scan(
			&b.ID, &b.ResourceID, &b.StartTime, &b.EndTime, &b.Metadata, &b.CreatedAt,
			&rule, &isInfinite,
			&exID, &exDate, &replaceStart, &replaceEnd,
		); err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}

		current, seen := index[b.ID]
		if !seen {
			current = &b
			if rule != nil {
				current.Rule = &RecurrenceRule{
					BookingID:  b.ID,
					Rule:       *rule,
					IsInfinite: isInfinite != nil && *isInfinite,
				}
			}
			index[b.ID] = current
			result = append(result, current)
		}

		if exID != nil {
			current.Exceptions = append(current.Exceptions, Exception{
				ID:           *exID,
				BookingID:    current.ID,
				Date:         *exDate,
				ReplaceStart: replaceStart,
				ReplaceEnd:   replaceEnd,
			})
		}
	}
	return result, rows.Err()
}

func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation
}
