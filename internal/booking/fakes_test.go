package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/glasswing-dev/reservation-backend/internal/resource"
)

// fakeRepo is an in-memory Repository that mimics the storage contract:
// the non-overlap exclusion over every stored template interval, and the
// windowed reads the resolver depends on.
type fakeRepo struct {
	bookings []*Booking
	seq      int

	// racer, when set, commits between the recurring precheck and the
	// template insert, like a concurrent single create would, and makes
	// the insert fail on the exclusion constraint.
	racer *Booking
}

func (f *fakeRepo) nextID() string {
	f.seq++
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", f.seq)
}

func (f *fakeRepo) templateOverlaps(b *Booking) bool {
	for _, x := range f.bookings {
		if x.ResourceID == b.ResourceID && x.StartTime.Before(b.EndTime) && b.StartTime.Before(x.EndTime) {
			return true
		}
	}
	return false
}

func (f *fakeRepo) CreateSingle(_ context.Context, b *Booking) error {
	if f.templateOverlaps(b) {
		return ErrTimeConflict
	}
	b.ID = f.nextID()
	b.CreatedAt = time.Now().UTC()
	f.bookings = append(f.bookings, b)
	return nil
}

func (f *fakeRepo) CreateRecurring(ctx context.Context, b *Booking, precheck func(ctx context.Context) error) error {
	if err := precheck(ctx); err != nil {
		return err
	}
	if f.racer != nil {
		f.bookings = append(f.bookings, f.racer)
		f.racer = nil
		return ErrTimeConflict
	}
	if f.templateOverlaps(b) {
		return ErrTimeConflict
	}
	b.ID = f.nextID()
	b.CreatedAt = time.Now().UTC()
	b.Rule.BookingID = b.ID
	for i := range b.Exceptions {
		b.Exceptions[i].ID = f.nextID()
		b.Exceptions[i].BookingID = b.ID
	}
	f.bookings = append(f.bookings, b)
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Booking, error) {
	for _, b := range f.bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) ListSingleInWindow(_ context.Context, resourceID string, from, to time.Time) ([]*Booking, error) {
	var out []*Booking
	for _, b := range f.bookings {
		if b.ResourceID == resourceID && b.Rule == nil &&
			b.StartTime.Before(to) && b.EndTime.After(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListRecurringStartingBefore(_ context.Context, resourceID string, before time.Time) ([]*Booking, error) {
	var out []*Booking
	for _, b := range f.bookings {
		if b.ResourceID == resourceID && b.Rule != nil && b.StartTime.Before(before) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListInWindow(_ context.Context, resourceID string, from, to time.Time) ([]*Booking, error) {
	var out []*Booking
	for _, b := range f.bookings {
		if b.ResourceID != resourceID || !b.StartTime.Before(to) {
			continue
		}
		if b.EndTime.After(from) || b.Rule != nil {
			out = append(out, b)
		}
	}
	return out, nil
}

// fakeResourceService knows a fixed set of resources.
type fakeResourceService struct {
	resources map[string]*resource.Resource
}

func newFakeResourceService(resources ...*resource.Resource) *fakeResourceService {
	m := make(map[string]*resource.Resource, len(resources))
	for _, r := range resources {
		m[r.ID] = r
	}
	return &fakeResourceService{resources: m}
}

func (f *fakeResourceService) Create(_ context.Context, req resource.CreateRequest) (*resource.Resource, error) {
	res := &resource.Resource{ID: fmt.Sprintf("res-%d", len(f.resources)+1), Name: req.Name}
	f.resources[res.ID] = res
	return res, nil
}

func (f *fakeResourceService) GetByID(_ context.Context, id string) (*resource.Resource, error) {
	if res, ok := f.resources[id]; ok {
		return res, nil
	}
	return nil, resource.ErrNotFound
}

func (f *fakeResourceService) List(_ context.Context) ([]*resource.Resource, error) {
	var out []*resource.Resource
	for _, res := range f.resources {
		out = append(out, res)
	}
	return out, nil
}
