package resource

import (
	"net/http"
	"time"

	"github.com/glasswing-dev/reservation-backend/internal/pkg/apperror"
)

var (
	ErrNotFound  = apperror.New(http.StatusNotFound, "resource not found")
	ErrEmptyName = apperror.New(http.StatusBadRequest, "name cannot be empty")
)

// Resource is an opaque bookable entity (e.g., Room 101, Court A).
// Resources are provisioned through the admin endpoints and never mutated
// by the booking core.
type Resource struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
