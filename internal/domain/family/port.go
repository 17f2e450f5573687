package family

import (
	"context"
	"errors"
	"time"
)

// ErrMemberNotFound is returned when no member has the requested id.
var ErrMemberNotFound = errors.New("family member not found")

// Repository port (read-only; the family dashboard is backed by sample data)
type Repository interface {
	List(ctx context.Context) ([]Summary, error)
	Get(ctx context.Context, id string) (*Member, error)
	EmergencyProfile(ctx context.Context) (*EmergencyProfile, error)

	// SearchDocuments matches query case-insensitively against document name
	// and type, newest upload first. An empty query matches everything.
	SearchDocuments(ctx context.Context, memberID, query string) ([]MedicalDocument, error)
	// UpcomingAppointments returns appointments at or after now, soonest first.
	UpcomingAppointments(ctx context.Context, memberID string, now time.Time) ([]Appointment, error)
}
