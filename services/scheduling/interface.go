package scheduling

import (
	"context"
	"errors"

	"bookline/models"
)

// TimeUnitMinutes is the grain length of the backend's bookable time units.
const TimeUnitMinutes = 15

// ErrSlotUnavailable is returned by SubmitOrder when the requested time units
// are no longer free. A transport failure or timeout is never reported as
// this error; the two give very different information about availability.
var ErrSlotUnavailable = errors.New("requested time units are no longer available")

// Client is the narrow contract the assistant uses to talk to the external
// appointment-scheduling backend.
type Client interface {
	ListServices(ctx context.Context) ([]models.Service, error)
	ListLocations(ctx context.Context) ([]models.Location, error)
	QueryAvailability(ctx context.Context, serviceID, locationID, date string) ([]models.TimeUnit, error)
	SubmitOrder(ctx context.Context, req models.OrderRequest) (*models.OrderReceipt, error)
}
