package catalog

import (
	"context"
	"fmt"

	"bookline/models"
)

// CatalogService resolves free text against the bookable services and the
// closed set of known locations.
type CatalogService interface {
	// ResolveService returns the single catalog item the text refers to.
	// Zero matches yield *NotFoundError, more than one *AmbiguousError;
	// the assistant phrases its clarifying question off that distinction.
	ResolveService(ctx context.Context, text string) (*models.Service, error)
	ResolveLocation(ctx context.Context, text string) (*models.Location, error)
	Services(ctx context.Context) ([]models.Service, error)
	Locations(ctx context.Context) ([]models.Location, error)
}

// NotFoundError means the text matched nothing in the catalog.
type NotFoundError struct {
	What string
	Text string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %q", e.What, e.Text)
}

// AmbiguousError means the text matched more than one catalog item.
type AmbiguousError struct {
	What    string
	Text    string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%s %q is ambiguous, matches %v", e.What, e.Text, e.Matches)
}
