package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookline/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingBackend struct {
	services  []models.Service
	locations []models.Location
	listErr   error

	serviceCalls  int
	locationCalls int
}

func (b *countingBackend) ListServices(ctx context.Context) ([]models.Service, error) {
	b.serviceCalls++
	if b.listErr != nil {
		return nil, b.listErr
	}
	return b.services, nil
}

func (b *countingBackend) ListLocations(ctx context.Context) ([]models.Location, error) {
	b.locationCalls++
	if b.listErr != nil {
		return nil, b.listErr
	}
	return b.locations, nil
}

func (b *countingBackend) QueryAvailability(ctx context.Context, serviceID, locationID, date string) ([]models.TimeUnit, error) {
	return nil, nil
}

func (b *countingBackend) SubmitOrder(ctx context.Context, req models.OrderRequest) (*models.OrderReceipt, error) {
	return nil, errors.New("not supported")
}

func testCatalog() (*DefaultCatalogService, *countingBackend) {
	backend := &countingBackend{
		services: []models.Service{
			{ID: "svc-1", Name: "Manicure", DurationMinutes: 30},
			{ID: "svc-2", Name: "French Manicure", DurationMinutes: 45},
			{ID: "svc-3", Name: "Massage", DurationMinutes: 60},
		},
		locations: []models.Location{
			{ID: "loc-1", Name: "Downtown"},
			{ID: "loc-2", Name: "Westside"},
		},
	}
	return NewDefaultCatalogService(backend, time.Hour), backend
}

func TestResolveService(t *testing.T) {
	catalog, _ := testCatalog()
	ctx := context.Background()

	tests := []struct {
		name      string
		text      string
		wantID    string
		ambiguous bool
		notFound  bool
	}{
		{name: "unique substring", text: "massage", wantID: "svc-3"},
		{name: "case insensitive", text: "MASSAGE", wantID: "svc-3"},
		{name: "exact name beats substring matches", text: "manicure", wantID: "svc-1"},
		{name: "qualified name is unique", text: "french manicure", wantID: "svc-2"},
		{name: "text containing the name", text: "a relaxing massage please", wantID: "svc-3"},
		{name: "shared fragment is ambiguous", text: "ma", ambiguous: true},
		{name: "unknown service", text: "haircut", notFound: true},
		{name: "blank text", text: "   ", notFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := catalog.ResolveService(ctx, tt.text)
			switch {
			case tt.ambiguous:
				var ambErr *AmbiguousError
				require.ErrorAs(t, err, &ambErr)
				assert.GreaterOrEqual(t, len(ambErr.Matches), 2)
			case tt.notFound:
				var nfErr *NotFoundError
				require.ErrorAs(t, err, &nfErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, svc.ID)
			}
		})
	}
}

func TestResolveLocation(t *testing.T) {
	catalog, _ := testCatalog()
	ctx := context.Background()

	loc, err := catalog.ResolveLocation(ctx, "downtown")
	require.NoError(t, err)
	assert.Equal(t, "loc-1", loc.ID)

	loc, err = catalog.ResolveLocation(ctx, "the westside branch")
	require.NoError(t, err)
	assert.Equal(t, "loc-2", loc.ID)

	_, err = catalog.ResolveLocation(ctx, "uptown")
	var nfErr *NotFoundError
	assert.ErrorAs(t, err, &nfErr)
}

func TestCatalogCachesWithinTTL(t *testing.T) {
	catalog, backend := testCatalog()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := catalog.ResolveService(ctx, "massage")
		require.NoError(t, err)
	}

	assert.Equal(t, 1, backend.serviceCalls)
	assert.Equal(t, 1, backend.locationCalls)
}

func TestCatalogRefreshesAfterTTL(t *testing.T) {
	catalog, backend := testCatalog()
	catalog.RefreshTTL = time.Nanosecond
	ctx := context.Background()

	_, err := catalog.ResolveService(ctx, "massage")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = catalog.ResolveService(ctx, "massage")
	require.NoError(t, err)

	assert.Equal(t, 2, backend.serviceCalls)
}

func TestCatalogSurfacesBackendFailure(t *testing.T) {
	catalog, backend := testCatalog()
	backend.listErr = errors.New("backend down")

	_, err := catalog.ResolveService(context.Background(), "massage")
	require.Error(t, err)
	var nfErr *NotFoundError
	assert.False(t, errors.As(err, &nfErr))
}
