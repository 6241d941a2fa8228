package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"bookline/models"
	"bookline/services/scheduling"
	"bookline/utils"

	"go.uber.org/zap"
)

// DefaultCatalogService serves catalog lookups from the scheduling backend,
// holding both lists in memory with a refresh TTL so a turn never blocks on
// the backend for data that changes rarely.
type DefaultCatalogService struct {
	Backend    scheduling.Client
	RefreshTTL time.Duration

	mu        sync.Mutex
	services  []models.Service
	locations []models.Location
	fetchedAt time.Time
}

func NewDefaultCatalogService(backend scheduling.Client, refreshTTL time.Duration) *DefaultCatalogService {
	if refreshTTL <= 0 {
		refreshTTL = 10 * time.Minute
	}
	return &DefaultCatalogService{Backend: backend, RefreshTTL: refreshTTL}
}

func (c *DefaultCatalogService) Services(ctx context.Context) ([]models.Service, error) {
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.services, nil
}

func (c *DefaultCatalogService) Locations(ctx context.Context) ([]models.Location, error) {
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locations, nil
}

// ResolveService matches text against service names, case-insensitive,
// accepting either side containing the other. Exactly one hit is required.
func (c *DefaultCatalogService) ResolveService(ctx context.Context, text string) (*models.Service, error) {
	services, err := c.Services(ctx)
	if err != nil {
		return nil, err
	}

	needle := normalize(text)
	if needle == "" {
		return nil, &NotFoundError{What: "service", Text: text}
	}

	var matches []models.Service
	for _, svc := range services {
		name := normalize(svc.Name)
		if name == needle {
			// An exact name match wins outright even when it is a
			// substring of other service names.
			return &svc, nil
		}
		if strings.Contains(name, needle) || strings.Contains(needle, name) {
			matches = append(matches, svc)
		}
	}

	switch len(matches) {
	case 0:
		return nil, &NotFoundError{What: "service", Text: text}
	case 1:
		return &matches[0], nil
	default:
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, m.Name)
		}
		return nil, &AmbiguousError{What: "service", Text: text, Matches: names}
	}
}

// ResolveLocation matches text against the closed set of known locations.
func (c *DefaultCatalogService) ResolveLocation(ctx context.Context, text string) (*models.Location, error) {
	locations, err := c.Locations(ctx)
	if err != nil {
		return nil, err
	}

	needle := normalize(text)
	if needle == "" {
		return nil, &NotFoundError{What: "location", Text: text}
	}

	for _, loc := range locations {
		name := normalize(loc.Name)
		if name == needle || strings.Contains(name, needle) || strings.Contains(needle, name) {
			return &loc, nil
		}
	}
	return nil, &NotFoundError{What: "location", Text: text}
}

func (c *DefaultCatalogService) refresh(ctx context.Context) error {
	c.mu.Lock()
	fresh := time.Since(c.fetchedAt) < c.RefreshTTL && c.services != nil
	c.mu.Unlock()
	if fresh {
		return nil
	}

	services, err := c.Backend.ListServices(ctx)
	if err != nil {
		return fmt.Errorf("refresh catalog services: %w", err)
	}
	locations, err := c.Backend.ListLocations(ctx)
	if err != nil {
		return fmt.Errorf("refresh catalog locations: %w", err)
	}

	c.mu.Lock()
	c.services = services
	c.locations = locations
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	utils.GetLogger().Debug("catalog refreshed",
		zap.Int("services", len(services)), zap.Int("locations", len(locations)))
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
