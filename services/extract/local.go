package extract

import (
	"context"
	"regexp"
	"strings"

	"bookline/models"
	"bookline/services/catalog"
)

// LocalExtractor is the default, deterministic extractor: keyword and pattern
// matching over the message, biased by the step the session is currently
// asking for. No network, no model, reproducible in tests.
type LocalExtractor struct {
	Catalog catalog.CatalogService
}

var (
	localEmailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	localTimeRe  = regexp.MustCompile(`(?i)\b(\d{1,2}(?:[:.]\d{2})?\s*(?:am|pm)|\d{1,2}:\d{2})\b`)
	localDateRe  = regexp.MustCompile(`(?i)\b(\d{4}-\d{2}-\d{2}|\d{2}[./]\d{2}[./]\d{4}|today|tomorrow|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	localNameRe  = regexp.MustCompile(`(?i)\b(?:my name is|i am|i'm|this is)\s+([a-zA-Z][a-zA-Z .'\-]{1,40})`)
)

func (e *LocalExtractor) Extract(ctx context.Context, message string, session *models.BookingSession) (models.CandidateMap, error) {
	candidates := make(models.CandidateMap)
	lower := strings.ToLower(message)

	// Service and location names from the catalog.
	if services, err := e.Catalog.Services(ctx); err == nil {
		for _, svc := range services {
			if strings.Contains(lower, strings.ToLower(svc.Name)) {
				candidates[models.SlotService] = svc.Name
				break
			}
		}
	}
	if locations, err := e.Catalog.Locations(ctx); err == nil {
		for _, loc := range locations {
			if strings.Contains(lower, strings.ToLower(loc.Name)) {
				candidates[models.SlotLocation] = loc.Name
				break
			}
		}
	}

	if m := localDateRe.FindString(message); m != "" {
		candidates[models.SlotDate] = m
	}
	if m := localTimeRe.FindString(message); m != "" {
		candidates[models.SlotTime] = m
	}
	if m := localEmailRe.FindString(message); m != "" {
		candidates[models.SlotEmail] = m
	}
	if m := localNameRe.FindStringSubmatch(message); m != nil {
		candidates[models.SlotName] = strings.TrimSpace(m[1])
	}

	// When the assistant is asking for a contact detail, a short free-form
	// answer is most likely exactly that detail.
	if session != nil && session.CurrentStep == models.StepContact {
		if _, ok := candidates[models.SlotName]; !ok && !session.SlotFor(models.SlotName).Validated {
			if looksLikeName(message) {
				candidates[models.SlotName] = strings.TrimSpace(message)
			}
		}
	}

	return candidates, nil
}

func looksLikeName(message string) bool {
	text := strings.TrimSpace(message)
	if text == "" || len(text) > 60 || localEmailRe.MatchString(text) {
		return false
	}
	words := strings.Fields(text)
	return len(words) <= 4
}
