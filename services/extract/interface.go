package extract

import (
	"context"

	"bookline/models"
)

// Extractor turns a free-text message into typed candidate values, one guess
// per slot kind at most. The assistant validates every candidate itself, so
// an extractor is free to guess generously.
type Extractor interface {
	Extract(ctx context.Context, message string, session *models.BookingSession) (models.CandidateMap, error)
}
