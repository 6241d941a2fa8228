package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"bookline/models"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiExtractor asks a Gemini model for the candidate map. It is selected
// by config; the assistant validates everything downstream, so a wrong guess
// costs one clarifying question, never a bad booking.
type GeminiExtractor struct {
	model *genai.GenerativeModel
}

func NewGeminiExtractor(apiKey string) (*GeminiExtractor, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("models/gemini-1.5-pro")
	return &GeminiExtractor{model: model}, nil
}

const extractionPrompt = `Extract appointment-booking details from the customer message below.
Reply with ONLY a JSON object; omit keys you are not sure about.
Possible keys: "service", "location", "date", "time", "name", "email".
Values are the customer's words, lightly normalized (e.g. "3pm", "tomorrow").

Customer message: %q
The assistant is currently asking for: %s`

func (e *GeminiExtractor) Extract(ctx context.Context, message string, session *models.BookingSession) (models.CandidateMap, error) {
	step := "the first missing booking detail"
	if session != nil {
		step = string(session.CurrentStep)
	}

	resp, err := e.model.GenerateContent(ctx, genai.Text(fmt.Sprintf(extractionPrompt, message, step)))
	if err != nil {
		return nil, fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return models.CandidateMap{}, nil
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}

	return parseCandidateJSON(sb.String())
}

// parseCandidateJSON tolerates models wrapping the object in code fences.
func parseCandidateJSON(text string) (models.CandidateMap, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var raw map[string]string
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return nil, fmt.Errorf("unparseable extraction response: %w", err)
	}

	candidates := make(models.CandidateMap, len(raw))
	for _, kind := range models.SlotOrder {
		if v, ok := raw[string(kind)]; ok && strings.TrimSpace(v) != "" {
			candidates[kind] = strings.TrimSpace(v)
		}
	}
	return candidates, nil
}
