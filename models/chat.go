package models

// TurnRequest is one inbound chat message handed to the assistant, together
// with the candidates the extractor pulled out of it.
type TurnRequest struct {
	ConversationID string
	CustomerID     string
	Language       string
	Message        string
	Candidates     CandidateMap
}

// TurnResult is the assistant's answer to one turn. Every turn yields exactly
// one reply; there is no silent failure mode.
type TurnResult struct {
	ReplyText   string `json:"reply"`
	IsEscalated bool   `json:"escalated"`
	IsComplete  bool   `json:"complete"`
}

// ChatRequest is the payload coming from the messaging-channel layer into
// /api/chat/turn.
type ChatRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	CustomerID     string `json:"customer_id"`
	Text           string `json:"text" binding:"required"`
	Language       string `json:"language"`
}

// ChatResponse is what the chat handler returns to the channel layer.
type ChatResponse struct {
	Reply     string `json:"reply"`
	Escalated bool   `json:"escalated"`
	Complete  bool   `json:"complete"`
}
