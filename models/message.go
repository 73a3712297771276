package models

// Message is an input unit for moderation.
type Message struct {
	ID     int64  `json:"id"`
	ChatID string `json:"chat_id,omitempty"`
	Actor  string `json:"actor"`
	Text   string `json:"text"`
}

// BotAction is the decision for one chat message. The chat transport
// performs the actual delete/ban/send; failures there never roll back
// strike state.
type BotAction struct {
	Delete   bool   `json:"delete"`
	Ban      bool   `json:"ban"`
	WarnText string `json:"warn_text,omitempty"`
	Strikes  int    `json:"strikes"`
}
