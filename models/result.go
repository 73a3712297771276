package models

// Classification is a normalized classifier response. Scores maps every
// candidate label to its score; Label and Score describe the top-ranked
// candidate. Produced fresh per call and never cached.
type Classification struct {
	Label  string             `json:"label"`
	Score  float64            `json:"score"`
	Scores map[string]float64 `json:"scores,omitempty"`
}

// Decision is the policy verdict derived from one Classification.
type Decision struct {
	Flagged    bool    `json:"is_profane"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label"`
}

// FilterResult is the outcome of a filter call: the original text plus
// its safe rendering under the selected mode.
type FilterResult struct {
	Original   string             `json:"original"`
	Filtered   string             `json:"filtered"`
	Flagged    bool               `json:"is_profane"`
	Confidence float64            `json:"confidence"`
	Label      string             `json:"label"`
	Scores     map[string]float64 `json:"scores,omitempty"`
	Mode       Mode               `json:"mode"`
}

// Outcome combines a decision with the escalation result for one message.
type Outcome struct {
	Decision Decision `json:"decision"`
	Filtered string   `json:"filtered,omitempty"`
	Strikes  int      `json:"strikes"`
	Banned   bool     `json:"banned"`
}

// ImageClassification is a normalized image classifier response.
type ImageClassification struct {
	Label     string             `json:"label"`
	Score     float64            `json:"score"`
	AllScores map[string]float64 `json:"all_scores,omitempty"`
}

// ImageDecision is the verdict for one image.
type ImageDecision struct {
	Flagged    bool               `json:"is_profane"`
	Label      string             `json:"label"`
	Confidence float64            `json:"confidence"`
	AllScores  map[string]float64 `json:"all_scores,omitempty"`
}
