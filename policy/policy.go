// Package policy converts raw classification output into moderation
// decisions. It is deterministic and side-effect free.
package policy

import (
	"strings"

	"github.com/elum-utils/moderate/models"
)

// DefaultThreshold is the minimum score at which the positive label flags
// content. Higher-stakes deployments typically raise it to 0.8.
const DefaultThreshold = 0.5

// Labels is the fixed candidate pair used for binary zero-shot framing.
// Positive is the flagged class; Negative is the clean class.
type Labels struct {
	Positive string
	Negative string
}

// DefaultLabels returns the descriptive pair the classifier was tuned on.
func DefaultLabels() Labels {
	return Labels{
		Positive: "profane, vulgar, obscene, offensive language",
		Negative: "clean, appropriate, respectful language",
	}
}

// Policy recognizes the flagged label regardless of which candidate the
// classifier ranks first.
type Policy struct {
	labels Labels
	key    string
}

// New creates a policy for a label pair. Empty labels fall back to the
// defaults. The positive label is recognized by exact match or by its
// leading word as a prefix, so short forms like "profane" work too.
func New(labels Labels) Policy {
	def := DefaultLabels()
	if strings.TrimSpace(labels.Positive) == "" {
		labels.Positive = def.Positive
	}
	if strings.TrimSpace(labels.Negative) == "" {
		labels.Negative = def.Negative
	}
	key := strings.ToLower(labels.Positive)
	if idx := strings.IndexAny(key, ", "); idx > 0 {
		key = key[:idx]
	}
	return Policy{labels: labels, key: key}
}

// Candidates returns the label pair in positive-first order for the
// classifier call.
func (p Policy) Candidates() []string {
	return []string{p.labels.Positive, p.labels.Negative}
}

// Positive reports whether label names the flagged class.
func (p Policy) Positive(label string) bool {
	lower := strings.ToLower(label)
	if lower == strings.ToLower(p.labels.Positive) {
		return true
	}
	return strings.HasPrefix(lower, p.key)
}

// Decide derives the verdict for one classification. Content is flagged
// only when the top label is the positive class and its score meets the
// threshold; a score exactly at the threshold flags.
func (p Policy) Decide(c models.Classification, threshold float64) models.Decision {
	return models.Decision{
		Flagged:    p.Positive(c.Label) && c.Score >= threshold,
		Confidence: c.Score,
		Label:      c.Label,
	}
}

// Blank is the fast-path decision for empty or whitespace-only text. Such
// input never reaches the classifier.
func (p Policy) Blank() models.Decision {
	return models.Decision{Flagged: false, Confidence: 0, Label: p.labels.Negative}
}

// IsBlank reports whether text is empty or whitespace only.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
