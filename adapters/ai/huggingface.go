// Package ai contains HTTP adapters for hosted inference endpoints.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elum-utils/moderate/models"
	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL   = "https://api-inference.huggingface.co"
	defaultTextModel = "Anvesh18/zeroshot-profanity-filter"
)

// HuggingFaceAdapter runs zero-shot text classification against the hosted
// inference API.
type HuggingFaceAdapter struct {
	model    string
	endpoint string
	client   *resty.Client
}

// HuggingFaceOptions configures the adapter.
type HuggingFaceOptions struct {
	APIToken string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// NewHuggingFaceAdapter creates an adapter instance. The API token is
// optional for public models but strongly rate-limited without one.
func NewHuggingFaceAdapter(opt HuggingFaceOptions) (*HuggingFaceAdapter, error) {
	if strings.TrimSpace(opt.BaseURL) == "" {
		opt.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(opt.Model) == "" {
		opt.Model = defaultTextModel
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 15 * time.Second
	}
	base := strings.TrimRight(opt.BaseURL, "/")
	client := resty.New().
		SetTimeout(opt.Timeout).
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json")
	if strings.TrimSpace(opt.APIToken) != "" {
		client.SetAuthToken(opt.APIToken)
	}
	return &HuggingFaceAdapter{
		model:    opt.Model,
		endpoint: base + "/models/" + opt.Model,
		client:   client,
	}, nil
}

func (h *HuggingFaceAdapter) Name() string { return "huggingface" }

type zeroShotRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		CandidateLabels []string `json:"candidate_labels"`
	} `json:"parameters"`
}

type zeroShotResponse struct {
	Sequence string    `json:"sequence"`
	Labels   []string  `json:"labels"`
	Scores   []float64 `json:"scores"`
}

// Classify scores text against the candidate labels. The response ranks
// labels by score; scores across candidates sum to ~1.0.
func (h *HuggingFaceAdapter) Classify(ctx context.Context, text string, labels []string) (models.Classification, error) {
	if len(labels) == 0 {
		return models.Classification{}, errors.New("ai: candidate labels are required")
	}
	var payload zeroShotRequest
	payload.Inputs = text
	payload.Parameters.CandidateLabels = labels

	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(h.endpoint)
	if err != nil {
		return models.Classification{}, err
	}
	if resp.StatusCode() >= http.StatusMultipleChoices {
		return models.Classification{}, fmt.Errorf("ai: status %d: %s", resp.StatusCode(), resp.String())
	}

	var parsed zeroShotResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return models.Classification{}, fmt.Errorf("ai: decode response: %w", err)
	}
	if len(parsed.Labels) == 0 || len(parsed.Labels) != len(parsed.Scores) {
		return models.Classification{}, errors.New("ai: malformed zero-shot response")
	}

	scores := make(map[string]float64, len(parsed.Labels))
	for i, label := range parsed.Labels {
		scores[label] = parsed.Scores[i]
	}
	return models.Classification{
		Label:  parsed.Labels[0],
		Score:  parsed.Scores[0],
		Scores: scores,
	}, nil
}
