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

const defaultImageModel = "Falconsai/nsfw_image_detection"

// NSFWAdapter runs image classification against the hosted inference API.
type NSFWAdapter struct {
	model    string
	endpoint string
	client   *resty.Client
}

// NSFWOptions configures the adapter.
type NSFWOptions struct {
	APIToken string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// NewNSFWAdapter creates an adapter instance.
func NewNSFWAdapter(opt NSFWOptions) (*NSFWAdapter, error) {
	if strings.TrimSpace(opt.BaseURL) == "" {
		opt.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(opt.Model) == "" {
		opt.Model = defaultImageModel
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 30 * time.Second
	}
	base := strings.TrimRight(opt.BaseURL, "/")
	client := resty.New().
		SetTimeout(opt.Timeout).
		SetBaseURL(base).
		SetHeader("Content-Type", "application/octet-stream")
	if strings.TrimSpace(opt.APIToken) != "" {
		client.SetAuthToken(opt.APIToken)
	}
	return &NSFWAdapter{
		model:    opt.Model,
		endpoint: base + "/models/" + opt.Model,
		client:   client,
	}, nil
}

func (n *NSFWAdapter) Name() string { return "nsfw" }

type imageScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ClassifyImage scores raw image bytes. The response lists every class; the
// top-scoring class becomes the result label.
func (n *NSFWAdapter) ClassifyImage(ctx context.Context, image []byte) (models.ImageClassification, error) {
	if len(image) == 0 {
		return models.ImageClassification{}, errors.New("ai: image is empty")
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(image).
		Post(n.endpoint)
	if err != nil {
		return models.ImageClassification{}, err
	}
	if resp.StatusCode() >= http.StatusMultipleChoices {
		return models.ImageClassification{}, fmt.Errorf("ai: status %d: %s", resp.StatusCode(), resp.String())
	}

	var parsed []imageScore
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return models.ImageClassification{}, fmt.Errorf("ai: decode response: %w", err)
	}
	if len(parsed) == 0 {
		return models.ImageClassification{}, errors.New("ai: empty image classification")
	}

	out := models.ImageClassification{
		Label:     parsed[0].Label,
		Score:     parsed[0].Score,
		AllScores: make(map[string]float64, len(parsed)),
	}
	for _, s := range parsed {
		out.AllScores[s.Label] = s.Score
		if s.Score > out.Score {
			out.Label = s.Label
			out.Score = s.Score
		}
	}
	return out, nil
}
