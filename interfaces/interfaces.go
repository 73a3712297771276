package interfaces

import (
	"context"

	"github.com/elum-utils/moderate/models"
)

// Classifier scores a text against a fixed candidate label pair.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, text string, labels []string) (models.Classification, error)
}

// ImageClassifier scores raw image bytes.
type ImageClassifier interface {
	Name() string
	ClassifyImage(ctx context.Context, image []byte) (models.ImageClassification, error)
}

// StrikeStore tracks per-actor strike counts. Increment must be atomic per
// actor: concurrent calls for one actor observe distinct counts. When the
// post-increment count reaches the store's configured limit, the record is
// removed and banned is true, so the actor's next strike starts at 1 again.
type StrikeStore interface {
	Increment(ctx context.Context, actor string) (count int, banned bool, err error)
	Reset(ctx context.Context, actor string) error
}

// Logger is an optional structured logger.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}
