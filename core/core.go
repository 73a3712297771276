// Package core implements the moderation decision engine: it turns
// classifier output into decisions, renders flagged text safely, and tracks
// per-actor escalation.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/elum-utils/moderate/adapters/strikes"
	"github.com/elum-utils/moderate/engine"
	"github.com/elum-utils/moderate/interfaces"
	"github.com/elum-utils/moderate/models"
	"github.com/elum-utils/moderate/policy"
)

var (
	// ErrClassifierUnavailable wraps classifier transport or model errors.
	// The engine never guesses a decision and never records a strike when
	// classification fails.
	ErrClassifierUnavailable = errors.New("core: classifier unavailable")
	// ErrUnknownMode is returned for a censoring mode outside the enum.
	ErrUnknownMode = errors.New("core: unknown censoring mode")
)

// EventName is a callback bus event.
type EventName string

const (
	EventClean   EventName = "clean"
	EventFlagged EventName = "flagged"
	EventWarn    EventName = "warn"
	EventBan     EventName = "ban"
)

// Event is the callback payload for one moderated message.
type Event struct {
	Actor    string
	ChatID   string
	Text     string
	Censored string
	Decision models.Decision
	Strikes  int
	Banned   bool
}

// EventHandler handles one moderation event.
type EventHandler func(ctx context.Context, event Event) error

// Options configure the engine.
type Options struct {
	Classifier      interfaces.Classifier
	ImageClassifier interfaces.ImageClassifier
	Strikes         interfaces.StrikeStore
	Logger          interfaces.Logger

	// Labels override the candidate pair; empty fields use the defaults.
	Labels policy.Labels
	// Threshold is the default decision threshold. Defaults to 0.5.
	Threshold float64
	// MaxStrikes is the ban limit, used to build the default store and to
	// render warn texts. Defaults to 3. An injected store must be
	// configured with the same limit.
	MaxStrikes int
	// Notice overrides the block-mode replacement text.
	Notice string
	// NSFWLabel is the image label treated as flagged. Defaults to "nsfw".
	NSFWLabel string
	// FailOpen lets content pass uncensored when the classifier fails
	// instead of propagating ErrClassifierUnavailable. Strikes are never
	// recorded on failure either way.
	FailOpen bool
}

// Core is the moderation engine.
type Core struct {
	ai       interfaces.Classifier
	imageAI  interfaces.ImageClassifier
	strikes  interfaces.StrikeStore
	logger   interfaces.Logger
	policy   policy.Policy
	notice   string
	nsfw     string
	failOpen bool
	limit    int

	thresholdMu sync.RWMutex
	threshold   float64

	eventsMu sync.RWMutex
	events   map[EventName][]EventHandler

	nClean   atomic.Int64
	nFlagged atomic.Int64
	nWarned  atomic.Int64
	nBanned  atomic.Int64
}

// New creates an engine instance. Configuration errors are returned by the
// processing methods.
func New(opt Options) *Core {
	c := &Core{
		ai:        opt.Classifier,
		imageAI:   opt.ImageClassifier,
		strikes:   opt.Strikes,
		logger:    opt.Logger,
		policy:    policy.New(opt.Labels),
		notice:    engine.Notice,
		nsfw:      "nsfw",
		failOpen:  opt.FailOpen,
		limit:     strikes.DefaultLimit,
		threshold: policy.DefaultThreshold,
		events:    make(map[EventName][]EventHandler, 4),
	}
	if opt.Threshold > 0 {
		c.threshold = opt.Threshold
	}
	if opt.MaxStrikes > 0 {
		c.limit = opt.MaxStrikes
	}
	if opt.Notice != "" {
		c.notice = opt.Notice
	}
	if opt.NSFWLabel != "" {
		c.nsfw = opt.NSFWLabel
	}
	if c.strikes == nil {
		c.strikes = strikes.NewMemoryStore(strikes.MemoryOptions{Limit: c.limit})
	}
	return c
}

// Threshold returns the current default decision threshold.
func (c *Core) Threshold() float64 {
	c.thresholdMu.RLock()
	defer c.thresholdMu.RUnlock()
	return c.threshold
}

// SetThreshold changes the default threshold for subsequent calls. Per-call
// overrides on Filter never touch the default; this is the only way to
// change it.
func (c *Core) SetThreshold(threshold float64) error {
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("core: threshold %v out of range [0,1]", threshold)
	}
	c.thresholdMu.Lock()
	c.threshold = threshold
	c.thresholdMu.Unlock()
	return nil
}

// On registers an event handler.
func (c *Core) On(event EventName, handler EventHandler) error {
	if handler == nil {
		return errors.New("core: handler is nil")
	}
	c.eventsMu.Lock()
	c.events[event] = append(c.events[event], handler)
	c.eventsMu.Unlock()
	return nil
}

// OnClean registers a handler for messages that pass moderation.
func (c *Core) OnClean(handler EventHandler) error { return c.On(EventClean, handler) }

// OnFlagged registers a handler for every flagged message.
func (c *Core) OnFlagged(handler EventHandler) error { return c.On(EventFlagged, handler) }

// OnWarn registers a handler for flagged messages below the ban limit.
func (c *Core) OnWarn(handler EventHandler) error { return c.On(EventWarn, handler) }

// OnBan registers a handler for messages that trigger a ban.
func (c *Core) OnBan(handler EventHandler) error { return c.On(EventBan, handler) }

func (c *Core) validate() error {
	if c.ai == nil {
		return errors.New("core: classifier is nil")
	}
	return nil
}

func (c *Core) classify(ctx context.Context, text string) (models.Classification, error) {
	res, err := c.ai.Classify(ctx, text, c.policy.Candidates())
	if err != nil {
		return models.Classification{}, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	return res, nil
}

func (c *Core) checkAt(ctx context.Context, text string, threshold float64) (models.Decision, models.Classification, error) {
	if policy.IsBlank(text) {
		return c.policy.Blank(), models.Classification{}, nil
	}
	cls, err := c.classify(ctx, text)
	if err != nil {
		return models.Decision{}, models.Classification{}, err
	}
	return c.policy.Decide(cls, threshold), cls, nil
}

// Check classifies text and returns the verdict plus the raw classification.
// Blank text resolves without a classifier call.
func (c *Core) Check(ctx context.Context, text string) (models.Decision, models.Classification, error) {
	if err := c.validate(); err != nil {
		return models.Decision{}, models.Classification{}, err
	}
	return c.checkAt(ctx, text, c.Threshold())
}

// Filter checks text and renders it under the selected mode. An optional
// threshold override applies to this call only. Unknown modes are rejected
// before any classification happens.
func (c *Core) Filter(ctx context.Context, text string, mode models.Mode, override ...float64) (models.FilterResult, error) {
	if err := c.validate(); err != nil {
		return models.FilterResult{}, err
	}
	if !mode.Valid() {
		return models.FilterResult{}, fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
	threshold := c.Threshold()
	if len(override) > 0 {
		if override[0] < 0 || override[0] > 1 {
			return models.FilterResult{}, fmt.Errorf("core: threshold %v out of range [0,1]", override[0])
		}
		threshold = override[0]
	}

	decision, cls, err := c.checkAt(ctx, text, threshold)
	if err != nil {
		if c.failOpen {
			c.logWarn("classifier failed, passing content through", map[string]any{"error": err.Error()})
			return models.FilterResult{Original: text, Filtered: text, Mode: mode}, nil
		}
		return models.FilterResult{}, err
	}

	filtered := text
	if decision.Flagged {
		filtered, err = c.censor(ctx, text, mode, threshold)
		if err != nil {
			return models.FilterResult{}, err
		}
	}
	return models.FilterResult{
		Original:   text,
		Filtered:   filtered,
		Flagged:    decision.Flagged,
		Confidence: decision.Confidence,
		Label:      decision.Label,
		Scores:     cls.Scores,
		Mode:       mode,
	}, nil
}

func (c *Core) censor(ctx context.Context, text string, mode models.Mode, threshold float64) (string, error) {
	switch mode {
	case models.ModeFull:
		return engine.MaskAll(text), nil
	case models.ModeBlock:
		return c.notice, nil
	case models.ModeSentence:
		return c.censorSentences(ctx, text, threshold)
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
}

// censorSentences re-checks each sentence independently and masks only the
// flagged ones. Sentence verdicts take precedence over the whole-text
// verdict within their sentence. One classifier call per sentence.
func (c *Core) censorSentences(ctx context.Context, text string, threshold float64) (string, error) {
	segments := engine.SplitSentences(text)
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg.Terminator || !engine.Censorable(seg.Text) {
			out = append(out, seg.Text)
			continue
		}
		decision, _, err := c.checkAt(ctx, seg.Text, threshold)
		if err != nil {
			if c.failOpen {
				c.logWarn("sentence re-check failed, keeping verbatim", map[string]any{"error": err.Error()})
				out = append(out, seg.Text)
				continue
			}
			return "", err
		}
		if decision.Flagged {
			out = append(out, engine.MaskAll(seg.Text))
		} else {
			out = append(out, seg.Text)
		}
	}
	var sb strings.Builder
	for _, part := range out {
		sb.WriteString(part)
	}
	return sb.String(), nil
}

// Moderate runs the full pipeline for one message: decision, censoring, and
// escalation. A strike is recorded only for flagged content; classifier
// failure records nothing.
func (c *Core) Moderate(ctx context.Context, msg models.Message, mode models.Mode) (models.Outcome, error) {
	if err := c.validate(); err != nil {
		return models.Outcome{}, err
	}
	if !mode.Valid() {
		return models.Outcome{}, fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}

	// One snapshot for the whole pipeline: the decision and the sentence
	// re-checks must agree even if SetThreshold lands mid-call.
	threshold := c.Threshold()

	decision, _, err := c.checkAt(ctx, msg.Text, threshold)
	if err != nil {
		if c.failOpen {
			c.logWarn("classifier failed, allowing message", map[string]any{"error": err.Error(), "actor": msg.Actor})
			return models.Outcome{Filtered: msg.Text}, nil
		}
		return models.Outcome{}, err
	}

	if !decision.Flagged {
		c.nClean.Add(1)
		c.dispatch(ctx, EventClean, Event{Actor: msg.Actor, ChatID: msg.ChatID, Text: msg.Text, Decision: decision})
		return models.Outcome{Decision: decision, Filtered: msg.Text}, nil
	}

	censored, err := c.censor(ctx, msg.Text, mode, threshold)
	if err != nil {
		return models.Outcome{}, err
	}
	count, banned, err := c.strikes.Increment(ctx, msg.Actor)
	if err != nil {
		return models.Outcome{}, fmt.Errorf("core: record strike: %w", err)
	}

	c.nFlagged.Add(1)
	event := Event{
		Actor:    msg.Actor,
		ChatID:   msg.ChatID,
		Text:     msg.Text,
		Censored: censored,
		Decision: decision,
		Strikes:  count,
		Banned:   banned,
	}
	c.dispatch(ctx, EventFlagged, event)
	if banned {
		c.nBanned.Add(1)
		c.dispatch(ctx, EventBan, event)
	} else {
		c.nWarned.Add(1)
		c.dispatch(ctx, EventWarn, event)
	}
	return models.Outcome{Decision: decision, Filtered: censored, Strikes: count, Banned: banned}, nil
}

// OnMessage is the chat moderation hook: a pure decision the transport acts
// on. Every flagged message requests a delete; delete failures on the
// transport side must not prevent the strike already recorded here.
func (c *Core) OnMessage(ctx context.Context, msg models.Message) (models.BotAction, error) {
	outcome, err := c.Moderate(ctx, msg, models.ModeFull)
	if err != nil {
		return models.BotAction{}, err
	}
	if !outcome.Decision.Flagged {
		return models.BotAction{}, nil
	}
	action := models.BotAction{Delete: true, Strikes: outcome.Strikes}
	if outcome.Banned {
		action.Ban = true
		action.WarnText = fmt.Sprintf("User %s has been banned for repeated profanity.", msg.Actor)
	} else {
		action.WarnText = fmt.Sprintf(
			"%s, your message was removed due to profanity.\nStrike %d/%d.\nCensored content: %s",
			msg.Actor, outcome.Strikes, c.limit, outcome.Filtered,
		)
	}
	return action, nil
}

// CheckImage classifies image bytes and applies the default threshold to
// the flagged label's score.
func (c *Core) CheckImage(ctx context.Context, image []byte) (models.ImageDecision, error) {
	if c.imageAI == nil {
		return models.ImageDecision{}, errors.New("core: image classifier is nil")
	}
	cls, err := c.imageAI.ClassifyImage(ctx, image)
	if err != nil {
		return models.ImageDecision{}, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	flagged := strings.EqualFold(cls.Label, c.nsfw) && cls.Score >= c.Threshold()
	return models.ImageDecision{
		Flagged:    flagged,
		Label:      cls.Label,
		Confidence: cls.Score,
		AllScores:  cls.AllScores,
	}, nil
}

// Metrics returns per-outcome counters since process start.
func (c *Core) Metrics() map[string]int64 {
	return map[string]int64{
		"clean":   c.nClean.Load(),
		"flagged": c.nFlagged.Load(),
		"warned":  c.nWarned.Load(),
		"banned":  c.nBanned.Load(),
	}
}

func (c *Core) dispatch(ctx context.Context, event EventName, e Event) {
	c.eventsMu.RLock()
	handlers := append([]EventHandler(nil), c.events[event]...)
	c.eventsMu.RUnlock()
	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			c.logWarn("event handler failed", map[string]any{"error": err.Error(), "event": string(event)})
		}
	}
}

func (c *Core) logWarn(msg string, fields map[string]any) {
	if c.logger != nil {
		c.logger.Warn(msg, fields)
	}
}
