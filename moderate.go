package moderate

import "github.com/elum-utils/moderate/core"

// Re-export core API at module root for convenient imports.
type (
	Core         = core.Core
	Options      = core.Options
	EventName    = core.EventName
	Event        = core.Event
	EventHandler = core.EventHandler
)

const (
	EventClean   = core.EventClean
	EventFlagged = core.EventFlagged
	EventWarn    = core.EventWarn
	EventBan     = core.EventBan
)

var (
	ErrClassifierUnavailable = core.ErrClassifierUnavailable
	ErrUnknownMode           = core.ErrUnknownMode
)

// New creates a new moderation engine.
func New(opt Options) *Core {
	return core.New(opt)
}
