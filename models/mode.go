package models

import "fmt"

// Mode selects how flagged text is rendered back to the user.
type Mode int

const (
	// ModeFull masks every word of the text.
	ModeFull Mode = 1 + iota
	// ModeSentence re-checks each sentence and masks only flagged ones.
	ModeSentence
	// ModeBlock replaces the whole text with a fixed notice.
	ModeBlock
)

// Valid returns true when mode is one of the three known variants.
func (m Mode) Valid() bool {
	return m >= ModeFull && m <= ModeBlock
}

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeSentence:
		return "sentence"
	case ModeBlock:
		return "block"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler so Mode renders as its
// wire name in JSON responses.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("models: unknown mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(data []byte) error {
	parsed, err := ParseMode(string(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMode maps a wire name to a Mode. Legacy names from earlier
// deployments ("word" and "aggressive") are accepted as aliases.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "full", "":
		return ModeFull, nil
	case "sentence", "word":
		return ModeSentence, nil
	case "block", "aggressive":
		return ModeBlock, nil
	default:
		return 0, fmt.Errorf("models: unknown mode %q", s)
	}
}
