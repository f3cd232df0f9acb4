package room

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownSetting means the setting name is not recognized.
	ErrUnknownSetting = errors.New("unknown setting")

	// ErrInvalidSetting means the setting value has the wrong type or is
	// out of range.
	ErrInvalidSetting = errors.New("invalid setting value")
)

// ClueVisibility controls which clue lists clients display.
type ClueVisibility string

const (
	CluesAll    ClueVisibility = "all"
	CluesAcross ClueVisibility = "across"
	CluesDown   ClueVisibility = "down"
	CluesNone   ClueVisibility = "none"
)

func (v ClueVisibility) valid() bool {
	switch v {
	case CluesAll, CluesAcross, CluesDown, CluesNone:
		return true
	}
	return false
}

// Settings are per-room preferences. They are broadcast to every client.
type Settings struct {
	// OnlyAllowCorrectAnswers rejects answers that would put a wrong value
	// in any cell.
	OnlyAllowCorrectAnswers bool `json:"only_allow_correct_answers"`

	// AllowClearing lets "." in an answer blank an already filled cell.
	AllowClearing bool `json:"allow_clearing"`

	CluesToShow ClueVisibility `json:"clues_to_show"`
	ShowNotes   bool           `json:"show_notes"`
}

// DefaultSettings are used for rooms that never changed a setting.
func DefaultSettings() Settings {
	return Settings{
		AllowClearing: true,
		CluesToShow:   CluesAll,
	}
}

// Setting names accepted by Apply.
const (
	SettingOnlyAllowCorrectAnswers = "only_allow_correct_answers"
	SettingAllowClearing           = "allow_clearing"
	SettingCluesToShow             = "clues_to_show"
	SettingShowNotes               = "show_notes"
)

// Apply decodes raw as the JSON value of the named setting and stores it in
// s.
func (s *Settings) Apply(name string, raw json.RawMessage) error {
	var target any
	switch name {
	case SettingOnlyAllowCorrectAnswers:
		target = &s.OnlyAllowCorrectAnswers
	case SettingAllowClearing:
		target = &s.AllowClearing
	case SettingShowNotes:
		target = &s.ShowNotes
	case SettingCluesToShow:
		var v ClueVisibility
		if err := json.Unmarshal(raw, &v); err != nil || !v.valid() {
			return fmt.Errorf("%w: %s=%s", ErrInvalidSetting, name, raw)
		}
		s.CluesToShow = v
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownSetting, name)
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: %s=%s", ErrInvalidSetting, name, raw)
	}
	return nil
}
