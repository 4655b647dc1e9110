package card

import "encoding/json"

// Supported spec identifiers.
const (
	SpecV2        = "chara_card_v2"
	SpecVersionV2 = "2.0"
)

// Card represents a decoded Tavern Card V2 document. A Card owns all of its
// data and is not modified after Decode returns it.
type Card struct {
	Spec        string   `json:"spec"`
	SpecVersion string   `json:"spec_version"`
	Data        CardData `json:"data"`
}

// CardData holds the character definition.
type CardData struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Personality string `json:"personality"`
	Scenario    string `json:"scenario"`
	FirstMes    string `json:"first_mes"`
	MesExample  string `json:"mes_example"`

	CreatorNotes            string         `json:"creator_notes"`
	SystemPrompt            string         `json:"system_prompt"`
	PostHistoryInstructions string         `json:"post_history_instructions"`
	AlternateGreetings      []string       `json:"alternate_greetings"`
	CharacterBook           *CharacterBook `json:"character_book,omitempty"`

	Tags             []string        `json:"tags"`
	Creator          string          `json:"creator"`
	CharacterVersion string          `json:"character_version"`
	Extensions       json.RawMessage `json:"extensions"` // verbatim, never interpreted
}

// CharacterBook is the optional lorebook attached to a character.
type CharacterBook struct {
	Name              *string              `json:"name,omitempty"`
	Description       *string              `json:"description,omitempty"`
	ScanDepth         *json.Number         `json:"scan_depth,omitempty"`
	TokenBudget       *json.Number         `json:"token_budget,omitempty"`
	RecursiveScanning *bool                `json:"recursive_scanning,omitempty"`
	Extensions        json.RawMessage      `json:"extensions"`
	Entries           []CharacterBookEntry `json:"entries"`
}

// CharacterBookEntry is a single lorebook entry, triggered by its keys.
type CharacterBookEntry struct {
	Keys           []string        `json:"keys"`
	Content        string          `json:"content"`
	Extensions     json.RawMessage `json:"extensions"`
	Enabled        *bool           `json:"enabled,omitempty"`
	InsertionOrder *json.Number    `json:"insertion_order,omitempty"`
	CaseSensitive  *bool           `json:"case_sensitive,omitempty"`

	Name     *string      `json:"name,omitempty"`
	Priority *json.Number `json:"priority,omitempty"`

	ID            *json.Number `json:"id,omitempty"`
	Comment       *string      `json:"comment,omitempty"`
	Selective     *bool        `json:"selective,omitempty"`
	SecondaryKeys []string     `json:"secondary_keys,omitempty"`
	Constant      *bool        `json:"constant,omitempty"`
	Position      *string      `json:"position,omitempty"` // before_char or after_char
}

// Entry positions relative to the character definition.
const (
	PositionBeforeChar = "before_char"
	PositionAfterChar  = "after_char"
)

// IsEnabled reports whether the entry takes part in prompt building.
// Entries without an explicit flag are enabled.
func (e CharacterBookEntry) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}
