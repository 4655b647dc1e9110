package validator

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/arcanaland/tavern/internal/card"
	"github.com/arcanaland/tavern/internal/pngtext"
)

type ValidationResults struct {
	Errors   []string
	Warnings []string
}

type Validator struct {
	CardPath string
	Scanner  pngtext.Scanner
	Results  ValidationResults

	data []byte
	card *card.Card
}

func NewValidator(cardPath string, scanner pngtext.Scanner) *Validator {
	return &Validator{
		CardPath: cardPath,
		Scanner:  scanner,
		Results:  ValidationResults{},
	}
}

// Validate reads the card file and checks it. Only I/O failures are
// returned as errors; problems with the card itself end up in the results.
func (v *Validator) Validate() (ValidationResults, error) {
	data, err := os.ReadFile(v.CardPath)
	if err != nil {
		return v.Results, fmt.Errorf("error reading card: %w", err)
	}
	v.data = data

	if !v.validateChunks() {
		return v.Results, nil
	}
	if !v.validatePayload() {
		return v.Results, nil
	}

	v.validateIdentity()
	v.validateGreetings()
	v.validateTags()
	v.validateCharacterBook()

	return v.Results, nil
}

// Card returns the decoded card once Validate has succeeded in decoding it
func (v *Validator) Card() *card.Card {
	return v.card
}

func (v *Validator) errorf(format string, args ...any) {
	v.Results.Errors = append(v.Results.Errors, fmt.Sprintf(format, args...))
}

func (v *Validator) warnf(format string, args ...any) {
	v.Results.Warnings = append(v.Results.Warnings, fmt.Sprintf(format, args...))
}

// validateChunks checks the PNG container and the card chunk carrying the payload
func (v *Validator) validateChunks() bool {
	payloads, err := v.Scanner.ScanAll(v.data)
	switch {
	case errors.Is(err, pngtext.ErrChunkNotFound):
		if !v.Scanner.Extended {
			if _, extErr := (pngtext.Scanner{Extended: true}).Scan(v.data); extErr == nil {
				v.errorf("card is stored in a compressed or international text chunk (enable extended_text)")
				return false
			}
		}
		v.errorf("no %q text chunk found", pngtext.CardKeyword)
		return false
	case err != nil:
		v.errorf("%v", err)
		return false
	}

	if len(payloads) > 1 {
		v.warnf("found %d %q chunks, only the first one is used", len(payloads), pngtext.CardKeyword)
	}

	if !v.Scanner.VerifyCRC {
		if err := (pngtext.Scanner{VerifyCRC: true}).Walk(v.data, func(pngtext.Chunk) bool { return true }); errors.Is(err, pngtext.ErrChecksum) {
			v.warnf("%v", err)
		}
	}
	return true
}

// validatePayload decodes the card and records why it fails
func (v *Validator) validatePayload() bool {
	c, err := card.ReadPNG(v.data, v.Scanner)
	if err != nil {
		var de *card.DecodeError
		if errors.As(err, &de) && de.Kind == card.UnsupportedSpec {
			v.errorf("%v (only Character Card V2 is supported)", err)
		} else {
			v.errorf("%v", err)
		}
		return false
	}
	v.card = c

	if c.SpecVersion != card.SpecVersionV2 {
		v.warnf("unsupported spec_version: %s (supported: %s)", c.SpecVersion, card.SpecVersionV2)
	}
	return true
}

// validateIdentity checks the fields that introduce the character
func (v *Validator) validateIdentity() {
	d := v.card.Data
	if strings.TrimSpace(d.Name) == "" {
		v.warnf("data.name is empty")
	}
	if strings.TrimSpace(d.Description) == "" {
		v.warnf("data.description is empty")
	}
	if strings.TrimSpace(d.FirstMes) == "" {
		v.warnf("data.first_mes is empty")
	}
	if d.Creator == "" {
		v.warnf("data.creator is empty")
	}
	if d.CharacterVersion == "" {
		v.warnf("data.character_version is empty")
	}
}

func (v *Validator) validateGreetings() {
	for i, g := range v.card.Data.AlternateGreetings {
		if strings.TrimSpace(g) == "" {
			v.warnf("data.alternate_greetings[%d] is blank", i)
		}
	}
}

// validateTags checks for blank and duplicate tags
func (v *Validator) validateTags() {
	seen := make(map[string]int)
	for i, tag := range v.card.Data.Tags {
		key := strings.ToLower(strings.TrimSpace(tag))
		if key == "" {
			v.warnf("data.tags[%d] is blank", i)
			continue
		}
		if first, ok := seen[key]; ok {
			v.warnf("data.tags[%d] duplicates data.tags[%d]: %s", i, first, tag)
			continue
		}
		seen[key] = i
	}
}

// validateCharacterBook checks lorebook entries that can never be triggered
func (v *Validator) validateCharacterBook() {
	book := v.card.Data.CharacterBook
	if book == nil {
		return
	}

	if len(book.Entries) == 0 {
		v.warnf("data.character_book has no entries")
	}

	for i, e := range book.Entries {
		path := fmt.Sprintf("data.character_book.entries[%d]", i)

		constant := e.Constant != nil && *e.Constant
		if len(e.Keys) == 0 && !constant {
			v.warnf("%s has no keys and is not constant", path)
		}
		for j, key := range e.Keys {
			if strings.TrimSpace(key) == "" {
				v.warnf("%s.keys[%d] is blank", path, j)
			}
		}
		if strings.TrimSpace(e.Content) == "" {
			v.warnf("%s has empty content", path)
		}
		if e.Selective != nil && *e.Selective && len(e.SecondaryKeys) == 0 {
			v.warnf("%s is selective but has no secondary_keys", path)
		}
	}
}
