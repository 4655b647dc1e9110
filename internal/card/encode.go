package card

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/tidwall/sjson"
)

// Encode renders c as the base64 text of a card chunk. Decode(Encode(c))
// yields a Card equal to c.
func Encode(c *Card) ([]byte, error) {
	doc, err := Marshal(c)
	if err != nil {
		return nil, err
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(doc)))
	base64.StdEncoding.Encode(out, doc)
	return out, nil
}

// Marshal renders c as JSON. Extensions objects are written byte for byte.
func Marshal(c *Card) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("error encoding card: %w", err)
	}
	doc := bytes.TrimRight(buf.Bytes(), "\n")

	// encoding/json compacts raw messages; put the original bytes back.
	var err error
	setRaw := func(path string, raw []byte) {
		if err != nil {
			return
		}
		doc, err = sjson.SetRawBytes(doc, path, raw)
	}

	setRaw("data.extensions", orEmpty(c.Data.Extensions))
	if book := c.Data.CharacterBook; book != nil {
		setRaw("data.character_book.extensions", orEmpty(book.Extensions))
		for i, e := range book.Entries {
			entry := fmt.Sprintf("data.character_book.entries.%d", i)
			setRaw(entry+".extensions", orEmpty(e.Extensions))
			// omitempty drops an empty list; it must stay distinct from absent.
			if e.SecondaryKeys != nil && len(e.SecondaryKeys) == 0 {
				setRaw(entry+".secondary_keys", []byte("[]"))
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("error restoring raw fields: %w", err)
	}
	return doc, nil
}

func orEmpty(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return emptyObject
	}
	return raw
}
