package card

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	logging "github.com/ipfs/go-log/v2"
	"github.com/tidwall/gjson"

	"github.com/arcanaland/tavern/internal/pngtext"
)

var log = logging.Logger("tavern-card")

// emptyObject is the value of an absent extensions field.
var emptyObject = json.RawMessage("{}")

var errInvalidUTF8 = errors.New("invalid UTF-8")

// requiredStrings lists the scalar CardData fields in validation order.
var requiredStrings = []string{
	"name",
	"description",
	"personality",
	"scenario",
	"first_mes",
	"mes_example",
	"creator_notes",
	"system_prompt",
	"post_history_instructions",
	"creator",
	"character_version",
}

// ReadPNG extracts the card chunk from a PNG datastream and decodes it.
func ReadPNG(b []byte, s pngtext.Scanner) (*Card, error) {
	payload, err := s.Scan(b)
	if err != nil {
		return nil, err
	}
	return Decode(payload)
}

// Decode turns the text of a card chunk into a validated Card. Validation
// stops at the first violation found walking the document depth first.
func Decode(payload []byte) (*Card, error) {
	raw, err := decodeBase64(payload)
	if err != nil {
		return nil, err
	}

	if off := invalidUTF8(raw); off >= 0 {
		return nil, &DecodeError{Kind: InvalidJSON, Offset: int64(off), Err: errInvalidUTF8}
	}

	var probe json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		de := &DecodeError{Kind: InvalidJSON, Offset: -1, Err: err}
		var se *json.SyntaxError
		if errors.As(err, &se) {
			de.Offset = se.Offset
		}
		return nil, de
	}

	return decodeDocument(gjson.ParseBytes(raw))
}

// invalidUTF8 returns the offset of the first byte of b that is not part
// of a valid UTF-8 sequence, or -1.
func invalidUTF8(b []byte) int {
	for i := 0; i < len(b); {
		r, n := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && n == 1 {
			return i
		}
		i += n
	}
	return -1
}

func decodeBase64(payload []byte) ([]byte, error) {
	payload = bytes.TrimSpace(payload)
	out := make([]byte, base64.StdEncoding.DecodedLen(len(payload)))
	n, err := base64.StdEncoding.Decode(out, payload)
	if err != nil {
		de := &DecodeError{Kind: InvalidBase64, Offset: -1, Err: err}
		var cie base64.CorruptInputError
		if errors.As(err, &cie) {
			de.Offset = int64(cie)
		}
		return nil, de
	}
	return out[:n], nil
}

func decodeDocument(root gjson.Result) (*Card, error) {
	if !root.IsObject() {
		return nil, mismatch("$", "object", typeName(root))
	}

	spec := field(root, "spec")
	if !spec.Exists() {
		return nil, &DecodeError{Kind: UnsupportedSpec, Field: "spec", Offset: -1, Want: SpecV2}
	}
	if spec.Type != gjson.String || spec.Str != SpecV2 {
		return nil, &DecodeError{Kind: UnsupportedSpec, Field: "spec", Offset: -1, Want: SpecV2, Got: spec.Raw}
	}

	version, err := requireString(root, "spec_version", "spec_version")
	if err != nil {
		return nil, err
	}
	if version != SpecVersionV2 {
		log.Debugf("accepting card with spec_version %q", version)
	}

	data := field(root, "data")
	if !data.Exists() || !data.IsObject() {
		return nil, missing("data")
	}
	cd, err := decodeData(data)
	if err != nil {
		return nil, err
	}

	return &Card{Spec: SpecV2, SpecVersion: version, Data: *cd}, nil
}

func decodeData(obj gjson.Result) (*CardData, error) {
	values := make(map[string]string, len(requiredStrings))
	for _, key := range requiredStrings {
		s, err := requireString(obj, key, "data."+key)
		if err != nil {
			return nil, err
		}
		values[key] = s
	}

	cd := &CardData{
		Name:                    values["name"],
		Description:             values["description"],
		Personality:             values["personality"],
		Scenario:                values["scenario"],
		FirstMes:                values["first_mes"],
		MesExample:              values["mes_example"],
		CreatorNotes:            values["creator_notes"],
		SystemPrompt:            values["system_prompt"],
		PostHistoryInstructions: values["post_history_instructions"],
		Creator:                 values["creator"],
		CharacterVersion:        values["character_version"],
	}

	var err error
	if cd.Tags, err = stringList(obj, "tags", "data.tags"); err != nil {
		return nil, err
	}
	if cd.AlternateGreetings, err = stringList(obj, "alternate_greetings", "data.alternate_greetings"); err != nil {
		return nil, err
	}
	if cd.Extensions, err = extensions(obj, "data.extensions"); err != nil {
		return nil, err
	}

	book := field(obj, "character_book")
	if present(book) {
		if !book.IsObject() {
			return nil, mismatch("data.character_book", "object", typeName(book))
		}
		if cd.CharacterBook, err = decodeBook(book, "data.character_book"); err != nil {
			return nil, err
		}
	}
	return cd, nil
}

func decodeBook(obj gjson.Result, path string) (*CharacterBook, error) {
	b := &CharacterBook{}
	var err error
	if b.Name, err = optionalString(obj, "name", path); err != nil {
		return nil, err
	}
	if b.Description, err = optionalString(obj, "description", path); err != nil {
		return nil, err
	}
	if b.ScanDepth, err = optionalNumber(obj, "scan_depth", path); err != nil {
		return nil, err
	}
	if b.TokenBudget, err = optionalNumber(obj, "token_budget", path); err != nil {
		return nil, err
	}
	if b.RecursiveScanning, err = optionalBool(obj, "recursive_scanning", path); err != nil {
		return nil, err
	}
	if b.Extensions, err = extensions(obj, path+".extensions"); err != nil {
		return nil, err
	}

	b.Entries = []CharacterBookEntry{}
	entries := field(obj, "entries")
	if !present(entries) {
		return b, nil
	}
	if !entries.IsArray() {
		return nil, mismatch(path+".entries", "array", typeName(entries))
	}
	for i, e := range entries.Array() {
		ePath := fmt.Sprintf("%s.entries[%d]", path, i)
		if !e.IsObject() {
			return nil, mismatch(ePath, "object", typeName(e))
		}
		entry, err := decodeEntry(e, ePath)
		if err != nil {
			return nil, err
		}
		b.Entries = append(b.Entries, *entry)
	}
	return b, nil
}

func decodeEntry(obj gjson.Result, path string) (*CharacterBookEntry, error) {
	e := &CharacterBookEntry{}
	var err error
	if e.Keys, err = stringList(obj, "keys", path+".keys"); err != nil {
		return nil, err
	}
	if e.Content, err = requireString(obj, "content", path+".content"); err != nil {
		return nil, err
	}
	if e.Extensions, err = extensions(obj, path+".extensions"); err != nil {
		return nil, err
	}
	if e.Enabled, err = optionalBool(obj, "enabled", path); err != nil {
		return nil, err
	}
	if e.InsertionOrder, err = optionalNumber(obj, "insertion_order", path); err != nil {
		return nil, err
	}
	if e.CaseSensitive, err = optionalBool(obj, "case_sensitive", path); err != nil {
		return nil, err
	}
	if e.Name, err = optionalString(obj, "name", path); err != nil {
		return nil, err
	}
	if e.Priority, err = optionalNumber(obj, "priority", path); err != nil {
		return nil, err
	}
	if e.ID, err = optionalNumber(obj, "id", path); err != nil {
		return nil, err
	}
	if e.Comment, err = optionalString(obj, "comment", path); err != nil {
		return nil, err
	}
	if e.Selective, err = optionalBool(obj, "selective", path); err != nil {
		return nil, err
	}
	if present(field(obj, "secondary_keys")) {
		if e.SecondaryKeys, err = stringList(obj, "secondary_keys", path+".secondary_keys"); err != nil {
			return nil, err
		}
	}
	if e.Constant, err = optionalBool(obj, "constant", path); err != nil {
		return nil, err
	}
	if e.Position, err = optionalString(obj, "position", path); err != nil {
		return nil, err
	}
	if e.Position != nil && *e.Position != PositionBeforeChar && *e.Position != PositionAfterChar {
		return nil, mismatch(path+".position",
			strconv.Quote(PositionBeforeChar)+" or "+strconv.Quote(PositionAfterChar),
			strconv.Quote(*e.Position))
	}
	return e, nil
}

// field returns the member of obj named key. When the key is repeated the
// last occurrence wins, as with encoding/json.
func field(obj gjson.Result, key string) gjson.Result {
	var v gjson.Result
	obj.ForEach(func(k, val gjson.Result) bool {
		if k.Str == key {
			v = val
		}
		return true
	})
	return v
}

// present reports whether an optional field carries a value. Null counts
// as absent.
func present(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null
}

func requireString(obj gjson.Result, key, path string) (string, error) {
	v := field(obj, key)
	if !v.Exists() {
		return "", missing(path)
	}
	if v.Type != gjson.String {
		return "", mismatch(path, "string", typeName(v))
	}
	return v.Str, nil
}

// stringList decodes an optional array of strings. Absent yields an empty,
// non-nil slice.
func stringList(obj gjson.Result, key, path string) ([]string, error) {
	v := field(obj, key)
	if !present(v) {
		return []string{}, nil
	}
	if !v.IsArray() {
		return nil, mismatch(path, "array", typeName(v))
	}
	items := v.Array()
	out := make([]string, 0, len(items))
	for i, item := range items {
		if item.Type != gjson.String {
			return nil, mismatch(fmt.Sprintf("%s[%d]", path, i), "string", typeName(item))
		}
		out = append(out, item.Str)
	}
	return out, nil
}

// extensions keeps the raw bytes of an extensions object.
func extensions(obj gjson.Result, path string) (json.RawMessage, error) {
	v := field(obj, "extensions")
	if !present(v) {
		return append(json.RawMessage(nil), emptyObject...), nil
	}
	if !v.IsObject() {
		return nil, mismatch(path, "object", typeName(v))
	}
	return json.RawMessage(v.Raw), nil
}

func optionalString(obj gjson.Result, key, path string) (*string, error) {
	v := field(obj, key)
	if !present(v) {
		return nil, nil
	}
	if v.Type != gjson.String {
		return nil, mismatch(path+"."+key, "string", typeName(v))
	}
	s := v.Str
	return &s, nil
}

func optionalNumber(obj gjson.Result, key, path string) (*json.Number, error) {
	v := field(obj, key)
	if !present(v) {
		return nil, nil
	}
	if v.Type != gjson.Number {
		return nil, mismatch(path+"."+key, "number", typeName(v))
	}
	n := json.Number(v.Raw)
	return &n, nil
}

func optionalBool(obj gjson.Result, key, path string) (*bool, error) {
	v := field(obj, key)
	if !present(v) {
		return nil, nil
	}
	if v.Type != gjson.True && v.Type != gjson.False {
		return nil, mismatch(path+"."+key, "boolean", typeName(v))
	}
	b := v.Bool()
	return &b, nil
}

func typeName(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return "null"
	case gjson.False, gjson.True:
		return "boolean"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	case gjson.JSON:
		if v.IsArray() {
			return "array"
		}
		return "object"
	}
	return "nothing"
}
