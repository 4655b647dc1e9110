package card_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/arcanaland/tavern/internal/card"
)

func TestEncodeDecodeIsIdentity(t *testing.T) {
	for name, doc := range map[string]string{"minimal": aliceJSON, "full": fullJSON} {
		t.Run(name, func(t *testing.T) {
			first, err := decodeJSON(t, doc)
			require.NoError(t, err)

			payload, err := card.Encode(first)
			require.NoError(t, err)

			second, err := card.Decode(payload)
			require.NoError(t, err)
			assert.Equal(t, first, second)

			again, err := card.Encode(second)
			require.NoError(t, err)
			assert.Equal(t, string(payload), string(again))
		})
	}
}

func TestMarshalKeepsExtensionsVerbatim(t *testing.T) {
	c, err := decodeJSON(t, fullJSON)
	require.NoError(t, err)

	out, err := card.Marshal(c)
	require.NoError(t, err)
	require.True(t, gjson.ValidBytes(out))

	assert.Equal(t,
		`{"talkativeness": "0.5",   "fav": false, "world": {"id": [1, 2, 3]}, "html": "<b>&</b>"}`,
		gjson.GetBytes(out, "data.extensions").Raw)
	assert.Equal(t, `{"tool": {"v": 1}}`, gjson.GetBytes(out, "data.character_book.extensions").Raw)
	assert.Equal(t, `{"depth": 4}`, gjson.GetBytes(out, "data.character_book.entries.1.extensions").Raw)
	assert.Equal(t, "<START>\n{{user}}: Hi\n{{char}}: Hello!", gjson.GetBytes(out, "data.mes_example").String())
}

func TestMarshalOmitsAbsentOptionals(t *testing.T) {
	c, err := decodeJSON(t, fullJSON)
	require.NoError(t, err)

	out, err := card.Marshal(c)
	require.NoError(t, err)

	entry := gjson.GetBytes(out, "data.character_book.entries.1")
	assert.False(t, entry.Get("position").Exists())
	assert.False(t, entry.Get("secondary_keys").Exists())
	assert.False(t, gjson.GetBytes(out, "data.character_book.description").Exists())
	assert.Equal(t, "512.5", gjson.GetBytes(out, "data.character_book.token_budget").Raw)
}

func TestEncodeFillsMissingExtensions(t *testing.T) {
	c := &card.Card{
		Spec:        card.SpecV2,
		SpecVersion: card.SpecVersionV2,
		Data:        card.CardData{Name: "Bob", Tags: []string{}, AlternateGreetings: []string{}},
	}

	payload, err := card.Encode(c)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(string(payload))
	require.NoError(t, err)
	assert.Equal(t, "{}", gjson.GetBytes(raw, "data.extensions").Raw)

	decoded, err := card.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "Bob", decoded.Data.Name)
	assert.Equal(t, "{}", string(decoded.Data.Extensions))
}

func TestEncodeKeepsEmptySecondaryKeys(t *testing.T) {
	doc, err := sjson.SetRaw(fullJSON, "data.character_book.entries.1.secondary_keys", "[]")
	require.NoError(t, err)

	first, err := decodeJSON(t, doc)
	require.NoError(t, err)
	require.NotNil(t, first.Data.CharacterBook.Entries[1].SecondaryKeys)
	assert.Empty(t, first.Data.CharacterBook.Entries[1].SecondaryKeys)

	payload, err := card.Encode(first)
	require.NoError(t, err)
	second, err := card.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	out, err := card.Marshal(first)
	require.NoError(t, err)
	assert.Equal(t, "[]", gjson.GetBytes(out, "data.character_book.entries.1.secondary_keys").Raw)
	assert.Equal(t, `["trees"]`, gjson.GetBytes(out, "data.character_book.entries.0.secondary_keys").Raw)
}
