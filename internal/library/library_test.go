package library

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/tavern/internal/pngtext"
	"github.com/arcanaland/tavern/internal/pngtext/pngtest"
)

func cardPNG(name string) []byte {
	doc := `{"spec":"chara_card_v2","spec_version":"2.0","data":{"name":"` + name + `","description":"","personality":"","scenario":"","first_mes":"","mes_example":"","creator_notes":"","system_prompt":"","post_history_instructions":"","creator":"","character_version":""}}`
	return pngtest.New().
		Text("chara", base64.StdEncoding.EncodeToString([]byte(doc))).
		End().
		Bytes()
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, b, 0644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bob.png"), cardPNG("Bob"))
	writeFile(t, filepath.Join(dir, "alice.PNG"), cardPNG("Alice"))
	writeFile(t, filepath.Join(dir, "plain.png"), pngtest.New().End().Bytes())
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("ignored"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.png"), 0755))

	lib, err := Load(dir, pngtext.Scanner{})
	require.NoError(t, err)

	require.Len(t, lib.Entries, 3)
	assert.Equal(t, "alice", lib.Entries[0].Name)
	assert.Equal(t, "bob", lib.Entries[1].Name)
	assert.Equal(t, "plain", lib.Entries[2].Name)
	assert.ErrorIs(t, lib.Entries[2].Err, pngtext.ErrChunkNotFound)

	cards := lib.Cards()
	require.Len(t, cards, 2)
	assert.Equal(t, "Alice", cards[0].Card.Data.Name)
}

func TestLoadFollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(t.TempDir(), "carol.png")
	writeFile(t, src, cardPNG("Carol"))
	if err := os.Symlink(src, filepath.Join(dir, "carol.png")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	lib, err := Load(dir, pngtext.Scanner{})
	require.NoError(t, err)
	e, err := lib.Get("carol")
	require.NoError(t, err)
	assert.Equal(t, "Carol", e.Card.Data.Name)
}

func TestGet(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bob.png"), cardPNG("Bob"))
	writeFile(t, filepath.Join(dir, "broken.png"), []byte("nope"))

	lib, err := Load(dir, pngtext.Scanner{})
	require.NoError(t, err)

	e, err := lib.Get("bob.png")
	require.NoError(t, err)
	assert.Equal(t, "Bob", e.Card.Data.Name)

	_, err = lib.Get("broken")
	assert.ErrorIs(t, err, pngtext.ErrNotAPng)

	_, err = lib.Get("nobody")
	assert.Error(t, err)
}

func TestLoadMissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"), pngtext.Scanner{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
