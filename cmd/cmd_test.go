package cmd

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/tavern/internal/config"
	"github.com/arcanaland/tavern/internal/pngtext/pngtest"
)

const testCardJSON = `{"spec":"chara_card_v2","spec_version":"2.0","data":{"name":"Alice","description":"A librarian.","personality":"","scenario":"","first_mes":"Hello!","mes_example":"","creator_notes":"","system_prompt":"","post_history_instructions":"","tags":["books"],"creator":"me","character_version":"1","alternate_greetings":[],"extensions":{"x": 1}}}`

func setupHome(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
}

// portraitPNG encodes a real image and inserts a card chunk after IHDR.
func portraitPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 32), G: uint8(y * 32), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	encoded := buf.Bytes()

	// Signature (8) + IHDR chunk (25).
	text := pngtest.Bare().
		Text("chara", base64.StdEncoding.EncodeToString([]byte(testCardJSON))).
		Bytes()[8:]
	out := append([]byte{}, encoded[:33]...)
	out = append(out, text...)
	return append(out, encoded[33:]...)
}

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w

	runErr := fn()

	w.Close()
	os.Stdout = orig
	var out bytes.Buffer
	_, err = out.ReadFrom(r)
	require.NoError(t, err)
	return out.String(), runErr
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return captureStdout(t, func() error {
		RootCmd.SetArgs(args)
		return RootCmd.Execute()
	})
}

func TestExtractCommand(t *testing.T) {
	setupHome(t)
	path := filepath.Join(t.TempDir(), "alice.png")
	require.NoError(t, os.WriteFile(path, portraitPNG(t), 0644))

	out, err := run(t, "extract", path, "--query", "data.name")
	require.NoError(t, err)
	assert.Equal(t, "Alice\n", out)

	out, err = run(t, "extract", path, "--query", "data.extensions")
	require.NoError(t, err)
	assert.Equal(t, "{\"x\": 1}\n", out)

	_, err = run(t, "extract", path, "--query", "data.nothing")
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	setupHome(t)
	dir := t.TempDir()

	good := filepath.Join(dir, "good.png")
	require.NoError(t, os.WriteFile(good, portraitPNG(t), 0644))
	out, err := run(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "(Alice) is valid")

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, pngtest.New().End().Bytes(), 0644))
	out, err = run(t, "validate", bad)
	assert.Error(t, err)
	assert.Contains(t, out, "1 validation errors")
}

func TestShowRendersPortrait(t *testing.T) {
	setupHome(t)
	lib := config.GetLibraryPath()
	require.NoError(t, os.MkdirAll(lib, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(lib, "alice.png"), portraitPNG(t), 0644))
	require.NoError(t, config.SetDefaultCard("alice"))

	out, err := run(t, "show")
	require.NoError(t, err)
	assert.Contains(t, stripAnsi(out), "Alice")
	assert.Contains(t, out, "▀")
	assert.Contains(t, stripAnsi(out), "A librarian.")

	entries, err := os.ReadDir(filepath.Join(config.GetCacheDir(), "ansi_cache"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestImageToAnsiKeepsAspect(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	art, err := imageToAnsi(img, 10, 32)
	require.NoError(t, err)

	lines := strings.Split(art, "\n")
	// 20x10 scaled to 10 wide is 5 pixels tall, i.e. 3 half-block rows.
	assert.Len(t, lines, 3)
	assert.Equal(t, 10, visibleWidth(lines[0]))

	_, err = imageToAnsi(img, 0, 10)
	assert.Error(t, err)
}

func TestWrapText(t *testing.T) {
	lines := wrapText("the quick brown fox jumps over the lazy dog\n\nsecond paragraph", 15)
	assert.Equal(t, []string{
		"the quick brown",
		"fox jumps over",
		"the lazy dog",
		"",
		"second",
		"paragraph",
	}, lines)
}

func TestStripAnsi(t *testing.T) {
	assert.Equal(t, "▀x", stripAnsi("\x1b[38;2;1;2;3m\x1b[48;2;4;5;6m▀\x1b[0mx"))
	assert.Equal(t, 2, visibleWidth("\x1b[31m▀▀\x1b[0m"))
}

func TestAnsiColorString(t *testing.T) {
	out := ansiColorString('▀', color.RGBA{R: 1, G: 2, B: 3, A: 255}, color.RGBA{R: 4, G: 5, B: 6, A: 255})
	assert.Equal(t, "\x1b[38;2;1;2;3m\x1b[48;2;4;5;6m▀\x1b[0m", out)
}

func TestChunksCommand(t *testing.T) {
	setupHome(t)
	path := filepath.Join(t.TempDir(), "card.png")
	require.NoError(t, os.WriteFile(path, pngtest.New().Text("chara", "eA==").Text("Title", "x").End().Bytes(), 0644))

	out, err := run(t, "chunks", path)
	require.NoError(t, err)
	out = stripAnsi(out)
	assert.Contains(t, out, "keyword: chara (card)")
	assert.Contains(t, out, "keyword: Title\n")
	assert.Contains(t, out, "\n4 chunks\n")
}

func TestLibraryCommands(t *testing.T) {
	setupHome(t)

	_, err := run(t, "library", "init")
	require.NoError(t, err)

	lib := config.GetLibraryPath()
	require.NoError(t, os.WriteFile(filepath.Join(lib, "alice.png"), portraitPNG(t), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(lib, "broken.png"), []byte("nope"), 0644))

	out, err := run(t, "library", "set-default", "alice.png")
	require.NoError(t, err)
	assert.Contains(t, out, "Default card set to: alice (Alice)")

	out, err = run(t, "library", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "* alice (Alice) [DEFAULT]")
	assert.NotContains(t, out, "broken")

	_, err = run(t, "library", "set-default", "broken")
	assert.Error(t, err)
}
