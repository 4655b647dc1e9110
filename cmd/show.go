package cmd

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
	"golang.org/x/term"

	"github.com/arcanaland/tavern/internal/card"
	"github.com/arcanaland/tavern/internal/config"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [card]",
	Short: "Display a character card with its portrait as ANSI art",
	Long: `Show displays the character defined by a card PNG next to its portrait rendered as ANSI terminal art.

The card can be a name from your card library (XDG_DATA_HOME/tavern/cards)
or a path to a PNG file. If no card is given, the default card from your
config is used.

Examples:
  tavern show seraphina
  tavern show ./downloads/alice.png
  tavern show --greetings --book seraphina`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}

		cardPath, err := resolveCardPath(name)
		if err != nil {
			return err
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		data, c, err := loadCard(cardPath, cfg)
		if err != nil {
			return err
		}

		var ansiArt string
		if noArt, _ := cmd.Flags().GetBool("no-art"); !noArt {
			ansiArt, err = portraitArt(data, cfg.ArtWidth, cfg.ArtHeight)
			if err != nil {
				// The card is still worth showing without its portrait
				log.Warnf("error rendering portrait: %v", err)
				ansiArt = ""
			}
		}

		showGreetings, _ := cmd.Flags().GetBool("greetings")
		showBook, _ := cmd.Flags().GetBool("book")

		displayCard(c, ansiArt, showGreetings, showBook)

		return nil
	},
}

func init() {
	RootCmd.AddCommand(showCmd)

	showCmd.Flags().Bool("no-art", false, "Do not render the portrait")
	showCmd.Flags().BoolP("greetings", "g", false, "List alternate greetings")
	showCmd.Flags().BoolP("book", "b", false, "List character book entries")
}

// portraitArt returns the card image as ANSI art, using the cache when possible
func portraitArt(data []byte, width, height int) (string, error) {
	cacheDir := filepath.Join(config.GetCacheDir(), "ansi_cache")
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create ANSI cache directory: %w", err)
	}

	// Create a cache filename based on the image content and size
	sum := md5.Sum(data)
	cachePath := filepath.Join(cacheDir, fmt.Sprintf("%x-%dx%d.ansi", sum, width, height))

	// Check if we already have a cached version
	if cached, err := os.ReadFile(cachePath); err == nil {
		return string(cached), nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	ansiArt, err := imageToAnsi(img, width, height)
	if err != nil {
		return "", fmt.Errorf("failed to convert image to ANSI: %w", err)
	}

	if err := os.WriteFile(cachePath, []byte(ansiArt), 0644); err != nil {
		log.Warnf("failed to cache ANSI art: %v", err)
	}

	return ansiArt, nil
}

// imageToAnsi converts an image to ANSI art
func imageToAnsi(img image.Image, width, height int) (string, error) {
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("invalid art size %dx%d", width, height)
	}

	// Keep the portrait's aspect ratio within the requested box; a cell is
	// one pixel wide and two pixels tall.
	bounds := img.Bounds()
	if bounds.Dx() > 0 && bounds.Dy() > 0 {
		scaledHeight := width * bounds.Dy() / bounds.Dx()
		if scaledHeight < height*2 {
			height = max((scaledHeight+1)/2, 1)
		}
	}

	// Resize image to desired dimensions (doubled for half-block characters)
	resized := resize.Resize(uint(width*2), uint(height*2), img, resize.Lanczos3)

	var buffer strings.Builder

	for y := 0; y < height*2; y += 2 {
		for x := 0; x < width*2; x += 2 {
			// Get the four pixels that will make up one character cell
			col1, _ := colorful.MakeColor(getColorAt(resized, x, y))
			col2, _ := colorful.MakeColor(getColorAt(resized, x+1, y))
			col3, _ := colorful.MakeColor(getColorAt(resized, x, y+1))
			col4, _ := colorful.MakeColor(getColorAt(resized, x+1, y+1))

			// Top pixels as foreground, bottom pixels as background
			fg := colorfulToColor(averageColor(col1, col2))
			bg := colorfulToColor(averageColor(col3, col4))

			buffer.WriteString(ansiColorString('▀', fg, bg))
		}
		buffer.WriteString("\n")
	}

	return strings.TrimSuffix(buffer.String(), "\n"), nil
}

// getColorAt returns the color at a specific coordinate
func getColorAt(img image.Image, x, y int) color.Color {
	bounds := img.Bounds()
	if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
		return img.At(x, y)
	}
	return color.RGBA{0, 0, 0, 255} // Return black for out-of-bounds
}

// averageColor calculates the average of multiple colors
func averageColor(colors ...colorful.Color) colorful.Color {
	var r, g, b float64
	for _, c := range colors {
		r += c.R
		g += c.G
		b += c.B
	}
	count := float64(len(colors))
	return colorful.Color{R: r / count, G: g / count, B: b / count}
}

// colorfulToColor converts a colorful.Color to a standard color.Color
func colorfulToColor(c colorful.Color) color.Color {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// ansiColorString formats a character with 24-bit foreground and background colors
func ansiColorString(char rune, fg, bg color.Color) string {
	r1, g1, b1, _ := fg.RGBA()
	r2, g2, b2, _ := bg.RGBA()

	// Convert from uint32 to uint8 (RGBA() returns values in range 0-65535)
	r1, g1, b1 = r1>>8, g1>>8, b1>>8
	r2, g2, b2 = r2>>8, g2>>8, b2>>8

	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm%c\x1b[0m",
		r1, g1, b1, r2, g2, b2, char)
}

// wrapText wraps text to a specified width, keeping paragraph breaks
func wrapText(text string, width int) []string {
	if width < 10 {
		width = 40
	}

	var result []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			result = append(result, "")
			continue
		}

		var currentLine string
		for _, word := range words {
			if len(currentLine) == 0 {
				currentLine = word
			} else if len(currentLine)+1+len(word) <= width {
				currentLine += " " + word
			} else {
				result = append(result, currentLine)
				currentLine = word
			}
		}
		result = append(result, currentLine)
	}

	return result
}

// displayCard displays the card information next to the portrait
func displayCard(c *card.Card, ansiArt string, showGreetings, showBook bool) {
	var ansiLines []string
	if ansiArt != "" {
		ansiLines = strings.Split(ansiArt, "\n")
	}
	maxAnsiWidth := 0
	for _, line := range ansiLines {
		maxAnsiWidth = max(maxAnsiWidth, visibleWidth(line))
	}

	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 80 // Default if we can't get terminal width
	}

	spacing := 4
	infoStartCol := 0
	if maxAnsiWidth > 0 {
		infoStartCol = maxAnsiWidth + spacing
	}
	infoWidth := max(width-infoStartCol-2, 20)

	label := func(s string) string { return colorize.CyanString("%-9s", s) }
	d := c.Data

	var infoLines []string
	infoLines = append(infoLines, label("Name:")+colorize.HiWhiteString("%s", d.Name))
	if d.Creator != "" {
		infoLines = append(infoLines, label("Creator:")+colorize.HiWhiteString("%s", d.Creator))
	}
	if d.CharacterVersion != "" {
		infoLines = append(infoLines, label("Version:")+colorize.HiWhiteString("%s", d.CharacterVersion))
	}
	infoLines = append(infoLines, label("Spec:")+colorize.HiWhiteString("%s %s", c.Spec, c.SpecVersion))
	if len(d.Tags) > 0 {
		infoLines = append(infoLines, label("Tags:")+colorize.HiWhiteString("%s", strings.Join(d.Tags, " · ")))
	}
	if d.CharacterBook != nil {
		infoLines = append(infoLines, label("Lore:")+colorize.HiWhiteString("%d entries", len(d.CharacterBook.Entries)))
	}

	section := func(title, text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		infoLines = append(infoLines, "", colorize.CyanString(title))
		infoLines = append(infoLines, wrapText(text, infoWidth)...)
	}

	section("Description:", d.Description)
	section("Personality:", d.Personality)
	section("Scenario:", d.Scenario)
	section("First message:", d.FirstMes)
	section("Creator notes:", d.CreatorNotes)

	if showGreetings {
		for i, g := range d.AlternateGreetings {
			section(fmt.Sprintf("Greeting %d:", i+1), g)
		}
	}

	if showBook && d.CharacterBook != nil {
		for i, e := range d.CharacterBook.Entries {
			title := fmt.Sprintf("Lore %d [%s]:", i+1, strings.Join(e.Keys, ", "))
			if !e.IsEnabled() {
				title += colorize.HiBlackString(" (disabled)")
			}
			section(title, e.Content)
		}
	}

	fmt.Println()

	maxLines := max(len(ansiLines), len(infoLines))
	for i := 0; i < maxLines; i++ {
		fmt.Print("  ")
		if i < len(ansiLines) {
			fmt.Print(ansiLines[i])
			fmt.Print(strings.Repeat(" ", max(infoStartCol-visibleWidth(ansiLines[i]), 0)))
		} else {
			fmt.Print(strings.Repeat(" ", infoStartCol))
		}

		if i < len(infoLines) {
			fmt.Print(infoLines[i])
		}

		fmt.Println()
	}

	fmt.Println()
}

// visibleWidth counts the runes of s that are not part of ANSI escapes
func visibleWidth(s string) int {
	return len([]rune(stripAnsi(s)))
}

// stripAnsi removes ANSI escape sequences from a string
func stripAnsi(s string) string {
	var result strings.Builder
	inEscape := false
	for _, c := range s {
		if inEscape {
			if c == 'm' {
				inEscape = false
			}
		} else if c == '\033' {
			inEscape = true
		} else {
			result.WriteRune(c)
		}
	}
	return result.String()
}
