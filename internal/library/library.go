package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	logging "github.com/ipfs/go-log/v2"

	"github.com/arcanaland/tavern/internal/card"
	"github.com/arcanaland/tavern/internal/pngtext"
)

var log = logging.Logger("tavern-library")

// Entry is a PNG file in the library. Exactly one of Card and Err is set.
type Entry struct {
	Name string // file name without extension
	Path string
	Card *card.Card
	Err  error
}

// Library represents a directory of character card PNGs
type Library struct {
	Path    string
	Entries []*Entry // sorted by name

	byName map[string]*Entry
}

// Load reads every PNG card in dir. Files that fail to decode are kept
// with their error so callers can report them.
func Load(dir string, scanner pngtext.Scanner) (*Library, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading card library: %w", err)
	}

	lib := &Library{
		Path:   dir,
		byName: make(map[string]*Entry),
	}

	for _, de := range dirEntries {
		if !strings.EqualFold(filepath.Ext(de.Name()), ".png") {
			continue
		}

		// Resolve the symbolic link or regular entry
		entryPath := filepath.Join(dir, de.Name())
		info, err := os.Stat(entryPath)
		if err != nil {
			log.Warnf("skipping %s: %v", de.Name(), err)
			continue
		}
		if info.IsDir() {
			continue
		}

		e := &Entry{
			Name: strings.TrimSuffix(de.Name(), filepath.Ext(de.Name())),
			Path: entryPath,
		}
		e.Card, e.Err = readCard(entryPath, scanner)
		if e.Err != nil {
			log.Debugf("%s is not a valid card: %v", entryPath, e.Err)
		}

		lib.Entries = append(lib.Entries, e)
		lib.byName[e.Name] = e
	}

	sort.Slice(lib.Entries, func(i, j int) bool {
		return lib.Entries[i].Name < lib.Entries[j].Name
	})

	return lib, nil
}

func readCard(path string, scanner pngtext.Scanner) (*card.Card, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return card.ReadPNG(b, scanner)
}

// Get returns the entry for a card name, with or without the .png extension
func (l *Library) Get(name string) (*Entry, error) {
	if strings.EqualFold(filepath.Ext(name), ".png") {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	e, ok := l.byName[name]
	if !ok {
		return nil, fmt.Errorf("card not found: %s", name)
	}
	if e.Err != nil {
		return nil, fmt.Errorf("card %s is invalid: %w", name, e.Err)
	}
	return e, nil
}

// Cards returns the entries that decoded successfully
func (l *Library) Cards() []*Entry {
	var valid []*Entry
	for _, e := range l.Entries {
		if e.Err == nil {
			valid = append(valid, e)
		}
	}
	return valid
}
