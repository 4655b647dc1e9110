package cmd

import (
	"fmt"
	"os"

	"github.com/arcanaland/tavern/internal/card"
	"github.com/arcanaland/tavern/internal/config"
)

// resolveCardPath maps a command argument to a card file. An empty name
// selects the default card from the config.
func resolveCardPath(name string) (string, error) {
	if name == "" {
		defaultCard, err := config.GetDefaultCard()
		if err != nil {
			return "", fmt.Errorf("error getting default card: %w", err)
		}
		if defaultCard == "" {
			return "", fmt.Errorf("no card given and no default card set (see 'tavern library set-default')")
		}
		name = defaultCard
	}
	return config.GetCardPath(name)
}

// loadCard reads and decodes the card at path with the configured scanner
func loadCard(path string, cfg *config.Config) ([]byte, *card.Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading card: %w", err)
	}

	c, err := card.ReadPNG(data, cfg.Scanner())
	if err != nil {
		return data, nil, fmt.Errorf("error loading card %s: %w", path, err)
	}
	log.Debugf("decoded card %q from %s", c.Data.Name, path)

	return data, c, nil
}
