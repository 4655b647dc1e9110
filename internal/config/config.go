package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/arcanaland/tavern/internal/pngtext"
)

// Config represents the application configuration
type Config struct {
	DefaultCard  string `toml:"default_card"`
	VerifyCRC    bool   `toml:"verify_crc"`
	ExtendedText bool   `toml:"extended_text"`
	ArtWidth     int    `toml:"art_width"`
	ArtHeight    int    `toml:"art_height"`
}

// Default portrait size in terminal cells.
const (
	DefaultArtWidth  = 40
	DefaultArtHeight = 32
)

// Default returns the configuration written on first use
func Default() *Config {
	return &Config{
		ArtWidth:  DefaultArtWidth,
		ArtHeight: DefaultArtHeight,
	}
}

// Scanner returns the chunk scanner described by the configuration
func (c *Config) Scanner() pngtext.Scanner {
	return pngtext.Scanner{VerifyCRC: c.VerifyCRC, Extended: c.ExtendedText}
}

// GetXDGDataHome returns XDG_DATA_HOME or default path
func GetXDGDataHome() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return xdgData
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".local", "share")
}

// GetXDGConfigHome returns XDG_CONFIG_HOME or default path
func GetXDGConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return xdgConfig
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// GetXDGCacheHome returns XDG_CACHE_HOME or default path
func GetXDGCacheHome() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return xdgCache
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".cache")
}

// GetLibraryPath returns the path to the card library
func GetLibraryPath() string {
	return filepath.Join(GetXDGDataHome(), "tavern", "cards")
}

// GetCacheDir returns the directory for generated files such as ANSI art
func GetCacheDir() string {
	return filepath.Join(GetXDGCacheHome(), "tavern")
}

// GetConfigFilePath returns the path to the config file
func GetConfigFilePath() string {
	return filepath.Join(GetXDGConfigHome(), "tavern", "config.toml")
}

// LoadConfig loads the config file
func LoadConfig() (*Config, error) {
	configPath := GetConfigFilePath()

	// Create default config if it doesn't exist
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig()
	}

	config := Default()
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}

	if config.ArtWidth <= 0 {
		config.ArtWidth = DefaultArtWidth
	}
	if config.ArtHeight <= 0 {
		config.ArtHeight = DefaultArtHeight
	}

	return config, nil
}

// createDefaultConfig creates a default config file
func createDefaultConfig() (*Config, error) {
	config := Default()
	if err := writeConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func writeConfig(config *Config) error {
	configPath := GetConfigFilePath()

	// Ensure the config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	return nil
}

// GetCardPath returns the path to a card, either in the card library or a relative path
func GetCardPath(cardName string) (string, error) {
	// First, try to find the card in the card library
	libraryPath := GetLibraryPath()
	for _, candidate := range []string{cardName, cardName + ".png"} {
		cardPath := filepath.Join(libraryPath, candidate)
		if info, err := os.Stat(cardPath); err == nil && !info.IsDir() {
			return cardPath, nil
		}
	}

	// If not found in the library, treat as a relative path
	if info, err := os.Stat(cardName); err == nil && !info.IsDir() {
		return cardName, nil
	}

	return "", fmt.Errorf("card not found: %s", cardName)
}

// GetDefaultCard returns the default card name from config
func GetDefaultCard() (string, error) {
	config, err := LoadConfig()
	if err != nil {
		return "", err
	}

	return config.DefaultCard, nil
}

// SetDefaultCard sets the default card in the config
func SetDefaultCard(cardName string) error {
	config, err := LoadConfig()
	if err != nil {
		return err
	}

	config.DefaultCard = cardName
	return writeConfig(config)
}
