package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arcanaland/tavern/internal/config"
	"github.com/arcanaland/tavern/internal/library"
	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
)

// libraryCmd represents the library command group
var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage character cards in your card library",
	Long:  `Commands for managing character cards in your card library.`,
}

// libraryListCmd represents the library ls command
var libraryListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List available cards in your card library",
	RunE: func(cmd *cobra.Command, args []string) error {
		libraryPath := config.GetLibraryPath()

		// Check if card library exists
		if _, err := os.Stat(libraryPath); os.IsNotExist(err) {
			fmt.Printf("Card library at %s does not exist.\n", libraryPath)
			fmt.Println("Run 'tavern library init' to create it.")
			return nil
		}

		libraryPath, err := filepath.EvalSymlinks(libraryPath)
		if err != nil {
			return fmt.Errorf("error resolving symbolic link: %w", err)
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}

		lib, err := library.Load(libraryPath, cfg.Scanner())
		if err != nil {
			return err
		}

		if len(lib.Entries) == 0 {
			fmt.Println("No cards found in your card library.")
			fmt.Println("You can add cards by copying them to:", libraryPath)
			return nil
		}

		showInvalid, _ := cmd.Flags().GetBool("all")
		for _, e := range lib.Entries {
			if e.Err != nil {
				if showInvalid {
					fmt.Printf("  %s %s\n", e.Name, colorize.RedString("(invalid: %v)", e.Err))
				}
				continue
			}

			if e.Name == cfg.DefaultCard {
				fmt.Printf("* %s (%s) [DEFAULT]\n", e.Name, e.Card.Data.Name)
			} else {
				fmt.Printf("  %s (%s)\n", e.Name, e.Card.Data.Name)
			}
		}

		return nil
	},
}

// librarySetDefaultCmd represents the library set-default command
var librarySetDefaultCmd = &cobra.Command{
	Use:   "set-default [card_name]",
	Short: "Set the default card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cardName := args[0]

		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		lib, err := library.Load(config.GetLibraryPath(), cfg.Scanner())
		if err != nil {
			return err
		}

		// Make sure the card exists and decodes
		e, err := lib.Get(cardName)
		if err != nil {
			return err
		}

		if err := config.SetDefaultCard(e.Name); err != nil {
			return fmt.Errorf("error setting default card: %w", err)
		}

		fmt.Printf("Default card set to: %s (%s)\n", e.Name, e.Card.Data.Name)
		return nil
	},
}

// libraryInitCmd represents the library init command
var libraryInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the card library",
	RunE: func(cmd *cobra.Command, args []string) error {
		libraryPath := config.GetLibraryPath()

		// Create the card library directory if it doesn't exist
		if err := os.MkdirAll(libraryPath, 0755); err != nil {
			return fmt.Errorf("error creating card library: %w", err)
		}

		fmt.Println("Card library initialized at:", libraryPath)
		fmt.Println("You can now add cards by copying them to this directory.")

		// Initialize config
		if _, err := config.LoadConfig(); err != nil {
			return fmt.Errorf("error initializing config: %w", err)
		}

		fmt.Println("Config file initialized at:", config.GetConfigFilePath())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(libraryCmd)
	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(librarySetDefaultCmd)
	libraryCmd.AddCommand(libraryInitCmd)

	libraryListCmd.Flags().BoolP("all", "a", false, "Also list files that are not valid cards")
}
