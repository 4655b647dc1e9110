package cmd

import (
	"fmt"
	"os"

	"github.com/arcanaland/tavern/internal/config"
	"github.com/arcanaland/tavern/internal/validator"
	"github.com/spf13/cobra"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a character card PNG",
	Long: `Validate checks if a PNG file carries a character card that conforms to the Character Card V2 specification.
It verifies the PNG chunk structure, the embedded payload and the card schema, and reports likely authoring mistakes as warnings.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cardPath := args[0]

		// Check if path exists
		if _, err := os.Stat(cardPath); os.IsNotExist(err) {
			return fmt.Errorf("card file not found: %s", cardPath)
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		scanner := cfg.Scanner()
		if strict, _ := cmd.Flags().GetBool("strict"); strict {
			scanner.VerifyCRC = true
		}

		// Create validator and run validation
		v := validator.NewValidator(cardPath, scanner)
		results, err := v.Validate()
		if err != nil {
			return fmt.Errorf("validation error: %w", err)
		}

		// Display validation results
		fmt.Println("Validation Results:")
		fmt.Println("-------------------")

		if len(results.Errors) == 0 {
			fmt.Printf("✅ Card '%s' (%s) is a valid Character Card V2.\n", cardPath, v.Card().Data.Name)
		} else {
			fmt.Printf("❌ Card '%s' has %d validation errors:\n", cardPath, len(results.Errors))
			for i, err := range results.Errors {
				fmt.Printf("%d. %s\n", i+1, err)
			}
			return fmt.Errorf("validation failed")
		}

		if len(results.Warnings) > 0 {
			fmt.Println("\nWarnings:")
			for i, warn := range results.Warnings {
				fmt.Printf("%d. %s\n", i+1, warn)
			}
		}

		return nil
	},
}

func init() {
	validateCmd.Flags().Bool("strict", false, "Verify the CRC of every chunk")
}
