package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/arcanaland/tavern/internal/card"
	"github.com/arcanaland/tavern/internal/config"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [card]",
	Short: "Print the card embedded in a PNG as JSON",
	Long: `Extract decodes the character card embedded in a PNG and prints it as JSON.
Extension data is printed exactly as it was stored.

Use --query with a GJSON path to print a single value, for example:
  tavern extract alice.png --query data.name
  tavern extract alice.png --query 'data.character_book.entries.#.keys'`,
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

		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			data, err := os.ReadFile(cardPath)
			if err != nil {
				return fmt.Errorf("error reading card: %w", err)
			}
			payload, err := cfg.Scanner().Scan(data)
			if err != nil {
				return fmt.Errorf("error scanning %s: %w", cardPath, err)
			}
			fmt.Println(string(payload))
			return nil
		}

		_, c, err := loadCard(cardPath, cfg)
		if err != nil {
			return err
		}

		doc, err := card.Marshal(c)
		if err != nil {
			return err
		}

		if query, _ := cmd.Flags().GetString("query"); query != "" {
			result := gjson.GetBytes(doc, query)
			if !result.Exists() {
				return fmt.Errorf("no value at %s", query)
			}
			if result.Type == gjson.String {
				fmt.Println(result.Str)
				return nil
			}
			doc = []byte(result.Raw)
		}

		if p, _ := cmd.Flags().GetBool("pretty"); p {
			doc = pretty.Pretty(doc)
			if colored, _ := cmd.Flags().GetBool("color"); colored {
				doc = pretty.Color(doc, nil)
			}
		}

		fmt.Println(string(bytes.TrimRight(doc, "\n")))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(extractCmd)

	extractCmd.Flags().BoolP("pretty", "p", false, "Indent the JSON output")
	extractCmd.Flags().Bool("color", false, "Colorize pretty output")
	extractCmd.Flags().StringP("query", "q", "", "Print only the value at a GJSON path")
	extractCmd.Flags().Bool("raw", false, "Print the base64 payload without decoding it")
}

