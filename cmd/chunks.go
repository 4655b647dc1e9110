package cmd

import (
	"fmt"
	"os"

	"github.com/arcanaland/tavern/internal/pngtext"
	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
)

// chunksCmd represents the chunks command
var chunksCmd = &cobra.Command{
	Use:   "chunks [path]",
	Short: "List the chunks of a PNG file",
	Long: `Chunks prints every chunk of a PNG file with its offset, length and CRC status.
Text chunks show their keyword, and the chunk carrying the character card is highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("error reading file: %w", err)
		}

		limit, _ := cmd.Flags().GetInt("bytes")

		index := 0
		err = pngtext.Walk(data, func(c pngtext.Chunk) bool {
			crcStatus := colorize.GreenString("ok")
			if c.Checksum() != c.CRC {
				crcStatus = colorize.RedString("bad")
			}

			fmt.Printf("%3d  %s  offset %-8d length %-8d crc %08x %s\n",
				index, colorize.HiWhiteString(c.Type), c.Offset, c.Length, c.CRC, crcStatus)

			if keyword, ok := c.Keyword(); ok {
				if keyword == pngtext.CardKeyword {
					fmt.Printf("     keyword: %s\n", colorize.YellowString("%s (card)", keyword))
				} else {
					fmt.Printf("     keyword: %s\n", keyword)
				}
			}

			if limit > 0 && len(c.Data) > 0 {
				n := min(limit, len(c.Data))
				fmt.Printf("     data (%d bytes): % x\n", n, c.Data[:n])
			}

			index++
			return true
		})
		if err != nil {
			return fmt.Errorf("error walking chunks: %w", err)
		}

		fmt.Printf("\n%d chunks\n", index)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(chunksCmd)

	chunksCmd.Flags().IntP("bytes", "n", 0, "Print the first n bytes of each chunk's data")
}
