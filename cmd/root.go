package cmd

import (
	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/cobra"
)

var log = logging.Logger("tavern-cmd")

var verbose bool

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "tavern",
	Short: "Tool for inspecting and validating character cards",
	Long: `Tavern is a command-line tool for reading character cards embedded in PNG images.
It extracts the "chara" metadata chunk and checks it against the Character Card V2 specification.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "error"
		if verbose {
			level = "debug"
		}
		logging.SetAllLoggers(logging.LevelError)
		for _, name := range []string{"tavern-cmd", "tavern-png", "tavern-card", "tavern-library"} {
			if err := logging.SetLogLevel(name, level); err != nil {
				log.Warnf("setting log level for %s: %v", name, err)
			}
		}
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log chunk scanning and decoding details")
	RootCmd.AddCommand(validateCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}
