package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sodatrack-cli",
	Short: "sodatrack-cli runs and inspects the publix soda price pipeline by hand.",
}

var configFile *string

func init() {
	configFile = rootCmd.PersistentFlags().String("config", "config.json5", "Path to the pipeline config file.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
