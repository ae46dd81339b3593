package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "order-scrapper",
	Short: "order-scrapper exports customer contact data from filtered order listings.",
	Long: "order-scrapper attaches to a browser started with remote debugging, reads the order links\n" +
		"of the listing the operator filtered, and appends one CSV row per order detail page.",
	SilenceUsage: true,
}

// ExecuteContext runs the root command and exits non-zero on failure.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
