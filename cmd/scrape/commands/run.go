package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"order-scrapper/internal/app"
	"order-scrapper/internal/core/config"
	"order-scrapper/internal/core/logger"
	"order-scrapper/internal/features/orders/domain"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runMaxItems   int
	runOutput     string
	runControlURL string
	runConfigDir  string
)

func init() {
	runCmd.Flags().IntVar(&runMaxItems, "max-items", 0, "Maximum orders to scrape; 0 scrapes the whole listing. Defaults to SCRAPE_MAX_ITEMS.")
	runCmd.Flags().StringVar(&runOutput, "output", "", "CSV file to append to. Defaults to OUTPUT_PATH.")
	runCmd.Flags().StringVar(&runControlURL, "control-url", "", "DevTools websocket URL of the running browser. Defaults to BROWSER_CONTROL_URL.")
	runCmd.Flags().StringVar(&runConfigDir, "config", ".", "Directory holding the .env file.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--max-items N] [--output path] [--control-url ws://...]",
	Short: "Attaches to the browser, scrapes the current listing and appends the records to the CSV file.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(runConfigDir)
		if err != nil {
			return err
		}
		if runControlURL != "" {
			cfg.Browser.ControlURL = runControlURL
		}
		// The one-shot run owns the session, so it never lingers.
		cfg.Browser.ReleaseAfterScrape = true

		if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}
		defer logger.Sync()

		a, err := app.New(cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		info, err := a.Sessions.Connect(ctx)
		if err != nil {
			return fmt.Errorf("failed to connect to browser: %w", err)
		}
		logger.Get().Info("Connected to browser", zap.String("page", info.PageURL))

		req := domain.RunRequest{OutputPath: runOutput}
		if cmd.Flags().Changed("max-items") {
			req.MaxItems = &runMaxItems
		}

		outcome, err := a.Scrapes.Scrape(ctx, req)
		if outcome != nil {
			printOutcome(cmd.OutOrStdout(), outcome, err)
		}
		if err != nil {
			var persistErr *domain.PersistenceError
			if errors.As(err, &persistErr) {
				return fmt.Errorf("records were scraped but not saved: %w", err)
			}
			return err
		}
		return nil
	},
}

func printOutcome(w io.Writer, outcome *domain.ScrapeOutcome, runErr error) {
	fmt.Fprintf(w, "Found %d orders, scraped %d, skipped %d.\n", outcome.TotalFound, outcome.TotalExtracted, len(outcome.Failures))
	for _, f := range outcome.Failures {
		fmt.Fprintf(w, "  #%d %s: %s\n", f.Index, f.Reference, f.Reason)
	}
	if outcome.Cancelled {
		fmt.Fprintln(w, "Run was cancelled before the last order.")
	}
	if persisted(runErr) {
		fmt.Fprintf(w, "Saved to %s\n", outcome.OutputPath)
	} else {
		fmt.Fprintf(w, "Nothing was saved to %s\n", outcome.OutputPath)
	}
}

// persisted reports whether a run that ended with runErr still wrote its records.
// Cancelled runs write what they scraped before stopping.
func persisted(runErr error) bool {
	if runErr == nil {
		return true
	}
	var persistErr *domain.PersistenceError
	var listingErr *domain.ListingError
	if errors.As(runErr, &persistErr) || errors.As(runErr, &listingErr) {
		return false
	}
	return errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)
}
