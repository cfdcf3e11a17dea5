package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"wbb_scrooper/config"
)

// Flags shared by every scraping command.
var (
	seasons []string
	teamIDs []int
	outDir  string
	delayMS int
)

var rootCmd = &cobra.Command{
	Use:   "wbb_scrooper",
	Short: "wbb_scrooper scrapes women's basketball rosters, games and stats.",
	Long: `wbb_scrooper scrapes women's college and professional basketball data:
team rosters, NCAA livestats and play-by-play, FIBA games, WNBA rosters,
cable ratings, coach bios and officiating reports. Outputs are CSV, JSON and
SQLite files. Jobs in config/jobs can also run on a schedule with "daemon".`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringSliceVar(&seasons, "season", nil, "Season(s) to scrape, e.g. 2025-26 (defaults to SCRAPE_SEASON)")
	pf.IntSliceVar(&teamIDs, "team", nil, "Restrict to these NCAA team ids")
	pf.StringVarP(&outDir, "out", "o", "", "Output directory (defaults to DATA_DIR/<job>)")
	pf.IntVar(&delayMS, "delay-ms", 0, "Pause between requests in milliseconds (defaults to SCRAPE_DELAY_MS)")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// adhocJob builds a one-off job for handler from the shared flags.
func adhocJob(handler string, params map[string]string) *config.JobConfig {
	return &config.JobConfig{
		ID:          handler,
		Name:        handler + " (cli)",
		Handler:     handler,
		RateLimitMS: delayMS,
		Seasons:     seasons,
		Teams:       teamIDs,
		Params:      params,
		Output:      outDir,
	}
}

// setParam records a flag value only when the user set it, so job defaults
// still apply.
func setParam(cmd *cobra.Command, params map[string]string, flag, key string) {
	f := cmd.Flags().Lookup(flag)
	if f == nil || !f.Changed {
		return
	}
	params[key] = f.Value.String()
}
