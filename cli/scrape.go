package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"wbb_scrooper/fiba"
	"wbb_scrooper/scraper"
)

func init() {
	rosters := rostersCmd.Flags()
	rosters.String("entity", "all", "players, coaches or all")
	rosters.String("overrides", "config/rosters.yaml", "Per-team strategy overrides")
	rosters.Bool("sqlite", false, "Also save rows to the SQLite (and Postgres) store")

	games := fibaGamesCmd.Flags()
	games.Int("start-year", 0, "First year of the game feed window")
	games.Int("end-year", 0, "Last year of the game feed window")
	games.String("subscription-key", "", "GDAP subscription key")
	fibaBoxscoresCmd.Flags().String("events", "", "Comma separated event slugs")
	players := fibaPlayersCmd.Flags()
	players.String("games", "", "Games CSV from \"fiba games\"")
	players.Int("limit", 0, "Only scrape the first n games")
	fibaCmd.AddCommand(fibaGamesCmd, fibaBoxscoresCmd, fibaPlayersCmd, fibaShotsCmd)

	wnba := wnbaCmd.Flags()
	wnba.String("db", "", "SQLite file to load (defaults to <out>/wnba.db)")
	wnba.String("teams-json", "", "teams JSON to load into the teams table")
	wnba.String("following", "", "Comma separated accounts whose following exports to load")
	wnba.String("following-dir", "", "Directory holding <account>.csv or <account>.json")
	wnba.Bool("player-index", false, "Also save the league player index JSON")

	showbuzzCmd.Flags().String("start", "", "First date, YYYY-MM-DD (defaults to yesterday)")
	showbuzzCmd.Flags().String("end", "", "Last date, YYYY-MM-DD (defaults to start)")

	rootCmd.AddCommand(rostersCmd, fibaCmd, wnbaCmd, showbuzzCmd, checkURLsCmd)
}

var rostersCmd = &cobra.Command{
	Use:   "rosters [--season 2025-26] [--team 255] [--entity players]",
	Short: "Scrapes player and coach rosters from team athletics sites.",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		params := map[string]string{}
		setParam(cmd, params, "entity", "entity")
		setParam(cmd, params, "overrides", "overrides")
		setParam(cmd, params, "sqlite", "sqlite")
		return runJob(cmd.Context(), a, adhocJob(scraper.HandlerRosters, params))
	}),
}

var fibaCmd = &cobra.Command{
	Use:   "fiba",
	Short: "FIBA game feed, boxscores, player stats and shot charts.",
}

var fibaGamesCmd = &cobra.Command{
	Use:   "games --start-year 2023 --end-year 2025",
	Short: "Downloads women's games from the FIBA GDAP feed.",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		params := map[string]string{}
		setParam(cmd, params, "start-year", "start_year")
		setParam(cmd, params, "end-year", "end_year")
		setParam(cmd, params, "subscription-key", "subscription_key")
		return runJob(cmd.Context(), a, adhocJob(scraper.HandlerFIBAGames, params))
	}),
}

var fibaBoxscoresCmd = &cobra.Command{
	Use:   "boxscores --events <slug,...>",
	Short: "Crawls every boxscore of the given events.",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		params := map[string]string{}
		setParam(cmd, params, "events", "events")
		return runJob(cmd.Context(), a, adhocJob(scraper.HandlerFIBABoxscores, params))
	}),
}

var fibaPlayersCmd = &cobra.Command{
	Use:   "players [--games fiba_games.csv] [--limit n]",
	Short: "Scrapes player box lines for the games in a games CSV.",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		params := map[string]string{}
		setParam(cmd, params, "games", "games")
		setParam(cmd, params, "limit", "limit")
		return runJob(cmd.Context(), a, adhocJob(scraper.HandlerFIBAPlayers, params))
	}),
}

var fibaShotsCmd = &cobra.Command{
	Use:   "shots <shots.csv>",
	Short: "Summarizes a shot-chart CSV per team.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		summaries, err := fiba.SummarizeShots(args[0])
		if err != nil {
			return err
		}
		t := newTable()
		t.AppendHeader(table.Row{"Team", "FGA", "FGM", "FG%", "3PA", "3PM", "3P%"})
		for _, s := range summaries {
			t.AppendRow(table.Row{s.Team, s.Attempts, s.Makes, fmt.Sprintf("%.1f", s.FGPct),
				s.ThreeAtt, s.ThreeMade, fmt.Sprintf("%.1f", s.ThreePct)})
		}
		t.Render()
		return nil
	},
}

var wnbaCmd = &cobra.Command{
	Use:   "wnba [--season 2025]",
	Short: "Loads WNBA team rosters (and optional following exports) into SQLite.",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		params := map[string]string{}
		if len(seasons) > 0 {
			params["season"] = seasons[0]
		}
		setParam(cmd, params, "db", "db")
		setParam(cmd, params, "teams-json", "teams_json")
		setParam(cmd, params, "following", "following")
		setParam(cmd, params, "following-dir", "following_dir")
		setParam(cmd, params, "player-index", "player_index")
		return runJob(cmd.Context(), a, adhocJob(scraper.HandlerWNBARosters, params))
	}),
}

var showbuzzCmd = &cobra.Command{
	Use:   "showbuzz [--start 2025-03-01 --end 2025-03-31]",
	Short: "Saves the daily cable top 150 ratings charts.",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		params := map[string]string{}
		setParam(cmd, params, "start", "start")
		setParam(cmd, params, "end", "end")
		return runJob(cmd.Context(), a, adhocJob(scraper.HandlerShowbuzz, params))
	}),
}

var checkURLsCmd = &cobra.Command{
	Use:   "check-urls",
	Short: "Records the HTTP status of every team athletics url.",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		return runJob(cmd.Context(), a, adhocJob(scraper.HandlerURLCheck, nil))
	}),
}
