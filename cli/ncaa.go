package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"wbb_scrooper/config"
	"wbb_scrooper/ncaa"
	"wbb_scrooper/scraper"
)

func init() {
	ncaaGamesCmd.Flags().Bool("count", false, "Also count saved game files per season and list teams with no games")
	exports := ncaaExportsCmd.Flags()
	exports.String("exports", "", "Comma separated subset of plays,turnovers,layups,officials")
	exports.String("games-db", "", "Also build a games SQLite database at this path")
	exports.Bool("postgres", false, "Upsert the officials export into Postgres")
	ncaaPbpCmd.Flags().String("data-dir", "", "Where to save WMT play-by-play JSON")

	bios := ncaaBiosCmd.Flags()
	bios.String("source", "", "Roster CSV path or url with a url column")
	bios.String("db", "player_bios.db", "SQLite file for the bios table")

	teams := statsTeamsCmd.Flags()
	teams.Int("start", 0, "First academic year")
	teams.Int("end", 0, "Last academic year")
	teams.IntSlice("division", []int{1, 2, 3}, "Divisions to list")
	teams.Bool("master-ids", false, "Also resolve each team's master id")
	statsRostersCmd.Flags().String("teams-csv", "", "CSV with season and ncaa_id columns")
	statsRostersCmd.Flags().Bool("master-ids", false, "Also resolve each player's master id")
	statsCmd.AddCommand(statsTeamsCmd, statsSeasonTeamsCmd, statsRostersCmd)

	ncaaCmd.AddCommand(ncaaGamesCmd, ncaaExportsCmd, ncaaPbpCmd, ncaaBiosCmd, ncaaCountCmd, statsCmd)
	rootCmd.AddCommand(ncaaCmd)
}

var ncaaCmd = &cobra.Command{
	Use:   "ncaa",
	Short: "NCAA livestats games, exports, play-by-play, bios and stats.ncaa.org.",
}

var ncaaGamesCmd = &cobra.Command{
	Use:   "games [--season 2025-26] [--team 255]",
	Short: "Saves livestats JSON for every game of each team and season.",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		params := map[string]string{}
		setParam(cmd, params, "count", "count")
		return runJob(cmd.Context(), a, adhocJob(scraper.HandlerNCAAGames, params))
	}),
}

var ncaaExportsCmd = &cobra.Command{
	Use:   "exports [--season 2025-26] [--exports officials]",
	Short: "Builds the plays, turnovers, layups and officials CSVs from saved games.",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		params := map[string]string{}
		setParam(cmd, params, "exports", "exports")
		setParam(cmd, params, "games-db", "games_db")
		setParam(cmd, params, "postgres", "postgres")
		return runJob(cmd.Context(), a, adhocJob(scraper.HandlerNCAAExports, params))
	}),
}

var ncaaPbpCmd = &cobra.Command{
	Use:   "pbp [--season 2025-26] [--team 255]",
	Short: "Downloads WMT play-by-play for Sidearm teams.",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		params := map[string]string{}
		setParam(cmd, params, "data-dir", "data_dir")
		return runJob(cmd.Context(), a, adhocJob(scraper.HandlerNCAAPbp, params))
	}),
}

var ncaaBiosCmd = &cobra.Command{
	Use:   "bios --source roster.csv [--db player_bios.db]",
	Short: "Extracts player bio text for every url in a roster CSV.",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		if source == "" {
			return fmt.Errorf("--source is required")
		}
		dbPath, _ := cmd.Flags().GetString("db")
		stats, err := ncaa.FetchPlayerBios(cmd.Context(), a.clients, source, firstSeason(a.cfg), dbPath, a.cfg.Delay())
		if err != nil {
			return err
		}
		fmt.Printf("Saved %d bios to %s, %d not found\n", stats.Saved, dbPath, stats.NotFound)
		return nil
	}),
}

var ncaaCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Counts saved game files per team and season.",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		path := filepath.Join(outputOr(a.cfg, "ncaa_games"), ncaa.CountsFile)
		teams := config.FilterTeams(a.teams, teamIDs)
		if err := ncaa.CountGameFiles(teams, a.cfg.GameDataDir, path); err != nil {
			return err
		}
		fmt.Println("Wrote " + path)

		season := firstSeason(a.cfg)
		zero, err := ncaa.TeamsWithZeroGames(path, season)
		if err != nil {
			return err
		}
		if len(zero) > 0 {
			fmt.Printf("%d teams have no %s games:\n  %s\n", len(zero), season, strings.Join(zero, "\n  "))
		}
		return nil
	}),
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "stats.ncaa.org team lists, rosters and master ids.",
}

var statsTeamsCmd = &cobra.Command{
	Use:   "teams --start 2020 --end 2025",
	Short: "Lists every team of each division and year.",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		start, _ := cmd.Flags().GetInt("start")
		end, _ := cmd.Flags().GetInt("end")
		divisions, _ := cmd.Flags().GetIntSlice("division")
		if start == 0 || end < start {
			return fmt.Errorf("--start and --end are required, with end >= start")
		}

		client := ncaa.NewStatsClient(a.clients, "", a.cfg.Delay())
		teams, err := client.TeamList(cmd.Context(), start, end, divisions)
		if err != nil {
			return err
		}
		dir := outputOr(a.cfg, "stats_ncaa")
		path := filepath.Join(dir, fmt.Sprintf("ncaa_teams_%d_%d.csv", start, end))
		if err := ncaa.WriteDivisionTeams(path, teams); err != nil {
			return err
		}
		fmt.Printf("Wrote %d teams to %s\n", len(teams), path)

		if ok, _ := cmd.Flags().GetBool("master-ids"); ok {
			rows, err := client.MasterTeamIDs(cmd.Context(), teams)
			if err != nil {
				return err
			}
			path := filepath.Join(dir, fmt.Sprintf("ncaa_team_master_ids_%d_%d.csv", start, end))
			if err := ncaa.WriteMasterTeamIDs(path, rows); err != nil {
				return err
			}
			fmt.Println("Wrote " + path)
		}
		return nil
	}),
}

var statsSeasonTeamsCmd = &cobra.Command{
	Use:   "season-teams <saved-teams-page.html>",
	Short: "Parses a saved season teams page into team urls and ids.",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		body, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		season := firstSeason(a.cfg)
		teams, err := ncaa.ParseTeamsPage(body, season)
		if err != nil {
			return err
		}
		path := filepath.Join(outputOr(a.cfg, "stats_ncaa"), fmt.Sprintf("teams_%s.csv", season))
		if err := ncaa.WriteStatsTeams(path, teams); err != nil {
			return err
		}
		fmt.Printf("Wrote %d teams to %s\n", len(teams), path)
		return nil
	}),
}

var statsRostersCmd = &cobra.Command{
	Use:   "rosters --teams-csv teams.csv [--master-ids]",
	Short: "Scrapes the roster of every team in a teams CSV.",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		teamsCSV, _ := cmd.Flags().GetString("teams-csv")
		if teamsCSV == "" {
			return fmt.Errorf("--teams-csv is required")
		}

		client := ncaa.NewStatsClient(a.clients, "", a.cfg.Delay())
		players, err := client.Rosters(cmd.Context(), teamsCSV)
		if err != nil {
			return err
		}
		dir := outputOr(a.cfg, "stats_ncaa")
		path := filepath.Join(dir, "ncaa_players.csv")
		if err := ncaa.WriteStatsPlayers(path, players); err != nil {
			return err
		}
		fmt.Printf("Wrote %d players to %s\n", len(players), path)

		if ok, _ := cmd.Flags().GetBool("master-ids"); !ok {
			return nil
		}
		found, failed, err := client.MasterIDs(cmd.Context(), players)
		if err != nil {
			return err
		}
		idPath := filepath.Join(dir, "ncaa_player_master_ids.csv")
		errPath := filepath.Join(dir, "ncaa_player_master_id_errors.csv")
		if err := ncaa.WriteMasterIDs(idPath, errPath, found, failed); err != nil {
			return err
		}
		fmt.Printf("Resolved %d master ids, %d failed\n", len(found), len(failed))
		return nil
	}),
}

func firstSeason(cfg *config.Config) string {
	if len(seasons) > 0 {
		return seasons[0]
	}
	return cfg.Scraper.Season
}

// outputOr is the --out directory, else DATA_DIR/name.
func outputOr(cfg *config.Config, name string) string {
	if outDir != "" {
		return outDir
	}
	return filepath.Join(cfg.DataDir, name)
}
