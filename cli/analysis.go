package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"wbb_scrooper/officials"
	"wbb_scrooper/scraper"
	"wbb_scrooper/uswnt"
)

func init() {
	d := officials.DefaultReportOptions()
	f := officialsCmd.Flags()
	f.String("files", "", "Comma separated officials CSVs (defaults to officials_<season>.csv per --season)")
	f.String("source-dir", "", "Directory holding officials_<season>.csv")
	f.Int("min-games", d.MinGames, "Games an official needs for the comparison")
	f.Int("partnership-min-games", d.PartnershipMinGames, "Games a partnership needs across all seasons")
	f.Int("season-min-games", d.SeasonMinGames, "Games a partnership needs within a season")
	f.Int("trend-min-games", d.TrendMinGames, "Games per season a partnership needs for trends")
	f.Int("chemistry-min-games", d.ChemistryMinGames, "Games a partnership needs for chemistry")
	f.Int("network-min-games", d.NetworkMinGames, "Games a partnership needs to join a network")
	f.Int("top-partnerships", d.TopPartnerships, "How many of the most frequent partnerships to list")

	officialsPartnersCmd.Flags().String("files", "", "Comma separated officials CSVs (defaults to officials_<season>.csv per --season)")
	officialsPartnersCmd.Flags().String("source-dir", "", "Directory holding officials_<season>.csv")
	officialsCmd.AddCommand(officialsPartnersCmd)

	rootCmd.AddCommand(officialsCmd, uswntCmd)
}

var officialsCmd = &cobra.Command{
	Use:   "officials [--season 2023-24 --season 2024-25]",
	Short: "Compares officials and officiating partnerships by fouls called.",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		params := map[string]string{}
		setParam(cmd, params, "files", "files")
		setParam(cmd, params, "source-dir", "source_dir")
		for _, flag := range []string{"min-games", "partnership-min-games", "season-min-games",
			"trend-min-games", "chemistry-min-games", "network-min-games", "top-partnerships"} {
			setParam(cmd, params, flag, strings.ReplaceAll(flag, "-", "_"))
		}
		return runJob(cmd.Context(), a, adhocJob(scraper.HandlerOfficials, params))
	}),
}

var officialsPartnersCmd = &cobra.Command{
	Use:   "partners <official>",
	Short: "Shows how an official's foul calls move with each partner.",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		games, err := officials.LoadSeasons(officialsFiles(cmd, a))
		if err != nil {
			return err
		}
		name := args[0]
		partners := officials.AnalyzePartners(games, name)
		if len(partners) == 0 {
			return fmt.Errorf("no partner of %s has worked enough games with them", name)
		}

		t := newTable()
		t.SetTitle(name)
		t.AppendHeader(table.Row{"Partner", "Games", "Avg Fouls", "Diff"})
		for _, p := range partners {
			t.AppendRow(table.Row{p.Partner, p.Games, fmt.Sprintf("%.2f", p.AvgFouls), fmt.Sprintf("%+.2f", p.DiffFromAvg)})
		}
		t.Render()
		return nil
	}),
}

// officialsFiles is --files, else officials_<season>.csv under --source-dir
// for each season.
func officialsFiles(cmd *cobra.Command, a *app) []string {
	if files, _ := cmd.Flags().GetString("files"); files != "" {
		return strings.Split(files, ",")
	}
	dir, _ := cmd.Flags().GetString("source-dir")
	if dir == "" {
		dir = filepath.Join(a.cfg.DataDir, "ncaa_exports")
	}
	list := seasons
	if len(list) == 0 {
		list = []string{a.cfg.Scraper.Season}
	}
	var files []string
	for _, season := range list {
		files = append(files, filepath.Join(dir, fmt.Sprintf("officials_%s.csv", season)))
	}
	return files
}

var uswntCmd = &cobra.Command{
	Use:   "uswnt <boxscore.pdf>...",
	Short: "Converts USA Basketball box score PDFs to CSV.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t := newTable()
		t.AppendHeader(table.Row{"File", "Date", "Teams", "Score", "Players"})
		var failed int
		for _, path := range args {
			bs, err := uswnt.ParseFile(path)
			if err != nil {
				fmt.Println(err)
				failed++
				continue
			}
			dir := outDir
			if dir == "" {
				dir = filepath.Dir(path)
			}
			csvPath := filepath.Join(dir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".csv")
			if err := uswnt.WriteBoxScore(csvPath, bs); err != nil {
				return err
			}
			t.AppendRow(table.Row{
				csvPath,
				bs.Date,
				bs.Teams[0].Name + " vs " + bs.Teams[1].Name,
				bs.Teams[0].Score + "-" + bs.Teams[1].Score,
				len(bs.Teams[0].Players) + len(bs.Teams[1].Players),
			})
		}
		t.Render()
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(args))
		}
		return nil
	},
}
