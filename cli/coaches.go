package cli

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"wbb_scrooper/coaches"
	"wbb_scrooper/export"
	"wbb_scrooper/models"
	"wbb_scrooper/scraper"
)

func init() {
	bios := coachBiosCmd.Flags()
	bios.String("csv", "", "coaches.csv with name and url columns")
	bios.String("names", "", "Comma separated coach names to fetch")
	bios.Int("limit", 0, "Only fetch the first n coaches")
	bios.Bool("shuffle", false, "Shuffle the coaches before applying --limit")
	bios.Bool("demo", false, "Fetch a handful of coaches only")
	bios.Bool("histories", false, "Extract career histories with the model")
	bios.Bool("resume", false, "Keep histories already extracted")
	bios.Bool("test", false, "Extract histories for the first few bios only")
	bios.String("db", "", "Load histories into this coach SQLite database")
	bios.String("colleges", "", "Colleges CSV to merge positions with")
	bios.String("standardization", "", "Title standardization CSV")

	gender := coachGenderCmd.Flags()
	gender.String("bios", "", "coach_bios.json (defaults to <out>/coach_bios.json)")
	gender.String("merged", "", "Merged histories CSV to add a gender column to")

	coachChangesCmd.Flags().String("url", coaches.DefaultChangesURL, "WordPress post JSON url")

	coachesCmd.AddCommand(coachBiosCmd, coachGenderCmd, coachChangesCmd)
	rootCmd.AddCommand(coachesCmd)
}

var coachesCmd = &cobra.Command{
	Use:   "coaches",
	Short: "Coach bios, career histories, genders and coaching changes.",
}

var coachBiosCmd = &cobra.Command{
	Use:   "bios [--csv coaches.csv] [--histories --db coaches.db]",
	Short: "Fetches coach bio text and optionally extracts career histories.",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		params := map[string]string{}
		for _, f := range []string{"csv", "names", "limit", "shuffle", "demo", "histories", "resume", "test", "db", "colleges", "standardization"} {
			setParam(cmd, params, f, f)
		}
		return runJob(cmd.Context(), a, adhocJob(scraper.HandlerCoachBios, params))
	}),
}

var coachGenderCmd = &cobra.Command{
	Use:   "gender [--bios coach_bios.json] [--merged merged.csv]",
	Short: "Classifies each coach's gender from the pronouns in their bio.",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		out := outputOr(a.cfg, "coaches")
		biosPath, _ := cmd.Flags().GetString("bios")
		if biosPath == "" {
			biosPath = filepath.Join(out, coaches.BiosFile)
		}
		bios, err := coaches.LoadBios(biosPath)
		if err != nil {
			return err
		}

		c, err := coaches.NewAnthropicCompleter(a.cfg.Anthropic.APIKey, a.cfg.Anthropic.Model)
		if err != nil {
			return err
		}
		gendered, err := coaches.ClassifyBios(cmd.Context(), c, bios)
		if err != nil {
			return err
		}
		path := filepath.Join(out, "coach_bios_gender.json")
		if err := export.WriteJSON(path, gendered); err != nil {
			return err
		}
		fmt.Println("Wrote " + path)

		counts := coaches.GenderCounts(gendered)
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		t := newTable()
		t.AppendHeader(table.Row{"Gender", "Coaches"})
		for _, k := range keys {
			label := k
			if label == "" {
				label = "unknown"
			}
			t.AppendRow(table.Row{label, counts[k]})
		}
		t.Render()

		merged, _ := cmd.Flags().GetString("merged")
		if merged == "" {
			return nil
		}
		mergedOut := filepath.Join(out, "coaching_histories_gender.csv")
		n, err := coaches.AddGenderColumn(merged, mergedOut, gendered)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s, %d rows with a gender\n", mergedOut, n)
		return nil
	}),
}

var coachChangesCmd = &cobra.Command{
	Use:   "changes [--url post-json-url]",
	Short: "Extracts the coaching carousel from a blog post into a CSV.",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		postURL, _ := cmd.Flags().GetString("url")
		c, err := coaches.NewAnthropicCompleter(a.cfg.Anthropic.APIKey, a.cfg.Anthropic.Model)
		if err != nil {
			return err
		}
		changes, err := coaches.ExtractCoachingChanges(cmd.Context(), a.clients, c, postURL)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(changes))
		for _, ch := range changes {
			rows = append(rows, ch.CSVRow())
		}
		path := filepath.Join(outputOr(a.cfg, "coaches"), "coaching_changes.csv")
		if err := export.WriteCSV(path, models.CoachingChangeCSVHeader, rows); err != nil {
			return err
		}
		fmt.Printf("Wrote %d changes to %s\n", len(changes), path)
		return nil
	}),
}
