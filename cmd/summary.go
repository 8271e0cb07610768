package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Zachdehooge/nyc-collisions/internal/collision"
	"github.com/Zachdehooge/nyc-collisions/internal/loader"
)

var severityColors = map[collision.Severity]*color.Color{
	collision.Fatal:              color.New(color.FgRed, color.Bold),
	collision.Severe:             color.New(color.FgYellow),
	collision.Minor:              color.New(color.FgBlue),
	collision.PropertyDamageOnly: color.New(color.FgGreen),
}

// addSummaryCmd adds a 'summary' subcommand to show severity counts without generating HTML
func addSummaryCmd(rootCmd *cobra.Command) {
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Print collision counts by severity and borough",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("input") {
				cfg.Input = inputFile
			}

			records, stats, err := loader.Load(cmd.Context(), cfg.Input)
			if err != nil {
				return fmt.Errorf("failed to load collisions: %w", err)
			}

			if len(records) == 0 {
				cmd.Println("No collisions with coordinates.")
				return nil
			}

			s := collision.Summarize(records)
			bold := color.New(color.Bold).SprintFunc()

			cmd.Println(bold("Collision Summary:"))
			cmd.Println(fmt.Sprintf("Rows: %d (%d without usable coordinates)", stats.Rows, stats.Dropped))
			cmd.Println(fmt.Sprintf("Collisions: %d", s.Total))
			cmd.Println(fmt.Sprintf("Persons injured: %d", s.Injured))
			cmd.Println(fmt.Sprintf("Persons killed: %d", s.Killed))
			if days := s.Days(); days > 0 {
				cmd.Println(fmt.Sprintf("Daily average: %.1f over %d day(s)", s.DailyAverage(), days))
			}
			if r, ok := s.PeakHours(); ok {
				cmd.Println(fmt.Sprintf("Peak hours: %s", r))
			}
			if f, n, ok := s.TopFactor(); ok {
				cmd.Println(fmt.Sprintf("Top factor: %s (%d)", f, n))
			}
			for _, sev := range collision.Severities {
				cmd.Println(fmt.Sprintf("  %s %d", severityColors[sev].Sprintf("%-22s", sev.String()+":"), s.BySeverity[sev]))
			}

			for _, b := range s.Boroughs() {
				cmd.Println("---")
				cmd.Println(bold(b))
				counts := s.ByBorough[b]
				for _, sev := range collision.Severities {
					if counts[sev] == 0 {
						continue
					}
					cmd.Println(fmt.Sprintf("  %s %d", severityColors[sev].Sprintf("%-22s", sev.String()+":"), counts[sev]))
				}
			}
			return nil
		},
	}

	summaryCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Crash CSV path or URL (default from config)")

	rootCmd.AddCommand(summaryCmd)
}
