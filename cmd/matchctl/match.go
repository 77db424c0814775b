package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arnavshah/carematch-api/pkg/matching"
	"github.com/arnavshah/carematch-api/pkg/models"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score shifts for a worker and print the best matches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		config, err := getConfig()
		if err != nil {
			return err
		}
		workerFile, _ := cmd.Flags().GetString("worker")
		shiftsFile, _ := cmd.Flags().GetString("shifts")
		asJSON, _ := cmd.Flags().GetBool("json")

		worker, shifts, err := loadInput(workerFile, shiftsFile)
		if err != nil {
			return err
		}
		return runMatch(cmd.OutOrStdout(), config, worker, shifts, asJSON)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("worker", "w", "", "JSON file with the worker profile")
	matchCmd.Flags().StringP("shifts", "s", "", "JSON file with an array of shifts")
	matchCmd.Flags().Float64("min-score", 60, "drop matches scoring below this value")
	matchCmd.Flags().IntP("limit", "n", 10, "maximum number of matches to print")
	matchCmd.Flags().String("distance-mode", "geo", "distance estimation: geo or placeholder")
	matchCmd.Flags().Float64("fallback-miles", 25, "distance assumed between different cities without coordinates")
	matchCmd.Flags().Int64("seed", 0, "seed for the placeholder distance (0 uses the clock)")
	matchCmd.Flags().BoolP("json", "j", false, "print the result as JSON")
	matchCmd.MarkFlagRequired("worker")
	matchCmd.MarkFlagRequired("shifts")

	for _, name := range []string{"min-score", "limit", "distance-mode", "fallback-miles", "seed"} {
		viper.BindPFlag(name, matchCmd.Flags().Lookup(name))
	}
}

func loadInput(workerFile, shiftsFile string) (models.WorkerProfile, []models.Shift, error) {
	var worker models.WorkerProfile
	if err := readJSON(workerFile, &worker); err != nil {
		return worker, nil, fmt.Errorf("reading worker: %w", err)
	}
	var shifts []models.Shift
	if err := readJSON(shiftsFile, &shifts); err != nil {
		return worker, nil, fmt.Errorf("reading shifts: %w", err)
	}
	return worker, shifts, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func newEngine(config *Config) (*matching.Engine, error) {
	switch strings.ToLower(config.DistanceMode) {
	case "", "geo":
		return matching.NewEngine(matching.GeoDistance{FallbackMiles: config.FallbackMiles}), nil
	case "placeholder":
		return matching.NewEngine(matching.NewPlaceholderDistance(config.Seed)), nil
	default:
		return nil, fmt.Errorf("unknown distance mode %q", config.DistanceMode)
	}
}

func runMatch(out io.Writer, config *Config, worker models.WorkerProfile, shifts []models.Shift, asJSON bool) error {
	engine, err := newEngine(config)
	if err != nil {
		return err
	}

	matches := engine.ComputeMatches(worker, shifts)
	top := matching.FilterTopMatches(matches, config.MinScore, config.Limit)
	log.Debug().Int("evaluated", len(matches)).Int("kept", len(top)).Msg("matching done")

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(models.MatchResponse{WorkerID: worker.ID, Evaluated: len(matches), Matches: top})
	}

	if len(top) == 0 {
		fmt.Fprintf(out, "No shifts scored %.0f or higher (%d evaluated)\n", config.MinScore, len(matches))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tSHIFT\tTITLE\tDATE\tCITY\tREASONS")
	for _, m := range top {
		fmt.Fprintf(w, "%.0f\t%s\t%s\t%s\t%s\t%s\n",
			m.Score, m.ShiftID, m.Shift.Title, m.Shift.Date, m.Shift.City, strings.Join(m.Reasons, "; "))
	}
	return w.Flush()
}
