package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/derekprior/rrdoubles/internal/config"
	"github.com/derekprior/rrdoubles/internal/excel"
	"github.com/derekprior/rrdoubles/internal/schedule"
	"github.com/derekprior/rrdoubles/internal/strategy"
	"github.com/derekprior/rrdoubles/internal/validator"
)

const defaultConfigFile = "config.yaml"

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory or pass --config", defaultConfigFile)
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger(), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var logLevel string
	rootCmd := &cobra.Command{
		Use:   "rrdoubles",
		Short: "Round-robin doubles tournament scheduler",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			cmd.SetContext(logger.WithContext(cmd.Context()))
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter config.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the config file")

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Check, generate and validate schedules",
	}

	var configFile string
	scheduleCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: config.yaml in current directory)")

	checkCmd := &cobra.Command{
		Use:          "check",
		Short:        "Report lineups that still need to be filled in",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runCheck(configPath)
		},
	}

	var outputFile string
	generateCmd := &cobra.Command{
		Use:          "generate",
		Short:        "Generate a schedule from a config file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runGenerate(cmd.Context(), configPath, outputFile)
		},
	}
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "schedule.xlsx", "Output Excel file path")

	validateCmd := &cobra.Command{
		Use:          "validate <schedule.xlsx>",
		Short:        "Validate a schedule against config rules",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runValidate(configPath, args[0])
		},
	}

	scheduleCmd.AddCommand(checkCmd, generateCmd, validateCmd)
	rootCmd.AddCommand(initCmd, scheduleCmd)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

const configTemplate = `# Doubles Tournament Configuration
# ================================
# This file defines the parameters for generating a round-robin doubles
# schedule. Every pair of teams meets once in every formation.

name: Club Doubles Cup

# Teams are lettered A, B, C, ... in order. Up to 26 teams.
team_count: 4

# Maximum roster size per team. Player codes are the team letter followed by
# a number from 1 to team_capacity (e.g. A1, B6). 0 means unlimited.
team_capacity: 6

# Courts that can host a match at the same time.
court_count: 2

# Minutes per slot. Used for the estimated duration and the time column.
match_duration: 30

# Optional clock time of the first slot, 24-hour format.
start_time: "09:00"

# Formations are the lineup labels every pairing of teams plays once.
formations: ["1+2", "3+4", "5+6"]

# "round_robin" plays every pair of teams once per formation.
strategy: round_robin

# Rules are hard constraints. A schedule that violates these is invalid.
rules:
  max_consecutive_slots: 3   # No player plays more than 3 slots in a row (0 or omitted = 3)
  max_slots: 0               # Stop with an error past this many slots (0 = no limit)

# Guidelines are soft preferences. The scheduler favors players who have
# rested more than rest_target slots. Omitted = 2; 0 favors any rest at all.
guidelines:
  rest_target: 2

# Team names, rosters and lineups. Every team needs a lineup for every
# formation: exactly two of its own players.
teams:
  - code: A
    name: Falcons
    players:
      - {number: 1, name: Ann}
      - {number: 2, name: Bea}
      - {number: 3, name: Cal}
      - {number: 4, name: Dee}
      - {number: 5, name: Eli}
      - {number: 6, name: Fay}
    lineups:
      "1+2": [A1, A2]
      "3+4": [A3, A4]
      "5+6": [A5, A6]
  - code: B
    name: Herons
    lineups:
      "1+2": [B1, B2]
      "3+4": [B3, B4]
      "5+6": [B5, B6]
  - code: C
    name: Kestrels
    lineups:
      "1+2": [C1, C2]
      "3+4": [C3, C4]
      "5+6": [C5, C6]
  - code: D
    name: Swifts
    lineups:
      "1+2": [D1, D2]
      "3+4": [D3, D4]
      "5+6": [D5, D6]
`

func runCheck(configPath string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if missing := strategy.CheckLineups(cfg); len(missing) > 0 {
		fmt.Printf("Missing lineups (%d):\n", len(missing))
		for _, m := range missing {
			fmt.Printf("  ✗ team %s, formation %s\n", m.Team, m.Formation)
		}
		err := &strategy.IncompleteError{Missing: missing}
		fmt.Printf("\nTeams to complete: %s\n", strings.Join(err.Teams(), ", "))
		return err
	}

	fmt.Printf("✓ All %d teams have lineups for %d formations\n", cfg.TeamCount, len(cfg.Formations))
	return nil
}

func runGenerate(ctx context.Context, configPath, outputPath string) error {
	log := zerolog.Ctx(ctx)

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Debug().Str("config", configPath).Int("teams", cfg.TeamCount).Int("courts", cfg.CourtCount).Msg("config loaded")

	strat, err := strategy.Get(cfg.Strategy)
	if err != nil {
		return err
	}

	tasks, err := strat.GenerateTasks(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Scheduling %d matches on %d courts...\n", len(tasks), cfg.CourtCount)

	result, err := schedule.Schedule(ctx, cfg, tasks)
	if err != nil {
		var deadlock *schedule.DeadlockError
		if errors.As(err, &deadlock) {
			fmt.Fprintf(os.Stderr, "⚠ %s\n", deadlock)
			return fmt.Errorf("schedule is incomplete: %d of %d matches scheduled: %w", deadlock.Scheduled, len(tasks), err)
		}
		return err
	}
	fmt.Printf("✓ All %d matches scheduled\n", len(result.Assignments))

	s := result.Summary
	fmt.Printf("\n  Slots: %d   Rounds: %d   Estimated duration: %s\n", s.TotalSlots, s.TotalRounds, s.EstimatedDuration)

	fmt.Println("\nPer Player Metrics:")
	fmt.Printf("  %-8s %-15s %7s %10s %8s\n", "Player", "Name", "Matches", "Max streak", "Max rest")
	for _, p := range result.Players() {
		m := result.PlayerMetrics[p]
		fmt.Printf("  %-8s %-15s %7d %10d %8d\n", p, cfg.PlayerName(p), m.Matches, m.MaxStreak, m.MaxRest)
	}

	if len(result.Warnings) > 0 {
		fmt.Printf("\nGuideline violations (%d):\n", len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Printf("  ⚠ %s\n", w)
		}
	} else {
		fmt.Println("\n✓ No guideline violations")
	}

	f, err := excel.Generate(cfg, result)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	log.Info().Str("path", outputPath).Int("matches", len(result.Matches)).Msg("workbook written")

	fmt.Printf("\n✓ Schedule saved to %s\n", outputPath)
	return nil
}

func runValidate(configPath, schedulePath string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	violations, err := validator.Validate(cfg, schedulePath)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	rules := 0
	guidelines := 0
	for _, v := range violations {
		where := ""
		if v.Row > 0 {
			where = fmt.Sprintf(" (row %d)", v.Row)
		}
		switch v.Type {
		case "error":
			rules++
			fmt.Printf("✗ Rule violation%s: %s\n", where, v.Message)
		case "warning":
			guidelines++
			fmt.Printf("⚠ Guideline violation%s: %s\n", where, v.Message)
		}
	}

	fmt.Printf("\nValidation complete: %d rule violations, %d guideline violations\n", rules, guidelines)

	// Regenerate team sheets from the Matches sheet
	if err := excel.UpdateTeamSheets(schedulePath, cfg); err != nil {
		return fmt.Errorf("updating team sheets: %w", err)
	}
	fmt.Printf("✓ Team sheets updated in %s\n", schedulePath)

	if rules > 0 {
		return fmt.Errorf("%d constraint violations found", rules)
	}
	return nil
}
