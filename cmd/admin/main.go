// Command admin is the Matchday operations CLI.
//
// Usage:
//
//	matchday-admin standings recompute --team 3 --season 2023-24
//	matchday-admin standings table --league 1
//	matchday-admin settle prediction --id 42
//	matchday-admin settle match --id 7
//	matchday-admin process --league 1 --max 50 --workers 4
//	matchday-admin seed demo
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matchdaylabs/matchday/internal/config"
	"github.com/matchdaylabs/matchday/internal/db"
	"github.com/matchdaylabs/matchday/internal/fixture"
	"github.com/matchdaylabs/matchday/internal/seed"
	"github.com/matchdaylabs/matchday/internal/settlement"
	"github.com/matchdaylabs/matchday/internal/standings"
	"github.com/matchdaylabs/matchday/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "matchday-admin",
		Short: "Matchday operations CLI",
	}

	root.AddCommand(standingsCmd())
	root.AddCommand(settleCmd())
	root.AddCommand(processCmd())
	root.AddCommand(seedCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// engines bundles the store and derived-state engines for one invocation.
type engines struct {
	store      store.Store
	standings  *standings.Engine
	settlement *settlement.Engine
	processor  *fixture.Processor
}

// run handles config loading, DB connection, engine construction, and
// context cancellation for every subcommand.
func run(fn func(ctx context.Context, e *engines) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	facts := store.NewPostgres(pool)
	st := standings.NewEngine(facts, logger)
	se := settlement.NewEngine(facts, logger)
	return fn(ctx, &engines{
		store:      facts,
		standings:  st,
		settlement: se,
		processor:  fixture.NewProcessor(facts, st, se, logger),
	})
}

// --------------------------------------------------------------------------
// standings command
// --------------------------------------------------------------------------

func standingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "standings",
		Short: "Recompute or display season standings",
	}
	cmd.AddCommand(standingsRecomputeCmd())
	cmd.AddCommand(standingsTableCmd())
	return cmd
}

func standingsRecomputeCmd() *cobra.Command {
	var teamID int64
	var season string
	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Re-derive one team's season rollup from its finished matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			if teamID == 0 || season == "" {
				return fmt.Errorf("--team and --season are required")
			}
			return run(func(ctx context.Context, e *engines) error {
				start := time.Now()
				stats, err := e.standings.Recompute(ctx, teamID, season)
				if err != nil {
					return err
				}
				logger.Info("Rollup recomputed",
					"team_id", teamID, "season", season,
					"played", stats.MatchesPlayed, "points", stats.Points,
					"gd", stats.GoalDifference,
					"duration", time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&teamID, "team", 0, "Team ID")
	cmd.Flags().StringVar(&season, "season", "", "Season tag, e.g. 2023-24")
	return cmd
}

func standingsTableCmd() *cobra.Command {
	var leagueID int64
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Recompute and print a league table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if leagueID == 0 {
				return fmt.Errorf("--league is required")
			}
			return run(func(ctx context.Context, e *engines) error {
				table, err := e.standings.Table(ctx, leagueID)
				if err != nil {
					return err
				}
				fmt.Printf("%-4s %-24s %3s %3s %3s %3s %4s %4s %4s\n",
					"Pos", "Team", "P", "W", "D", "L", "GF", "GA", "Pts")
				for _, row := range table {
					fmt.Printf("%-4d %-24s %3d %3d %3d %3d %4d %4d %4d\n",
						row.Position, row.TeamName,
						row.Stats.MatchesPlayed, row.Stats.Wins, row.Stats.Draws,
						row.Stats.Losses, row.Stats.GoalsFor, row.Stats.GoalsAgainst,
						row.Stats.Points)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&leagueID, "league", 0, "League ID")
	return cmd
}

// --------------------------------------------------------------------------
// settle command
// --------------------------------------------------------------------------

func settleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Settle predictions against final scores",
	}
	cmd.AddCommand(settlePredictionCmd())
	cmd.AddCommand(settleMatchCmd())
	return cmd
}

func settlePredictionCmd() *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "prediction",
		Short: "Settle a single prediction",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == 0 {
				return fmt.Errorf("--id is required")
			}
			return run(func(ctx context.Context, e *engines) error {
				res, err := e.settlement.Settle(ctx, id)
				if err != nil {
					return err
				}
				logger.Info("Prediction settled",
					"prediction_id", id,
					"outcome", res.ActualOutcome,
					"correct", res.IsCorrect,
					"revision", res.Revision)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Prediction ID")
	return cmd
}

func settleMatchCmd() *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Settle every prediction on a match",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == 0 {
				return fmt.Errorf("--id is required")
			}
			return run(func(ctx context.Context, e *engines) error {
				start := time.Now()
				sum, err := e.settlement.SettleMatch(ctx, id)
				if err != nil {
					return err
				}
				logger.Info("Match settled",
					"match_id", id,
					"summary", sum.Summary(),
					"duration", time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Match ID")
	return cmd
}

// --------------------------------------------------------------------------
// process command
// --------------------------------------------------------------------------

func processCmd() *cobra.Command {
	var (
		leagueID   int64
		maxMatches int
		workers    int
	)
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Re-derive standings and settlements for finished matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, e *engines) error {
				var league *int64
				if leagueID != 0 {
					league = &leagueID
				}
				start := time.Now()
				result := e.processor.ProcessFinished(ctx, league, maxMatches, workers)
				logger.Info("Processing finished",
					"duration", time.Since(start).Round(time.Second),
					"summary", result.Summary())
				for _, errMsg := range result.Errors {
					logger.Error("process error", "error", errMsg)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&leagueID, "league", 0, "League filter; 0 = all leagues")
	cmd.Flags().IntVar(&maxMatches, "max", 50, "Maximum matches to process")
	cmd.Flags().IntVar(&workers, "workers", 2, "Concurrent worker count")
	return cmd
}

// --------------------------------------------------------------------------
// seed command
// --------------------------------------------------------------------------

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the store with sample data",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "demo",
		Short: "Seed the demo dataset (league, matches, odds, predictions)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, e *engines) error {
				start := time.Now()
				result := seed.Demo(ctx, e.store, e.processor, logger)
				logger.Info("Seed finished",
					"duration", time.Since(start).Round(time.Second),
					"summary", result.Summary())
				for _, errMsg := range result.Errors {
					logger.Error("seed error", "error", errMsg)
				}
				return nil
			})
		},
	})
	return cmd
}
