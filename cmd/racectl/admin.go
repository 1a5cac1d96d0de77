package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/padraicbc/racingdb/client"
	"github.com/padraicbc/racingdb/models"
)

func (a *app) tracksCmd() *cobra.Command {
	tracks := &cobra.Command{Use: "tracks", Short: "Track reports"}
	tracks.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Race count and average participants per track",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, a.api.TrackStats)
		},
	})
	return tracks
}

func (a *app) trainerCmd() *cobra.Command {
	trainer := &cobra.Command{Use: "trainer", Short: "Trainer administration"}

	var t models.Trainer
	approve := &cobra.Command{
		Use:   "approve",
		Short: "Add a trainer to a stable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context) (*client.Response, error) {
				return a.api.ApproveTrainer(ctx, t)
			})
		},
	}
	f := approve.Flags()
	f.StringVar(&t.TrainerID, "trainer-id", "", "trainer ID")
	f.StringVar(&t.StableID, "stable-id", "", "stable ID")
	f.StringVar(&t.FName, "fname", "", "first name (server default First)")
	f.StringVar(&t.LName, "lname", "", "last name (server default Last)")
	f.StringVar(&t.Status, "status", "", "status (server default Approved)")
	_ = approve.MarkFlagRequired("trainer-id")
	_ = approve.MarkFlagRequired("stable-id")

	trainer.AddCommand(approve)
	return trainer
}

func (a *app) raceCmd() *cobra.Command {
	race := &cobra.Command{Use: "race", Short: "Race administration"}

	var r models.Race
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a race",
		Long:  "Create a race. Dates like 01/05/2025 and times like 06:18 PM are converted before sending.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context) (*client.Response, error) {
				return a.api.AddRace(ctx, r)
			})
		},
	}
	f := add.Flags()
	f.StringVar(&r.RaceID, "id", "", "race ID")
	f.StringVar(&r.RaceName, "name", "", "race name")
	f.StringVar(&r.TrackName, "track", "", "track name")
	f.StringVar(&r.RaceDate, "date", "", "race date")
	f.StringVar(&r.RaceTime, "time", "", "race time")

	var raceID string
	var entries []string
	result := &cobra.Command{
		Use:   "result",
		Short: "Record placings for a race",
		Long:  "Stage one or more horseId:result:prize entries and post them one at a time. Prizes must be positive.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			staged := make([]models.RaceResult, 0, len(entries))
			for _, e := range entries {
				res, err := client.ParseEntry(e)
				if err != nil {
					return err
				}
				staged = append(staged, res)
			}
			saved, err := a.api.AddRaceResults(cmd.Context(), raceID, staged)
			if err != nil {
				return fmt.Errorf("saved %d result(s), %d failed:\n%w", saved, len(staged)-saved, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "All results saved (%d)\n", saved)
			return err
		},
	}
	result.Flags().StringVar(&raceID, "race", "", "race ID")
	result.Flags().StringArrayVar(&entries, "entry", nil, "horseId:result:prize (repeatable)")
	_ = result.MarkFlagRequired("race")

	race.AddCommand(add, result)
	return race
}

func (a *app) horseCmd() *cobra.Command {
	horse := &cobra.Command{Use: "horse", Short: "Horse administration"}
	horse.AddCommand(
		&cobra.Command{
			Use:   "show <horseId>",
			Short: "Show a horse's stable",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, func(ctx context.Context) (*client.Response, error) {
					return a.api.Horse(ctx, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "move <horseId> <stableId>",
			Short: "Move a horse to another stable",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, func(ctx context.Context) (*client.Response, error) {
					return a.api.MoveHorse(ctx, args[0], args[1])
				})
			},
		},
	)
	return horse
}
