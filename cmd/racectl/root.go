package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/padraicbc/racingdb/client"
	applog "github.com/padraicbc/racingdb/logger"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	v   *viper.Viper
	api *client.Client
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "racectl",
		Short:         "Command line client for the horse racing API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	pf := root.PersistentFlags()
	pf.String("api", "http://localhost:3000", "API base URL")
	pf.String("token", "", "admin JWT (see signin)")
	pf.Duration("timeout", 30*time.Second, "per-request timeout")
	pf.Int("retries", 3, "retries for GET, PUT and DELETE")
	pf.Bool("verbose", false, "log requests and retries")
	for _, name := range []string{"api", "token", "timeout", "retries", "verbose"} {
		_ = a.v.BindPFlag(name, pf.Lookup(name))
	}
	a.v.SetEnvPrefix("RACECTL")
	a.v.AutomaticEnv()

	root.AddCommand(
		a.healthCmd(),
		a.signinCmd(),
		a.ownerCmd(),
		a.trainersCmd(),
		a.trainerCmd(),
		a.tracksCmd(),
		a.raceCmd(),
		a.horseCmd(),
	)
	return root
}

func (a *app) setup() error {
	opts := client.Options{
		Token:    a.v.GetString("token"),
		Timeout:  a.v.GetDuration("timeout"),
		RetryMax: a.v.GetInt("retries"),
	}
	if a.v.GetBool("verbose") {
		logger, err := applog.New("racectl", true)
		if err != nil {
			return err
		}
		opts.Logger = logger
	} else {
		opts.Logger = zap.NewNop()
	}
	a.api = client.New(a.v.GetString("api"), opts)
	return nil
}

// printJSON writes the response body indented.
func printJSON(w io.Writer, resp *client.Response) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, resp.Body, "", "  "); err != nil {
		_, err = w.Write(resp.Body)
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

type call func(ctx context.Context) (*client.Response, error)

func run(cmd *cobra.Command, fn call) error {
	resp, err := fn(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resp)
}

func (a *app) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server and database health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, a.api.Health)
		},
	}
}

func (a *app) signinCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and print an admin token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = a.v.GetString("password")
			}
			token, err := a.api.Signin(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&password, "password", "", "password (or RACECTL_PASSWORD)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func (a *app) ownerCmd() *cobra.Command {
	owner := &cobra.Command{Use: "owner", Short: "Owner queries and removal"}
	owner.AddCommand(
		&cobra.Command{
			Use:   "horses [lname]",
			Short: "List horses and trainers by owner last name",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, func(ctx context.Context) (*client.Response, error) {
					return a.api.OwnerHorses(ctx, strings.Join(args, ""))
				})
			},
		},
		&cobra.Command{
			Use:   "delete <ownerId>",
			Short: "Delete an owner and their ownership records",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, func(ctx context.Context) (*client.Response, error) {
					return a.api.DeleteOwner(ctx, args[0])
				})
			},
		},
	)
	return owner
}

func (a *app) trainersCmd() *cobra.Command {
	trainers := &cobra.Command{Use: "trainers", Short: "Trainer reports"}
	trainers.AddCommand(
		&cobra.Command{
			Use:   "winners",
			Short: "Trainers who have trained a winner",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, a.api.TrainersWithWins)
			},
		},
		&cobra.Command{
			Use:   "winnings",
			Short: "Total prize money per trainer",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, a.api.TrainerWinnings)
			},
		},
	)
	return trainers
}
