package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"boards/internal/board/models"
	"boards/internal/board/seed"
	boardservice "boards/internal/board/service"
	boardstore "boards/internal/board/store"
	"boards/internal/platform/config"
	"boards/internal/platform/database"
	"boards/internal/platform/logger"
	dErrors "boards/pkg/domain-errors"
)

type options struct {
	databaseURL string
	sqlitePath  string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "boardctl",
		Short:         "Administer the boards database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL URL (overrides DATABASE_URL)")
	root.PersistentFlags().StringVar(&opts.sqlitePath, "sqlite", "", "SQLite file (overrides SQLITE_PATH)")

	boards := &cobra.Command{
		Use:   "boards",
		Short: "Create and list boards",
	}
	boards.AddCommand(newCreateCmd(opts), newListCmd(opts), newSeedCmd(opts))
	root.AddCommand(newMigrateCmd(opts), boards)
	return root
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", db.Dialect())
			return nil
		},
	}
}

func newCreateCmd(opts *options) *cobra.Command {
	var name, description string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withService(cmd.Context(), func(ctx context.Context, svc *boardservice.Service) error {
				board, err := svc.CreateBoard(ctx, &models.NewBoardRequest{Name: name, Description: description})
				if err != nil {
					return describe(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created board %d %q\n", board.ID, board.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "board name (unique)")
	cmd.Flags().StringVar(&description, "description", "", "board description")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List boards with their counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withService(cmd.Context(), func(ctx context.Context, svc *boardservice.Service) error {
				boards, err := svc.ListBoards(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tTOPICS\tPOSTS")
				for _, b := range boards {
					fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", b.ID, b.Name, b.TopicCount, b.PostCount)
				}
				return tw.Flush()
			})
		},
	}
}

func newSeedCmd(opts *options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the boards listed in a YAML file, skipping existing names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			spec, err := seed.Load(f)
			if err != nil {
				return err
			}
			return opts.withService(cmd.Context(), func(ctx context.Context, svc *boardservice.Service) error {
				res, err := seed.Apply(ctx, svc, spec)
				if res != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "created %d, skipped %d\n", len(res.Created), len(res.Skipped))
				}
				if err != nil {
					return describe(err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "boards.yaml", "seed file")
	return cmd
}

// open connects to the configured database and migrates it.
func (o *options) open(ctx context.Context) (*database.DB, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if o.databaseURL != "" {
		cfg.Database.URL = o.databaseURL
	}
	if o.sqlitePath != "" {
		cfg.Database.URL = ""
		cfg.Database.SQLitePath = o.sqlitePath
	}
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (o *options) withService(ctx context.Context, fn func(context.Context, *boardservice.Service) error) error {
	db, err := o.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	log := logger.New("development", "warn")
	return fn(ctx, boardservice.New(boardstore.New(db), db, boardservice.WithLogger(log)))
}

// describe flattens field errors into a single line.
func describe(err error) error {
	fields := dErrors.FieldsOf(err)
	if len(fields) == 0 {
		return err
	}
	for field, msgs := range fields {
		if len(msgs) > 0 {
			return fmt.Errorf("%s: %s", field, msgs[0])
		}
	}
	return err
}

