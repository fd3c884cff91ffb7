package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/foodgram-backend/internal/app"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
	"github.com/yungbote/foodgram-backend/internal/services"
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "foodgram",
		Short:         "Foodgram recipe sharing backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		serveCmd(),
		workerCmd(),
		migrateCmd(),
		loadIngredientsCmd(),
		usersCmd(),
		tokensCmd(),
		jobsCmd(),
		versionCmd(),
	)
	return cmd
}

// bootstrap loads config and the logger and builds the app. The returned
// context is canceled on SIGINT or SIGTERM.
func bootstrap(opts app.Options) (context.Context, context.CancelFunc, *app.App, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logger.New(cfg.Server.LogMode)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a, err := app.New(ctx, cfg, log, opts)
	if err != nil {
		stop()
		log.Sync()
		return nil, nil, nil, err
	}
	return ctx, stop, a, nil
}

func serveCmd() *cobra.Command {
	var withWorker bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (and the job worker unless --worker=false)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop, a, err := bootstrap(app.Options{Migrate: true, WithHTTP: true})
			if err != nil {
				return err
			}
			defer stop()
			defer a.Close()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return a.RunHTTP(gctx) })
			if withWorker {
				g.Go(func() error { return a.RunWorker(gctx) })
			}
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&withWorker, "worker", true, "run the job worker in-process")
	return cmd
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the background job worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop, a, err := bootstrap(app.Options{Migrate: true})
			if err != nil {
				return err
			}
			defer stop()
			defer a.Close()
			return a.RunWorker(ctx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, stop, a, err := bootstrap(app.Options{Migrate: true})
			if err != nil {
				return err
			}
			defer stop()
			defer a.Close()
			a.Log.Info("Migration complete")
			return nil
		},
	}
}

func loadIngredientsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load-ingredients <file>",
		Short: "Upsert ingredients from a CSV, JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := services.ReadIngredientFile(args[0])
			if err != nil {
				return err
			}
			ctx, stop, a, err := bootstrap(app.Options{Migrate: true})
			if err != nil {
				return err
			}
			defer stop()
			defer a.Close()

			report, err := a.Services.Ingredient.Load(dbctx.Context{Ctx: ctx}, rows)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created=%d updated=%d errors=%d\n", report.Created, report.Updated, report.Errors)
			return nil
		},
	}
}

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "User administration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user with their recipes, relations and tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			ctx, stop, a, err := bootstrap(app.Options{})
			if err != nil {
				return err
			}
			defer stop()
			defer a.Close()

			if err := a.Services.User.Delete(dbctx.Context{Ctx: ctx}, uint(id)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted user %d\n", id)
			return nil
		},
	})
	return cmd
}

func tokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Auth token maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Remove expired auth tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop, a, err := bootstrap(app.Options{})
			if err != nil {
				return err
			}
			defer stop()
			defer a.Close()

			n, err := a.Services.Auth.PurgeExpiredTokens(dbctx.Context{Ctx: ctx})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d tokens\n", n)
			return nil
		},
	})
	return cmd
}

func jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Background job tools",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Print job events from the Redis bus as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop, a, err := bootstrap(app.Options{})
			if err != nil {
				return err
			}
			defer stop()
			defer a.Close()

			if a.Clients.JobBus == nil {
				return fmt.Errorf("REDIS_ADDR is not set")
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			if err := a.Clients.JobBus.Subscribe(ctx, func(ev services.JobEvent) {
				_ = enc.Encode(ev)
			}); err != nil {
				return err
			}
			<-ctx.Done()
			return nil
		},
	})
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "foodgram %s\n", app.Version)
		},
	}
}
