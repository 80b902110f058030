package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goliatone/go-print"
	things "github.com/goliatone/go-things"
	"github.com/goliatone/go-things/config"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var envFiles []string

	root := &cobra.Command{
		Use:           "thingsd",
		Short:         "Role guarded thing repository",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files loaded before the environment")

	loadConfig := func() (*config.Config, error) {
		return config.Load(envFiles...)
	}

	root.AddCommand(
		serveCmd(loadConfig),
		checkCmd(loadConfig),
		configCmd(loadConfig),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type configLoader func() (*config.Config, error)

func serveCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			app := NewApp(cfg)
			defer app.Close()

			if err := Bootstrap(ctx, app,
				WithPersistence,
				WithAuth,
				WithMetrics,
				WithSecuredThings,
				WithHTTPServer,
			); err != nil {
				return err
			}

			logger := app.GetLogger("app")

			errCh := make(chan error, 1)
			go func() {
				errCh <- app.srv.Listen(cfg.GetAddr())
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-waitSignal():
				logger.Info("shutting down", "signal", sig.String())
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			return app.srv.Shutdown(shutdownCtx)
		},
	}
}

func waitSignal() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	go func() {
		ch <- WaitExitSignal()
	}()
	return ch
}

func checkCmd(load configLoader) *cobra.Command {
	var (
		id       int64
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Authenticate a principal and try to read a thing by id",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			if username == "" {
				username = cfg.UserName
			}
			if password == "" {
				password = cfg.UserPassword
			}

			ctx := cmd.Context()
			app := NewApp(cfg)
			defer app.Close()

			if err := Bootstrap(ctx, app,
				WithPersistence,
				WithAuth,
				WithMetrics,
				WithSecuredThings,
			); err != nil {
				return err
			}

			caller, err := app.auth.CallerFromCredentials(ctx, username, password)
			if err != nil {
				return err
			}

			result := checkFindByID(things.WithCaller(ctx, caller), app.things, id)
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().Int64Var(&id, "id", 1, "thing id to read")
	cmd.Flags().StringVar(&username, "username", "", "principal username (defaults to the configured one)")
	cmd.Flags().StringVar(&password, "password", "", "principal password (defaults to the configured one)")

	return cmd
}

// checkFindByID reports the outcome of a guarded FindByID as a single word
func checkFindByID(ctx context.Context, repo things.ThingRepository, id int64) string {
	_, found, err := repo.FindByID(ctx, id)
	switch {
	case things.IsAccessDenied(err):
		return "denied"
	case err != nil:
		return "error: " + err.Error()
	case !found:
		return "allowed (not found)"
	default:
		return "allowed"
	}
}

func configCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), print.MaybePrettyJSON(cfg.Redacted()))
			return nil
		},
	}
}
