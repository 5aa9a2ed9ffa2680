package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"storywatch-backend/lib/restyutil"
	"storywatch-backend/lib/scrapers/royalroad"
	"storywatch-backend/lib/serviceutil"
	"storywatch-backend/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	dumpDir    string
)

type appKey struct{}

func getApp(ctx context.Context) *App {
	return ctx.Value(appKey{}).(*App)
}

var rootCmd = &cobra.Command{
	Use:   "storywatch",
	Short: "storywatch tracks Royal Road stories and announces their milestones.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)
		// standalone commands do not touch the database
		if cmd.Annotations["standalone"] == "true" {
			return nil
		}

		if verbose && dumpDir != "" {
			out, err := restyutil.NewFilesystemOutput(dumpDir)
			if err != nil {
				return err
			}
			royalroad.SetRestyDumpOutput(out)
		}

		cfg, err := LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		app, err := NewApp(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("init: %w", err)
		}
		cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, app))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		app, ok := cmd.Context().Value(appKey{}).(*App)
		if !ok {
			return nil
		}
		return app.Close()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json5", "Path to the configuration file.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging/instrumentation.")
	rootCmd.PersistentFlags().StringVar(&dumpDir, "dump", "", "Directory to dump HTTP exchanges to when verbose.")
}

func Execute() {
	ctx := serviceutil.SignalContext()

	t, err := telemetry.SetupFromEnv(ctx, "storywatch")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}

	runErr := rootCmd.ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = t.Shutdown(shutdownCtx)
	if err != nil {
		slog.Warn("failed to shutdown telemetry", "err", err)
	}

	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(1)
	}
}
