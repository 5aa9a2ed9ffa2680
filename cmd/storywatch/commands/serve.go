package commands

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"storywatch-backend/lib/chrono"
	"storywatch-backend/lib/serviceutil"
	"storywatch-backend/lib/telemetry"
	"storywatch-backend/services/tracker/rpc"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the tracker RPC API and runs the scheduled evaluations.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app := getApp(ctx)
		cfg := app.Config.Server

		telemetry.InstrumentPerfStats(ctx, time.Minute)

		location, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return err
		}
		scheduler := chrono.NewScheduler(ctx, location)
		defer scheduler.Stop()

		err = scheduler.Schedule("live stats", cfg.LiveStatsSchedule, func(ctx context.Context) error {
			_, err := app.Service.RunLiveStats(ctx, "")
			return err
		})
		if err != nil {
			return err
		}
		err = scheduler.Schedule("rising stars", cfg.RisingStarsSchedule, func(ctx context.Context) error {
			_, err := app.Service.RunRisingStars(ctx)
			return err
		})
		if err != nil {
			return err
		}

		otelInterceptor, err := serviceutil.NewConnectOtelInterceptor()
		if err != nil {
			return err
		}
		if cfg.AccessToken == "" {
			slog.Warn("no access token configured, the api is unauthenticated")
		}

		mux := http.NewServeMux()
		mux.Handle(rpc.NewTrackerServiceHandler(
			rpc.NewHandler(app.Service, app.Store),
			connect.WithInterceptors(
				otelInterceptor,
				serviceutil.VerifyAccessTokenInterceptor(cfg.AccessToken),
			),
		))

		return serviceutil.StartHttpServer(ctx, cfg.Port, mux)
	},
}
