package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ocean_tracker/internal/app"
	"ocean_tracker/internal/metrics"
	"ocean_tracker/internal/preview"
	"ocean_tracker/internal/pricecache"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	app.SetupEnvironment()
	log.Debug().Msg("Starting application")

	v := viper.New()
	app.SetDefaults(v)

	rootCmd := &cobra.Command{
		Use:           "ocean-tracker",
		Short:         "Track mining pool earnings and payouts in a Google Sheet",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newRunCmd(v), newCacheCmd(v))

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape exports and update the spreadsheet, immediately and then on every interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(v)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			m := metrics.New()
			if cfg.MetricsAddr != "" {
				m.Serve(ctx, cfg.MetricsAddr)
			}

			runner, err := app.NewRunner(ctx, cfg, m, app.RunOptions{
				DryRun: v.GetBool("DRY_RUN"),
				Out:    cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}

			if v.GetBool("ONCE") {
				summary := runner.RunOnce(ctx)
				if failed := summary.Failed(); failed > 0 {
					return fmt.Errorf("%d of %d datasets failed", failed, len(summary.Results))
				}
				return nil
			}

			log.Info().
				Str("miner", cfg.MinerAddress).
				Dur("interval", cfg.CheckInterval).
				Msg("Starting Ocean tracker")
			runner.Loop(ctx, cfg.CheckInterval)
			return nil
		},
	}

	cmd.Flags().Bool("once", false, "run a single update and exit")
	cmd.Flags().Bool("dry-run", false, "print sheet updates instead of writing them")
	cmd.Flags().String("interval", "", "time between runs, seconds or a duration such as 30m (env CHECK_INTERVAL)")
	_ = v.BindPFlag("ONCE", cmd.Flags().Lookup("once"))
	_ = v.BindPFlag("DRY_RUN", cmd.Flags().Lookup("dry-run"))
	_ = v.BindPFlag("CHECK_INTERVAL", cmd.Flags().Lookup("interval"))
	return cmd
}

func newCacheCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "cache",
		Short: "List cached historical prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache := pricecache.Open(app.CacheFile(v))
			log.Debug().Str("path", cache.Path()).Int("entries", cache.Len()).Msg("Loaded price cache")
			preview.RenderCache(cmd.OutOrStdout(), cache.Entries())
			return nil
		},
	}
}
