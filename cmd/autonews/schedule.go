package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sgt-cod/youtube-automation-news/curation"
	"github.com/Sgt-cod/youtube-automation-news/internal/clifmt"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on a cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger()

		spec := viper.GetString("schedule.cron")
		if spec == "" {
			spec = "0 9 * * *"
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		scheduler := cron.New()
		_, err = scheduler.AddFunc(spec, func() {
			p, cleanup, err := buildPipeline(ctx, cfg, log)
			if err != nil {
				log.Error("pipeline build failed", "error", err)
				return
			}
			defer cleanup()

			result, err := p.Run(ctx)
			switch {
			case errors.Is(err, curation.ErrCancelled):
				log.Info("scheduled run cancelled by reviewer")
			case err != nil:
				log.Error("scheduled run failed", "error", err)
			default:
				log.Info("scheduled run published", "title", result.Title, "youtube_id", result.YouTubeID)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid cron spec %q: %w", spec, err)
		}

		fmt.Println(clifmt.Headerf("autonews: scheduled with %q", spec))
		scheduler.Start()
		<-ctx.Done()
		<-scheduler.Stop().Done()
		return nil
	},
}
