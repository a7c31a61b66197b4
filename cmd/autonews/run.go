package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sgt-cod/youtube-automation-news/internal/clifmt"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Produce and publish one video now",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, cleanup, err := buildPipeline(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer cleanup()

		fmt.Println(clifmt.Headerf("autonews: producing one %s video", cfg.Video.Kind))
		result, err := p.Run(ctx)
		if err != nil {
			return err
		}

		fmt.Println(clifmt.Success(fmt.Sprintf("published %q", result.Title)))
		fmt.Println(clifmt.Key("  file:"), result.VideoPath)
		if result.YouTubeID != "" {
			fmt.Println(clifmt.Key("  youtube:"), "https://youtu.be/"+result.YouTubeID)
		}
		if result.TikTokID != "" {
			fmt.Println(clifmt.Key("  tiktok:"), result.TikTokID)
		}
		if result.MirrorTag != "" {
			fmt.Println(clifmt.Key("  mirror:"), result.MirrorTag)
		}
		return nil
	},
}
