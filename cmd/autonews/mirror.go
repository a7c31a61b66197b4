package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sgt-cod/youtube-automation-news/internal/clifmt"
	"github.com/Sgt-cod/youtube-automation-news/publish"
)

var mirrorRemoveCmd = &cobra.Command{
	Use:   "mirror-rm <tag>",
	Short: "Delete a mirrored release and its tag from the backup repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Publish.GitHubToken == "" || cfg.Publish.GitHubRepository == "" {
			return fmt.Errorf("publish.github token and repository are not configured")
		}

		mirror, err := publish.NewReleaseMirror(cfg.Publish.GitHubToken, cfg.Publish.GitHubRepository, newLogger())
		if err != nil {
			return err
		}
		tag := args[0]
		if err := mirror.Remove(cmd.Context(), tag); err != nil {
			return err
		}
		fmt.Println(clifmt.Success(fmt.Sprintf("removed release %s", tag)))
		return nil
	},
}
