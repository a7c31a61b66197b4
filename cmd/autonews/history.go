package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sgt-cod/youtube-automation-news/db"
	"github.com/Sgt-cod/youtube-automation-news/internal/clifmt"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent publications",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DB.Path == "" {
			return fmt.Errorf("db.path is not configured")
		}

		gdb, err := db.Open(cmd.Context(), db.Config{DSN: cfg.DB.Path})
		if err != nil {
			return err
		}
		if err := db.AutoMigrate(gdb); err != nil {
			return err
		}

		rows, err := db.NewHistory(gdb).Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Println(clifmt.Dim("no publications yet"))
			return nil
		}

		fmt.Println(clifmt.Headerf("last %d publications", len(rows)))
		for _, row := range rows {
			when := time.Unix(row.PublishedAt, 0).Format("2006-01-02 15:04")
			line := fmt.Sprintf("%s  [%s]  %s", when, row.Kind, row.Title)
			if row.YouTubeID != "" {
				line += clifmt.Dim("  youtu.be/" + row.YouTubeID)
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "rows to show")
}
