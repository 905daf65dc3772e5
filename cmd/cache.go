package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/eduverse/eduverse/internal/cache"
	"github.com/eduverse/eduverse/internal/config"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the local panel cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := config.CachePath()
		db, err := cache.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		count, size, err := db.Stats(dbPath)
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}
		windows, err := db.Windows()
		if err != nil {
			return err
		}
		var last time.Time
		if t, err := db.LastSync(); err == nil {
			last = t
		}
		printCacheStats(cmd.OutOrStdout(), dbPath, count, size, windows, last)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget cached panels, the last sync time and the saved display name",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := cache.Open(config.CachePath())
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		if err := db.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
}

func printCacheStats(w io.Writer, path string, count int, size int64, windows []cache.WindowInfo, lastSync time.Time) {
	fmt.Fprintf(w, "Cache: %s\n", path)
	fmt.Fprintf(w, "Size: %s\n", humanize.Bytes(uint64(size)))
	if lastSync.IsZero() {
		fmt.Fprintln(w, "Last sync: never")
	} else {
		fmt.Fprintf(w, "Last sync: %s\n", humanize.Time(lastSync))
	}
	fmt.Fprintf(w, "Windows: %d\n", count)
	if len(windows) == 0 {
		return
	}
	rows := make([][]string, 0, len(windows))
	for _, win := range windows {
		rows = append(rows, []string{win.Name, humanize.Bytes(uint64(win.Bytes)), humanize.Time(win.UpdatedAt)})
	}
	fmt.Fprintln(w, plainTable([]string{"WINDOW", "SIZE", "UPDATED"}, rows))
}
