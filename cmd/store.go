package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/liftlog/internal/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect and maintain the local database",
	Long: `Commands for inspecting, clearing and compacting the local bbolt database.

The database is the system of record for every user's logs, exercises,
templates and goals. Nothing expires; data persists until you clear it.`,
}

// ─── store stats ──────────────────────────────────────────────────────────────

var storeStatsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show record counts and sizes for each bucket",
	Example: `  liftlog store stats`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		stats, err := deps.Store.Stats()
		if err != nil {
			return fmt.Errorf("reading store stats: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\n\n", deps.Store.Path())
		printSimpleTable(cmd.OutOrStdout(), []string{"BUCKET", "RECORDS", "SIZE"}, func(add func(...string)) {
			for _, s := range stats {
				add(s.Name, fmt.Sprintf("%d", s.Count), humanBytes(s.Bytes))
			}
		})
		return nil
	},
}

// ─── store clear ──────────────────────────────────────────────────────────────

var (
	storeClearAll    bool
	storeClearBucket string
)

var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every record in one or all buckets (all users)",
	Long: `Delete every record in one bucket, or in all of them, for every user.

bbolt does not shrink the file after clearing; run 'liftlog store compact'
to reclaim disk space.`,
	Example: `  liftlog store clear --bucket templates
  liftlog store clear --all`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !storeClearAll && storeClearBucket == "" {
			return fmt.Errorf("specify --all or --bucket <name>\n\nBuckets: %s", strings.Join(store.AllBuckets, ", "))
		}

		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		if storeClearAll {
			if err := deps.Store.ClearAll(); err != nil {
				return fmt.Errorf("clearing all buckets: %w", err)
			}
			say(cmd, "✓ Cleared all buckets")
		} else {
			if err := deps.Store.ClearBucket(storeClearBucket); err != nil {
				return err
			}
			say(cmd, "✓ Cleared bucket %q", storeClearBucket)
		}
		say(cmd, "  Run 'liftlog store compact' to reclaim disk space.")
		return nil
	},
}

// ─── store compact ────────────────────────────────────────────────────────────

var storeCompactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Rewrite the database file to reclaim freed disk space",
	Long: `Copies every live record into a new file and swaps it in place of the
original. The database is unchanged apart from its size on disk.`,
	Example: `  liftlog store compact`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		say(cmd, "Compacting %s ...", deps.Store.Path())
		before, after, err := deps.Store.Compact()
		if err != nil {
			return fmt.Errorf("compaction failed: %w", err)
		}

		say(cmd, "✓ Compaction complete")
		say(cmd, "  Before: %s", humanBytes(before))
		say(cmd, "  After:  %s", humanBytes(after))
		if before > after {
			say(cmd, "  Saved:  %s", humanBytes(before-after))
		} else {
			say(cmd, "  No space reclaimed (database was already compact).")
		}
		return nil
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeStatsCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeCompactCmd)

	storeClearCmd.Flags().BoolVar(&storeClearAll, "all", false, "clear all buckets")
	storeClearCmd.Flags().StringVar(&storeClearBucket, "bucket", "",
		"clear one bucket: "+strings.Join(store.AllBuckets, "|"))
}
