package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newStatsCmd creates the 'stats' subcommand, a read-only report over the
// harvested database.
func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Prints row counts and per-course coverage for the harvested data",

		RunE: runStatsCommand,
	}
	return cmd
}

func runStatsCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	stats, err := appInstance.Store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	fmt.Fprintln(out, "Database statistics")
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "  courses\t%d\n", stats.Courses)
	fmt.Fprintf(w, "  chapters\t%d\n", stats.Chapters)
	fmt.Fprintf(w, "  subchapters\t%d\n", stats.Subchapters)
	fmt.Fprintf(w, "  videos\t%d\n", stats.Videos)
	fmt.Fprintf(w, "  lecturers\t%d\n", stats.Lecturers)
	fmt.Fprintf(w, "  books\t%d\n", stats.Books)
	if err := w.Flush(); err != nil {
		return err
	}

	summaries, err := appInstance.Store.CourseSummaries(ctx)
	if err != nil {
		return fmt.Errorf("course summaries: %w", err)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(out, "\nNo courses harvested yet.")
		return nil
	}

	fmt.Fprintln(out, "\nPer-course coverage")
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  COURSE\tSLUG\tCHAPTERS\tSUBCHAPTERS")
	for _, s := range summaries {
		fmt.Fprintf(w, "  %s\t%s\t%d\t%d\n", s.CourseName, s.Slug, s.Chapters, s.Subchapters)
	}
	return w.Flush()
}
