package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var historyFlags struct {
	scenario string
	limit    int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyFlags.scenario, "scenario", "", "only runs of this scenario")
	historyCmd.Flags().IntVar(&historyFlags.limit, "limit", 20, "number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if historyFlags.scenario != "" {
		if _, err := registry.Lookup(historyFlags.scenario); err != nil {
			return err
		}
	}

	j, err := a.openJournal()
	if err != nil {
		return err
	}
	runs, err := j.Recent(cmd.Context(), historyFlags.scenario, historyFlags.limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSCENARIO\tSTATUS\tDURATION\tERROR")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Scenario,
			r.Status,
			r.Duration().Round(time.Second),
			r.Error,
		)
	}
	return w.Flush()
}
