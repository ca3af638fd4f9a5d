package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/harun/edupilot/pkg/scenario"
	"github.com/harun/edupilot/pkg/scenario/createtask"
	"github.com/harun/edupilot/pkg/scenario/grades"
	"github.com/harun/edupilot/pkg/scenario/timetable"
	"github.com/spf13/cobra"
)

var registry = scenario.NewRegistry()

var jsonOutput bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available scenarios",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var gradesCmd = &cobra.Command{
	Use:   "grades",
	Short: "Print the grade book",
	Args:  cobra.NoArgs,
	RunE:  runGrades,
}

var timetableCmd = &cobra.Command{
	Use:   "timetable",
	Short: "Print the timetable",
	Args:  cobra.NoArgs,
	RunE:  runTimetable,
}

func init() {
	for _, d := range []scenario.Descriptor{
		{Name: createtask.Name, Command: "create-task", Summary: "Create missing tasks in a class grade book"},
		{Name: grades.Name, Command: "grades", Summary: "Read the grade book"},
		{Name: timetable.Name, Command: "timetable", Summary: "Read the timetable"},
	} {
		if err := registry.Register(d); err != nil {
			panic(err)
		}
	}

	gradesCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
	timetableCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")

	rootCmd.AddCommand(listCmd, gradesCmd, timetableCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCOMMAND\tDESCRIPTION")
	for _, d := range registry.List() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.Name, d.Command, d.Summary)
	}
	return w.Flush()
}

func runGrades(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	g, err := grades.New(grades.Options{
		BaseURL:     a.cfg.Portal.BaseURL,
		RowSelector: a.cfg.Portal.GradesRowSelector,
		Logger:      a.logger,
	})
	if err != nil {
		return err
	}
	if err := a.run(cmd.Context(), grades.Name, scenario.Of(g)); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, g.Subjects)
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, s := range g.Subjects {
		fmt.Fprintf(w, "%s\t%v\n", s.Name, s.Grades)
	}
	return w.Flush()
}

func runTimetable(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	tt, err := timetable.New(timetable.Options{
		BaseURL:     a.cfg.Portal.BaseURL,
		RowSelector: a.cfg.Portal.TimetableRowSelector,
		Logger:      a.logger,
	})
	if err != nil {
		return err
	}
	if err := a.run(cmd.Context(), timetable.Name, scenario.Of(tt)); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, tt.Lessons)
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, l := range tt.Lessons {
		fmt.Fprintf(w, "%s\t%d\t%s\n", l.Day, l.Period, l.Text)
	}
	return w.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
