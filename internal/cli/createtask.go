package cli

import (
	"github.com/harun/edupilot/pkg/scenario/createtask"
	"github.com/spf13/cobra"
)

var taskFlags struct {
	class    string
	name     string
	points   int
	file     string
	sheet    string
	subject  string
	category string
}

var createTaskCmd = &cobra.Command{
	Use:   "create-task",
	Short: "Create tasks in a class grade book",
	Long: `Create tasks in the grade book of a class. Tasks that already exist
are skipped. Give one task with --name and --points, or many with --file
pointing at a CSV or XLSX sheet with name and points columns.`,
	Example: `  edupilot create-task --class 3.A --name "Test 1" --points 20
  edupilot create-task --class 3.A --file tasks.xlsx --sheet Term1`,
	Args: cobra.NoArgs,
	RunE: runCreateTask,
}

func init() {
	f := createTaskCmd.Flags()
	f.StringVar(&taskFlags.class, "class", "", "class name as shown in the grade book")
	f.StringVar(&taskFlags.name, "name", "", "task name")
	f.IntVar(&taskFlags.points, "points", 0, "maximum points")
	f.StringVar(&taskFlags.file, "file", "", "CSV or XLSX file with tasks")
	f.StringVar(&taskFlags.sheet, "sheet", "", "XLSX sheet (default first)")
	f.StringVar(&taskFlags.subject, "subject", "", "subject (default from config)")
	f.StringVar(&taskFlags.category, "category", "", "task category label (default from config, else first)")
	createTaskCmd.MarkFlagRequired("class")
	createTaskCmd.MarkFlagsMutuallyExclusive("name", "file")

	rootCmd.AddCommand(createTaskCmd)
}

func collectTasks() ([]createtask.TaskDefinition, error) {
	if taskFlags.file != "" {
		return createtask.LoadTasks(taskFlags.file, taskFlags.sheet)
	}
	if taskFlags.name == "" {
		return nil, createtask.ErrNoTasks
	}
	return []createtask.TaskDefinition{{Name: taskFlags.name, Points: taskFlags.points}}, nil
}

func runCreateTask(cmd *cobra.Command, args []string) error {
	tasks, err := collectTasks()
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	subject := taskFlags.subject
	if subject == "" {
		subject = a.cfg.CreateTask.Subject
	}
	category := taskFlags.category
	if category == "" {
		category = a.cfg.CreateTask.Category
	}

	return a.run(cmd.Context(), createtask.Name, createtask.Factory(createtask.Options{
		BaseURL:  a.cfg.Portal.BaseURL,
		Class:    taskFlags.class,
		Subject:  subject,
		Category: category,
		Tasks:    tasks,
		Logger:   a.logger,
	}))
}
