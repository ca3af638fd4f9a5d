package createtask

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeCSV(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(rows, "\n")+"\n"), 0644))
	return path
}

func TestLoadTasksCSV(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		want []TaskDefinition
	}{
		{
			name: "standard headers",
			rows: []string{"name,points", "Task A,10", "Task B,20"},
			want: []TaskDefinition{{Name: "Task A", Points: 10}, {Name: "Task B", Points: 20}},
		},
		{
			name: "alternate headers and semicolons",
			rows: []string{"task;body", "  Úloha 1 ;  15 ", "Úloha 2;30"},
			want: []TaskDefinition{{Name: "Úloha 1", Points: 15}, {Name: "Úloha 2", Points: 30}},
		},
		{
			name: "reordered czech headers",
			rows: []string{"score,Název", "5,Test"},
			want: []TaskDefinition{{Name: "Test", Points: 5}},
		},
		{
			name: "no header",
			rows: []string{"Task A,10", "", "Task B,20"},
			want: []TaskDefinition{{Name: "Task A", Points: 10}, {Name: "Task B", Points: 20}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := LoadTasksCSV(writeCSV(t, tt.rows...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, tasks)
		})
	}
}

func TestLoadTasksCSVErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.csv")
	_, err := LoadTasksCSV(missing)
	assert.EqualError(t, err, "CSV file "+missing+" does not exist")

	_, err = LoadTasksCSV(writeCSV(t, "name,points", ",10"))
	assert.EqualError(t, err, "row 2: missing task name")

	_, err = LoadTasksCSV(writeCSV(t, "name,points", "Task,not_a_number"))
	assert.EqualError(t, err, "row 2: invalid integer for points -> 'not_a_number'")
}

func TestLoadTasksXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.xlsx")

	f := excelize.NewFile()
	_ = f.SetSheetName("Sheet1", "Úlohy")
	_ = f.SetCellValue("Úlohy", "A1", "úloha")
	_ = f.SetCellValue("Úlohy", "B1", "body")
	_ = f.SetCellValue("Úlohy", "A2", "Písemka 1")
	_ = f.SetCellValue("Úlohy", "B2", 25)
	_ = f.SetCellValue("Úlohy", "A3", "Písemka 2")
	_ = f.SetCellValue("Úlohy", "B3", "x")
	require.NoError(t, f.SaveAs(path))

	_, err := LoadTasksXLSX(path, "")
	assert.EqualError(t, err, "row 3: invalid integer for points -> 'x'")

	f, err = excelize.OpenFile(path)
	require.NoError(t, err)
	_ = f.SetCellValue("Úlohy", "B3", 30)
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	tasks, err := LoadTasks(path, "Úlohy")
	require.NoError(t, err)
	assert.Equal(t, []TaskDefinition{{Name: "Písemka 1", Points: 25}, {Name: "Písemka 2", Points: 30}}, tasks)

	_, err = LoadTasksXLSX(path, "Missing")
	assert.Error(t, err)
}

func TestLoadTasksXLSXMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.xlsx")
	_, err := LoadTasks(missing, "")
	assert.EqualError(t, err, "XLSX file "+missing+" does not exist")
}
