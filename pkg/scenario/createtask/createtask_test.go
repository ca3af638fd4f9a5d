package createtask

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harun/edupilot/pkg/automation"
	"github.com/harun/edupilot/pkg/automation/automationtest"
	"github.com/harun/edupilot/pkg/readiness"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "https://school.example"

func newScenario(t *testing.T, category string, tasks ...TaskDefinition) *CreateTask {
	t.Helper()
	c, err := New(Options{
		BaseURL:  base + "/",
		Class:    "3.B",
		Category: category,
		Tasks:    tasks,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	return c
}

func TestNewValidation(t *testing.T) {
	_, err := New(Options{BaseURL: base, Class: "3.A"})
	assert.ErrorIs(t, err, ErrNoTasks)
	assert.EqualError(t, err, "at least one task must be provided")

	_, err = New(Options{BaseURL: base, Tasks: []TaskDefinition{{Name: "A", Points: 1}}})
	assert.Error(t, err)

	c, err := New(Options{BaseURL: base, Class: " 3.A ", Tasks: []TaskDefinition{{Name: "A", Points: 1}}})
	require.NoError(t, err)
	assert.Equal(t, DefaultSubject, c.subject)
	assert.Equal(t, "3.A", c.class)
}

func TestFactoryDefersValidation(t *testing.T) {
	factory := Factory(Options{BaseURL: base, Class: "3.A"})
	_, err := factory()
	assert.ErrorIs(t, err, ErrNoTasks)
}

func TestTaskMissing(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		missing bool
	}{
		{"task exists", 2, false},
		{"task missing", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := automationtest.NewRecorder()
			page := automationtest.NewPage(rec, "page")
			rows := page.Element(TaskRowSelector).Child(automationtest.FilterKey(automation.FilterOptions{HasText: "Existing"}))
			rows.CountValue = tt.count

			missing, err := newScenario(t, "").taskMissing(page, TaskDefinition{Name: "Existing", Points: 1})
			require.NoError(t, err)
			assert.Equal(t, tt.missing, missing)
			assert.Equal(t, []string{TaskRowSelector + " >> filter(has-text=Existing).count"}, rec.Events())
		})
	}
}

func TestCreateTaskFillsFormAndSelectsCategory(t *testing.T) {
	rec := automationtest.NewRecorder()
	page := automationtest.NewPage(rec, "page")

	err := newScenario(t, "Dan - Linux").createTask(page, TaskDefinition{Name: "Praktická písemka", Points: 50})
	require.NoError(t, err)

	save := automationtest.RoleKey("button", automation.RoleOptions{Name: "Uložit"})
	assert.Equal(t, []string{
		"a >> filter(has-text=Nová písemka/ zkoušení).wait-for visible 10s",
		"a >> filter(has-text=Nová písemka/ zkoušení).click",
		`page.wait-for-selector input[name="p_meno"] visible 15s`,
		`input[name="p_meno"].fill Praktická písemka`,
		`select[name="kategoriaid"].wait-for attached 15s`,
		`select[name="kategoriaid"].select values=[] labels=[Dan - Linux]`,
		"role=spinbutton.wait-for visible 10s",
		"role=spinbutton.fill 50",
		save + ".wait-for visible 10s",
		save + ".click",
	}, rec.Events())
}

func TestCreateTaskWithoutCategoryUsesFallback(t *testing.T) {
	rec := automationtest.NewRecorder()
	page := automationtest.NewPage(rec, "page")
	page.EvalResult = "3"

	err := newScenario(t, "").createTask(page, TaskDefinition{Name: "Bez kategorie", Points: 5})
	require.NoError(t, err)

	assert.Equal(t, []string{"page.evaluate"}, rec.Matching("page.evaluate"))
	assert.Empty(t, page.Element(categorySelect).Selected)
}

func TestCreateTaskStopsOnWaitTimeout(t *testing.T) {
	rec := automationtest.NewRecorder()
	page := automationtest.NewPage(rec, "page")
	page.Element("a").Child(automationtest.FilterKey(automation.FilterOptions{HasText: newTaskLinkText})).WaitErr = automation.ErrTimeout

	err := newScenario(t, "").createTask(page, TaskDefinition{Name: "X", Points: 1})
	assert.ErrorIs(t, err, automation.ErrTimeout)
	assert.Len(t, rec.Events(), 1)
}

func TestRunCreatesOnlyMissingTasks(t *testing.T) {
	rec := automationtest.NewRecorder()
	page := automationtest.NewPage(rec, "page")
	rows := page.Element(TaskRowSelector)
	rows.Child(automationtest.FilterKey(automation.FilterOptions{HasText: "Úloha 2"})).CountValue = 1

	c := newScenario(t, "Dan - Linux",
		TaskDefinition{Name: "Úloha 1", Points: 10},
		TaskDefinition{Name: "Úloha 2", Points: 20},
	)

	ui := readiness.WrapPage(page, 5*time.Second)
	require.NoError(t, c.Run(context.Background(), ui))

	events := rec.Events()
	assert.Equal(t, "page.goto "+base+"/user/", events[0])
	assert.Contains(t, events, automationtest.RoleKey("link", automation.RoleOptions{Name: "Známky"})+".click")
	assert.Contains(t, events, "text=3.B >> nth=1.click")
	assert.Contains(t, events, "a >> filter(has-text=Informatika) >> nth=0.click")
	assert.Contains(t, events, `input[name="p_meno"].fill Úloha 1`)
	assert.NotContains(t, events, `input[name="p_meno"].fill Úloha 2`)
	assert.Equal(t, []string{"role=spinbutton.fill 10"}, rec.Matching("role=spinbutton.fill"))
}

func TestRunHonoursCancellation(t *testing.T) {
	rec := automationtest.NewRecorder()
	page := automationtest.NewPage(rec, "page")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newScenario(t, "", TaskDefinition{Name: "A", Points: 1}).Run(ctx, readiness.WrapPage(page, time.Second))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, rec.Matching(TaskRowSelector))
}

func TestRunNavigationError(t *testing.T) {
	rec := automationtest.NewRecorder()
	page := automationtest.NewPage(rec, "page")
	navErr := errors.New("net::ERR_CONNECTION_RESET")
	page.OnGoto = func(*automationtest.Page, string) error { return navErr }

	err := newScenario(t, "", TaskDefinition{Name: "A", Points: 1}).Run(context.Background(), readiness.WrapPage(page, time.Second))
	assert.ErrorIs(t, err, navErr)
}
