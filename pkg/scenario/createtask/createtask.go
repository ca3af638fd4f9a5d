// Package createtask creates graded tasks ("písemky") for a class in the
// EduPage grade book, skipping tasks that already exist.
package createtask

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/harun/edupilot/pkg/automation"
	"github.com/harun/edupilot/pkg/readiness"
	"github.com/harun/edupilot/pkg/scenario"
	"github.com/rs/zerolog"
)

// Name is the registry name of the scenario
const Name = "createtask"

const (
	// DefaultSubject is used when none is configured
	DefaultSubject = "Informatika"

	// TaskRowSelector matches one task row of the grade table
	TaskRowSelector = "table.znamkyTable tr"

	gradesLinkName   = "Známky"
	newTaskLinkText  = "Nová písemka/ zkoušení"
	nameInput        = `input[name="p_meno"]`
	categorySelect   = `select[name="kategoriaid"]`
	saveButtonName   = "Uložit"
	landingPath      = "/user/"
	clickWait        = 10 * time.Second
	formWait         = 15 * time.Second
	classMatchOffset = 1
)

// selectFirstCategoryJS picks the first usable category when none is
// configured. Returns the chosen value or null.
const selectFirstCategoryJS = `() => {
	const select = document.querySelector('select[name="kategoriaid"]');
	if (!select) return null;
	const option = Array.from(select.options).find(o => o.value && !o.disabled);
	if (!option) return null;
	select.value = option.value;
	select.dispatchEvent(new Event('change', { bubbles: true }));
	return option.value;
}`

// ErrNoTasks is returned when a scenario is built without tasks
var ErrNoTasks = errors.New("at least one task must be provided")

// Options configures CreateTask
type Options struct {
	BaseURL  string
	Class    string
	Subject  string
	Category string
	Tasks    []TaskDefinition
	Logger   zerolog.Logger
}

// CreateTask is the create-task scenario
type CreateTask struct {
	baseURL  string
	class    string
	subject  string
	category string
	tasks    []TaskDefinition
	logger   zerolog.Logger
}

var _ scenario.Scenario = (*CreateTask)(nil)

// New validates opts and builds the scenario
func New(opts Options) (*CreateTask, error) {
	if len(opts.Tasks) == 0 {
		return nil, ErrNoTasks
	}
	if strings.TrimSpace(opts.Class) == "" {
		return nil, errors.New("class is required")
	}
	if opts.BaseURL == "" {
		return nil, errors.New("portal base URL is required")
	}
	subject := strings.TrimSpace(opts.Subject)
	if subject == "" {
		subject = DefaultSubject
	}

	return &CreateTask{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		class:    strings.TrimSpace(opts.Class),
		subject:  subject,
		category: strings.TrimSpace(opts.Category),
		tasks:    opts.Tasks,
		logger:   opts.Logger.With().Str("scenario", Name).Logger(),
	}, nil
}

// Factory returns a scenario factory that validates opts when invoked
func Factory(opts Options) scenario.Factory {
	return func() (scenario.Scenario, error) {
		return New(opts)
	}
}

// Run opens the class grade book and creates every missing task
func (c *CreateTask) Run(ctx context.Context, ui readiness.Page) error {
	if err := ui.Goto(c.baseURL+landingPath, automation.GotoOptions{WaitUntil: automation.LoadStateDOMContentLoaded}); err != nil {
		return fmt.Errorf("failed to open portal: %w", err)
	}

	if err := ui.GetByRole("link", automation.RoleOptions{Name: gradesLinkName}).Click(); err != nil {
		return fmt.Errorf("failed to open grades: %w", err)
	}

	// The first match is the class filter in the sidebar
	if err := ui.GetByText(c.class).Nth(classMatchOffset).Click(); err != nil {
		return fmt.Errorf("failed to open class %s: %w", c.class, err)
	}

	if err := ui.Locator("a").Filter(automation.FilterOptions{HasText: c.subject}).First().Click(); err != nil {
		return fmt.Errorf("failed to open subject %s: %w", c.subject, err)
	}

	created := 0
	for _, task := range c.tasks {
		if err := ctx.Err(); err != nil {
			return err
		}

		missing, err := c.taskMissing(ui, task)
		if err != nil {
			return err
		}
		if !missing {
			c.logger.Info().Str("task", task.Name).Msg("Task already exists, skipping")
			continue
		}

		if err := c.createTask(ui, task); err != nil {
			return fmt.Errorf("failed to create task %q: %w", task.Name, err)
		}
		created++
		c.logger.Info().
			Str("class", c.class).
			Str("task", task.Name).
			Int("points", task.Points).
			Msg("Task created")
	}

	c.logger.Info().Int("created", created).Int("total", len(c.tasks)).Msg("Create-task finished")
	return nil
}

// taskMissing reports whether no grade table row mentions task
func (c *CreateTask) taskMissing(page automation.Page, task TaskDefinition) (bool, error) {
	n, err := page.Locator(TaskRowSelector).Filter(automation.FilterOptions{HasText: task.Name}).Count()
	if err != nil {
		return false, fmt.Errorf("failed to look up task %q: %w", task.Name, err)
	}
	return n == 0, nil
}

// createTask fills and saves the new-task form
func (c *CreateTask) createTask(page automation.Page, task TaskDefinition) error {
	newTask := page.Locator("a").Filter(automation.FilterOptions{HasText: newTaskLinkText})
	if err := newTask.WaitFor(automation.WaitOptions{State: automation.StateVisible, Timeout: clickWait}); err != nil {
		return err
	}
	if err := newTask.Click(); err != nil {
		return err
	}

	if _, err := page.WaitForSelector(nameInput, automation.WaitOptions{State: automation.StateVisible, Timeout: formWait}); err != nil {
		return err
	}
	if err := page.Locator(nameInput).Fill(task.Name); err != nil {
		return err
	}

	category := page.Locator(categorySelect)
	if err := category.WaitFor(automation.WaitOptions{State: automation.StateAttached, Timeout: formWait}); err != nil {
		return err
	}
	if c.category != "" {
		if _, err := category.SelectOption(automation.SelectValues{Labels: []string{c.category}}); err != nil {
			return fmt.Errorf("failed to select category %q: %w", c.category, err)
		}
	} else {
		picked, err := page.Evaluate(selectFirstCategoryJS)
		if err != nil {
			return fmt.Errorf("failed to select default category: %w", err)
		}
		c.logger.Debug().Interface("category", picked).Msg("Selected first category")
	}

	points := page.GetByRole("spinbutton", automation.RoleOptions{})
	if err := points.WaitFor(automation.WaitOptions{State: automation.StateVisible, Timeout: clickWait}); err != nil {
		return err
	}
	if err := points.Fill(strconv.Itoa(task.Points)); err != nil {
		return err
	}

	save := page.GetByRole("button", automation.RoleOptions{Name: saveButtonName})
	if err := save.WaitFor(automation.WaitOptions{State: automation.StateVisible, Timeout: clickWait}); err != nil {
		return err
	}
	return save.Click()
}
