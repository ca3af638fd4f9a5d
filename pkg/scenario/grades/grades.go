// Package grades opens the grade book and reads its subject rows.
package grades

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harun/edupilot/pkg/automation"
	"github.com/harun/edupilot/pkg/readiness"
	"github.com/harun/edupilot/pkg/scenario"
	"github.com/rs/zerolog"
)

// Name is the registry name of the scenario
const Name = "grades"

const (
	// DefaultRowSelector matches the subject rows of the grade book
	DefaultRowSelector = "table.znamkyTable tr"
	sectionLink        = "text=Známky"
)

// Subject is one grade book row
type Subject struct {
	Name   string   `json:"name"`
	Grades []string `json:"grades"`
}

// Options configures Grades
type Options struct {
	BaseURL     string
	RowSelector string
	Logger      zerolog.Logger
}

// Grades is the grades scenario. Subjects holds the result of the last run.
type Grades struct {
	baseURL     string
	rowSelector string
	logger      zerolog.Logger

	Subjects []Subject
}

var _ scenario.Scenario = (*Grades)(nil)

// New builds the scenario
func New(opts Options) (*Grades, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("portal base URL is required")
	}
	sel := opts.RowSelector
	if sel == "" {
		sel = DefaultRowSelector
	}
	return &Grades{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		rowSelector: sel,
		logger:      opts.Logger.With().Str("scenario", Name).Logger(),
	}, nil
}

func (g *Grades) Run(ctx context.Context, ui readiness.Page) error {
	if err := ui.Goto(g.baseURL+"/user/", automation.GotoOptions{WaitUntil: automation.LoadStateDOMContentLoaded}); err != nil {
		return fmt.Errorf("failed to open portal: %w", err)
	}
	if err := ui.Click(sectionLink); err != nil {
		return fmt.Errorf("failed to open grades: %w", err)
	}
	g.logger.Info().Str("url", ui.URL()).Msg("Grades opened")

	if _, err := ui.WaitForSelector(g.rowSelector, automation.WaitOptions{State: automation.StateAttached}); err != nil {
		return fmt.Errorf("grade table did not appear: %w", err)
	}

	html, err := ui.Content()
	if err != nil {
		return err
	}
	rows, err := scenario.ParseTable(html, g.rowSelector)
	if err != nil {
		return err
	}

	g.Subjects = g.Subjects[:0]
	for _, row := range rows {
		if row[0] == "" {
			continue
		}
		s := Subject{Name: row[0]}
		for _, c := range row[1:] {
			if c != "" {
				s.Grades = append(s.Grades, c)
			}
		}
		g.Subjects = append(g.Subjects, s)
		g.logger.Info().Str("subject", s.Name).Strs("grades", s.Grades).Msg("Grades")
	}
	return nil
}
