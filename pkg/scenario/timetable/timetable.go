// Package timetable opens the timetable and reads its lessons.
package timetable

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
const Name = "timetable"

// DefaultRowSelector matches one day row of the timetable
const DefaultRowSelector = "table.timetable tr"

const sectionLink = "text=Rozvrh"

// Lesson is one filled timetable cell. Period is 1-based.
type Lesson struct {
	Day    string `json:"day"`
	Period int    `json:"period"`
	Text   string `json:"text"`
}

type Options struct {
	BaseURL     string
	RowSelector string
	Logger      zerolog.Logger
}

// Timetable is the timetable scenario. Lessons holds the result of the last
// run.
type Timetable struct {
	baseURL     string
	rowSelector string
	logger      zerolog.Logger

	Lessons []Lesson
}

var _ scenario.Scenario = (*Timetable)(nil)

func New(opts Options) (*Timetable, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("portal base URL is required")
	}
	sel := opts.RowSelector
	if sel == "" {
		sel = DefaultRowSelector
	}
	return &Timetable{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		rowSelector: sel,
		logger:      opts.Logger.With().Str("scenario", Name).Logger(),
	}, nil
}

func (t *Timetable) Run(ctx context.Context, ui readiness.Page) error {
	if err := ui.Goto(t.baseURL+"/user/", automation.GotoOptions{WaitUntil: automation.LoadStateDOMContentLoaded}); err != nil {
		return fmt.Errorf("failed to open portal: %w", err)
	}
	if err := ui.Click(sectionLink); err != nil {
		return fmt.Errorf("failed to open timetable: %w", err)
	}
	t.logger.Info().Str("url", ui.URL()).Msg("Timetable opened")

	if _, err := ui.WaitForSelector(t.rowSelector, automation.WaitOptions{State: automation.StateAttached}); err != nil {
		return fmt.Errorf("timetable did not appear: %w", err)
	}

	html, err := ui.Content()
	if err != nil {
		return err
	}
	rows, err := scenario.ParseTable(html, t.rowSelector)
	if err != nil {
		return err
	}

	t.Lessons = t.Lessons[:0]
	for _, row := range rows {
		day := row[0]
		for i, text := range row[1:] {
			if text == "" {
				continue
			}
			t.Lessons = append(t.Lessons, Lesson{Day: day, Period: i + 1, Text: text})
		}
	}
	t.logger.Info().Int("lessons", len(t.Lessons)).Msg("Timetable read")
	return nil
}
