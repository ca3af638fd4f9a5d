package readiness

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/harun/edupilot/pkg/automation"
	"github.com/harun/edupilot/pkg/automation/automationtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 50 * time.Millisecond

func waitEvents(events []string) []string {
	var out []string
	for _, e := range events {
		if strings.Contains(e, ".wait-for ") || strings.Contains(e, ".wait-for-selector ") {
			out = append(out, e)
		}
	}
	return out
}

func TestElementClickWaitsForVisibleFirst(t *testing.T) {
	rec := automationtest.NewRecorder()
	raw := automationtest.NewElement(rec, "btn")

	el := WrapElement(raw, 123*time.Millisecond)
	require.NoError(t, el.Click())

	assert.Equal(t, []string{"btn.wait-for visible 123ms", "btn.click"}, rec.Events())
}

func TestQueryPassesThroughWithoutWaiting(t *testing.T) {
	rec := automationtest.NewRecorder()
	raw := automationtest.NewElement(rec, "box")
	raw.Box = &automation.Box{X: 1, Y: 2, Width: 3, Height: 4}

	el := WrapElement(raw, 123*time.Millisecond)
	box, err := el.BoundingBox()
	require.NoError(t, err)

	assert.Equal(t, raw.Box, box)
	assert.Equal(t, []string{"box.bounding-box"}, rec.Events())
}

func elementInvokers(other automation.Element) map[Operation]func(automation.Element) error {
	return map[Operation]func(automation.Element) error{
		OpClick:    func(e automation.Element) error { return e.Click() },
		OpDblclick: func(e automation.Element) error { return e.Dblclick() },
		OpTap:      func(e automation.Element) error { return e.Tap() },
		OpHover:    func(e automation.Element) error { return e.Hover() },
		OpFocus:    func(e automation.Element) error { return e.Focus() },
		OpCheck:    func(e automation.Element) error { return e.Check() },
		OpUncheck:  func(e automation.Element) error { return e.Uncheck() },
		OpFill:     func(e automation.Element) error { return e.Fill("v") },
		OpType:     func(e automation.Element) error { return e.Type("v") },
		OpPress:    func(e automation.Element) error { return e.Press("Enter") },
		OpSelect: func(e automation.Element) error {
			_, err := e.SelectOption(automation.SelectValues{Labels: []string{"A"}})
			return err
		},
		OpSetInputFiles: func(e automation.Element) error { return e.SetInputFiles("/tmp/a.txt") },
		OpDrag:          func(e automation.Element) error { return e.DragTo(other) },

		OpLocator:      func(e automation.Element) error { e.Locator("td"); return nil },
		OpGetByRole:    func(e automation.Element) error { e.GetByRole("button", automation.RoleOptions{}); return nil },
		OpGetByText:    func(e automation.Element) error { e.GetByText("x"); return nil },
		OpGetByLabel:   func(e automation.Element) error { e.GetByLabel("x"); return nil },
		OpFilter:       func(e automation.Element) error { e.Filter(automation.FilterOptions{HasText: "x"}); return nil },
		OpNth:          func(e automation.Element) error { e.Nth(1); return nil },
		OpFirst:        func(e automation.Element) error { e.First(); return nil },
		OpLast:         func(e automation.Element) error { e.Last(); return nil },
		OpAll:          func(e automation.Element) error { _, err := e.All(); return err },
		OpContentFrame: func(e automation.Element) error { e.ContentFrame(); return nil },
		OpPage:         func(e automation.Element) error { e.Page(); return nil },
		OpCount:        func(e automation.Element) error { _, err := e.Count(); return err },
		OpTextContent:  func(e automation.Element) error { _, err := e.TextContent(); return err },
		OpInnerText:    func(e automation.Element) error { _, err := e.InnerText(); return err },
		OpInnerHTML:    func(e automation.Element) error { _, err := e.InnerHTML(); return err },
		OpAllTextContents: func(e automation.Element) error {
			_, err := e.AllTextContents()
			return err
		},
		OpGetAttribute: func(e automation.Element) error { _, _, err := e.GetAttribute("href"); return err },
		OpInputValue:   func(e automation.Element) error { _, err := e.InputValue(); return err },
		OpIsVisible:    func(e automation.Element) error { _, err := e.IsVisible(); return err },
		OpIsChecked:    func(e automation.Element) error { _, err := e.IsChecked(); return err },
		OpIsEnabled:    func(e automation.Element) error { _, err := e.IsEnabled(); return err },
		OpBoundingBox:  func(e automation.Element) error { _, err := e.BoundingBox(); return err },
		OpEvaluate:     func(e automation.Element) error { _, err := e.Evaluate("el => el.id", nil); return err },
		OpWaitFor: func(e automation.Element) error {
			return e.WaitFor(automation.WaitOptions{State: automation.StateHidden, Timeout: time.Second})
		},
	}
}

func TestElementOperationsWaitOnlyForActions(t *testing.T) {
	invokers := elementInvokers(automationtest.NewElement(nil, "target"))
	require.Len(t, invokers, len(ElementOperations))

	for _, op := range ElementOperations {
		t.Run(string(op), func(t *testing.T) {
			invoke, ok := invokers[op]
			require.True(t, ok, "no invoker for %s", op)

			rec := automationtest.NewRecorder()
			raw := automationtest.NewElement(rec, "el")
			raw.CountValue = 2
			el := WrapElement(raw, testTimeout)

			require.NoError(t, invoke(el))

			waits := waitEvents(rec.Events())
			state, isAction := ActionStates[op]
			switch {
			case isAction:
				require.Len(t, waits, 1)
				assert.Equal(t, fmt.Sprintf("el.wait-for %s %s", state, testTimeout), waits[0])
				assert.Equal(t, waits[0], rec.Events()[0], "wait must precede the action")
				assert.Greater(t, len(rec.Events()), 1, "action must be delegated")
			case op == OpWaitFor:
				assert.Equal(t, []string{"el.wait-for hidden 1s"}, waits)
			default:
				assert.Empty(t, waits)
			}
		})
	}
}

func TestActionTableStates(t *testing.T) {
	visible := []Operation{OpClick, OpCheck, OpUncheck, OpFill, OpFocus, OpHover, OpDrag, OpTap, OpDblclick}
	attached := []Operation{OpPress, OpSelect, OpType, OpSetInputFiles}

	for _, op := range visible {
		s, ok := StateFor(op)
		assert.True(t, ok, op)
		assert.Equal(t, automation.StateVisible, s, op)
	}
	for _, op := range attached {
		s, ok := StateFor(op)
		assert.True(t, ok, op)
		assert.Equal(t, automation.StateAttached, s, op)
	}
	assert.Len(t, ActionStates, len(visible)+len(attached))

	_, ok := StateFor("Click")
	assert.False(t, ok, "operation names are case-sensitive")
}

func pageInvokers() map[Operation]func(automation.Page) error {
	return map[Operation]func(automation.Page) error{
		OpClick:    func(p automation.Page) error { return p.Click("#x") },
		OpDblclick: func(p automation.Page) error { return p.Dblclick("#x") },
		OpTap:      func(p automation.Page) error { return p.Tap("#x") },
		OpHover:    func(p automation.Page) error { return p.Hover("#x") },
		OpFocus:    func(p automation.Page) error { return p.Focus("#x") },
		OpCheck:    func(p automation.Page) error { return p.Check("#x") },
		OpUncheck:  func(p automation.Page) error { return p.Uncheck("#x") },
		OpFill:     func(p automation.Page) error { return p.Fill("#x", "v") },
		OpType:     func(p automation.Page) error { return p.Type("#x", "v") },
		OpPress:    func(p automation.Page) error { return p.Press("#x", "Tab") },
		OpSelect: func(p automation.Page) error {
			_, err := p.SelectOption("#x", automation.SelectValues{Values: []string{"1"}})
			return err
		},
		OpSetInputFiles: func(p automation.Page) error { return p.SetInputFiles("#x", "/tmp/a") },
		OpDrag:          func(p automation.Page) error { return p.DragAndDrop("#x", "#y") },

		OpLocator:      func(p automation.Page) error { p.Locator("#x"); return nil },
		OpGetByRole:    func(p automation.Page) error { p.GetByRole("link", automation.RoleOptions{}); return nil },
		OpGetByText:    func(p automation.Page) error { p.GetByText("x"); return nil },
		OpGetByLabel:   func(p automation.Page) error { p.GetByLabel("x"); return nil },
		OpFrameLocator: func(p automation.Page) error { p.FrameLocator("iframe"); return nil },
		OpURL:          func(p automation.Page) error { p.URL(); return nil },
		OpTitle:        func(p automation.Page) error { _, err := p.Title(); return err },
		OpContent:      func(p automation.Page) error { _, err := p.Content(); return err },
		OpGoto:         func(p automation.Page) error { return p.Goto("https://example.org/", automation.GotoOptions{}) },
		OpReload:       func(p automation.Page) error { return p.Reload() },
		OpWaitForURL:   func(p automation.Page) error { return p.WaitForURL("**/user/**", time.Second) },
		OpWaitForSelector: func(p automation.Page) error {
			_, err := p.WaitForSelector("#x", automation.WaitOptions{State: automation.StateDetached, Timeout: time.Second})
			return err
		},
		OpEvaluate:          func(p automation.Page) error { _, err := p.Evaluate("() => 1"); return err },
		OpScreenshot:        func(p automation.Page) error { _, err := p.Screenshot(false); return err },
		OpSetDefaultTimeout: func(p automation.Page) error { p.SetDefaultTimeout(time.Second); return nil },
		OpSetDefaultNavigationTimeout: func(p automation.Page) error {
			p.SetDefaultNavigationTimeout(time.Second)
			return nil
		},
		OpClose: func(p automation.Page) error { return p.Close() },
	}
}

func TestPageOperationsWaitOnlyForActions(t *testing.T) {
	invokers := pageInvokers()
	require.Len(t, invokers, len(PageOperations))

	for _, op := range PageOperations {
		t.Run(string(op), func(t *testing.T) {
			invoke, ok := invokers[op]
			require.True(t, ok, "no invoker for %s", op)

			rec := automationtest.NewRecorder()
			page := WrapPage(automationtest.NewPage(rec, "page"), testTimeout)

			require.NoError(t, invoke(page))

			waits := waitEvents(rec.Events())
			state, isAction := ActionStates[op]
			switch {
			case isAction:
				require.Len(t, waits, 1)
				assert.Equal(t, fmt.Sprintf("page.wait-for-selector #x %s %s", state, testTimeout), waits[0])
				assert.Equal(t, waits[0], rec.Events()[0])
			case op == OpWaitForSelector:
				assert.Equal(t, []string{"page.wait-for-selector #x detached 1s"}, waits)
			default:
				assert.Empty(t, waits)
			}
		})
	}
}

func TestTransitiveWrapping(t *testing.T) {
	rec := automationtest.NewRecorder()
	raw := automationtest.NewPage(rec, "page")
	page := WrapPage(raw, 77*time.Millisecond)

	row := page.Locator("tr").Filter(automation.FilterOptions{HasText: "Test 1"}).Nth(0)
	_, ok := row.(Element)
	require.True(t, ok, "derived locator must stay wrapped")
	assert.Equal(t, automation.KindElement, row.Kind())

	frame := page.FrameLocator("iframe#grades")
	_, ok = frame.(Frame)
	require.True(t, ok)
	assert.Equal(t, automation.KindFrame, frame.Kind())

	cell := frame.Locator("td").First()
	_, ok = cell.(Element)
	require.True(t, ok)

	owner := frame.Owner()
	_, ok = owner.(Element)
	assert.True(t, ok)

	back := row.Page()
	_, ok = back.(Page)
	require.True(t, ok)
	assert.Equal(t, automation.KindPage, back.Kind())

	raw.Element("td").CountValue = 2
	all, err := page.Locator("td").All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, el := range all {
		_, ok := el.(Element)
		assert.True(t, ok)
	}

	found, err := page.WaitForSelector("#x", automation.WaitOptions{State: automation.StateAttached})
	require.NoError(t, err)
	_, ok = found.(Element)
	assert.True(t, ok)

	rec.Reset()
	require.NoError(t, cell.Click())
	assert.Equal(t, []string{
		"iframe#grades >> td >> nth=0.wait-for visible 77ms",
		"iframe#grades >> td >> nth=0.click",
	}, rec.Events())
}

func TestWrapDispatchesOnKind(t *testing.T) {
	rec := automationtest.NewRecorder()
	page := automationtest.NewPage(rec, "page")

	_, ok := Wrap(page, time.Second).(Page)
	assert.True(t, ok)
	_, ok = Wrap(page.Element("a"), time.Second).(Element)
	assert.True(t, ok)
	_, ok = Wrap(page.Frame("iframe"), time.Second).(Frame)
	assert.True(t, ok)

	for _, v := range []any{"text", 42, true, []byte("x"), nil} {
		assert.Equal(t, v, Wrap(v, time.Second))
	}
}

func TestUnwrapAndIdempotence(t *testing.T) {
	rec := automationtest.NewRecorder()
	raw := automationtest.NewPage(rec, "page")

	page := WrapPage(raw, time.Second)
	assert.Same(t, raw, page.Unwrap())
	assert.Same(t, raw, Unwrap(page))
	assert.Equal(t, page, WrapPage(page, 5*time.Second))
	assert.Equal(t, "plain", Unwrap("plain"))
}

func TestDragTargetIsUnwrapped(t *testing.T) {
	rec := automationtest.NewRecorder()
	raw := automationtest.NewPage(rec, "page")
	page := WrapPage(raw, testTimeout)

	require.NoError(t, page.Locator("#a").DragTo(page.Locator("#b")))

	assert.Equal(t, []string{"#a.wait-for visible 50ms", "#a.drag #b"}, rec.Events())
}

func TestWaitErrorPropagatesVerbatim(t *testing.T) {
	waitErr := errors.New("timeout 50ms exceeded")

	rec := automationtest.NewRecorder()
	raw := automationtest.NewElement(rec, "btn")
	raw.WaitErr = waitErr

	err := WrapElement(raw, testTimeout).Fill("x")
	assert.Same(t, waitErr, err)
	assert.Equal(t, []string{"btn.wait-for visible 50ms"}, rec.Events(), "action must not run after failed wait")

	rec.Reset()
	rawPage := automationtest.NewPage(rec, "page")
	rawPage.Element("#go").WaitErr = waitErr
	err = WrapPage(rawPage, testTimeout).Click("#go")
	assert.Same(t, waitErr, err)
	assert.Empty(t, rec.Matching("#go.click"))
}

func TestActionErrorPropagates(t *testing.T) {
	actErr := errors.New("detached")
	rec := automationtest.NewRecorder()
	raw := automationtest.NewElement(rec, "btn")
	raw.Errs = map[string]error{"click": actErr}

	assert.Same(t, actErr, WrapElement(raw, testTimeout).Click())
}

func TestObserverIsInheritedByChildren(t *testing.T) {
	type seen struct {
		op    Operation
		state automation.WaitState
		err   error
	}
	var got []seen
	obs := ObserverFunc(func(op Operation, state automation.WaitState, _ time.Duration, err error) {
		got = append(got, seen{op, state, err})
	})

	rec := automationtest.NewRecorder()
	raw := automationtest.NewPage(rec, "page")
	page := WrapPage(raw, testTimeout, WithObserver(obs))

	require.NoError(t, page.Locator("form").GetByRole("button", automation.RoleOptions{Name: "Uložit"}).Click())
	require.NoError(t, page.Press("#q", "Enter"))
	_, _ = page.Locator("form").Count()

	assert.Equal(t, []seen{
		{OpClick, automation.StateVisible, nil},
		{OpPress, automation.StateAttached, nil},
	}, got)
}

func TestExpect(t *testing.T) {
	rec := automationtest.NewRecorder()
	raw := automationtest.NewPage(rec, "page")
	raw.CurrentURL = "https://school.example/user/"
	page := WrapPage(raw, testTimeout)

	assert.NoError(t, Expect(page).ToHaveURL("/user/"))
	assert.Error(t, Expect(page).ToHaveURL("/login/"))
	assert.Error(t, Expect(page).ToBeVisible())

	el := page.Locator("h1")
	require.NoError(t, Expect(el).WithTimeout(time.Second).ToBeVisible())
	assert.Contains(t, rec.Events(), "h1.wait-for visible 1s")

	raw.Element("tr").CountValue = 3
	assert.NoError(t, Expect(page.Locator("tr")).ToHaveCount(3))
	assert.Error(t, Expect(page.Locator("tr")).ToHaveCount(1))
	assert.Error(t, Expect(el).ToHaveURL("/user/"))
}
