package readiness

import "github.com/harun/edupilot/pkg/automation"

// Operation names a forwarded call on a page, element or frame handle.
type Operation string

// Actions.
const (
	OpClick         Operation = "click"
	OpDblclick      Operation = "dblclick"
	OpTap           Operation = "tap"
	OpHover         Operation = "hover"
	OpFocus         Operation = "focus"
	OpCheck         Operation = "check"
	OpUncheck       Operation = "uncheck"
	OpFill          Operation = "fill"
	OpDrag          Operation = "drag"
	OpPress         Operation = "press"
	OpSelect        Operation = "select"
	OpType          Operation = "type"
	OpSetInputFiles Operation = "set-input-files"
)

// Queries.
const (
	OpLocator         Operation = "locator"
	OpGetByRole       Operation = "get-by-role"
	OpGetByText       Operation = "get-by-text"
	OpGetByLabel      Operation = "get-by-label"
	OpFrameLocator    Operation = "frame-locator"
	OpFilter          Operation = "filter"
	OpNth             Operation = "nth"
	OpFirst           Operation = "first"
	OpLast            Operation = "last"
	OpAll             Operation = "all"
	OpContentFrame    Operation = "content-frame"
	OpPage            Operation = "page"
	OpOwner           Operation = "owner"
	OpCount           Operation = "count"
	OpTextContent     Operation = "text-content"
	OpInnerText       Operation = "inner-text"
	OpInnerHTML       Operation = "inner-html"
	OpAllTextContents Operation = "all-text-contents"
	OpGetAttribute    Operation = "get-attribute"
	OpInputValue      Operation = "input-value"
	OpIsVisible       Operation = "is-visible"
	OpIsChecked       Operation = "is-checked"
	OpIsEnabled       Operation = "is-enabled"
	OpBoundingBox     Operation = "bounding-box"
	OpEvaluate        Operation = "evaluate"
	OpWaitFor         Operation = "wait-for"

	OpURL                         Operation = "url"
	OpTitle                       Operation = "title"
	OpContent                     Operation = "content"
	OpGoto                        Operation = "goto"
	OpReload                      Operation = "reload"
	OpWaitForURL                  Operation = "wait-for-url"
	OpWaitForSelector             Operation = "wait-for-selector"
	OpScreenshot                  Operation = "screenshot"
	OpSetDefaultTimeout           Operation = "set-default-timeout"
	OpSetDefaultNavigationTimeout Operation = "set-default-navigation-timeout"
	OpClose                       Operation = "close"
)

// ActionStates maps every state-changing operation to the state its target
// must reach first. Operations missing from the table never wait.
var ActionStates = map[Operation]automation.WaitState{
	OpClick:    automation.StateVisible,
	OpCheck:    automation.StateVisible,
	OpUncheck:  automation.StateVisible,
	OpFill:     automation.StateVisible,
	OpFocus:    automation.StateVisible,
	OpHover:    automation.StateVisible,
	OpDrag:     automation.StateVisible,
	OpTap:      automation.StateVisible,
	OpDblclick: automation.StateVisible,

	OpPress:         automation.StateAttached,
	OpSelect:        automation.StateAttached,
	OpType:          automation.StateAttached,
	OpSetInputFiles: automation.StateAttached,
}

// StateFor reports the readiness state op waits for, if any.
func StateFor(op Operation) (automation.WaitState, bool) {
	s, ok := ActionStates[op]
	return s, ok
}

// ElementOperations is the closed set of operations an element proxy forwards.
var ElementOperations = []Operation{
	OpClick, OpDblclick, OpTap, OpHover, OpFocus, OpCheck, OpUncheck, OpFill,
	OpType, OpPress, OpSelect, OpSetInputFiles, OpDrag,
	OpLocator, OpGetByRole, OpGetByText, OpGetByLabel, OpFilter, OpNth, OpFirst,
	OpLast, OpAll, OpContentFrame, OpPage, OpCount, OpTextContent, OpInnerText,
	OpInnerHTML, OpAllTextContents, OpGetAttribute, OpInputValue, OpIsVisible,
	OpIsChecked, OpIsEnabled, OpBoundingBox, OpEvaluate, OpWaitFor,
}

// PageOperations is the closed set of operations a page proxy forwards.
var PageOperations = []Operation{
	OpClick, OpDblclick, OpTap, OpHover, OpFocus, OpCheck, OpUncheck, OpFill,
	OpType, OpPress, OpSelect, OpSetInputFiles, OpDrag,
	OpLocator, OpGetByRole, OpGetByText, OpGetByLabel, OpFrameLocator,
	OpURL, OpTitle, OpContent, OpGoto, OpReload, OpWaitForURL, OpWaitForSelector,
	OpEvaluate, OpScreenshot, OpSetDefaultTimeout, OpSetDefaultNavigationTimeout,
	OpClose,
}

// FrameOperations is the closed set of operations a frame proxy forwards.
var FrameOperations = []Operation{
	OpLocator, OpGetByRole, OpGetByText, OpGetByLabel, OpFrameLocator, OpOwner,
}
