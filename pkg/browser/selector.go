package browser

import (
	"encoding/json"
	"fmt"
	"strings"
)

// step is one stage of a locator chain, evaluated in the page by queryJS
type step struct {
	Kind  string `json:"kind"`
	Value string `json:"value,omitempty"`
	Name  string `json:"name,omitempty"`
	Exact bool   `json:"exact,omitempty"`
	Index int    `json:"index,omitempty"`
}

const (
	stepCSS        = "css"
	stepText       = "text"
	stepRole       = "role"
	stepLabel      = "label"
	stepHasText    = "has-text"
	stepHasNotText = "has-not-text"
	stepNth        = "nth"
)

func (s step) String() string {
	switch s.Kind {
	case stepCSS:
		return s.Value
	case stepText, stepLabel:
		return fmt.Sprintf("%s=%s", s.Kind, quoteIf(s.Value, s.Exact))
	case stepRole:
		if s.Name == "" {
			return "role=" + s.Value
		}
		return fmt.Sprintf("role=%s[name=%s]", s.Value, quoteIf(s.Name, s.Exact))
	case stepHasText, stepHasNotText:
		return fmt.Sprintf("filter(%s=%q)", s.Kind, s.Value)
	case stepNth:
		return fmt.Sprintf("nth=%d", s.Index)
	}
	return s.Kind
}

func quoteIf(v string, exact bool) string {
	if exact {
		return fmt.Sprintf("%q", v)
	}
	return v
}

// parseSelector splits a selector string into steps. Parts are joined by
// " >> "; each part is CSS unless prefixed with "css=" or "text=". A quoted
// text value matches exactly.
func parseSelector(selector string) []step {
	var steps []step
	for _, part := range strings.Split(selector, ">>") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch {
		case strings.HasPrefix(part, "text="):
			steps = append(steps, textStep(stepText, strings.TrimPrefix(part, "text=")))
		case strings.HasPrefix(part, "css="):
			steps = append(steps, step{Kind: stepCSS, Value: strings.TrimPrefix(part, "css=")})
		default:
			steps = append(steps, step{Kind: stepCSS, Value: part})
		}
	}
	return steps
}

func textStep(kind, value string) step {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		return step{Kind: kind, Value: value[1 : len(value)-1], Exact: true}
	}
	return step{Kind: kind, Value: value}
}

func describeSteps(steps []step) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		parts[i] = s.String()
	}
	return strings.Join(parts, " >> ")
}

// roleSelectors maps ARIA roles to the elements carrying them implicitly
var roleSelectors = map[string]string{
	"button":       `button, input[type=button], input[type=submit], input[type=reset], [role=button]`,
	"link":         `a[href], area[href], [role=link]`,
	"textbox":      `input:not([type]), input[type=text], input[type=email], input[type=password], input[type=search], input[type=tel], input[type=url], textarea, [role=textbox], [contenteditable=""], [contenteditable=true]`,
	"spinbutton":   `input[type=number], [role=spinbutton]`,
	"checkbox":     `input[type=checkbox], [role=checkbox]`,
	"radio":        `input[type=radio], [role=radio]`,
	"combobox":     `select, [role=combobox]`,
	"option":       `option, [role=option]`,
	"heading":      `h1, h2, h3, h4, h5, h6, [role=heading]`,
	"table":        `table, [role=table], [role=grid]`,
	"row":          `tr, [role=row]`,
	"cell":         `td, [role=cell], [role=gridcell]`,
	"columnheader": `th, [role=columnheader]`,
	"img":          `img, [role=img]`,
	"dialog":       `dialog, [role=dialog]`,
	"listitem":     `li, [role=listitem]`,
	"tab":          `[role=tab]`,
	"menuitem":     `[role=menuitem]`,
}

// queryJS resolves a step chain against the document and returns the
// matching elements in document order
var queryJS = func() string {
	roles, _ := json.Marshal(roleSelectors)
	return fmt.Sprintf(`(steps) => {
	const roles = %s;
	const norm = (s) => (s || '').replace(/\s+/g, ' ').trim();
	const textOf = (el) => norm(el.innerText !== undefined ? el.innerText : el.textContent);
	const matches = (text, value, exact) =>
		exact ? text === norm(value) : text.toLowerCase().includes(norm(value).toLowerCase());
	const nameOf = (el) => {
		const aria = el.getAttribute('aria-label');
		if (aria) return norm(aria);
		const by = el.getAttribute('aria-labelledby');
		if (by) {
			const t = by.split(/\s+/).map((id) => {
				const ref = document.getElementById(id);
				return ref ? textOf(ref) : '';
			}).join(' ');
			if (norm(t)) return norm(t);
		}
		if (el.labels && el.labels.length) return norm(Array.from(el.labels).map(textOf).join(' '));
		if (el.tagName === 'INPUT' && ['button', 'submit', 'reset'].includes(el.type)) return norm(el.value);
		if (['INPUT', 'TEXTAREA', 'SELECT'].includes(el.tagName)) {
			return norm(el.getAttribute('title') || el.getAttribute('placeholder'));
		}
		return textOf(el) || norm(el.getAttribute('title'));
	};
	let nodes = [document];
	for (const s of steps) {
		let next = [];
		switch (s.kind) {
		case 'css':
			for (const n of nodes) next.push(...n.querySelectorAll(s.value));
			break;
		case 'text':
			for (const n of nodes) {
				for (const el of n.querySelectorAll('*')) {
					if (['SCRIPT', 'STYLE', 'HEAD', 'TITLE'].includes(el.tagName)) continue;
					if (!matches(textOf(el), s.value, s.exact)) continue;
					if (Array.from(el.children).some((c) => matches(textOf(c), s.value, s.exact))) continue;
					next.push(el);
				}
			}
			break;
		case 'role':
			for (const n of nodes) {
				for (const el of n.querySelectorAll(roles[s.value] || '[role="' + s.value + '"]')) {
					if (s.name && !matches(nameOf(el), s.name, s.exact)) continue;
					next.push(el);
				}
			}
			break;
		case 'label':
			for (const n of nodes) {
				for (const el of n.querySelectorAll('label, [aria-label]')) {
					if (el.tagName === 'LABEL') {
						if (el.control && matches(textOf(el), s.value, s.exact)) next.push(el.control);
					} else if (matches(norm(el.getAttribute('aria-label')), s.value, s.exact)) {
						next.push(el);
					}
				}
			}
			break;
		case 'has-text':
			next = nodes.filter((el) => matches(textOf(el), s.value, false));
			break;
		case 'has-not-text':
			next = nodes.filter((el) => !matches(textOf(el), s.value, false));
			break;
		case 'nth': {
			const i = s.index < 0 ? nodes.length + s.index : s.index;
			next = i >= 0 && i < nodes.length ? [nodes[i]] : [];
			break;
		}
		}
		nodes = Array.from(new Set(next));
	}
	return nodes.filter((n) => n !== document);
}`, roles)
}()

// probeJS reports how many elements a chain matches and whether the first
// one is rendered
var probeJS = fmt.Sprintf(`(steps) => {
	const found = (%s)(steps);
	if (!found.length) return {count: 0, visible: false};
	const el = found[0];
	const style = window.getComputedStyle(el);
	const rect = el.getBoundingClientRect();
	const visible = style.visibility !== 'hidden' && style.display !== 'none' && rect.width > 0 && rect.height > 0;
	return {count: found.length, visible: visible};
}`, queryJS)

// checkedJS reads the checked state, following a label to its control
const checkedJS = `function() {
	const t = this.tagName === 'LABEL' && this.control ? this.control : this;
	return t.checked === true || t.getAttribute('aria-checked') === 'true';
}`

const clearJS = `function() {
	if (this.isContentEditable) {
		this.textContent = '';
	} else if ('value' in this) {
		this.value = '';
	} else {
		return;
	}
	this.dispatchEvent(new Event('input', {bubbles: true}));
}`

const textContentJS = `function() { return this.textContent || ''; }`

const innerHTMLJS = `function() { return this.innerHTML; }`

const inputValueJS = `function() {
	if (!('value' in this)) throw new Error('Not an input, textarea or select element');
	return String(this.value);
}`

const selectedValuesJS = `function() {
	return Array.from(this.selectedOptions || []).map((o) => o.value);
}`
