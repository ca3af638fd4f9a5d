package browser

import (
	"fmt"
	"strings"

	"github.com/go-rod/rod/lib/input"
)

var namedKeys = map[string]input.Key{
	"enter":      input.Enter,
	"tab":        input.Tab,
	"escape":     input.Escape,
	"backspace":  input.Backspace,
	"delete":     input.Delete,
	"home":       input.Home,
	"end":        input.End,
	"pageup":     input.PageUp,
	"pagedown":   input.PageDown,
	"arrowup":    input.ArrowUp,
	"arrowdown":  input.ArrowDown,
	"arrowleft":  input.ArrowLeft,
	"arrowright": input.ArrowRight,
	"space":      input.Space,
	"shift":      input.ShiftLeft,
	"control":    input.ControlLeft,
	"alt":        input.AltLeft,
	"meta":       input.MetaLeft,
	"f1":         input.F1,
	"f2":         input.F2,
	"f3":         input.F3,
	"f4":         input.F4,
	"f5":         input.F5,
	"f6":         input.F6,
	"f7":         input.F7,
	"f8":         input.F8,
	"f9":         input.F9,
	"f10":        input.F10,
	"f11":        input.F11,
	"f12":        input.F12,
}

var modifierAliases = map[string]string{
	"ctrl":    "control",
	"cmd":     "meta",
	"command": "meta",
	"option":  "alt",
}

// chord is a key press with held modifiers, e.g. "Control+Shift+ArrowLeft"
type chord struct {
	modifiers []input.Key
	key       input.Key
}

func parseChord(s string) (chord, error) {
	if s == "" {
		return chord{}, fmt.Errorf("empty key")
	}

	// "+" alone and chords ending in "++" name the plus key itself
	parts := strings.Split(s, "+")
	if strings.HasSuffix(s, "+") {
		parts = append(parts[:len(parts)-2], "+")
	}

	var c chord
	for i, part := range parts {
		k, err := lookupKey(part)
		if err != nil {
			return chord{}, err
		}
		if i < len(parts)-1 {
			if !isModifier(k) {
				return chord{}, fmt.Errorf("%q is not a modifier in %q", part, s)
			}
			c.modifiers = append(c.modifiers, k)
			continue
		}
		c.key = k
	}
	return c, nil
}

func lookupKey(name string) (input.Key, error) {
	lower := strings.ToLower(name)
	if alias, ok := modifierAliases[lower]; ok {
		lower = alias
	}
	if k, ok := namedKeys[lower]; ok {
		return k, nil
	}
	if r := []rune(name); len(r) == 1 {
		if k, ok := typeableKey(r[0]); ok {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown key %q", name)
}

// typeableKey maps a printable ASCII character to its US keyboard key
func typeableKey(r rune) (input.Key, bool) {
	if r < 0x20 || r > 0x7e {
		return 0, false
	}
	return input.Key(r), true
}

func isModifier(k input.Key) bool {
	switch k {
	case input.ShiftLeft, input.ControlLeft, input.AltLeft, input.MetaLeft:
		return true
	}
	return false
}
