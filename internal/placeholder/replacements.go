package placeholder

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Standard replacement keys.
const (
	KeyInput          = "input"
	KeySelection      = "selection"
	KeyClipboard      = "clipboard"
	KeyCurrentApp     = "currentApp"
	KeyBrowserContent = "browserContent"
	KeyNow            = "now"
	KeyPromptTitles   = "promptTitles"
	KeyAllApp         = "allApp"
	KeyDiff           = "diff"
)

// StandardKeys lists the standard keys in display order.
var StandardKeys = []string{
	KeyInput,
	KeySelection,
	KeyClipboard,
	KeyCurrentApp,
	KeyBrowserContent,
	KeyNow,
	KeyPromptTitles,
	KeyAllApp,
	KeyDiff,
}

// IsStandardKey reports whether key is one of StandardKeys.
func IsStandardKey(key string) bool {
	for _, k := range StandardKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Replacements is the bag of values available to placeholders: the well-known
// fields plus an open-ended Extra map for prompt properties and arguments.
type Replacements struct {
	Input          string `json:"input,omitempty"`
	Selection      string `json:"selection,omitempty"`
	Clipboard      string `json:"clipboard,omitempty"`
	CurrentApp     string `json:"currentApp,omitempty"`
	BrowserContent string `json:"browserContent,omitempty"`
	Now            string `json:"now,omitempty"`
	PromptTitles   string `json:"promptTitles,omitempty"`
	AllApp         string `json:"allApp,omitempty"`
	Diff           string `json:"diff,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// Standard returns the standard keys that hold a non-blank value.
func (r Replacements) Standard() map[string]string {
	all := map[string]string{
		KeyInput:          r.Input,
		KeySelection:      r.Selection,
		KeyClipboard:      r.Clipboard,
		KeyCurrentApp:     r.CurrentApp,
		KeyBrowserContent: r.BrowserContent,
		KeyNow:            r.Now,
		KeyPromptTitles:   r.PromptTitles,
		KeyAllApp:         r.AllApp,
		KeyDiff:           r.Diff,
	}
	for k, v := range all {
		if strings.TrimSpace(v) == "" {
			delete(all, k)
		}
	}
	return all
}

// Values merges Extra with the materialized standard values. Standard values
// take precedence over Extra entries with the same key.
func (r Replacements) Values() map[string]any {
	values := make(map[string]any, len(r.Extra)+len(StandardKeys))
	for k, v := range r.Extra {
		values[k] = v
	}
	for k, v := range r.Standard() {
		values[k] = v
	}
	return values
}

// With returns a copy of r with key set in Extra, or in the matching
// standard field when key is a standard key and value is a string.
func (r Replacements) With(key string, value any) Replacements {
	if s, ok := value.(string); ok && r.setStandard(key, s) {
		return r
	}
	extra := make(map[string]any, len(r.Extra)+1)
	for k, v := range r.Extra {
		extra[k] = v
	}
	extra[key] = value
	r.Extra = extra
	return r
}

func (r *Replacements) setStandard(key, value string) bool {
	switch key {
	case KeyInput:
		r.Input = value
	case KeySelection:
		r.Selection = value
	case KeyClipboard:
		r.Clipboard = value
	case KeyCurrentApp:
		r.CurrentApp = value
	case KeyBrowserContent:
		r.BrowserContent = value
	case KeyNow:
		r.Now = value
	case KeyPromptTitles:
		r.PromptTitles = value
	case KeyAllApp:
		r.AllApp = value
	case KeyDiff:
		r.Diff = value
	default:
		return false
	}
	return true
}

// Stringify renders a replacement value as text. The boolean is false when the
// value is absent for fallback purposes (nil, blank strings, empty lists).
func Stringify(value any) (string, bool) {
	var s string
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		s = v
	case []string:
		s = strings.Join(v, ",")
	case []any:
		s = joinScalars(v)
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		s = v.String()
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		s = fmt.Sprint(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			s = fmt.Sprint(v)
		} else {
			s = string(data)
		}
	}
	return s, strings.TrimSpace(s) != ""
}

func joinScalars(items []any) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		switch item.(type) {
		case map[string]any, []any:
			data, err := json.Marshal(items)
			if err != nil {
				return fmt.Sprint(items)
			}
			return string(data)
		}
		s, _ := Stringify(item)
		parts = append(parts, s)
	}
	return strings.Join(parts, ",")
}
