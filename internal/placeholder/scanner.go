package placeholder

import "strings"

// Directive names recognised before a placeholder body.
const (
	DirectiveFile   = "file"
	DirectiveOption = "option"
)

// Token is one span of a scanned template: either literal text or a
// placeholder.
type Token struct {
	// Literal holds the text of a literal span.
	Literal string
	// Placeholder is true for {{...}} spans.
	Placeholder bool
	// Directive is "file", "option" or empty.
	Directive string
	// Body is the trimmed text after the directive.
	Body string
	// Raw is the original "{{...}}" text, emitted unchanged when unresolved.
	Raw string
}

// Scan splits text into literal and placeholder tokens in a single forward
// pass. A placeholder opens at "{{" and closes at the next "}}"; a nested
// "{{" restarts the opening, and a lone "}" or an empty body makes the span
// literal.
func Scan(text string) []Token {
	var tokens []Token
	litStart := 0
	i := 0

	for i < len(text) {
		rel := strings.Index(text[i:], "{{")
		if rel < 0 {
			break
		}
		open := i + rel
		end, ok := closing(text, &open)
		if !ok {
			i = end
			continue
		}

		inner := text[open+2 : end]
		if strings.TrimSpace(inner) == "" {
			i = end + 2
			continue
		}

		if open > litStart {
			tokens = append(tokens, Token{Literal: text[litStart:open]})
		}
		tokens = append(tokens, newPlaceholder(text[open:end+2], inner))
		i = end + 2
		litStart = i
	}

	if litStart < len(text) {
		tokens = append(tokens, Token{Literal: text[litStart:]})
	}
	return tokens
}

// closing finds the "}}" matching the "{{" at *open. It moves *open forward
// when a later "{{" appears first. When no placeholder can be formed it
// returns the index scanning should resume from and false.
func closing(text string, open *int) (int, bool) {
	j := *open + 2
	for j < len(text) {
		switch {
		case strings.HasPrefix(text[j:], "{{"):
			*open = j
			j += 2
		case strings.HasPrefix(text[j:], "}}"):
			return j, true
		case text[j] == '}':
			return j + 1, false
		default:
			j++
		}
	}
	return len(text), false
}

func newPlaceholder(raw, inner string) Token {
	body := strings.TrimSpace(inner)
	tok := Token{Placeholder: true, Raw: raw, Body: body}
	for _, directive := range []string{DirectiveFile, DirectiveOption} {
		if rest, ok := strings.CutPrefix(body, directive+":"); ok {
			tok.Directive = directive
			tok.Body = strings.TrimSpace(rest)
			break
		}
	}
	return tok
}

// HasPlaceholder reports whether text contains at least one placeholder span.
func HasPlaceholder(text string) bool {
	if !strings.Contains(text, "{{") {
		return false
	}
	for _, tok := range Scan(text) {
		if tok.Placeholder {
			return true
		}
	}
	return false
}

// Names returns the distinct bodies of directive-free placeholders in order of
// first appearance.
func Names(text string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, tok := range Scan(text) {
		if !tok.Placeholder || tok.Directive != "" || seen[tok.Body] {
			continue
		}
		seen[tok.Body] = true
		names = append(names, tok.Body)
	}
	return names
}
