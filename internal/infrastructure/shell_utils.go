package infrastructure

import (
	"strings"
)

// ShellEscape escapes a string for use as a single shell word.
//
// The function uses single-quote escaping which is safe for all characters
// except single quotes themselves, which are handled specially.
func ShellEscape(s string) string {
	if s == "" {
		return "''"
	}

	needsEscape := false
	for _, c := range s {
		if isShellSpecialChar(c) {
			needsEscape = true
			break
		}
	}

	if !needsEscape {
		return s
	}

	// Replace ' with '"'"' (end quote, quoted quote, start quote)
	var result strings.Builder
	result.WriteString("'")
	for _, c := range s {
		if c == '\'' {
			result.WriteString("'\"'\"'")
		} else {
			result.WriteRune(c)
		}
	}
	result.WriteString("'")
	return result.String()
}

// ShellEscapeCommand creates a shell-safe command line string for logging.
func ShellEscapeCommand(binary string, args ...string) string {
	escaped := ShellEscape(binary)
	for _, arg := range args {
		escaped += " " + ShellEscape(arg)
	}
	return escaped
}

// CommandPlaceholders are the tokens recognized in a handoff command template
var CommandPlaceholders = []string{"{ref}", "{magnet}", "{torrent}", "{title}"}

// HasPlaceholder reports whether tmpl references at least one placeholder
func HasPlaceholder(tmpl string) bool {
	for _, p := range CommandPlaceholders {
		if strings.Contains(tmpl, p) {
			return true
		}
	}
	return false
}

// QuotedPlaceholder returns the first placeholder that appears inside single
// or double quotes in tmpl.
func QuotedPlaceholder(tmpl string) (string, bool) {
	var quote rune
	for i := 0; i < len(tmpl); i++ {
		c := rune(tmpl[i])
		switch {
		case c == '\\' && quote != '\'':
			i++
			continue
		case quote == 0 && (c == '\'' || c == '"'):
			quote = c
			continue
		case quote != 0 && c == quote:
			quote = 0
			continue
		}
		if quote == 0 || c != '{' {
			continue
		}
		for _, p := range CommandPlaceholders {
			if strings.HasPrefix(tmpl[i:], p) {
				return p, true
			}
		}
	}
	return "", false
}

// ExpandCommandTemplate substitutes placeholders in tmpl with shell-escaped
// values. Missing values expand to an empty quoted word. Placeholders must
// stand unquoted in tmpl; see QuotedPlaceholder.
func ExpandCommandTemplate(tmpl string, values map[string]string) string {
	pairs := make([]string, 0, len(CommandPlaceholders)*2)
	for _, p := range CommandPlaceholders {
		pairs = append(pairs, p, ShellEscape(values[p]))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// isShellSpecialChar returns true if the character has special meaning in shell
func isShellSpecialChar(c rune) bool {
	switch c {
	case ' ', '\t', '\'', '"', '$', '`', '\\', '!', '*', '?', '[', ']',
		'(', ')', '{', '}', '|', ';', '<', '>', '&', '~', '#', '%', '\n', '\r':
		return true
	default:
		return false
	}
}
