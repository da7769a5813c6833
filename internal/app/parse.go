package app

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// parseCommand splits a command line into words. Words are separated by
// blanks; single or double quotes group blanks into one word and a
// backslash inside double quotes escapes the next character.
func parseCommand(input string) []string {
	var (
		parts   []string
		current strings.Builder
		inToken bool
		quote   rune
		escaped bool
	)
	for _, r := range input {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case quote == '"' && r == '\\':
			escaped = true
		case quote != 0 && r == quote:
			quote = 0
		case quote != 0:
			current.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case unicode.IsSpace(r):
			if inToken {
				parts = append(parts, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(r)
			inToken = true
		}
	}
	if inToken {
		parts = append(parts, current.String())
	}
	return parts
}

// splitCommand separates the command name from the rest of the line.
func splitCommand(line string) (name, rest string) {
	line = strings.TrimSpace(line)
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i:])
}

// splitDelimited reads n fields from s, which starts with the delimiter,
// as in /find/replace/flags. A backslash before the delimiter makes it
// part of the field; other backslashes are kept for the regex engine.
// The closing delimiter after the last field may be left out. remainder
// is the text after the closing delimiter, untrimmed.
func splitDelimited(s string, n int) (fields []string, remainder string, err error) {
	d, size := utf8.DecodeRuneInString(s)
	if s == "" || unicode.IsLetter(d) || unicode.IsDigit(d) || unicode.IsSpace(d) || d == '\\' {
		return nil, "", fmt.Errorf("expected a delimiter such as / before %q", s)
	}
	s = s[size:]
	var field strings.Builder
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		switch {
		case r == '\\' && strings.HasPrefix(s[size:], string(d)):
			field.WriteRune(d)
			s = s[size+utf8.RuneLen(d):]
			continue
		case r == d:
			fields = append(fields, field.String())
			field.Reset()
			s = s[size:]
			if len(fields) == n {
				return fields, s, nil
			}
			continue
		}
		field.WriteRune(r)
		s = s[size:]
	}
	fields = append(fields, field.String())
	if len(fields) < n {
		return nil, "", fmt.Errorf("expected %d fields separated by %c", n, d)
	}
	return fields, "", nil
}

// cutFlags splits the remainder of a delimited argument into the flag
// letters attached to the closing delimiter and the text after them.
func cutFlags(remainder string) (flags, rest string) {
	if remainder == "" || unicode.IsSpace(rune(remainder[0])) {
		return "", strings.TrimSpace(remainder)
	}
	flags, rest = splitCommand(remainder)
	return flags, rest
}
