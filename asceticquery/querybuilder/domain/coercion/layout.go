package coercion

import "strings"

// UnixTimestamp is the format of integral seconds since the epoch ("U" in date() notation).
const UnixTimestamp = "U"

var phpTokens = map[rune]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'n': "1",
	'd': "02",
	'j': "2",
	'H': "15",
	'G': "15",
	'h': "03",
	'g': "3",
	'i': "04",
	's': "05",
	'A': "PM",
	'a': "pm",
	'D': "Mon",
	'l': "Monday",
	'M': "Jan",
	'F': "January",
	'T': "MST",
	'e': "MST",
	'P': "-07:00",
	'O': "-0700",
	'u': "000000",
	'v': "000",
}

var goReferenceTokens = []string{"2006", "15:04", "Jan", "Z07:00", "-0700"}

// Layout converts a date format to a Go time layout.
// Formats already written as Go reference layouts are returned unchanged;
// anything else is read in PHP date() notation, where a backslash escapes
// the next character and the "!" and "|" reset markers are dropped.
func Layout(format string) string {
	for _, token := range goReferenceTokens {
		if strings.Contains(format, token) {
			return format
		}
	}

	var b strings.Builder
	escaped := false
	for _, r := range format {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
			continue
		case '!', '|':
			continue
		}
		if token, ok := phpTokens[r]; ok {
			b.WriteString(token)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
