package relational

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Dialect holds the SQL differences the adapter cares about.
type Dialect struct {
	Name        string
	Placeholder sq.PlaceholderFormat
	quote       string
	regex       string
	// regexFold is the case-insensitive operator; empty when the pattern
	// has to carry an inline (?i) flag instead
	regexFold string
}

var (
	PostgreSQL = Dialect{Name: "postgresql", Placeholder: sq.Dollar, quote: `"`, regex: "~", regexFold: "~*"}
	SQLite     = Dialect{Name: "sqlite", Placeholder: sq.Question, quote: `"`, regex: "REGEXP"}
	MySQL      = Dialect{Name: "mysql", Placeholder: sq.Question, quote: "`", regex: "REGEXP"}
)

func DialectByName(name string) (Dialect, bool) {
	switch strings.ToLower(name) {
	case "postgresql", "postgres", "pgsql":
		return PostgreSQL, true
	case "sqlite", "sqlite3":
		return SQLite, true
	case "mysql", "mariadb":
		return MySQL, true
	}
	return Dialect{}, false
}

func (d Dialect) Quote(ident string) string {
	return d.quote + strings.ReplaceAll(ident, d.quote, d.quote+d.quote) + d.quote
}

// Regex returns the match operator and the pattern adjusted for flags.
func (d Dialect) Regex(pattern string, caseInsensitive bool) (string, string) {
	if !caseInsensitive {
		return d.regex, pattern
	}
	if d.regexFold != "" {
		return d.regexFold, pattern
	}
	return d.regex, "(?i)" + pattern
}
