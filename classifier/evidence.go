package classifier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const maxSnippetLen = 160

// patterns is a set of alternative regular expressions
type patterns []*regexp.Regexp

func compile(exprs ...string) patterns {
	p := make(patterns, len(exprs))
	for i, e := range exprs {
		p[i] = regexp.MustCompile("(?i)" + e)
	}
	return p
}

// in reports whether any pattern matches text
func (p patterns) in(text string) bool {
	for _, re := range p {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// count returns how many of the patterns match text
func (p patterns) count(text string) int {
	n := 0
	for _, re := range p {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

// evidenceLines returns up to maxEvidence lines of text matching any pattern,
// formatted with their 1-based line number.
func evidenceLines(text string, p patterns) []string {
	var lines []string
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !p.in(line) {
			continue
		}
		lines = append(lines, fmt.Sprintf("Regel %d: \"%s\"", i+1, snippet(line)))
		if len(lines) == maxEvidence {
			break
		}
	}
	if len(lines) == 0 {
		if span, ok := spanningEvidence(text, p); ok {
			lines = append(lines, span)
		}
	}
	return lines
}

// spanningEvidence covers matches that wrap across a line break. The whole
// lines around the first match are joined and cited from its first line.
func spanningEvidence(text string, p patterns) (string, bool) {
	for _, re := range p {
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		start := strings.LastIndexByte(text[:loc[0]], '\n') + 1
		end := len(text)
		if i := strings.IndexByte(text[loc[1]:], '\n'); i >= 0 {
			end = loc[1] + i
		}
		joined := strings.Join(strings.Fields(text[start:end]), " ")
		if joined == "" {
			continue
		}
		line := strings.Count(text[:loc[0]], "\n") + 1
		return fmt.Sprintf("Regel %d: \"%s\"", line, snippet(joined)), true
	}
	return "", false
}

func snippet(line string) string {
	if utf8.RuneCountInString(line) <= maxSnippetLen {
		return line
	}
	runes := []rune(line)
	return string(runes[:maxSnippetLen]) + "…"
}

var (
	dayFirstDate  = regexp.MustCompile(`\b(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})\b`)
	yearFirstDate = regexp.MustCompile(`\b(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})\b`)
	writtenDate   = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(januari|februari|maart|april|mei|juni|juli|augustus|september|oktober|november|december)\s+(\d{4})\b`)
)

var dutchMonths = map[string]time.Month{
	"januari": time.January, "februari": time.February, "maart": time.March,
	"april": time.April, "mei": time.May, "juni": time.June, "juli": time.July,
	"augustus": time.August, "september": time.September, "oktober": time.October,
	"november": time.November, "december": time.December,
}

// foundDate is a date-like token and, when it is a real calendar date, its value
type foundDate struct {
	raw   string
	date  time.Time
	valid bool
}

// findDates returns every date-like token in text in order of appearance
// per format.
func findDates(text string) []foundDate {
	var dates []foundDate
	for _, m := range dayFirstDate.FindAllStringSubmatch(text, -1) {
		dates = append(dates, makeDate(m[0], atoi(m[3]), atoi(m[2]), atoi(m[1])))
	}
	for _, m := range yearFirstDate.FindAllStringSubmatch(text, -1) {
		dates = append(dates, makeDate(m[0], atoi(m[1]), atoi(m[2]), atoi(m[3])))
	}
	for _, m := range writtenDate.FindAllStringSubmatch(text, -1) {
		month := dutchMonths[strings.ToLower(m[2])]
		dates = append(dates, makeDate(m[0], atoi(m[3]), int(month), atoi(m[1])))
	}
	return dates
}

func makeDate(raw string, year, month, day int) foundDate {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	valid := year >= 1900 && d.Year() == year && int(d.Month()) == month && d.Day() == day
	return foundDate{raw: raw, date: d, valid: valid}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
