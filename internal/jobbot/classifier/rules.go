package classifier

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// fieldRule extracts one labeled value. Group 2 holds the value; the value
// runs to the next comma, newline or end of text.
type fieldRule struct {
	field   string
	pattern *regexp.Regexp
}

const (
	fieldClient   = "client"
	fieldJob      = "job"
	fieldLocation = "location"
)

// fieldRules are independent of each other. The first match per field wins.
var fieldRules = []fieldRule{
	{field: fieldClient, pattern: regexp.MustCompile(`(?i)\b(client|name)\s*[:\-]\s*(.+?)(?:,|\n|$)`)},
	{field: fieldJob, pattern: regexp.MustCompile(`(?i)\b(job|for)\b\s*[:\-]?\s*(.+?)(?:,|\n|$)`)},
	{field: fieldLocation, pattern: regexp.MustCompile(`(?i)\b(address|at)\b\s*[:\-]?\s*(.+?)(?:,|\n|$)`)},
}

// budgetPattern accepts "$750", "$2.5k", "5k", "5 thousand" and "300$".
// Groups 1/2 belong to the leading-dollar form, 3/4 to the trailing-unit form.
var budgetPattern = regexp.MustCompile(
	`(?i)(?:\$\s*(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)(?:\s*(k|thousand)\b)?` +
		`|(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)\s*(?:(k|thousand)\b|\$))`)

// relativeDays maps lower-cased phrases to a day offset, checked in order.
var relativeDays = []struct {
	phrase string
	days   int
}{
	{phrase: "tomorrow", days: 1},
	{phrase: "next week", days: 7},
}

func extractFields(text string) map[string]string {
	out := make(map[string]string, len(fieldRules))
	for _, rule := range fieldRules {
		if _, ok := out[rule.field]; ok {
			continue
		}
		m := rule.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v := strings.TrimSpace(m[2]); v != "" {
			out[rule.field] = v
		}
	}
	return out
}

func extractBudget(text string) (float64, bool) {
	m := budgetPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	number, unit := m[1], m[2]
	if number == "" {
		number, unit = m[3], m[4]
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(number, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(unit) {
	case "k", "thousand":
		value *= 1000
	}
	return value, true
}

func resolveSchedule(text string, now time.Time) (time.Time, bool) {
	lower := strings.ToLower(text)
	for _, rd := range relativeDays {
		if strings.Contains(lower, rd.phrase) {
			return now.AddDate(0, 0, rd.days), true
		}
	}
	return time.Time{}, false
}
