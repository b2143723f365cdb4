package directive

import (
	"regexp"
	"strings"
)

// Classifier flags commands that look destructive. It is a syntactic
// heuristic used to raise the confirmation prompt's severity; it never
// blocks execution on its own.
type Classifier struct {
	keywords      *regexp.Regexp
	redirectChars string
}

// NewClassifier matches keywords as whole words, case-insensitively. Any
// character of redirectChars anywhere in the command also makes it critical.
func NewClassifier(keywords []string, redirectChars string) *Classifier {
	c := &Classifier{redirectChars: redirectChars}
	var quoted []string
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(k))
	}
	if len(quoted) > 0 {
		c.keywords = regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	}
	return c
}

func (c *Classifier) Classify(command string) Risk {
	if c.redirectChars != "" && strings.ContainsAny(command, c.redirectChars) {
		return Critical
	}
	if c.keywords != nil && c.keywords.MatchString(command) {
		return Critical
	}
	return Normal
}
