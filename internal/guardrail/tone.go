package guardrail

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// DefaultTonePatterns flag shaming or judgmental language.
var DefaultTonePatterns = []string{
	`\byou'?re\s+overspending\b`,
	`\bbad\s+financial\s+habits?\b`,
	`\birresponsible\b`,
	`\bcareless\b`,
	`\bwasting\s+money\b`,
	`\bpoor\s+choices?\b`,
	`\bfinancial\s+mistakes?\b`,
	`\bbad\s+decisions?\b`,
	`\bfoolish\b`,
	`\bstupid\b`,
	`\breckless\b`,
}

// ToneScreen matches text against a list of case-insensitive patterns.
type ToneScreen struct {
	patterns []*regexp.Regexp
	mu       sync.RWMutex
}

// NewToneScreen compiles patterns. An empty list uses DefaultTonePatterns.
func NewToneScreen(patterns []string) (*ToneScreen, error) {
	ts := &ToneScreen{}
	if err := ts.UpdatePatterns(patterns); err != nil {
		return nil, err
	}
	return ts, nil
}

// UpdatePatterns replaces the pattern list.
func (ts *ToneScreen) UpdatePatterns(patterns []string) error {
	if len(patterns) == 0 {
		patterns = DefaultTonePatterns
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if !strings.HasPrefix(p, "(?i)") {
			p = "(?i)" + p
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("failed to compile tone pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}

	ts.mu.Lock()
	ts.patterns = compiled
	ts.mu.Unlock()
	return nil
}

// Screen returns every matched phrase, lowercased, in pattern order.
func (ts *ToneScreen) Screen(text string) []string {
	if text == "" {
		return nil
	}

	ts.mu.RLock()
	defer ts.mu.RUnlock()

	var violations []string
	for _, re := range ts.patterns {
		for _, match := range re.FindAllString(text, -1) {
			violations = append(violations, strings.ToLower(match))
		}
	}
	return violations
}

// Clean reports whether text has no violations.
func (ts *ToneScreen) Clean(text string) bool {
	return len(ts.Screen(text)) == 0
}

// PatternCount returns the number of loaded patterns.
func (ts *ToneScreen) PatternCount() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return len(ts.patterns)
}

// Replace returns text when it is clean and fallback otherwise, along with
// any violations found.
func (ts *ToneScreen) Replace(text, fallback string) (string, []string) {
	violations := ts.Screen(text)
	if len(violations) > 0 {
		return fallback, violations
	}
	return text, nil
}
