package expression

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/autobrr/tqv/pkg/config"
)

// matches the string literal passed to a RegexMatch* call
var regexCallPattern = regexp2.MustCompile(`RegexMatch(?:Any|All)?\(\s*"((?:[^"\\]|\\.)*)"\s*\)`, regexp2.None)

func getAllPatternsFromFilter(filter *config.FilterConfiguration) ([]string, error) {
	var patterns []string

	lists := [][]string{filter.Ignore, filter.Pause, filter.Resume}
	for _, list := range lists {
		for _, text := range list {
			m, err := regexCallPattern.FindStringMatch(text)
			for m != nil {
				unquoted := strings.ReplaceAll(m.GroupByNumber(1).String(), `\\`, `\`)
				unquoted = strings.ReplaceAll(unquoted, `\"`, `"`)
				patterns = append(patterns, splitPatterns(unquoted)...)

				m, err = regexCallPattern.FindNextMatch(m)
			}
			if err != nil {
				return nil, fmt.Errorf("scan expression %q: %w", text, err)
			}
		}
	}

	return patterns, nil
}

func splitPatterns(patternsStr string) []string {
	var patterns []string
	for _, p := range strings.Split(patternsStr, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}

	return patterns
}
