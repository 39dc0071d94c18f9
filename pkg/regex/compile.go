package regex

import (
	"sync"
	"time"

	"github.com/dlclark/regexp2"
)

// bounds a single match so a pathological pattern cannot stall a listing
const matchTimeout = 100 * time.Millisecond

var cache sync.Map

func Compile(pattern string) (*Pattern, error) {
	if p, ok := cache.Load(pattern); ok {
		return p.(*Pattern), nil
	}

	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = matchTimeout

	p := &Pattern{
		Text:       pattern,
		Expression: re,
	}
	cache.Store(pattern, p)

	return p, nil
}

// CompileList compiles every pattern, failing on the first invalid one.
func CompileList(patterns []string) ([]*Pattern, error) {
	compiled := make([]*Pattern, 0, len(patterns))
	for _, p := range patterns {
		c, err := Compile(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, c)
	}

	return compiled, nil
}

func ValidatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if _, err := Compile(pattern); err != nil {
			return err
		}
	}
	return nil
}
