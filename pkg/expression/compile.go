package expression

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/autobrr/tqv/pkg/config"
	"github.com/autobrr/tqv/pkg/regex"
	"github.com/autobrr/tqv/pkg/torrent"
)

// evalContext is the environment expressions run against. Torrent fields
// are promoted so filters can reference Name, Progress, Peers and so on.
type evalContext struct {
	*torrent.Torrent
}

func (e *evalContext) IsDownloading() bool {
	return e.Torrent != nil && e.Torrent.Status == torrent.StatusDownloading
}

func (e *evalContext) IsPaused() bool {
	return e.Torrent != nil && e.Torrent.Status == torrent.StatusPaused
}

func (e *evalContext) Complete() bool {
	return e.Torrent != nil && e.Torrent.Progress >= 100
}

// DownRate is the download rate in bytes per second, zero when unknown.
func (e *evalContext) DownRate() int64 {
	if e.Torrent == nil || e.Torrent.DownSpeed == nil {
		return 0
	}
	return *e.Torrent.DownSpeed
}

func (e *evalContext) UpRate() int64 {
	if e.Torrent == nil || e.Torrent.UpSpeed == nil {
		return 0
	}
	return *e.Torrent.UpSpeed
}

// EtaSeconds returns -1 when the ETA is unknown.
func (e *evalContext) EtaSeconds() float64 {
	if e.Torrent == nil || e.Torrent.ETA < 0 {
		return -1
	}
	return e.Torrent.ETA.Seconds()
}

func (e *evalContext) RegexMatch(pattern string) bool {
	if e.Torrent == nil {
		return false
	}

	p, err := regex.Compile(pattern)
	if err != nil {
		return false
	}

	match, err := regex.Check(e.Torrent.Name, p)
	if err != nil {
		return false
	}

	return match
}

// RegexMatchAny checks the torrent name against a comma-separated pattern list.
// Invalid patterns are skipped.
func (e *evalContext) RegexMatchAny(patternsStr string) bool {
	if e.Torrent == nil {
		return false
	}

	var patterns []*regex.Pattern
	for _, p := range splitPatterns(patternsStr) {
		compiled, err := regex.Compile(p)
		if err != nil {
			continue
		}
		patterns = append(patterns, compiled)
	}

	match, err := regex.CheckAny(e.Torrent.Name, patterns)
	if err != nil {
		return false
	}

	return match
}

// RegexMatchAll is false when any pattern in the list is invalid.
func (e *evalContext) RegexMatchAll(patternsStr string) bool {
	if e.Torrent == nil {
		return false
	}

	patterns, err := regex.CompileList(splitPatterns(patternsStr))
	if err != nil {
		return false
	}

	match, err := regex.CheckAll(e.Torrent.Name, patterns)
	if err != nil {
		return false
	}

	return match
}

func Compile(filter *config.FilterConfiguration) (*Expressions, error) {
	exp := new(Expressions)
	if filter == nil {
		return exp, nil
	}

	// validate all regex patterns in expressions
	patterns, err := getAllPatternsFromFilter(filter)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}

	if err := regex.ValidatePatterns(patterns); err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}

	if exp.Ignores, err = compileList("ignore", filter.Ignore); err != nil {
		return nil, err
	}
	if exp.Pauses, err = compileList("pause", filter.Pause); err != nil {
		return nil, err
	}
	if exp.Resumes, err = compileList("resume", filter.Resume); err != nil {
		return nil, err
	}

	return exp, nil
}

// CompileOne compiles a single ad-hoc boolean expression.
func CompileOne(text string) (CompiledExpression, error) {
	program, err := expr.Compile(text, expr.Env(&evalContext{}), expr.AsBool())
	if err != nil {
		return CompiledExpression{}, fmt.Errorf("compile expression: %q: %w", text, err)
	}

	return CompiledExpression{Program: program, Text: text}, nil
}

func compileList(kind string, texts []string) ([]CompiledExpression, error) {
	var compiled []CompiledExpression
	for _, text := range texts {
		program, err := expr.Compile(text, expr.Env(&evalContext{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile %s expression: %q: %w", kind, text, err)
		}

		compiled = append(compiled, CompiledExpression{Program: program, Text: text})
	}

	return compiled, nil
}
