package expression

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/autobrr/tqv/pkg/torrent"
)

func CheckTorrentSingleMatch(t *torrent.Torrent, expressions []CompiledExpression) (bool, error) {
	match, _, err := CheckTorrentSingleMatchWithReason(t, expressions)
	return match, err
}

// CheckTorrentSingleMatchWithReason reports whether any expression matches
// and returns the text of the first one that did.
func CheckTorrentSingleMatchWithReason(t *torrent.Torrent, expressions []CompiledExpression) (bool, string, error) {
	env := &evalContext{Torrent: t}

	for _, expression := range expressions {
		result, err := expr.Run(expression.Program, env)
		if err != nil {
			return false, "", fmt.Errorf("check expression: %w", err)
		}

		expResult, ok := result.(bool)
		if !ok {
			return false, "", fmt.Errorf("type assert expression result: %T", result)
		}

		if expResult {
			return true, expression.Text, nil
		}
	}

	return false, "", nil
}

func CheckTorrentAllMatch(t *torrent.Torrent, expressions []CompiledExpression) (bool, error) {
	env := &evalContext{Torrent: t}

	for _, expression := range expressions {
		result, err := expr.Run(expression.Program, env)
		if err != nil {
			return false, fmt.Errorf("check expression: %w", err)
		}

		expResult, ok := result.(bool)
		if !ok {
			return false, fmt.Errorf("type assert expression result: %T", result)
		}

		if !expResult {
			return false, nil
		}
	}

	return true, nil
}
