package regex

import "github.com/dlclark/regexp2"

// Pattern is a compiled regexp2 expression together with its source text.
type Pattern struct {
	Text       string
	Expression *regexp2.Regexp
}

func (p *Pattern) String() string {
	return p.Text
}
