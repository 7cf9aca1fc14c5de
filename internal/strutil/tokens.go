package strutil

import (
	"iter"
	"strings"
)

// Tokens iterates over a comma-separated list of tokens, trimming each one of whitespaces
// and of parameters. Empty elements are yielded as well, so the caller can decide whether
// they are legal.
func Tokens(value string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for len(value) > 0 {
			var token string
			comma := strings.IndexByte(value, ',')
			if comma == -1 {
				token, value = value, ""
			} else {
				token, value = value[:comma], value[comma+1:]
			}

			token, _ = CutHeader(token)
			if !yield(StripWS(token)) {
				return
			}
		}
	}
}

// Join glues the tokens back into a comma-separated list, being the opposite of Tokens.
func Join(tokens iter.Seq[string]) string {
	var b strings.Builder

	for token := range tokens {
		if b.Len() > 0 {
			b.WriteString(", ")
		}

		b.WriteString(token)
	}

	return b.String()
}
