package quality

import (
	"regexp"
	"strings"
)

// loopSpan is one loop body located inside a snippet.
type loopSpan struct {
	Start int // byte offset of the loop opener
	Body  string
}

var loopOpenerRe = regexp.MustCompile(`\b(for|while)\s*\([^)]*\)\s*\{|\bforeach\s*\(`)

// findLoops locates loop bodies in a snippet. For `for(...)/while(...)` the
// body is the brace-balanced block; for `foreach(` (and `.forEach(` when
// includeForEach is set) the body is chosen by callBody.
func findLoops(snippet string, includeForEach bool) []loopSpan {
	var spans []loopSpan

	for _, loc := range loopOpenerRe.FindAllStringIndex(snippet, -1) {
		opener := snippet[loc[0]:loc[1]]
		if strings.HasSuffix(opener, "{") {
			body := balancedBlock(snippet, loc[1]-1, '{', '}')
			spans = append(spans, loopSpan{Start: loc[0], Body: body})
		} else {
			spans = append(spans, loopSpan{Start: loc[0], Body: callBody(snippet, loc[1]-1)})
		}
	}

	if includeForEach {
		for _, loc := range forEachRe.FindAllStringIndex(snippet, -1) {
			spans = append(spans, loopSpan{Start: loc[0], Body: callBody(snippet, loc[1]-1)})
		}
	}
	return spans
}

// callBody returns the body of a foreach-style opener at the '(' position.
// A braced body inside the call (C# foreach statements, arrow callbacks with
// blocks) is brace-balanced; otherwise the parenthesized argument itself is
// the body (expression callbacks).
func callBody(s string, open int) string {
	parenBody := balancedBlock(s, open, '(', ')')
	if brace := strings.IndexByte(parenBody, '{'); brace >= 0 {
		return balancedBlock(parenBody, brace, '{', '}')
	}
	// C# style: foreach (x in y) { ... } — the block follows the parens.
	after := open + 1 + len(parenBody)
	rest := s[min(after+1, len(s)):]
	trimmed := strings.TrimLeft(rest, " \t\r\n")
	if strings.HasPrefix(trimmed, "{") {
		braceAt := after + 1 + (len(rest) - len(trimmed))
		return balancedBlock(s, braceAt, '{', '}')
	}
	return parenBody
}

var forEachRe = regexp.MustCompile(`\.forEach\s*\(`)

// balancedBlock returns the text between the opener at position open and its
// matching closer. The scan is string-literal aware: single quotes, double
// quotes and backticks are honored, backslash escapes are skipped, and
// template expressions are not nested. Returns the remainder when the block
// never closes (malformed input).
func balancedBlock(s string, open int, opener, closer byte) string {
	depth := 0
	var inStr byte
	for i := open; i < len(s); i++ {
		ch := s[i]
		if inStr != 0 {
			if ch == '\\' {
				i++
				continue
			}
			if ch == inStr {
				inStr = 0
			}
			continue
		}
		switch ch {
		case '\'', '"', '`':
			inStr = ch
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return s[open+1 : i]
			}
		}
	}
	if open+1 < len(s) {
		return s[open+1:]
	}
	return ""
}
