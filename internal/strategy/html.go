package strategy

import "regexp"

var (
	htmlScriptRe = regexp.MustCompile(`<script[^>]+src=["']([^"']+)["']`)
	htmlLinkRe   = regexp.MustCompile(`<link[^>]+href=["']([^"']+)["']`)
)

// AnalyzeHTML emits the File node plus IMPORTS edges for script and
// stylesheet references.
func AnalyzeHTML(in *Input) *Result {
	res := newResult(in)
	text := rootText(in)

	for _, m := range htmlScriptRe.FindAllStringSubmatch(text, -1) {
		res.addImport(m[1])
	}
	for _, m := range htmlLinkRe.FindAllStringSubmatch(text, -1) {
		res.addImport(m[1])
	}
	return res
}
