package strategy

import (
	"regexp"
	"sort"
)

var (
	cssImportRe   = regexp.MustCompile(`@import\s+(?:url\()?["']([^"')]+)["']`)
	cssClassRe    = regexp.MustCompile(`(?m)\.([A-Za-z_][\w-]*)\s*[,{:\s]`)
	cssIDRe       = regexp.MustCompile(`(?m)#([A-Za-z_][\w-]*)\s*[,{:\s]`)
	cssVarRe      = regexp.MustCompile(`(--[\w-]+)\s*:`)
	cssKeyframeRe = regexp.MustCompile(`@keyframes\s+([\w-]+)`)
	cssMediaRe    = regexp.MustCompile(`@media\s+([^{]+)\{`)
)

// AnalyzeCSS emits the File node with selector/variable/keyframe/media
// metadata and @import edges. Duplicate selectors are deduped.
func AnalyzeCSS(in *Input) *Result {
	res := newResult(in)
	text := rootText(in)

	for _, m := range cssImportRe.FindAllStringSubmatch(text, -1) {
		res.addImport(m[1])
	}

	file := res.Nodes[0]
	if classes := uniqueMatches(cssClassRe, text); len(classes) > 0 {
		file.SetMeta("classes", classes)
	}
	if ids := uniqueMatches(cssIDRe, text); len(ids) > 0 {
		file.SetMeta("ids", ids)
	}
	if vars := uniqueMatches(cssVarRe, text); len(vars) > 0 {
		file.SetMeta("variables", vars)
	}
	if kf := uniqueMatches(cssKeyframeRe, text); len(kf) > 0 {
		file.SetMeta("keyframes", kf)
	}
	if media := uniqueMatches(cssMediaRe, text); len(media) > 0 {
		file.SetMeta("mediaQueries", len(media))
	}
	return res
}

// uniqueMatches returns the sorted, deduped first-capture matches.
func uniqueMatches(re *regexp.Regexp, text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	sort.Strings(out)
	return out
}
