package strategy

import "regexp"

var dockerFromRe = regexp.MustCompile(`(?mi)^FROM\s+(\S+)`)

// AnalyzeDockerfile emits the File node with FROM image references in its
// "images" metadata. No linkage pass reads this metadata; image Components
// are created only for Kubernetes workloads.
func AnalyzeDockerfile(in *Input) *Result {
	res := newResult(in)

	var images []string
	seen := map[string]bool{}
	for _, m := range dockerFromRe.FindAllStringSubmatch(rootText(in), -1) {
		ref := m[1]
		if ref == "scratch" || seen[ref] {
			continue
		}
		seen[ref] = true
		images = append(images, ref)
	}
	if len(images) > 0 {
		res.Nodes[0].SetMeta("images", images)
	}
	return res
}
