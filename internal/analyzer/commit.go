package analyzer

import (
	gogit "github.com/go-git/go-git/v5"
)

// headCommit returns the repository HEAD hash, or "" when the root is not a
// git work tree. The commit stamp is best-effort and silently omitted.
func headCommit(root string) string {
	repo, err := gogit.PlainOpenWithOptions(root, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	ref, err := repo.Head()
	if err != nil {
		return ""
	}
	return ref.Hash().String()
}
