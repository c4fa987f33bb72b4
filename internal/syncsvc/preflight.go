package syncsvc

import (
	"context"
	"os/exec"
	"strings"
)

// execCommand is overridden in tests so subprocess invocation stays
// testable without shelling out for real.
var execCommand = exec.Command

// runPreflight runs a collection's updateCmd and, if requested, a git
// pull, both best-effort: every error is swallowed.
func runPreflight(ctx context.Context, root, updateCmd string, gitPull bool) {
	if updateCmd != "" {
		runShellBestEffort(ctx, root, updateCmd)
	}
	if gitPull && isGitWorkTree(ctx, root) {
		cmd := execCommand("git", "-C", root, "pull")
		_ = cmd.Run()
	}
}

// isGitWorkTree reports whether root is inside a Git working tree, per
// "git rev-parse --is-inside-work-tree".
func isGitWorkTree(ctx context.Context, root string) bool {
	cmd := execCommand("git", "-C", root, "rev-parse", "--is-inside-work-tree")
	out, err := cmd.Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) == "true"
}

// runShellBestEffort runs updateCmd through the platform shell, rooted
// at dir, discarding any error.
func runShellBestEffort(ctx context.Context, dir, updateCmd string) {
	cmd := execCommand("sh", "-c", updateCmd)
	cmd.Dir = dir
	_ = cmd.Run()
}
